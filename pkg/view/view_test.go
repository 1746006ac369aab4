package view

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agromart.store/app/internal/modules/cart"
	"agromart.store/app/internal/modules/catalog"
	"agromart.store/app/internal/modules/orders"
)

func TestPageCount(t *testing.T) {
	assert.Equal(t, 1, PageCount(0, 30))
	assert.Equal(t, 1, PageCount(30, 30))
	assert.Equal(t, 2, PageCount(31, 30))
	assert.Equal(t, 1, PageCount(10, 0))
}

func TestCartFromItems(t *testing.T) {
	items := []cart.Item{
		{ID: 1, ProductID: 7, Quantity: 3, Product: &catalog.Product{ID: 7, Name: "Seeds", Price: decimal.RequireFromString("10.25")}},
		{ID: 2, ProductID: 8, Quantity: 1, Product: &catalog.Product{ID: 8, Name: "Trowel", Price: decimal.RequireFromString("150")}},
	}
	v := CartFromItems(items)

	assert.Equal(t, 4, v.Count)
	assert.True(t, decimal.RequireFromString("180.75").Equal(v.Total))
	require.Len(t, v.Items, 2)
	assert.Equal(t, "Seeds", v.Items[0].ProductName)
	assert.True(t, decimal.RequireFromString("30.75").Equal(v.Items[0].LineTotal))
}

func TestCartFromItemsEmpty(t *testing.T) {
	v := CartFromItems(nil)
	assert.NotNil(t, v.Items)
	assert.Zero(t, v.Count)
	assert.True(t, v.Total.IsZero())
}

func TestNewReceipt(t *testing.T) {
	reason := "gateway timeout"
	o := orders.Order{ID: 3, TotalAmount: decimal.RequireFromString("241.00"), Currency: "INR", FailureReason: &reason}
	r := NewReceipt(o, nil)

	assert.Equal(t, "₹241.00", r.TotalDisplay)
	assert.Equal(t, reason, r.FailureReason)
	assert.NotNil(t, r.Lines)
}

func TestNewAdminOrdersListPage(t *testing.T) {
	ref := "order_abc"
	res := orders.AdminListResult{
		Items: []orders.Order{{ID: 9, Email: "a@b.c", Status: orders.StatusPaid, Currency: "INR",
			TotalAmount: decimal.RequireFromString("99.5"), GatewayOrderRef: &ref,
			CreatedAt: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)}},
		Total: 61,
	}
	p := NewAdminOrdersListPage(res, "a@b", "paid", 1, 30)

	assert.Equal(t, 3, p.TotalPages)
	require.Len(t, p.Items, 1)
	assert.Equal(t, "order_abc", p.Items[0].Reference)
	assert.Equal(t, "₹99.50", p.Items[0].Total)
	assert.Equal(t, "2026-03-01 09:30", p.Items[0].CreatedAt)
}

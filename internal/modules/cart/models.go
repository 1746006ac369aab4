package cart

import (
	"time"

	"github.com/shopspring/decimal"

	"agromart.store/app/internal/modules/catalog"
	"agromart.store/app/internal/shared/money"
)

// Item is one cart line. A user holds at most one row per product.
type Item struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	UserID    uint             `gorm:"not null;uniqueIndex:ux_cart_items_user_product,priority:1" json:"-"`
	ProductID uint             `gorm:"not null;uniqueIndex:ux_cart_items_user_product,priority:2" json:"product_id"`
	Product   *catalog.Product `gorm:"constraint:OnDelete:CASCADE" json:"product,omitempty"`
	Quantity  int              `gorm:"not null" json:"quantity"`
	AddedAt   time.Time        `gorm:"autoCreateTime" json:"added_at"`
}

func (Item) TableName() string { return "cart_items" }

// LineTotal is zero when the product was not loaded.
func (it Item) LineTotal() decimal.Decimal {
	if it.Product == nil {
		return decimal.Zero
	}
	return money.LineTotal(it.Product.Price, it.Quantity)
}

// Summary is the header badge view of a cart.
type Summary struct {
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

// TotalOf sums line totals. An empty slice totals zero.
func TotalOf(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.LineTotal())
	}
	return total
}

package view

import (
	"github.com/shopspring/decimal"

	"agromart.store/app/internal/modules/cart"
)

type CartLine struct {
	ID          uint            `json:"id"`
	ProductID   uint            `json:"product_id"`
	ProductName string          `json:"product_name"`
	ImageURL    string          `json:"image_url,omitempty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

type Cart struct {
	Items []CartLine      `json:"items"`
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

// CartFromItems expects items loaded with their Product.
func CartFromItems(items []cart.Item) Cart {
	v := Cart{Items: make([]CartLine, 0, len(items)), Total: cart.TotalOf(items)}
	for _, it := range items {
		line := CartLine{ID: it.ID, ProductID: it.ProductID, Quantity: it.Quantity, LineTotal: it.LineTotal()}
		if it.Product != nil {
			line.ProductName = it.Product.Name
			line.ImageURL = it.Product.ImageURL
			line.UnitPrice = it.Product.Price
		}
		v.Count += it.Quantity
		v.Items = append(v.Items, line)
	}
	return v
}

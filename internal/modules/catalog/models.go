package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"type:varchar(100);not null" json:"name"`
	Slug     string `gorm:"type:varchar(120);not null;uniqueIndex:ux_categories_slug" json:"slug"`
	Icon     string `gorm:"type:varchar(50);not null;default:'fas fa-leaf'" json:"icon"`
	ImageURL string `gorm:"type:varchar(255)" json:"image_url,omitempty"`
}

func (Category) TableName() string { return "categories" }

type Product struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	CategoryID  uint            `gorm:"not null;index:ix_products_category_id" json:"category_id"`
	Category    *Category       `json:"category,omitempty"`
	Name        string          `gorm:"type:varchar(200);not null" json:"name"`
	Slug        string          `gorm:"type:varchar(220);not null;uniqueIndex:ux_products_slug" json:"slug"`
	ImageURL    string          `gorm:"type:varchar(255)" json:"image_url,omitempty"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Description string          `gorm:"type:text" json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (Product) TableName() string { return "products" }

package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusPending = "pending"
	StatusPaid    = "paid"
	StatusFailed  = "failed"
)

// Order is created pending at checkout and flips to paid exactly once, in
// MarkPaidTx. TotalAmount is fixed at insert.
type Order struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	UserID uint `gorm:"not null;index:ix_orders_user_id" json:"user_id"`

	FirstName string `gorm:"type:varchar(100);not null" json:"first_name"`
	LastName  string `gorm:"type:varchar(100);not null" json:"last_name"`
	Email     string `gorm:"type:varchar(254);not null" json:"email"`
	Phone     string `gorm:"type:varchar(15);not null" json:"phone"`
	Address   string `gorm:"type:text;not null" json:"address"`
	City      string `gorm:"type:varchar(100);not null" json:"city"`
	State     string `gorm:"type:varchar(100);not null" json:"state"`
	PinCode   string `gorm:"type:varchar(10);not null" json:"pin_code"`

	TotalAmount decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_amount"`
	Currency    string          `gorm:"type:char(3);not null" json:"currency"`
	Status      string          `gorm:"type:varchar(16);not null;index:ix_orders_status" json:"status"`

	GatewayOrderRef   *string `gorm:"type:varchar(255);uniqueIndex:ux_orders_gateway_order_ref" json:"gateway_order_ref,omitempty"`
	GatewayPaymentRef *string `gorm:"type:varchar(255)" json:"gateway_payment_ref,omitempty"`
	GatewaySignature  *string `gorm:"type:varchar(255)" json:"-"`
	IsPaid            bool    `gorm:"not null;default:false" json:"is_paid"`

	CartFingerprint string  `gorm:"type:char(64);not null;index:ix_orders_user_fingerprint" json:"-"`
	FailureReason   *string `gorm:"type:varchar(255)" json:"failure_reason,omitempty"`

	PaidAt    *time.Time `json:"paid_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (Order) TableName() string { return "orders" }

func (o Order) FullName() string { return o.FirstName + " " + o.LastName }

// Line snapshots one cart line at checkout time.
type Line struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	OrderID     uint            `gorm:"not null;index:ix_order_lines_order_id" json:"-"`
	ProductID   uint            `gorm:"not null" json:"product_id"`
	ProductName string          `gorm:"type:varchar(200);not null" json:"product_name"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"line_total"`
}

func (Line) TableName() string { return "order_lines" }

package payments

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// CallbackEvent is the audit row written for every callback, whatever the outcome.
type CallbackEvent struct {
	ID                string         `gorm:"type:char(36);primaryKey"`
	GatewayOrderRef   string         `gorm:"type:varchar(255);not null;index:ix_payment_callbacks_order_ref"`
	GatewayPaymentRef string         `gorm:"type:varchar(255);not null"`
	Outcome           string         `gorm:"type:varchar(32);not null"`
	OrderID           *uint          `gorm:"index:ix_payment_callbacks_order_id"`
	PayloadJSON       datatypes.JSON `gorm:"not null"`
	Error             *string        `gorm:"type:varchar(255)"`
	ReceivedAt        time.Time      `gorm:"not null"`
}

func (CallbackEvent) TableName() string { return "payment_callbacks" }

func (s *CallbackService) record(ctx context.Context, p CallbackPayload, res CallbackResult, at time.Time) {
	payload, _ := json.Marshal(p)
	ev := CallbackEvent{
		ID:                uuid.NewString(),
		GatewayOrderRef:   truncate(p.GatewayOrderRef, 255),
		GatewayPaymentRef: truncate(p.GatewayPaymentRef, 255),
		Outcome:           string(res.Outcome),
		PayloadJSON:       datatypes.JSON(payload),
		ReceivedAt:        at,
	}
	if res.OrderID != 0 {
		id := res.OrderID
		ev.OrderID = &id
	}
	if res.Err != nil {
		msg := truncate(res.Err.Error(), 255)
		ev.Error = &msg
	}
	err := s.db.WithContext(context.WithoutCancel(ctx)).Create(&ev).Error
	if err != nil {
		s.logger.ErrorContext(ctx, "payment_callback_audit_failed", "outcome", res.Outcome, "err", err)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/razorpay/razorpay-go/utils"

	"agromart.store/app/internal/config"
)

type CreateOrderRequest struct {
	AmountMinor int64
	Currency    string
	Receipt     string
	AutoCapture bool
}

type GatewayOrder struct {
	ID          string
	AmountMinor int64
	Currency    string
	Status      string
}

// CallbackPayload is what the gateway's client widget posts back.
type CallbackPayload struct {
	GatewayOrderRef   string `form:"razorpay_order_id" json:"razorpay_order_id"`
	GatewayPaymentRef string `form:"razorpay_payment_id" json:"razorpay_payment_id"`
	Signature         string `form:"razorpay_signature" json:"razorpay_signature"`
}

type Gateway interface {
	// KeyID is the public key handed to the client widget.
	KeyID() string
	CreateOrder(ctx context.Context, req CreateOrderRequest) (GatewayOrder, error)
	// VerifySignature returns ErrSignatureMismatch for a forged or
	// tampered payload.
	VerifySignature(ctx context.Context, p CallbackPayload) error
}

// NewGateway builds the driver selected by cfg.Driver.
func NewGateway(cfg config.GatewayConfig, logger *slog.Logger) (Gateway, error) {
	switch cfg.Driver {
	case "razorpay":
		return NewRazorpayGateway(cfg, logger), nil
	case "mock":
		secret := cfg.KeySecret
		if secret == "" {
			secret = "mock_secret"
		}
		return NewMockGateway("rzp_test_mock", secret), nil
	default:
		return nil, fmt.Errorf("payments: unknown gateway driver %q", cfg.Driver)
	}
}

// Sign computes hex(HMAC-SHA256(secret, orderRef|paymentRef)), the value
// the client widget posts. The SDK only verifies, so the mock driver and the
// callback tool sign with this.
func Sign(secret, orderRef, paymentRef string) string {
	m := hmac.New(sha256.New, []byte(secret))
	m.Write([]byte(orderRef))
	m.Write([]byte("|"))
	m.Write([]byte(paymentRef))
	return hex.EncodeToString(m.Sum(nil))
}

func verifyPayment(secret string, p CallbackPayload) error {
	attrs := map[string]interface{}{
		"razorpay_order_id":   p.GatewayOrderRef,
		"razorpay_payment_id": p.GatewayPaymentRef,
	}
	if !utils.VerifyPaymentSignature(attrs, p.Signature, secret) {
		return ErrSignatureMismatch
	}
	return nil
}

package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	razorpay "github.com/razorpay/razorpay-go"
	rzperrors "github.com/razorpay/razorpay-go/errors"
	"github.com/sony/gobreaker/v2"

	"agromart.store/app/internal/config"
)

// RazorpayGateway wraps the razorpay-go client with a circuit breaker and a
// per-call deadline. It is built explicitly from config; there is no
// package-level client.
type RazorpayGateway struct {
	keyID     string
	keySecret string
	client    *razorpay.Client
	cb        *gobreaker.CircuitBreaker[GatewayOrder]
	logger    *slog.Logger
}

func NewRazorpayGateway(cfg config.GatewayConfig, logger *slog.Logger) *RazorpayGateway {
	if logger == nil {
		logger = slog.Default()
	}
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}

	client := razorpay.NewClient(cfg.KeyID, cfg.KeySecret)
	if cfg.Timeout > 0 {
		client.SetTimeout(timeoutSeconds(cfg.Timeout))
	}
	if base := strings.TrimRight(cfg.BaseURL, "/"); base != "" {
		client.Request.BaseURL = base
	}

	g := &RazorpayGateway{
		keyID:     cfg.KeyID,
		keySecret: cfg.KeySecret,
		client:    client,
		logger:    logger,
	}
	g.cb = gobreaker.NewCircuitBreaker[GatewayOrder](gobreaker.Settings{
		Name:        "razorpay-orders",
		MaxRequests: 1,
		Timeout:     cfg.BreakerCooldown,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= failures
		},
		// A rejected request is our fault, not an outage.
		IsSuccessful: func(err error) bool {
			return err == nil || rejectedByGateway(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("gateway_breaker_state", "name", name, "from", from.String(), "to", to.String())
		},
	})
	return g
}

func (g *RazorpayGateway) KeyID() string { return g.keyID }

func (g *RazorpayGateway) CreateOrder(ctx context.Context, req CreateOrderRequest) (GatewayOrder, error) {
	out, err := g.cb.Execute(func() (GatewayOrder, error) {
		return g.createOrder(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return GatewayOrder{}, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	return out, err
}

type createResult struct {
	body map[string]interface{}
	err  error
}

// createOrder runs the SDK call, which takes no context, on its own
// goroutine so ctx still bounds the caller. The SDK's HTTP timeout ends
// the abandoned call.
func (g *RazorpayGateway) createOrder(ctx context.Context, req CreateOrderRequest) (GatewayOrder, error) {
	capture := 0
	if req.AutoCapture {
		capture = 1
	}
	data := map[string]interface{}{
		"amount":          req.AmountMinor,
		"currency":        req.Currency,
		"receipt":         req.Receipt,
		"payment_capture": capture,
	}

	start := time.Now()
	done := make(chan createResult, 1)
	go func() {
		body, err := g.client.Order.Create(data, nil)
		done <- createResult{body: body, err: err}
	}()

	var res createResult
	select {
	case <-ctx.Done():
		return GatewayOrder{}, fmt.Errorf("%w: %v", ErrGateway, ctx.Err())
	case res = <-done:
	}

	g.logger.InfoContext(ctx, "gateway_create_order",
		"receipt", req.Receipt,
		"ok", res.err == nil,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	if res.err != nil {
		return GatewayOrder{}, fmt.Errorf("%w: %w", ErrGateway, res.err)
	}
	return orderFromBody(res.body)
}

func orderFromBody(body map[string]interface{}) (GatewayOrder, error) {
	id, _ := body["id"].(string)
	if id == "" {
		return GatewayOrder{}, fmt.Errorf("%w: order id missing in response", ErrGateway)
	}
	out := GatewayOrder{ID: id}
	out.Currency, _ = body["currency"].(string)
	out.Status, _ = body["status"].(string)
	if amount, ok := body["amount"].(float64); ok {
		out.AmountMinor = int64(amount)
	}
	return out, nil
}

func (g *RazorpayGateway) VerifySignature(_ context.Context, p CallbackPayload) error {
	return verifyPayment(g.keySecret, p)
}

// rejectedByGateway reports a 4xx answer, which razorpay-go surfaces as a
// BadRequestError.
func rejectedByGateway(err error) bool {
	var bre *rzperrors.BadRequestError
	return errors.As(err, &bre)
}

// timeoutSeconds rounds up; the SDK only takes whole seconds.
func timeoutSeconds(d time.Duration) int16 {
	s := math.Ceil(d.Seconds())
	if s > math.MaxInt16 {
		return math.MaxInt16
	}
	if s < 1 {
		return 1
	}
	return int16(s)
}

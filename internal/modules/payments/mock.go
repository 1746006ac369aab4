package payments

import (
	"context"
	"fmt"
	"sync"
)

// MockGateway issues order_mock_<n> references and signs like Razorpay.
type MockGateway struct {
	keyID  string
	secret string

	mu       sync.Mutex
	seq      int
	failNext error
	created  []CreateOrderRequest
}

func NewMockGateway(keyID, secret string) *MockGateway {
	return &MockGateway{keyID: keyID, secret: secret}
}

func (m *MockGateway) KeyID() string { return m.keyID }

func (m *MockGateway) CreateOrder(ctx context.Context, req CreateOrderRequest) (GatewayOrder, error) {
	if err := ctx.Err(); err != nil {
		return GatewayOrder{}, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failNext; err != nil {
		m.failNext = nil
		return GatewayOrder{}, err
	}
	m.seq++
	m.created = append(m.created, req)
	return GatewayOrder{
		ID:          fmt.Sprintf("order_mock_%d", m.seq),
		AmountMinor: req.AmountMinor,
		Currency:    req.Currency,
		Status:      "created",
	}, nil
}

func (m *MockGateway) VerifySignature(_ context.Context, p CallbackPayload) error {
	return verifyPayment(m.secret, p)
}

// FailNext makes the next CreateOrder return err.
func (m *MockGateway) FailNext(err error) {
	m.mu.Lock()
	m.failNext = err
	m.mu.Unlock()
}

// Created returns the requests seen so far.
func (m *MockGateway) Created() []CreateOrderRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]CreateOrderRequest(nil), m.created...)
}

// SignFor returns the signature the gateway would post for the pair.
func (m *MockGateway) SignFor(orderRef, paymentRef string) string {
	return Sign(m.secret, orderRef, paymentRef)
}

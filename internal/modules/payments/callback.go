package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"agromart.store/app/internal/modules/cart"
	"agromart.store/app/internal/modules/orders"
	"agromart.store/app/internal/shared/dbx"
)

type Outcome string

const (
	OutcomePaid             Outcome = "paid"
	OutcomeAlreadyPaid      Outcome = "already_paid"
	OutcomeInvalidPayload   Outcome = "invalid_payload"
	OutcomeSignatureInvalid Outcome = "signature_invalid"
	OutcomeNotFound         Outcome = "not_found"
	OutcomeGatewayError     Outcome = "gateway_error"
	// OutcomeStoreError is a database failure after the signature checked out.
	OutcomeStoreError       Outcome = "store_error"
)

// CallbackResult says what happened to one callback. Only paid and
// already_paid are successes.
type CallbackResult struct {
	Outcome Outcome
	OrderID uint
	UserID  uint
	Err     error
}

func (r CallbackResult) OK() bool {
	return r.Outcome == OutcomePaid || r.Outcome == OutcomeAlreadyPaid
}

// ReceiptSender is notified after an order is paid.
type ReceiptSender interface {
	SendReceipt(ctx context.Context, o orders.Order, lines []orders.Line) error
}

const maxRefLen = 255

type CallbackService struct {
	db       *gorm.DB
	orders   *orders.Repo
	carts    *cart.Service
	gateway  Gateway
	receipts ReceiptSender
	logger   *slog.Logger
	now      func() time.Time
}

func NewCallbackService(db *gorm.DB, ord *orders.Repo, carts *cart.Service, gw Gateway) *CallbackService {
	return &CallbackService{
		db:      db,
		orders:  ord,
		carts:   carts,
		gateway: gw,
		logger:  slog.Default(),
		now:     time.Now,
	}
}

func (s *CallbackService) SetLogger(logger *slog.Logger) { s.logger = logger }

// SetReceiptSender enables the receipt email. Nil disables it.
func (s *CallbackService) SetReceiptSender(r ReceiptSender) { s.receipts = r }

// Handle verifies and applies one payment callback. Replays of an already
// applied callback return already_paid and write nothing to the order.
func (s *CallbackService) Handle(ctx context.Context, p CallbackPayload) CallbackResult {
	received := s.now()
	return s.finish(ctx, p, s.handle(ctx, p, received), received)
}

// RejectMalformed records a callback whose body could not be decoded at
// all. The decode error is kept on the audit row.
func (s *CallbackService) RejectMalformed(ctx context.Context, p CallbackPayload, cause error) CallbackResult {
	res := CallbackResult{Outcome: OutcomeInvalidPayload, Err: fmt.Errorf("decode callback: %w", cause)}
	return s.finish(ctx, p, res, s.now())
}

func (s *CallbackService) finish(ctx context.Context, p CallbackPayload, res CallbackResult, received time.Time) CallbackResult {
	s.record(ctx, p, res, received)
	s.logger.InfoContext(ctx, "payment_callback",
		"outcome", res.Outcome,
		"order_id", res.OrderID,
		"gateway_order_ref", truncate(p.GatewayOrderRef, 64),
		"gateway_payment_ref", truncate(p.GatewayPaymentRef, 64),
		"err", res.Err,
	)

	if res.Outcome == OutcomePaid {
		s.carts.Invalidate(ctx, res.UserID)
		s.sendReceipt(ctx, res.OrderID)
	}
	return res
}

func (s *CallbackService) handle(ctx context.Context, p CallbackPayload, at time.Time) CallbackResult {
	if !validRef(p.GatewayOrderRef) || !validRef(p.GatewayPaymentRef) || !validRef(p.Signature) {
		return CallbackResult{Outcome: OutcomeInvalidPayload, Err: errors.New("missing or oversized callback field")}
	}

	if err := s.gateway.VerifySignature(ctx, p); err != nil {
		if errors.Is(err, ErrSignatureMismatch) {
			return CallbackResult{Outcome: OutcomeSignatureInvalid, Err: err}
		}
		return CallbackResult{Outcome: OutcomeGatewayError, Err: err}
	}

	var res CallbackResult
	err := dbx.WithTxRetry(ctx, s.db, 3, func(tx *gorm.DB) error {
		o, err := s.orders.FindByGatewayOrderRefTx(ctx, tx, p.GatewayOrderRef)
		if err != nil {
			return err
		}
		res = CallbackResult{OrderID: o.ID, UserID: o.UserID}
		if o.IsPaid {
			res.Outcome = OutcomeAlreadyPaid
			return nil
		}

		flipped, err := s.orders.MarkPaidTx(ctx, tx, o.ID, orders.PaidInput{
			PaymentRef: p.GatewayPaymentRef,
			Signature:  p.Signature,
			At:         at,
		})
		if err != nil {
			return err
		}
		if !flipped {
			res.Outcome = OutcomeAlreadyPaid
			return nil
		}
		if err := s.carts.ClearTx(ctx, tx, o.UserID); err != nil {
			return err
		}
		res.Outcome = OutcomePaid
		return nil
	})
	switch {
	case errors.Is(err, orders.ErrNotFound):
		return CallbackResult{Outcome: OutcomeNotFound, Err: err}
	case err != nil:
		return CallbackResult{Outcome: OutcomeStoreError, OrderID: res.OrderID, Err: err}
	}
	return res
}

func (s *CallbackService) sendReceipt(ctx context.Context, orderID uint) {
	if s.receipts == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		s.logger.ErrorContext(ctx, "receipt_load_failed", "order_id", orderID, "err", err)
		return
	}
	lines, err := s.orders.Lines(ctx, orderID)
	if err != nil {
		s.logger.ErrorContext(ctx, "receipt_load_failed", "order_id", orderID, "err", err)
		return
	}
	if err := s.receipts.SendReceipt(ctx, o, lines); err != nil {
		s.logger.ErrorContext(ctx, "receipt_send_failed", "order_id", orderID, "err", err)
	}
}

func validRef(s string) bool {
	return s != "" && len(s) <= maxRefLen
}

package payments

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"agromart.store/app/internal/modules/cart"
	"agromart.store/app/internal/modules/orders"
	"agromart.store/app/internal/shared/dbx"
	"agromart.store/app/internal/shared/money"
	"agromart.store/app/internal/shared/validation"
)

// ShippingDetails is the checkout form.
type ShippingDetails struct {
	FirstName string `form:"first_name" json:"first_name" validate:"required,max=100"`
	LastName  string `form:"last_name" json:"last_name" validate:"required,max=100"`
	Email     string `form:"email" json:"email" validate:"required,email,max=254"`
	Phone     string `form:"phone" json:"phone" validate:"required,phone"`
	Address   string `form:"address" json:"address" validate:"required,max=1000"`
	City      string `form:"city" json:"city" validate:"required,max=100"`
	State     string `form:"state" json:"state" validate:"required,max=100"`
	PinCode   string `form:"pin_code" json:"pin_code" validate:"required,max=10"`
}

func (d *ShippingDetails) normalize() {
	for _, f := range []*string{&d.FirstName, &d.LastName, &d.Email, &d.Phone, &d.Address, &d.City, &d.State, &d.PinCode} {
		*f = strings.TrimSpace(*f)
	}
}

// Session is what the client widget needs to open the payment modal.
type Session struct {
	OrderID         uint   `json:"order_id"`
	GatewayOrderRef string `json:"razorpay_order_id"`
	KeyID           string `json:"key_id"`
	AmountMinor     int64  `json:"amount"`
	Currency        string `json:"currency"`
	CallbackURL     string `json:"callback_url"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Reused          bool   `json:"reused"`
}

type CheckoutConfig struct {
	Currency       string
	CallbackURL    string
	LockTTL        time.Duration
	GatewayTimeout time.Duration
}

type CheckoutService struct {
	db      *gorm.DB
	carts   *cart.Service
	orders  *orders.Repo
	gateway Gateway
	locker  Locker
	cfg     CheckoutConfig
	logger  *slog.Logger
}

func NewCheckoutService(db *gorm.DB, carts *cart.Service, ord *orders.Repo, gw Gateway, locker Locker, cfg CheckoutConfig) *CheckoutService {
	if cfg.Currency == "" {
		cfg.Currency = "INR"
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 30 * time.Second
	}
	if cfg.GatewayTimeout <= 0 {
		cfg.GatewayTimeout = 10 * time.Second
	}
	if locker == nil {
		locker = NewMemoryLocker()
	}
	return &CheckoutService{
		db:      db,
		carts:   carts,
		orders:  ord,
		gateway: gw,
		locker:  locker,
		cfg:     cfg,
		logger:  slog.Default(),
	}
}

func (s *CheckoutService) SetLogger(logger *slog.Logger) { s.logger = logger }

// Begin turns the user's cart into a pending order with a gateway handle.
// A repeated call for an unchanged cart returns the same order.
func (s *CheckoutService) Begin(ctx context.Context, userID uint, details ShippingDetails) (Session, error) {
	details.normalize()
	if fe := validation.Struct(&details); fe != nil {
		return Session{}, &ValidationError{Fields: fe}
	}

	unlock, err := s.locker.TryLock(ctx, fmt.Sprintf("checkout:user:%d", userID), s.cfg.LockTTL)
	if errors.Is(err, ErrLocked) {
		return Session{}, ErrCheckoutInProgress
	}
	if err != nil {
		return Session{}, fmt.Errorf("checkout lock: %w", err)
	}
	defer unlock()

	var (
		order  orders.Order
		reused bool
	)
	err = dbx.WithTxRetry(ctx, s.db, 3, func(tx *gorm.DB) error {
		reused = false
		items, err := s.carts.Repo().LockForCheckoutTx(ctx, tx, userID)
		if err != nil {
			return err
		}
		lines, total := snapshot(items)
		if len(lines) == 0 {
			return ErrCartEmpty
		}
		fp := fingerprint(s.cfg.Currency, lines)

		existing, ok, err := s.orders.FindReusablePendingTx(ctx, tx, userID, fp)
		if err != nil {
			return err
		}
		if ok {
			order, reused = existing, true
			return nil
		}

		order = orders.Order{
			UserID:          userID,
			FirstName:       details.FirstName,
			LastName:        details.LastName,
			Email:           details.Email,
			Phone:           details.Phone,
			Address:         details.Address,
			City:            details.City,
			State:           details.State,
			PinCode:         details.PinCode,
			TotalAmount:     total,
			Currency:        s.cfg.Currency,
			Status:          orders.StatusPending,
			CartFingerprint: fp,
		}
		return s.orders.CreateTx(ctx, tx, &order, lines)
	})
	if err != nil {
		return Session{}, err
	}

	amountMinor, err := money.ToMinorUnits(order.TotalAmount)
	if err != nil {
		s.markFailed(ctx, order.ID, err.Error())
		return Session{}, err
	}

	if reused {
		s.logger.InfoContext(ctx, "checkout_reused", "order_id", order.ID, "user_id", userID)
		return s.session(order, *order.GatewayOrderRef, amountMinor, true), nil
	}

	gctx, cancel := context.WithTimeout(ctx, s.cfg.GatewayTimeout)
	gwOrder, err := s.gateway.CreateOrder(gctx, CreateOrderRequest{
		AmountMinor: amountMinor,
		Currency:    order.Currency,
		Receipt:     fmt.Sprintf("order_%d", order.ID),
		AutoCapture: true,
	})
	cancel()
	if err != nil {
		s.logger.ErrorContext(ctx, "checkout_gateway_failed", "order_id", order.ID, "user_id", userID, "err", err)
		s.markFailed(ctx, order.ID, "gateway: "+err.Error())
		if errors.Is(err, ErrGateway) {
			return Session{}, err
		}
		return Session{}, fmt.Errorf("%w: %w", ErrGateway, err)
	}

	if err := s.orders.SetGatewayOrderRef(ctx, order.ID, gwOrder.ID); err != nil {
		s.markFailed(ctx, order.ID, "store gateway reference: "+err.Error())
		return Session{}, fmt.Errorf("store gateway reference: %w", err)
	}

	s.logger.InfoContext(ctx, "checkout_started",
		"order_id", order.ID,
		"user_id", userID,
		"gateway_order_ref", gwOrder.ID,
		"amount_minor", amountMinor,
	)
	return s.session(order, gwOrder.ID, amountMinor, false), nil
}

func (s *CheckoutService) session(o orders.Order, ref string, amountMinor int64, reused bool) Session {
	return Session{
		OrderID:         o.ID,
		GatewayOrderRef: ref,
		KeyID:           s.gateway.KeyID(),
		AmountMinor:     amountMinor,
		Currency:        o.Currency,
		CallbackURL:     s.cfg.CallbackURL,
		Name:            o.FullName(),
		Email:           o.Email,
		Phone:           o.Phone,
		Reused:          reused,
	}
}

func (s *CheckoutService) markFailed(ctx context.Context, orderID uint, reason string) {
	if err := s.orders.MarkFailed(context.WithoutCancel(ctx), orderID, reason); err != nil {
		s.logger.ErrorContext(ctx, "checkout_mark_failed", "order_id", orderID, "err", err)
	}
}

func snapshot(items []cart.Item) ([]orders.Line, decimal.Decimal) {
	lines := make([]orders.Line, 0, len(items))
	total := decimal.Zero
	for _, it := range items {
		if it.Product == nil || it.Quantity < 1 {
			continue
		}
		lt := it.LineTotal()
		total = total.Add(lt)
		lines = append(lines, orders.Line{
			ProductID:   it.ProductID,
			ProductName: it.Product.Name,
			UnitPrice:   it.Product.Price,
			Quantity:    it.Quantity,
			LineTotal:   lt,
		})
	}
	return lines, total
}

// fingerprint identifies a cart state: same products, quantities and prices.
func fingerprint(currency string, lines []orders.Line) string {
	sorted := append([]orders.Line(nil), lines...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ProductID < sorted[j].ProductID })

	h := sha256.New()
	h.Write([]byte(currency))
	for _, l := range sorted {
		fmt.Fprintf(h, "|%d:%d:%s", l.ProductID, l.Quantity, l.UnitPrice.StringFixed(money.Places))
	}
	return hex.EncodeToString(h.Sum(nil))
}

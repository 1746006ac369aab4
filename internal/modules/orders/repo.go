package orders

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"agromart.store/app/internal/shared/dbx"
)

type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

// DB returns the underlying connection so callers can open transactions.
func (r *Repo) DB() *gorm.DB { return r.db }

// CreateTx inserts the order and its lines. o.ID is set on return.
func (r *Repo) CreateTx(ctx context.Context, tx *gorm.DB, o *Order, lines []Line) error {
	if o.Status == "" {
		o.Status = StatusPending
	}
	if err := tx.WithContext(ctx).Create(o).Error; err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}
	for i := range lines {
		lines[i].OrderID = o.ID
	}
	return tx.WithContext(ctx).Create(&lines).Error
}

// SetGatewayOrderRef attaches the gateway handle to a pending order that has none yet.
func (r *Repo) SetGatewayOrderRef(ctx context.Context, orderID uint, ref string) error {
	res := r.db.WithContext(ctx).Model(&Order{}).
		Where("id = ? AND status = ? AND gateway_order_ref IS NULL", orderID, StatusPending).
		Updates(map[string]any{"gateway_order_ref": ref, "updated_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAlreadyReferenced
	}
	return nil
}

// MarkFailed records why an unpaid order could not proceed.
func (r *Repo) MarkFailed(ctx context.Context, orderID uint, reason string) error {
	if len(reason) > 255 {
		reason = reason[:255]
	}
	return r.db.WithContext(ctx).Model(&Order{}).
		Where("id = ? AND is_paid = ?", orderID, false).
		Updates(map[string]any{
			"status":         StatusFailed,
			"failure_reason": reason,
			"updated_at":     time.Now(),
		}).Error
}

// FindByGatewayOrderRefTx loads and row-locks the order for ref.
func (r *Repo) FindByGatewayOrderRefTx(ctx context.Context, tx *gorm.DB, ref string) (Order, error) {
	var o Order
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&o, "gateway_order_ref = ?", ref).Error
	if dbx.IsNotFound(err) {
		return Order{}, ErrNotFound
	}
	return o, err
}

type PaidInput struct {
	PaymentRef string
	Signature  string
	At         time.Time
}

// MarkPaidTx flips is_paid once. It reports false when the order was
// already paid, in which case nothing is written.
func (r *Repo) MarkPaidTx(ctx context.Context, tx *gorm.DB, orderID uint, in PaidInput) (bool, error) {
	at := in.At
	if at.IsZero() {
		at = time.Now()
	}
	res := tx.WithContext(ctx).Model(&Order{}).
		Where("id = ? AND is_paid = ?", orderID, false).
		Updates(map[string]any{
			"is_paid":             true,
			"status":              StatusPaid,
			"gateway_payment_ref": in.PaymentRef,
			"gateway_signature":   in.Signature,
			"failure_reason":      nil,
			"paid_at":             at,
			"updated_at":          at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// FindReusablePendingTx returns the newest pending order of userID whose cart
// fingerprint matches and which already has a gateway handle.
func (r *Repo) FindReusablePendingTx(ctx context.Context, tx *gorm.DB, userID uint, fingerprint string) (Order, bool, error) {
	var o Order
	err := tx.WithContext(ctx).
		Where("user_id = ? AND status = ? AND is_paid = ? AND cart_fingerprint = ? AND gateway_order_ref IS NOT NULL",
			userID, StatusPending, false, fingerprint).
		Order("id DESC").
		Take(&o).Error
	if dbx.IsNotFound(err) {
		return Order{}, false, nil
	}
	if err != nil {
		return Order{}, false, err
	}
	return o, true, nil
}

// GetForUser hides other users' orders behind ErrNotFound.
func (r *Repo) GetForUser(ctx context.Context, orderID, userID uint) (Order, error) {
	var o Order
	err := r.db.WithContext(ctx).First(&o, "id = ? AND user_id = ?", orderID, userID).Error
	if dbx.IsNotFound(err) {
		return Order{}, ErrNotFound
	}
	return o, err
}

func (r *Repo) Get(ctx context.Context, orderID uint) (Order, error) {
	var o Order
	err := r.db.WithContext(ctx).First(&o, "id = ?", orderID).Error
	if dbx.IsNotFound(err) {
		return Order{}, ErrNotFound
	}
	return o, err
}

func (r *Repo) Lines(ctx context.Context, orderID uint) ([]Line, error) {
	var lines []Line
	err := r.db.WithContext(ctx).Order("id ASC").Find(&lines, "order_id = ?", orderID).Error
	return lines, err
}

type ListByUserParams struct {
	UserID   uint
	Page     int
	PageSize int
	Status   string
}

type ListByUserResult struct {
	Items []ListByUserItem
	Total int64
}

type ListByUserItem struct {
	Order Order
	Count int
}

func (r *Repo) ListByUser(ctx context.Context, in ListByUserParams) (ListByUserResult, error) {
	page, size := clampPage(in.Page, in.PageSize, 20)

	q := r.db.WithContext(ctx).Model(&Order{}).Where("user_id = ?", in.UserID)
	if in.Status != "" {
		q = q.Where("status = ?", in.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return ListByUserResult{}, err
	}

	var list []Order
	if err := q.Order("id DESC").Limit(size).Offset((page - 1) * size).Find(&list).Error; err != nil {
		return ListByUserResult{}, err
	}

	counts, err := r.lineCounts(ctx, list)
	if err != nil {
		return ListByUserResult{}, err
	}
	items := make([]ListByUserItem, len(list))
	for i, o := range list {
		items[i] = ListByUserItem{Order: o, Count: counts[o.ID]}
	}
	return ListByUserResult{Items: items, Total: total}, nil
}

func (r *Repo) lineCounts(ctx context.Context, list []Order) (map[uint]int, error) {
	out := make(map[uint]int, len(list))
	if len(list) == 0 {
		return out, nil
	}
	ids := make([]uint, len(list))
	for i, o := range list {
		ids[i] = o.ID
	}
	var rows []struct {
		OrderID uint
		N       int
	}
	err := r.db.WithContext(ctx).Model(&Line{}).
		Select("order_id, SUM(quantity) AS n").
		Where("order_id IN ?", ids).
		Group("order_id").
		Scan(&rows).Error
	for _, row := range rows {
		out[row.OrderID] = row.N
	}
	return out, err
}

func clampPage(page, size, def int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = def
	}
	return page, size
}

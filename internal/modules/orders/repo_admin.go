package orders

import (
	"context"
	"strings"
)

type AdminListParams struct {
	Q        string
	Status   string
	Page     int
	PageSize int
}

type AdminListResult struct {
	Items []Order
	Total int64
}

// AdminList searches all orders by email or gateway reference.
func (r *Repo) AdminList(ctx context.Context, in AdminListParams) (AdminListResult, error) {
	page, size := clampPage(in.Page, in.PageSize, 30)

	base := r.db.WithContext(ctx).Model(&Order{})
	if s := strings.TrimSpace(in.Status); s != "" {
		base = base.Where("status = ?", s)
	}
	if q := strings.TrimSpace(in.Q); q != "" {
		like := "%" + q + "%"
		base = base.Where("(email LIKE ? OR gateway_order_ref LIKE ? OR gateway_payment_ref LIKE ?)", like, like, like)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return AdminListResult{}, err
	}

	var items []Order
	if err := base.
		Order("id DESC").
		Limit(size).
		Offset((page - 1) * size).
		Find(&items).Error; err != nil {
		return AdminListResult{}, err
	}
	return AdminListResult{Items: items, Total: total}, nil
}

// AdminGetDetail loads any order with its lines.
func (r *Repo) AdminGetDetail(ctx context.Context, orderID uint) (Order, []Line, error) {
	o, err := r.Get(ctx, orderID)
	if err != nil {
		return Order{}, nil, err
	}
	lines, err := r.Lines(ctx, orderID)
	if err != nil {
		return Order{}, nil, err
	}
	return o, lines, nil
}

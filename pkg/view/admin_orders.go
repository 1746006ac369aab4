package view

import (
	"agromart.store/app/internal/modules/orders"
	"agromart.store/app/internal/shared/money"
)

type AdminOrderListItem struct {
	ID        uint   `json:"id"`
	UserID    uint   `json:"user_id"`
	Email     string `json:"email"`
	Status    string `json:"status"`
	Total     string `json:"total"`
	Reference string `json:"gateway_order_ref,omitempty"`
	CreatedAt string `json:"created_at"`
}

type AdminOrdersListPage struct {
	Items      []AdminOrderListItem `json:"items"`
	Q          string               `json:"q"`
	Status     string               `json:"status"`
	Page       int                  `json:"page"`
	TotalPages int                  `json:"total_pages"`
}

func NewAdminOrdersListPage(res orders.AdminListResult, q, status string, page, size int) AdminOrdersListPage {
	items := make([]AdminOrderListItem, 0, len(res.Items))
	for _, o := range res.Items {
		items = append(items, AdminOrderListItem{
			ID:        o.ID,
			UserID:    o.UserID,
			Email:     o.Email,
			Status:    o.Status,
			Total:     money.Format(o.TotalAmount, o.Currency),
			Reference: deref(o.GatewayOrderRef),
			CreatedAt: o.CreatedAt.Format("2006-01-02 15:04"),
		})
	}
	return AdminOrdersListPage{
		Items:      items,
		Q:          q,
		Status:     status,
		Page:       page,
		TotalPages: PageCount(res.Total, size),
	}
}

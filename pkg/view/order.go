package view

import (
	"agromart.store/app/internal/modules/orders"
	"agromart.store/app/internal/shared/money"
)

type OrderListItem struct {
	orders.Order
	ItemCount    int    `json:"item_count"`
	TotalDisplay string `json:"total_display"`
}

type OrdersPage struct {
	Orders     []OrderListItem `json:"orders"`
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	TotalPages int             `json:"total_pages"`
}

func NewOrdersPage(res orders.ListByUserResult, page, size int) OrdersPage {
	out := OrdersPage{
		Orders:     make([]OrderListItem, 0, len(res.Items)),
		Total:      res.Total,
		Page:       page,
		TotalPages: PageCount(res.Total, size),
	}
	for _, it := range res.Items {
		out.Orders = append(out.Orders, OrderListItem{
			Order:        it.Order,
			ItemCount:    it.Count,
			TotalDisplay: money.Format(it.Order.TotalAmount, it.Order.Currency),
		})
	}
	return out
}

// Receipt is shown to the buyer and to staff.
type Receipt struct {
	Order         orders.Order  `json:"order"`
	Lines         []orders.Line `json:"lines"`
	TotalDisplay  string        `json:"total_display"`
	FailureReason string        `json:"failure_reason,omitempty"`
}

func NewReceipt(o orders.Order, lines []orders.Line) Receipt {
	if lines == nil {
		lines = []orders.Line{}
	}
	return Receipt{
		Order:         o,
		Lines:         lines,
		TotalDisplay:  money.Format(o.TotalAmount, o.Currency),
		FailureReason: deref(o.FailureReason),
	}
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"agromart.store/app/internal/http/middleware"
	"agromart.store/app/internal/modules/orders"
	"agromart.store/app/internal/shared/apperr"
	"agromart.store/app/pkg/view"
)

const ordersPageSize = 20

type OrdersHandler struct {
	Repo *orders.Repo
}

func NewOrdersHandler(repo *orders.Repo) *OrdersHandler {
	return &OrdersHandler{Repo: repo}
}

// List handles GET /orders?page=&status=.
func (h *OrdersHandler) List(c *gin.Context) {
	page := queryInt(c, "page", 1)
	if page < 1 {
		page = 1
	}
	res, err := h.Repo.ListByUser(c.Request.Context(), orders.ListByUserParams{
		UserID:   userID(c),
		Page:     page,
		PageSize: ordersPageSize,
		Status:   c.Query("status"),
	})
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, view.NewOrdersPage(res, page, ordersPageSize))
}

// Receipt handles GET /orders/:id/receipt. Other users' orders are 404.
func (h *OrdersHandler) Receipt(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	o, err := h.Repo.GetForUser(ctx, id, userID(c))
	if errors.Is(err, orders.ErrNotFound) {
		middleware.Fail(c, apperr.NotFoundErr("Order not found."))
		return
	}
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	lines, err := h.Repo.Lines(ctx, o.ID)
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, view.NewReceipt(o, lines))
}

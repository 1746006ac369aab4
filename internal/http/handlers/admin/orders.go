package admin

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"agromart.store/app/internal/http/middleware"
	"agromart.store/app/internal/modules/orders"
	"agromart.store/app/internal/shared/apperr"
	"agromart.store/app/pkg/view"
)

const ordersPageSize = 30

type OrdersHandler struct {
	Repo *orders.Repo
}

func NewOrdersHandler(repo *orders.Repo) *OrdersHandler {
	return &OrdersHandler{Repo: repo}
}

// List handles GET /admin/orders?q=&status=&page=.
func (h *OrdersHandler) List(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	status := strings.TrimSpace(c.Query("status"))
	page := parseInt(c.Query("page"), 1)

	res, err := h.Repo.AdminList(c.Request.Context(), orders.AdminListParams{
		Q: q, Status: status, Page: page, PageSize: ordersPageSize,
	})
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, view.NewAdminOrdersListPage(res, q, status, page, ordersPageSize))
}

// Detail handles GET /admin/orders/:id.
func (h *OrdersHandler) Detail(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		middleware.Fail(c, apperr.NotFoundErr("Order not found."))
		return
	}
	o, lines, err := h.Repo.AdminGetDetail(c.Request.Context(), uint(id))
	if errors.Is(err, orders.ErrNotFound) {
		middleware.Fail(c, apperr.NotFoundErr("Order not found."))
		return
	}
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, view.NewReceipt(o, lines))
}

func parseInt(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return def
	}
	return n
}

package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"agromart.store/app/internal/http/middleware"
	"agromart.store/app/internal/modules/cart"
	"agromart.store/app/internal/shared/apperr"
	"agromart.store/app/internal/shared/validation"
	"agromart.store/app/pkg/view"
)

type CartHandler struct {
	Carts *cart.Service
}

func NewCartHandler(svc *cart.Service) *CartHandler {
	return &CartHandler{Carts: svc}
}

// Show handles GET /cart.
func (h *CartHandler) Show(c *gin.Context) {
	items, err := h.Carts.Items(c.Request.Context(), userID(c))
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, view.CartFromItems(items))
}

// Summary handles GET /cart/summary for the header badge.
func (h *CartHandler) Summary(c *gin.Context) {
	s, err := h.Carts.Summary(c.Request.Context(), userID(c))
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, s)
}

type addItemInput struct {
	ProductID uint `form:"product_id" json:"product_id" binding:"required"`
	Quantity  *int `form:"quantity" json:"quantity"`
}

// Add handles POST /cart/items.
func (h *CartHandler) Add(c *gin.Context) {
	var in addItemInput
	if err := c.ShouldBind(&in); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Check the highlighted fields.", validation.FromBindError(err, &in)))
		return
	}
	qty := 1
	if in.Quantity != nil {
		qty = *in.Quantity
	}
	h.add(c, in.ProductID, qty)
}

// AddByPath handles POST /add-to-cart/:product_id?quantity=n.
func (h *CartHandler) AddByPath(c *gin.Context) {
	productID, ok := paramID(c, "product_id")
	if !ok {
		return
	}
	qty := 1
	if raw := c.Query("quantity"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			middleware.Fail(c, apperr.InvalidErr("Invalid quantity.", map[string]string{"quantity": "Enter a whole number."}))
			return
		}
		qty = n
	}
	h.add(c, productID, qty)
}

func (h *CartHandler) add(c *gin.Context, productID uint, qty int) {
	ctx := c.Request.Context()
	uid := userID(c)
	if err := h.Carts.Add(ctx, uid, productID, qty); err != nil {
		middleware.Fail(c, cartError(err))
		return
	}
	items, err := h.Carts.Items(ctx, uid)
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusCreated, view.CartFromItems(items))
}

type setQtyInput struct {
	Quantity *int `form:"quantity" json:"quantity" binding:"required"`
}

// Update handles PATCH /cart/items/:id. A quantity of zero or less removes the line.
func (h *CartHandler) Update(c *gin.Context) {
	itemID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in setQtyInput
	if err := c.ShouldBind(&in); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Check the highlighted fields.", validation.FromBindError(err, &in)))
		return
	}
	ctx := c.Request.Context()
	uid := userID(c)
	if err := h.Carts.SetQuantity(ctx, uid, itemID, *in.Quantity); err != nil {
		middleware.Fail(c, cartError(err))
		return
	}
	items, err := h.Carts.Items(ctx, uid)
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, view.CartFromItems(items))
}

// Remove handles DELETE /cart/items/:id.
func (h *CartHandler) Remove(c *gin.Context) {
	itemID, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.Carts.Remove(c.Request.Context(), userID(c), itemID); err != nil {
		middleware.Fail(c, cartError(err))
		return
	}
	c.Status(http.StatusNoContent)
}

func cartError(err error) error {
	switch {
	case errors.Is(err, cart.ErrInvalidQuantity):
		return apperr.InvalidErr("Invalid quantity.", map[string]string{"quantity": "Quantity must be between 1 and 99."})
	case errors.Is(err, cart.ErrProductNotFound):
		return apperr.NotFoundErr("Product not found.")
	case errors.Is(err, cart.ErrNotFound):
		return apperr.NotFoundErr("Cart item not found.")
	default:
		return apperr.Wrap(err)
	}
}

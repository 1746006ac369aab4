package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"agromart.store/app/internal/http/middleware"
	"agromart.store/app/internal/modules/cart"
	"agromart.store/app/internal/modules/payments"
	"agromart.store/app/internal/shared/apperr"
	"agromart.store/app/internal/shared/validation"
	"agromart.store/app/pkg/view"
)

type CheckoutHandler struct {
	Carts    *cart.Service
	Checkout *payments.CheckoutService
}

func NewCheckoutHandler(carts *cart.Service, checkout *payments.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{Carts: carts, Checkout: checkout}
}

// Show handles GET /checkout: the cart plus a prefilled shipping form.
func (h *CheckoutHandler) Show(c *gin.Context) {
	u, _ := middleware.CurrentUser(c)
	items, err := h.Carts.Items(c.Request.Context(), u.ID)
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	if len(items) == 0 {
		c.Redirect(http.StatusSeeOther, "/cart")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"cart":       view.CartFromItems(items),
		"shipping":   payments.ShippingDetails{Email: u.Email},
		"csrf_token": middleware.GetCSRFToken(c),
	})
}

// Begin handles POST /checkout and answers with the payment session the
// client widget opens.
func (h *CheckoutHandler) Begin(c *gin.Context) {
	var in payments.ShippingDetails
	if err := c.ShouldBind(&in); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Check the highlighted fields.", validation.FromBindError(err, &in)))
		return
	}

	sess, err := h.Checkout.Begin(c.Request.Context(), userID(c), in)
	if err != nil {
		if errors.Is(err, payments.ErrCartEmpty) {
			c.Redirect(http.StatusSeeOther, "/cart")
			return
		}
		middleware.Fail(c, checkoutError(err))
		return
	}
	c.JSON(http.StatusOK, sess)
}

func checkoutError(err error) error {
	var ve *payments.ValidationError
	switch {
	case errors.As(err, &ve):
		return apperr.InvalidErr("Check the highlighted fields.", ve.Fields)
	case errors.Is(err, payments.ErrCheckoutInProgress):
		return apperr.ConflictErr("A checkout is already in progress. Please wait a moment.")
	case errors.Is(err, payments.ErrGateway):
		return apperr.GatewayErr("The payment provider is unavailable. Please try again.", err)
	default:
		return apperr.Wrap(err)
	}
}

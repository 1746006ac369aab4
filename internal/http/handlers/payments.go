package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"agromart.store/app/internal/modules/payments"
)

type PaymentHandler struct {
	Callbacks *payments.CallbackService
}

func NewPaymentHandler(svc *payments.CallbackService) *PaymentHandler {
	return &PaymentHandler{Callbacks: svc}
}

// Callback handles POST /payments/callback. The gateway posts the form
// from the shopper's browser, so success redirects to the receipt.
func (h *PaymentHandler) Callback(c *gin.Context) {
	ctx := c.Request.Context()
	var p payments.CallbackPayload
	var res payments.CallbackResult
	// Missing fields are caught by Handle; a body that does not decode is
	// recorded with its error.
	if err := c.ShouldBind(&p); err != nil {
		res = h.Callbacks.RejectMalformed(ctx, p, err)
	} else {
		res = h.Callbacks.Handle(ctx, p)
	}
	if res.OK() {
		c.Redirect(http.StatusSeeOther, fmt.Sprintf("/orders/%d/receipt", res.OrderID))
		return
	}
	c.JSON(callbackStatus(res.Outcome), gin.H{"ok": false, "outcome": res.Outcome})
}

func callbackStatus(o payments.Outcome) int {
	switch o {
	case payments.OutcomeNotFound:
		return http.StatusNotFound
	case payments.OutcomeGatewayError:
		return http.StatusBadGateway
	case payments.OutcomeStoreError:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

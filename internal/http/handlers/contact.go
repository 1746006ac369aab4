package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"agromart.store/app/internal/http/middleware"
	"agromart.store/app/internal/modules/email"
	"agromart.store/app/internal/shared/apperr"
	"agromart.store/app/internal/shared/validation"
)

type ContactHandler struct {
	Notifier *email.Notifier
	Logger   *slog.Logger
}

func NewContactHandler(n *email.Notifier, logger *slog.Logger) *ContactHandler {
	return &ContactHandler{Notifier: n, Logger: logger}
}

type contactInput struct {
	Name    string `form:"name" json:"name" binding:"required,max=100"`
	Email   string `form:"email" json:"email" binding:"required,email,max=254"`
	Phone   string `form:"phone" json:"phone" binding:"omitempty,phone"`
	Comment string `form:"comment" json:"comment" binding:"required,max=2000"`
}

// Submit handles POST /contact. Mail failures are logged; the visitor
// still gets 202.
func (h *ContactHandler) Submit(c *gin.Context) {
	var in contactInput
	if err := c.ShouldBind(&in); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Check the highlighted fields.", validation.FromBindError(err, &in)))
		return
	}
	err := h.Notifier.SendContact(c.Request.Context(), email.ContactMessage{
		Name:    in.Name,
		Email:   in.Email,
		Phone:   in.Phone,
		Comment: in.Comment,
	})
	if err != nil {
		h.Logger.ErrorContext(c.Request.Context(), "contact_mail_failed",
			"request_id", middleware.GetRequestID(c),
			"err", err,
		)
	}
	c.JSON(http.StatusAccepted, gin.H{"ok": true})
}

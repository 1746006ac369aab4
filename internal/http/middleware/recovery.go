package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"agromart.store/app/internal/shared/apperr"
)

// Recovery logs the stack as a structured field and answers 500 in the
// same shape as ErrorHandler. The panic unwinds past ErrorHandler, so the
// response is written here.
func Recovery(l *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		l.LogAttrs(c.Request.Context(), slog.LevelError, "panic_recovered",
			slog.String("request_id", GetRequestID(c)),
			slog.Any("panic", recovered),
			slog.String("stack", string(debug.Stack())),
		)

		err := apperr.Wrap(fmt.Errorf("panic: %v", recovered))
		_ = c.Error(err)
		c.AbortWithStatusJSON(apperr.HTTPStatus(err), gin.H{
			"error":      apperr.PublicMessage(err),
			"request_id": GetRequestID(c),
		})
	})
}

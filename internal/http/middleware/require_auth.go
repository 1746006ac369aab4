package middleware

import (
	"github.com/gin-gonic/gin"

	"agromart.store/app/internal/shared/apperr"
)

// RequireAuth rejects anonymous requests with 401.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUser(c); !ok {
			Fail(c, apperr.UnauthorizedErr("Please log in to continue."))
			return
		}
		c.Next()
	}
}

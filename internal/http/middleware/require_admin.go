package middleware

import (
	"github.com/gin-gonic/gin"

	"agromart.store/app/internal/shared/apperr"
)

// RequireAdmin lets staff through: 401 without a login, 403 for other users.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := CurrentUser(c)
		if !ok {
			Fail(c, apperr.UnauthorizedErr("Please log in to continue."))
			return
		}
		if !u.IsStaff {
			Fail(c, apperr.ForbiddenErr("Staff access required."))
			return
		}
		c.Next()
	}
}

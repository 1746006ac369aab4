package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"agromart.store/app/internal/http/middleware"
	"agromart.store/app/internal/shared/apperr"
)

func paramID(c *gin.Context, name string) (uint, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || n == 0 {
		middleware.Fail(c, apperr.NotFoundErr("Not found."))
		return 0, false
	}
	return uint(n), true
}

func queryInt(c *gin.Context, key string, def int) int {
	if n, err := strconv.Atoi(c.Query(key)); err == nil {
		return n
	}
	return def
}

// userID is only called behind RequireAuth.
func userID(c *gin.Context) uint {
	u, _ := middleware.CurrentUser(c)
	return u.ID
}

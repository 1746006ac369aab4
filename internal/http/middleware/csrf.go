package middleware

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/gin-gonic/gin"

	"agromart.store/app/internal/shared/apperr"
)

const (
	CSRFCookieName = "csrf_token"
	CSRFHeaderName = "X-CSRF-Token"
	CSRFFormField  = "csrf_token"

	ctxKeyCSRF = "csrf_token"
)

type CSRFCfg struct {
	Secure bool
	// Exempt lists exact paths that skip the check, e.g. the gateway callback.
	Exempt []string
}

// CSRF implements the double-submit cookie pattern: unsafe methods must echo
// the csrf_token cookie in the X-CSRF-Token header or the csrf_token field.
func CSRF(cfg CSRFCfg) gin.HandlerFunc {
	exempt := make(map[string]struct{}, len(cfg.Exempt))
	for _, p := range cfg.Exempt {
		exempt[p] = struct{}{}
	}

	return func(c *gin.Context) {
		token, err := c.Cookie(CSRFCookieName)
		if err != nil || len(token) != 64 {
			token = newCSRFToken()
			http.SetCookie(c.Writer, &http.Cookie{
				Name:     CSRFCookieName,
				Value:    token,
				Path:     "/",
				Secure:   cfg.Secure,
				SameSite: http.SameSiteLaxMode,
			})
		}
		c.Set(ctxKeyCSRF, token)

		if safeMethod(c.Request.Method) {
			c.Next()
			return
		}
		if _, ok := exempt[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		sent := c.GetHeader(CSRFHeaderName)
		if sent == "" {
			sent = c.PostForm(CSRFFormField)
		}
		if subtle.ConstantTimeCompare([]byte(sent), []byte(token)) != 1 {
			Fail(c, apperr.ForbiddenErr("Invalid or missing CSRF token."))
			return
		}
		c.Next()
	}
}

// GetCSRFToken returns the token to embed in forms.
func GetCSRFToken(c *gin.Context) string {
	return c.GetString(ctxKeyCSRF)
}

func safeMethod(m string) bool {
	switch m {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

func newCSRFToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic("csrf: crypto/rand failed: " + err.Error())
	}
	return hex.EncodeToString(b)
}

package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"agromart.store/app/internal/modules/users"
	"agromart.store/app/internal/shared/apperr"
	"agromart.store/app/internal/testkit"
)

func init() { gin.SetMode(gin.TestMode) }

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	l := quietLogger()
	r := gin.New()
	r.Use(RequestID(), Logger(l), Recovery(l), ErrorHandler(l))
	r.Use(mw...)
	return r
}

func body(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestRequestID(t *testing.T) {
	r := newEngine()
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	minted := w.Header().Get(HeaderRequestID)
	assert.Len(t, minted, 32)
	assert.Equal(t, minted, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(HeaderRequestID))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, strings.Repeat("x", 65))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.NotEqual(t, strings.Repeat("x", 65), w.Header().Get(HeaderRequestID))
}

func TestErrorHandler(t *testing.T) {
	r := newEngine()
	r.GET("/invalid", func(c *gin.Context) {
		Fail(c, apperr.InvalidErr("Check the fields.", map[string]string{"email": "Enter a valid email."}))
	})
	r.GET("/internal", func(c *gin.Context) {
		Fail(c, errors.New("db exploded at 10.0.0.7"))
	})
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/invalid", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	b := body(t, w)
	assert.Equal(t, "Check the fields.", b["error"])
	assert.Equal(t, map[string]any{"email": "Enter a valid email."}, b["fields"])
	assert.NotEmpty(t, b["request_id"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/internal", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "10.0.0.7")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotEmpty(t, body(t, w)["request_id"])
}

func TestCSRF(t *testing.T) {
	r := newEngine(CSRF(CSRFCfg{Exempt: []string{"/hook"}}))
	r.GET("/token", func(c *gin.Context) { c.String(http.StatusOK, GetCSRFToken(c)) })
	r.POST("/form", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.POST("/hook", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/token", nil))
	token := w.Body.String()
	require.Len(t, token, 64)
	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == CSRFCookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.Equal(t, token, cookie.Value)

	post := func(path, header string, form url.Values) int {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.AddCookie(cookie)
		if header != "" {
			req.Header.Set(CSRFHeaderName, header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusForbidden, post("/form", "", nil))
	assert.Equal(t, http.StatusForbidden, post("/form", strings.Repeat("0", 64), nil))
	assert.Equal(t, http.StatusNoContent, post("/form", token, nil))
	assert.Equal(t, http.StatusNoContent, post("/form", "", url.Values{CSRFFormField: {token}}))
	assert.Equal(t, http.StatusNoContent, post("/hook", "", nil))
}

type sessionEnv struct {
	r    *gin.Engine
	cfg  SessionCfg
	db   *gorm.DB
	user users.User
}

func newSessionEnv(t *testing.T, staff bool) *sessionEnv {
	t.Helper()
	db := testkit.OpenDB(t, &users.User{}, &Session{})
	u := users.User{Username: "kiran", Email: "kiran@example.com", PasswordHash: "x", IsStaff: staff}
	require.NoError(t, db.Create(&u).Error)

	cfg := SessionCfg{DB: db, CookieName: "sid", TTL: time.Hour}
	r := newEngine(SessionMiddleware(cfg))
	r.POST("/login", func(c *gin.Context) {
		if err := StartSession(c, cfg, u.ID); err != nil {
			Fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})
	r.POST("/logout", func(c *gin.Context) {
		if err := EndSession(c, cfg); err != nil {
			Fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})
	r.GET("/me", RequireAuth(), func(c *gin.Context) {
		cu, _ := CurrentUser(c)
		c.String(http.StatusOK, cu.Username)
	})
	r.GET("/admin", RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusOK) })
	return &sessionEnv{r: r, cfg: cfg, db: db, user: u}
}

func (e *sessionEnv) do(method, path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

func sessionCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestSessionLifecycle(t *testing.T) {
	e := newSessionEnv(t, false)

	assert.Equal(t, http.StatusUnauthorized, e.do(http.MethodGet, "/me", nil).Code)

	w := e.do(http.MethodPost, "/login", nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	cookie := sessionCookie(w, "sid")
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	var stored Session
	require.NoError(t, e.db.First(&stored).Error)
	assert.NotEqual(t, cookie.Value, stored.TokenHash)
	assert.Equal(t, hashToken(cookie.Value), stored.TokenHash)

	w = e.do(http.MethodGet, "/me", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "kiran", w.Body.String())

	assert.Equal(t, http.StatusForbidden, e.do(http.MethodGet, "/admin", cookie).Code)

	w = e.do(http.MethodPost, "/logout", cookie)
	require.Equal(t, http.StatusNoContent, w.Code)
	var count int64
	require.NoError(t, e.db.Model(&Session{}).Count(&count).Error)
	assert.Zero(t, count)

	assert.Equal(t, http.StatusUnauthorized, e.do(http.MethodGet, "/me", cookie).Code)
}

func TestExpiredSessionIsAnonymous(t *testing.T) {
	e := newSessionEnv(t, true)
	w := e.do(http.MethodPost, "/login", nil)
	cookie := sessionCookie(w, "sid")
	require.NotNil(t, cookie)

	require.NoError(t, e.db.Model(&Session{}).Where("1 = 1").
		Update("expires_at", time.Now().Add(-time.Minute)).Error)

	w = e.do(http.MethodGet, "/admin", cookie)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	cleared := sessionCookie(w, "sid")
	require.NotNil(t, cleared)
	assert.Negative(t, cleared.MaxAge)
}

func TestAdminPassesStaff(t *testing.T) {
	e := newSessionEnv(t, true)
	cookie := sessionCookie(e.do(http.MethodPost, "/login", nil), "sid")
	require.NotNil(t, cookie)
	assert.Equal(t, http.StatusOK, e.do(http.MethodGet, "/admin", cookie).Code)
}

func TestSessionLookupFailureKeepsCookie(t *testing.T) {
	e := newSessionEnv(t, false)
	cookie := sessionCookie(e.do(http.MethodPost, "/login", nil), "sid")
	require.NotNil(t, cookie)

	require.NoError(t, e.db.Migrator().DropTable(&Session{}))

	w := e.do(http.MethodGet, "/me", cookie)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Nil(t, sessionCookie(w, "sid"))
}

func TestSessionOfDeletedUserIsCleared(t *testing.T) {
	e := newSessionEnv(t, false)
	cookie := sessionCookie(e.do(http.MethodPost, "/login", nil), "sid")
	require.NotNil(t, cookie)

	require.NoError(t, e.db.Delete(&users.User{}, e.user.ID).Error)

	w := e.do(http.MethodGet, "/me", cookie)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	cleared := sessionCookie(w, "sid")
	require.NotNil(t, cleared)
	assert.Negative(t, cleared.MaxAge)
}

package middleware

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"agromart.store/app/internal/modules/users"
	"agromart.store/app/internal/shared/apperr"
	"agromart.store/app/internal/shared/dbx"
)

const ctxKeyUser = "current_user"

type SessionCfg struct {
	DB         *gorm.DB
	CookieName string
	Secure     bool
	TTL        time.Duration
}

// Session is a database-backed login. The cookie carries a random token;
// only its SHA-256 is stored.
type Session struct {
	ID         string    `gorm:"type:char(36);primaryKey"`
	UserID     uint      `gorm:"not null;index:ix_sessions_user_id"`
	TokenHash  string    `gorm:"type:char(64);not null;uniqueIndex:ux_sessions_token_hash"`
	ExpiresAt  time.Time `gorm:"not null;index:ix_sessions_expires_at"`
	CreatedAt  time.Time `gorm:"not null"`
	LastSeenAt time.Time `gorm:"not null"`
}

func (Session) TableName() string { return "sessions" }

// ContextUser is the authenticated user for the current request.
type ContextUser struct {
	ID        uint
	Username  string
	Email     string
	IsStaff   bool
	SessionID string
}

// SessionMiddleware resolves the session cookie into a ContextUser. Unknown
// or expired cookies are cleared and the request continues anonymously; a
// failed lookup is an internal error and leaves the cookie alone.
func SessionMiddleware(cfg SessionCfg) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cfg.CookieName)
		if err != nil || token == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		var sess Session
		err = cfg.DB.WithContext(ctx).
			Where("token_hash = ? AND expires_at > ?", hashToken(token), time.Now()).
			First(&sess).Error
		if err != nil {
			dropSession(c, cfg, err)
			return
		}

		var u users.User
		if err := cfg.DB.WithContext(ctx).First(&u, "id = ?", sess.UserID).Error; err != nil {
			dropSession(c, cfg, err)
			return
		}

		c.Set(ctxKeyUser, ContextUser{
			ID:        u.ID,
			Username:  u.Username,
			Email:     u.Email,
			IsStaff:   u.IsStaff,
			SessionID: sess.ID,
		})
		c.Next()
	}
}

func dropSession(c *gin.Context, cfg SessionCfg, err error) {
	if !dbx.IsNotFound(err) {
		Fail(c, apperr.Wrap(fmt.Errorf("session lookup: %w", err)))
		return
	}
	clearSessionCookie(c, cfg)
	c.Next()
}

// StartSession stores a new session for userID and sets the cookie.
func StartSession(c *gin.Context, cfg SessionCfg, userID uint) error {
	token, err := newSessionToken()
	if err != nil {
		return err
	}
	now := time.Now()
	sess := Session{
		ID:         uuid.NewString(),
		UserID:     userID,
		TokenHash:  hashToken(token),
		ExpiresAt:  now.Add(cfg.TTL),
		CreatedAt:  now,
		LastSeenAt: now,
	}
	if err := cfg.DB.WithContext(c.Request.Context()).Create(&sess).Error; err != nil {
		return err
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     cfg.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// EndSession deletes the current session, if any, and clears the cookie.
func EndSession(c *gin.Context, cfg SessionCfg) error {
	defer clearSessionCookie(c, cfg)
	u, ok := CurrentUser(c)
	if !ok {
		return nil
	}
	return DeleteSession(c.Request.Context(), cfg.DB, u.SessionID)
}

func DeleteSession(ctx context.Context, db *gorm.DB, sessionID string) error {
	return db.WithContext(ctx).Delete(&Session{}, "id = ?", sessionID).Error
}

// CurrentUser returns the authenticated user, if any.
func CurrentUser(c *gin.Context) (ContextUser, bool) {
	v, ok := c.Get(ctxKeyUser)
	if !ok {
		return ContextUser{}, false
	}
	u, ok := v.(ContextUser)
	return u, ok && u.ID != 0
}

func clearSessionCookie(c *gin.Context, cfg SessionCfg) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func newSessionToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

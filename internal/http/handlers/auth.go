package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"agromart.store/app/internal/http/middleware"
	"agromart.store/app/internal/modules/users"
	"agromart.store/app/internal/shared/apperr"
	"agromart.store/app/internal/shared/validation"
	"agromart.store/app/pkg/view"
)

type AuthHandler struct {
	Users   *users.Service
	Session middleware.SessionCfg
}

func NewAuthHandler(svc *users.Service, sess middleware.SessionCfg) *AuthHandler {
	return &AuthHandler{Users: svc, Session: sess}
}

type registerInput struct {
	Username string `form:"username" json:"username" binding:"required,min=3,max=150,alphanum"`
	Email    string `form:"email" json:"email" binding:"required,email,max=254"`
	Password string `form:"password" json:"password" binding:"required,min=8,max=72"`
}

type loginInput struct {
	Username string `form:"username" json:"username" binding:"required"`
	Password string `form:"password" json:"password" binding:"required"`
}

// Register handles POST /auth/register and logs the new user in.
func (h *AuthHandler) Register(c *gin.Context) {
	var in registerInput
	if err := c.ShouldBind(&in); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Check the highlighted fields.", validation.FromBindError(err, &in)))
		return
	}
	u, err := h.Users.Register(c.Request.Context(), users.RegisterInput{
		Username: in.Username,
		Email:    in.Email,
		Password: in.Password,
	})
	if errors.Is(err, users.ErrUsernameTaken) {
		middleware.Fail(c, apperr.InvalidErr("Check the highlighted fields.", map[string]string{"username": "This username is taken."}))
		return
	}
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	if err := middleware.StartSession(c, h.Session, u.ID); err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusCreated, view.User{ID: u.ID, Username: u.Username, Email: u.Email, IsStaff: u.IsStaff})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var in loginInput
	if err := c.ShouldBind(&in); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Check the highlighted fields.", validation.FromBindError(err, &in)))
		return
	}
	u, err := h.Users.Authenticate(c.Request.Context(), in.Username, in.Password)
	if errors.Is(err, users.ErrInvalidCredentials) {
		middleware.Fail(c, apperr.UnauthorizedErr("Invalid username or password."))
		return
	}
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	if _, ok := middleware.CurrentUser(c); ok {
		_ = middleware.EndSession(c, h.Session)
	}
	if err := middleware.StartSession(c, h.Session, u.ID); err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, view.User{ID: u.ID, Username: u.Username, Email: u.Email, IsStaff: u.IsStaff})
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := middleware.EndSession(c, h.Session); err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.Status(http.StatusNoContent)
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *gin.Context) {
	u, _ := middleware.CurrentUser(c)
	c.JSON(http.StatusOK, view.User{ID: u.ID, Username: u.Username, Email: u.Email, IsStaff: u.IsStaff})
}

// CSRFToken handles GET /csrf-token for script clients.
func CSRFToken(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"csrf_token": middleware.GetCSRFToken(c)})
}

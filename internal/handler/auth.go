package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/work-buddy/internal/auth"
	"github.com/psds-microservice/work-buddy/internal/errs"
	"github.com/psds-microservice/work-buddy/internal/middleware"
	"github.com/psds-microservice/work-buddy/internal/model"
	"github.com/psds-microservice/work-buddy/internal/service"
	"github.com/psds-microservice/work-buddy/internal/session"
	"github.com/psds-microservice/work-buddy/internal/web"
	"github.com/rs/zerolog"
)

type CookieConfig struct {
	Name   string
	Secure bool
}

type AuthHandler struct {
	auth     *auth.Authenticator
	desk     service.DeskServicer
	sessions *session.Manager
	cookie   CookieConfig
	log      zerolog.Logger
}

func NewAuthHandler(a *auth.Authenticator, desk service.DeskServicer, sessions *session.Manager, cookie CookieConfig, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{auth: a, desk: desk, sessions: sessions, cookie: cookie, log: log}
}

// DashboardPath is where a role lands after login.
func DashboardPath(role model.Role) string {
	if role == model.RoleAdmin {
		return "/admin-dashboard"
	}
	return "/user-dashboard"
}

func (h *AuthHandler) start(ctx context.Context, c *gin.Context, id auth.Identity) (*session.Session, error) {
	sid, err := h.desk.ResolveIdentity(ctx, id)
	if err != nil {
		return nil, err
	}
	// A new login replaces the session the request came with.
	if prev := middleware.Current(c); prev != nil {
		h.sessions.Delete(prev.Token)
	}
	s := h.sessions.Create(sid)
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, s.Token, 0, "/", "", h.cookie.Secure, true)
	h.log.Info().Str("role", string(s.Role)).Str("email", s.Email).Msg("login")
	return s, nil
}

func (h *AuthHandler) end(c *gin.Context) {
	if s := middleware.Current(c); s != nil {
		h.sessions.Delete(s.Token)
		h.log.Info().Str("role", string(s.Role)).Msg("logout")
	}
	c.SetCookie(h.cookie.Name, "", -1, "/", "", h.cookie.Secure, true)
}

func sessionBody(s *session.Session) gin.H {
	return gin.H{
		"role":      s.Role,
		"email":     s.Email,
		"user_id":   s.UserID,
		"dashboard": DashboardPath(s.Role),
	}
}

// JSON API

func (h *AuthHandler) UserLogin(c *gin.Context) {
	var req auth.UserCredentials
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid body", nil)
		return
	}
	h.loginJSON(c, func() (auth.Identity, error) { return h.auth.LoginUser(req) })
}

func (h *AuthHandler) AdminLogin(c *gin.Context) {
	var req auth.AdminCredentials
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid body", nil)
		return
	}
	h.loginJSON(c, func() (auth.Identity, error) { return h.auth.LoginAdmin(req) })
}

func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	h.loginJSON(c, func() (auth.Identity, error) { return h.auth.LoginGoogle(), nil })
}

func (h *AuthHandler) loginJSON(c *gin.Context, login func() (auth.Identity, error)) {
	id, err := login()
	if err != nil {
		writeDomainError(c, h.log, err)
		return
	}
	s, err := h.start(c.Request.Context(), c, id)
	if err != nil {
		writeDomainError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, sessionBody(s))
}

func (h *AuthHandler) Logout(c *gin.Context) {
	h.end(c)
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) Session(c *gin.Context) {
	s := middleware.Current(c)
	if s == nil {
		writeDomainError(c, h.log, errs.ErrUnauthorized)
		return
	}
	c.JSON(http.StatusOK, sessionBody(s))
}

// HTML forms. Both login forms answer bad input the same way: the login
// page is rendered again with the messages next to the fields.

func (h *AuthHandler) LoginPage(c *gin.Context) {
	if s := middleware.Current(c); s != nil {
		c.Redirect(http.StatusSeeOther, DashboardPath(s.Role))
		return
	}
	c.HTML(http.StatusOK, web.PageLogin, h.loginPage(web.LoginPage{Tab: "user"}))
}

func (h *AuthHandler) loginPage(p web.LoginPage) web.LoginPage {
	p.AdminUsername = h.auth.AdminUsername()
	return p
}

func (h *AuthHandler) UserLoginForm(c *gin.Context) {
	var req auth.UserCredentials
	_ = c.ShouldBind(&req)
	id, err := h.auth.LoginUser(req)
	if err != nil {
		h.renderLoginError(c, web.LoginPage{Tab: "user", Email: req.Email}, err)
		return
	}
	h.loginForm(c, id)
}

func (h *AuthHandler) AdminLoginForm(c *gin.Context) {
	var req auth.AdminCredentials
	_ = c.ShouldBind(&req)
	id, err := h.auth.LoginAdmin(req)
	if err != nil {
		h.renderLoginError(c, web.LoginPage{Tab: "admin", Username: req.Username}, err)
		return
	}
	h.loginForm(c, id)
}

func (h *AuthHandler) GoogleLoginForm(c *gin.Context) {
	h.loginForm(c, h.auth.LoginGoogle())
}

func (h *AuthHandler) loginForm(c *gin.Context, id auth.Identity) {
	s, err := h.start(c.Request.Context(), c, id)
	if err != nil {
		h.log.Error().Err(err).Msg("start session")
		c.String(http.StatusInternalServerError, "internal error")
		return
	}
	c.Redirect(http.StatusSeeOther, DashboardPath(s.Role))
}

func (h *AuthHandler) renderLoginError(c *gin.Context, page web.LoginPage, err error) {
	fields := map[string]string{}
	status := http.StatusUnprocessableEntity
	var inErr *auth.InputError
	switch {
	case errors.As(err, &inErr):
		fields = inErr.Fields
	case errors.Is(err, errs.ErrInvalidCredentials):
		fields["credentials"] = "Invalid admin credentials"
		status = http.StatusUnauthorized
	default:
		h.log.Error().Err(err).Msg("login")
		c.String(http.StatusInternalServerError, "internal error")
		return
	}
	if page.Tab == "admin" {
		page.AdminErrors = fields
	} else {
		page.UserErrors = fields
	}
	c.HTML(status, web.PageLogin, h.loginPage(page))
}

func (h *AuthHandler) LogoutForm(c *gin.Context) {
	h.end(c)
	c.Redirect(http.StatusSeeOther, "/")
}

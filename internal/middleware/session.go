package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/work-buddy/internal/model"
	"github.com/psds-microservice/work-buddy/internal/session"
)

const sessionKey = "work_buddy.session"

// Session resolves the session cookie and stores the session, if any, on the
// gin context. It never rejects a request; RequireRole does that.
func Session(sessions *session.Manager, cookie string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, err := c.Cookie(cookie); err == nil {
			if s, ok := sessions.Get(token); ok {
				c.Set(sessionKey, s)
			}
		}
		c.Next()
	}
}

// Current returns the session attached by Session, or nil.
func Current(c *gin.Context) *session.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	s, _ := v.(*session.Session)
	return s
}

// RequireRole lets the request through only when the session carries role.
// Otherwise deny is called and the chain is aborted.
func RequireRole(role model.Role, deny gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !session.Allows(Current(c), role) {
			deny(c)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RedirectToLogin is the silent deny used by the HTML dashboards.
func RedirectToLogin(c *gin.Context) {
	c.Redirect(http.StatusSeeOther, "/")
}

// Unauthorized is the deny used by the JSON API.
func Unauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"code":    "UNAUTHORIZED",
			"message": "Login with the required role first",
		},
	})
}

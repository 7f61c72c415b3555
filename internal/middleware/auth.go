package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xuxiaoleilancy/ai-codehub/internal/flash"
	"github.com/xuxiaoleilancy/ai-codehub/internal/session"
)

// RequireSession runs the session check inline and sends visitors without a
// live session to the login page.
func RequireSession(flashes *flash.Jar) gin.HandlerFunc {
	return func(c *gin.Context) {
		m := Manager(c)
		if m == nil {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		ctx := c.Request.Context()

		if m.State(ctx) == session.Anonymous {
			redirectToLogin(c)
			return
		}

		result := m.PeriodicCheck(ctx, c.Request.URL.Path)
		if result.RedirectToLogin {
			flashes.Write(c.Writer, flash.Info("session_expired"))
			redirectToLogin(c)
			return
		}

		if !m.IsAuthenticated(ctx) {
			redirectToLogin(c)
			return
		}

		c.Next()
	}
}

func redirectToLogin(c *gin.Context) {
	c.Redirect(http.StatusSeeOther, session.LoginPath)
	c.Abort()
}

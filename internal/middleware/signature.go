package middleware

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/xuxiaoleilancy/ai-codehub/internal/flash"
	"github.com/xuxiaoleilancy/ai-codehub/internal/security"
)

const (
	csrfField   = "csrf_token"
	csrfHeader  = "X-CSRF-Token"
	csrfPurpose = "csrf"
)

// CSRFToken is the form token for clientID.
func CSRFToken(secret, clientID string) string {
	return security.SignValue(secret, csrfPurpose, clientID)
}

// CSRF rejects state-changing requests whose token was not issued to the
// requesting client. Browsers are sent back to the page they came from with
// a notice; other callers get a JSON 403.
func CSRF(secret string, flashes *flash.Jar) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		token := c.GetHeader(csrfHeader)
		if token == "" {
			token = c.PostForm(csrfField)
		}

		clientID, ok := security.VerifyValue(secret, csrfPurpose, token)
		if !ok || clientID != ClientID(c) {
			if wantsHTML(c) {
				flashes.Write(c.Writer, flash.Error("csrf_failed", ""))
				c.Redirect(http.StatusSeeOther, refererPath(c))
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid_csrf_token"})
			return
		}

		c.Next()
	}
}

// refererPath is the same-host page the request came from, or the home page.
func refererPath(c *gin.Context) string {
	ref, err := url.Parse(c.GetHeader("Referer"))
	if err != nil || ref.Host != c.Request.Host {
		return "/"
	}
	path := ref.RequestURI()
	if path == "" || path[0] != '/' || (len(path) > 1 && (path[1] == '/' || path[1] == '\\')) {
		return "/"
	}
	return path
}

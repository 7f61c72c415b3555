package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xuxiaoleilancy/ai-codehub/internal/ids"
	"github.com/xuxiaoleilancy/ai-codehub/internal/security"
	"github.com/xuxiaoleilancy/ai-codehub/internal/session"
)

// ClientCookie names the browser's signed client id.
const ClientCookie = "codehub_client"

const (
	clientIDKey   = "client_id"
	managerKey    = "session_manager"
	clientPurpose = "client"
)

// ClientOptions configures the client id cookie.
type ClientOptions struct {
	Secret string
	Secure bool
	MaxAge time.Duration
}

// Client identifies the browser by its signed cookie, issuing a new id when
// the cookie is missing or forged, and binds a session manager to it.
func Client(factory *session.Factory, opts ClientOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := ""
		if raw, err := c.Cookie(ClientCookie); err == nil {
			if id, ok := security.VerifyValue(opts.Secret, clientPurpose, raw); ok && ids.Valid(id) {
				clientID = id
			}
		}
		if clientID == "" {
			clientID = ids.New()
		}

		http.SetCookie(c.Writer, &http.Cookie{
			Name:     ClientCookie,
			Value:    security.SignValue(opts.Secret, clientPurpose, clientID),
			Path:     "/",
			MaxAge:   int(opts.MaxAge / time.Second),
			HttpOnly: true,
			Secure:   opts.Secure,
			SameSite: http.SameSiteLaxMode,
		})

		c.Set(clientIDKey, clientID)
		c.Set(managerKey, factory.For(clientID))

		c.Next()
	}
}

// Manager returns the session manager bound by Client.
func Manager(c *gin.Context) *session.Manager {
	if v, ok := c.Get(managerKey); ok {
		if m, ok := v.(*session.Manager); ok {
			return m
		}
	}
	return nil
}

func ClientID(c *gin.Context) string {
	return c.GetString(clientIDKey)
}

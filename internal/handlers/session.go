package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xuxiaoleilancy/ai-codehub/internal/middleware"
	"github.com/xuxiaoleilancy/ai-codehub/internal/session"
)

type sessionResponse struct {
	State            string     `json:"state"`
	Authenticated    bool       `json:"authenticated"`
	Username         string     `json:"username,omitempty"`
	IsSuperuser      bool       `json:"is_superuser"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
	ExpiresInSeconds int64      `json:"expires_in_seconds"`
}

type checkResponse struct {
	Refreshed  bool            `json:"refreshed"`
	Cleared    bool            `json:"cleared"`
	RedirectTo string          `json:"redirect_to,omitempty"`
	Session    sessionResponse `json:"session"`
}

// SessionStatus reports the visitor's session without touching it.
func (h HandlerSet) SessionStatus(c *gin.Context) {
	m := middleware.Manager(c)
	resp, err := h.describe(c, m)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "session_unavailable"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SessionCheck runs the periodic session check for a polling page. path is
// the page the caller is showing.
func (h HandlerSet) SessionCheck(c *gin.Context) {
	m := middleware.Manager(c)
	ctx := c.Request.Context()

	path := c.PostForm("path")
	if path == "" {
		path = c.Query("path")
	}

	var result session.CheckResult
	if m.State(ctx) != session.Anonymous {
		result = m.PeriodicCheck(ctx, path)
	}

	resp := checkResponse{
		Refreshed: result.Refreshed,
		Cleared:   result.Cleared,
	}
	if result.RedirectToLogin {
		resp.RedirectTo = session.LoginPath
	}

	desc, err := h.describe(c, m)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "session_unavailable"})
		return
	}
	resp.Session = desc
	c.JSON(http.StatusOK, resp)
}

func (h HandlerSet) describe(c *gin.Context, m *session.Manager) (sessionResponse, error) {
	ctx := c.Request.Context()
	sess, err := m.Current(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("read session failed")
		return sessionResponse{}, err
	}

	state := m.State(ctx)
	resp := sessionResponse{
		State:         state.String(),
		Authenticated: state == session.Authenticated || state == session.Expiring,
		Username:      sess.Username,
		IsSuperuser:   sess.IsSuperuser,
	}
	if !sess.Expiry.IsZero() {
		expiry := sess.Expiry
		resp.ExpiresAt = &expiry
		resp.ExpiresInSeconds = int64(sess.Remaining(m.Now()) / time.Second)
	}
	return resp, nil
}

package handlers

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/xuxiaoleilancy/ai-codehub/internal/middleware"
)

// SetLanguage switches the visitor's language and sends them back to next,
// the referring page or home. Unsupported codes change nothing.
func (h HandlerSet) SetLanguage(c *gin.Context) {
	m := middleware.Manager(c)
	engine := h.engine(c, m)

	code := c.Param("code")
	if ok, err := engine.SetLanguage(c.Request.Context(), code); err != nil {
		h.log.Error().Err(err).Str("code", code).Msg("store language failed")
	} else if !ok {
		h.log.Debug().Str("code", code).Msg("unsupported language requested")
	}

	c.Redirect(http.StatusSeeOther, h.returnPath(c))
}

func (h HandlerSet) returnPath(c *gin.Context) string {
	next := c.PostForm("next")
	if next == "" {
		next = c.Query("next")
	}
	if next, ok := localPath(next); ok {
		return next
	}
	if ref, err := url.Parse(c.GetHeader("Referer")); err == nil && ref.Host == c.Request.Host {
		if next, ok := localPath(ref.RequestURI()); ok {
			return next
		}
	}
	return "/"
}

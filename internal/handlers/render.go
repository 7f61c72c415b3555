package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xuxiaoleilancy/ai-codehub/internal/apiclient"
	"github.com/xuxiaoleilancy/ai-codehub/internal/flash"
	"github.com/xuxiaoleilancy/ai-codehub/internal/i18n"
	"github.com/xuxiaoleilancy/ai-codehub/internal/middleware"
	"github.com/xuxiaoleilancy/ai-codehub/internal/navbar"
	"github.com/xuxiaoleilancy/ai-codehub/internal/session"
	"github.com/xuxiaoleilancy/ai-codehub/internal/views"
)

const htmlContentType = "text/html; charset=utf-8"

// engine resolves the request language and persists it when it came from
// the query string.
func (h HandlerSet) engine(c *gin.Context, m *session.Manager) *i18n.Engine {
	ctx := c.Request.Context()
	var prefs i18n.Preferences
	if m != nil {
		prefs = m
	}
	code, persist := i18n.Detect(ctx, c.Request, h.table, prefs, h.cfg.I18n.DefaultLanguage)
	engine := i18n.NewEngine(h.table, prefs, code, h.log)
	if persist {
		if _, err := engine.SetLanguage(ctx, code); err != nil {
			h.log.Warn().Err(err).Msg("persist language failed")
		}
	}
	return engine
}

// render writes a full page. notice overrides the pending flash cookie.
func (h HandlerSet) render(c *gin.Context, status int, page, titleKey string, data any, notice *flash.Notice) {
	ctx := c.Request.Context()
	m := middleware.Manager(c)
	engine := h.engine(c, m)

	var info views.SessionInfo
	if m != nil {
		if sess, err := m.Current(ctx); err == nil {
			info = views.SessionInfo{
				Authenticated: m.IsAuthenticated(ctx) && sess.Username != "",
				Username:      sess.Username,
				IsSuperuser:   sess.IsSuperuser,
			}
		} else {
			h.log.Error().Err(err).Msg("read session for render failed")
		}
	}

	if pending, ok := h.flashes.ReadAndClear(c.Writer, c.Request); ok && notice == nil {
		notice = &pending
	}

	csrf := middleware.CSRFToken(h.cfg.Session.CookieSecret, middleware.ClientID(c))
	nav := h.navbar.Render(ctx, navbar.View{
		Authenticated: info.Authenticated,
		Username:      info.Username,
		IsSuperuser:   info.IsSuperuser,
		LogoutAction:  "/logout",
		CSRFToken:     csrf,
	})

	out, err := h.views.Render(page, views.Page{
		TitleKey:  titleKey,
		Lang:      engine.Language(),
		Path:      c.Request.URL.RequestURI(),
		Navbar:    nav,
		Flash:     notice,
		CSRFToken: csrf,
		Session:   info,
		Data:      data,
	})
	if err != nil {
		h.log.Error().Err(err).Str("page", page).Msg("render page failed")
		c.String(http.StatusInternalServerError, "internal server error")
		return
	}

	localized, err := engine.Localize(out)
	if err != nil {
		h.log.Warn().Err(err).Str("page", page).Msg("localize page failed")
		localized = out
	}
	c.Data(status, htmlContentType, localized)
}

// ErrorPage renders the generic error page. It backs the panic recovery
// and unknown routes.
func (h HandlerSet) ErrorPage(c *gin.Context, status int) {
	message := "generic_error"
	if status == http.StatusNotFound {
		message = "not_found"
	}
	h.render(c, status, views.PageError, "error", views.ErrorData{Status: status, Message: message}, nil)
}

func (h HandlerSet) NotFound(c *gin.Context) {
	h.ErrorPage(c, http.StatusNotFound)
}

func (h HandlerSet) redirect(c *gin.Context, location string, notice flash.Notice) {
	h.flashes.Write(c.Writer, notice)
	c.Redirect(http.StatusSeeOther, location)
}

// token returns the bearer token of the bound session.
func (h HandlerSet) token(c *gin.Context) string {
	m := middleware.Manager(c)
	if m == nil {
		return ""
	}
	sess, err := m.Current(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("read session token failed")
		return ""
	}
	return sess.Token
}

// backendFailed turns a failed backend call into a flash notice. A 401 means
// the backend no longer accepts the token, so the session is dropped.
func (h HandlerSet) backendFailed(c *gin.Context, err error, fallbackKey, location string) {
	if apiclient.IsStatus(err, http.StatusUnauthorized) {
		h.sessionLost(c)
		return
	}
	h.log.Warn().Err(err).Str("path", c.Request.URL.Path).Msg("backend call failed")
	h.redirect(c, location, flash.Error(fallbackKey, apiclient.Detail(err)))
}

func (h HandlerSet) sessionLost(c *gin.Context) {
	if m := middleware.Manager(c); m != nil {
		if err := m.ClearSession(c.Request.Context()); err != nil {
			h.log.Error().Err(err).Msg("clear rejected session failed")
		}
	}
	h.redirect(c, session.LoginPath, flash.Info("session_expired"))
}

// localPath accepts only same-site absolute paths.
func localPath(raw string) (string, bool) {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return "", false
	}
	return raw, true
}

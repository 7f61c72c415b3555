package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xuxiaoleilancy/ai-codehub/internal/apiclient"
	"github.com/xuxiaoleilancy/ai-codehub/internal/flash"
	"github.com/xuxiaoleilancy/ai-codehub/internal/middleware"
	"github.com/xuxiaoleilancy/ai-codehub/internal/service"
	"github.com/xuxiaoleilancy/ai-codehub/internal/session"
	"github.com/xuxiaoleilancy/ai-codehub/internal/views"
)

const (
	tabLogin    = "login"
	tabRegister = "register"
)

func (h HandlerSet) Home(c *gin.Context) {
	h.render(c, http.StatusOK, views.PageHome, "home", nil, nil)
}

func (h HandlerSet) LoginPage(c *gin.Context) {
	if m := middleware.Manager(c); m != nil && m.IsAuthenticated(c.Request.Context()) {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	tab := tabLogin
	if c.Query("tab") == tabRegister {
		tab = tabRegister
	}
	h.render(c, http.StatusOK, views.PageLogin, tab, views.LoginData{Tab: tab}, nil)
}

func (h HandlerSet) Login(c *gin.Context) {
	m := middleware.Manager(c)
	err := h.authService.Login(c.Request.Context(), m, service.LoginInput{
		Username: c.PostForm("username"),
		Password: c.PostForm("password"),
	})
	if err != nil {
		h.log.Info().Err(err).Str("client_id", m.ClientID()).Msg("login rejected")
		h.redirect(c, session.LoginPath, authFailure(err, "login_failed", "login_error"))
		return
	}

	h.redirect(c, "/", flash.Success("login_success"))
}

func (h HandlerSet) Register(c *gin.Context) {
	m := middleware.Manager(c)
	loggedIn, err := h.authService.Register(c.Request.Context(), m, service.RegisterInput{
		Username: c.PostForm("username"),
		Email:    c.PostForm("email"),
		Password: c.PostForm("password"),
	})
	if err != nil {
		h.log.Info().Err(err).Str("client_id", m.ClientID()).Msg("registration rejected")
		h.redirect(c, session.LoginPath+"?tab="+tabRegister, authFailure(err, "register_failed", "register_error"))
		return
	}

	if loggedIn {
		h.redirect(c, "/", flash.Success("register_success"))
		return
	}
	h.redirect(c, session.LoginPath, flash.Success("register_success"))
}

func (h HandlerSet) Logout(c *gin.Context) {
	if err := h.authService.Logout(c.Request.Context(), middleware.Manager(c)); err != nil {
		h.log.Error().Err(err).Msg("logout failed")
		h.redirect(c, "/", flash.Error("generic_error", ""))
		return
	}
	h.redirect(c, "/", flash.Success("logout_success"))
}

// authFailure prefers the backend's own message. Anything that is not a
// backend rejection gets the generic error key.
func authFailure(err error, rejectedKey, errorKey string) flash.Notice {
	var apiErr *apiclient.Error
	switch {
	case errors.As(err, &apiErr):
		return flash.Error(rejectedKey, apiErr.Detail)
	case errors.Is(err, service.ErrMissingCredentials):
		return flash.Error(rejectedKey, "")
	default:
		return flash.Error(errorKey, "")
	}
}

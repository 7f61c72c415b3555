package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/xuxiaoleilancy/ai-codehub/internal/apiclient"
	"github.com/xuxiaoleilancy/ai-codehub/internal/session"
)

var ErrMissingCredentials = errors.New("username and password required")

// AuthBackend is the part of the REST client the auth flows use.
type AuthBackend interface {
	Login(ctx context.Context, username, password string) (apiclient.TokenGrant, error)
	Register(ctx context.Context, input apiclient.RegisterInput) (apiclient.RegisterResult, error)
	Logout(ctx context.Context, token string) error
	CurrentUser(ctx context.Context, token string) (apiclient.User, error)
}

type AuthService struct {
	backend    AuthBackend
	defaultTTL time.Duration
	now        func() time.Time
	log        zerolog.Logger
}

func NewAuthService(backend AuthBackend, defaultTTL time.Duration, log zerolog.Logger) *AuthService {
	return &AuthService{
		backend:    backend,
		defaultTTL: defaultTTL,
		now:        time.Now,
		log:        log.With().Str("component", "auth").Logger(),
	}
}

type LoginInput struct {
	Username string
	Password string
}

// Login authenticates against the backend and stores the session for the
// browser m is bound to.
func (s *AuthService) Login(ctx context.Context, m *session.Manager, input LoginInput) error {
	input.Username = strings.TrimSpace(input.Username)
	if input.Username == "" || input.Password == "" {
		return ErrMissingCredentials
	}

	grant, err := s.backend.Login(ctx, input.Username, input.Password)
	if err != nil {
		return err
	}

	username := grant.Username
	if username == "" {
		username = input.Username
	}
	return s.establish(ctx, m, grant.AccessToken, grant.ExpiresIn, username, grant.IsSuperuser, grant.Username != "")
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// Register creates the account. When the backend also issues a token the
// browser is signed in and loggedIn is true.
func (s *AuthService) Register(ctx context.Context, m *session.Manager, input RegisterInput) (loggedIn bool, err error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)
	if input.Username == "" || input.Password == "" {
		return false, ErrMissingCredentials
	}

	result, err := s.backend.Register(ctx, apiclient.RegisterInput{
		Username: input.Username,
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		return false, err
	}
	if result.AccessToken == "" {
		return false, nil
	}

	username := result.Username
	if username == "" {
		username = input.Username
	}
	if err := s.establish(ctx, m, result.AccessToken, result.ExpiresIn, username, result.IsSuperuser, true); err != nil {
		return false, err
	}
	return true, nil
}

func (s *AuthService) establish(ctx context.Context, m *session.Manager, token string, expiresIn int64, username string, isSuperuser bool, profileKnown bool) error {
	ttl := session.GrantTTL(token, expiresIn, s.defaultTTL, s.now())
	if err := m.SaveSession(ctx, token, ttl); err != nil {
		return err
	}

	if !profileKnown {
		if user, err := s.backend.CurrentUser(ctx, token); err == nil {
			if user.Username != "" {
				username = user.Username
			}
			isSuperuser = user.IsSuperuser
		} else {
			s.log.Warn().Err(err).Msg("fetch current user failed")
		}
	}

	if err := m.SaveProfile(ctx, username, isSuperuser); err != nil {
		return fmt.Errorf("store profile: %w", err)
	}
	s.log.Info().Str("client_id", m.ClientID()).Str("username", username).Msg("signed in")
	return nil
}

// Logout tells the backend when there is a token, then clears the local
// session whatever the backend said.
func (s *AuthService) Logout(ctx context.Context, m *session.Manager) error {
	sess, err := m.Current(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("read session before logout failed")
	}
	if sess.Token != "" {
		if err := s.backend.Logout(ctx, sess.Token); err != nil {
			s.log.Warn().Err(err).Msg("backend logout failed")
		}
	}
	return m.ClearSession(ctx)
}

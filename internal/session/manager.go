// Package session owns the browser session lifecycle: storing the bearer
// token and its expiry, deciding validity, silent refresh and clearing.
// No other package touches the session keys of the credential store.
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/xuxiaoleilancy/ai-codehub/internal/credstore"
)

// DefaultExpiryThreshold is how close to expiry a session counts as expiring.
const DefaultExpiryThreshold = 5 * time.Minute

// DefaultRefreshTimeout bounds one shared refresh call.
const DefaultRefreshTimeout = 15 * time.Second

// LoginPath is never redirected to itself.
const LoginPath = "/login"

var (
	ErrNoSession      = errors.New("no session token")
	ErrInvalidSession = errors.New("invalid session")
)

var sessionKeys = []string{
	credstore.KeyToken,
	credstore.KeyTokenExpiry,
	credstore.KeyUsername,
	credstore.KeySuperuser,
}

// Grant is a newly issued token and its lifetime.
type Grant struct {
	Token string
	TTL   time.Duration
}

type Refresher interface {
	Refresh(ctx context.Context, token string) (Grant, error)
}

// Factory binds managers to individual browser clients. One Factory is
// shared by the whole process.
type Factory struct {
	provider       credstore.Provider
	refresher      Refresher
	threshold      time.Duration
	refreshTimeout time.Duration
	flight         singleflight.Group
	now            func() time.Time
	log            zerolog.Logger
}

func NewFactory(provider credstore.Provider, refresher Refresher, threshold time.Duration, log zerolog.Logger) *Factory {
	if threshold <= 0 {
		threshold = DefaultExpiryThreshold
	}
	return &Factory{
		provider:       provider,
		refresher:      refresher,
		threshold:      threshold,
		refreshTimeout: DefaultRefreshTimeout,
		now:            time.Now,
		log:            log.With().Str("component", "session").Logger(),
	}
}

// SetRefreshTimeout bounds each backend refresh call. Non-positive values
// are ignored.
func (f *Factory) SetRefreshTimeout(d time.Duration) {
	if d > 0 {
		f.refreshTimeout = d
	}
}

// SetClock replaces the time source.
func (f *Factory) SetClock(now func() time.Time) {
	f.now = now
}

func (f *Factory) For(clientID string) *Manager {
	return &Manager{
		factory:  f,
		clientID: clientID,
		store:    f.provider.For(clientID),
		log:      f.log.With().Str("client_id", clientID).Logger(),
	}
}

// Clients lists every browser client with stored state.
func (f *Factory) Clients(ctx context.Context) ([]string, error) {
	return f.provider.Clients(ctx)
}

type Manager struct {
	factory  *Factory
	clientID string
	store    credstore.Store
	log      zerolog.Logger
}

func (m *Manager) ClientID() string {
	return m.clientID
}

// Now reports the time on the factory clock.
func (m *Manager) Now() time.Time {
	return m.factory.now()
}

// SaveSession stores token with an absolute expiry of now+ttl.
func (m *Manager) SaveSession(ctx context.Context, token string, ttl time.Duration) error {
	if token == "" || ttl <= 0 {
		return fmt.Errorf("%w: token and positive ttl required", ErrInvalidSession)
	}
	expiry := m.factory.now().Add(ttl).UTC()

	err := m.store.Set(ctx, map[string]string{
		credstore.KeyToken:       token,
		credstore.KeyTokenExpiry: expiry.Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	m.log.Debug().Time("expiry", expiry).Msg("session saved")
	return nil
}

func (m *Manager) SaveProfile(ctx context.Context, username string, isSuperuser bool) error {
	err := m.store.Set(ctx, map[string]string{
		credstore.KeyUsername:  username,
		credstore.KeySuperuser: strconv.FormatBool(isSuperuser),
	})
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// Current returns the stored record.
func (m *Manager) Current(ctx context.Context) (Session, error) {
	values, err := m.store.GetMany(ctx, sessionKeys...)
	if err != nil {
		return Session{}, fmt.Errorf("read session: %w", err)
	}

	sess := Session{
		Token:    values[credstore.KeyToken],
		Username: values[credstore.KeyUsername],
	}
	sess.IsSuperuser, _ = strconv.ParseBool(values[credstore.KeySuperuser])
	if raw, ok := values[credstore.KeyTokenExpiry]; ok {
		if expiry, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			sess.Expiry = expiry
		} else {
			m.log.Warn().Str("raw", raw).Msg("unparseable token expiry")
		}
	}
	return sess, nil
}

// IsAuthenticated reports whether a token with a future expiry is stored.
// Storage failures read as unauthenticated.
func (m *Manager) IsAuthenticated(ctx context.Context) bool {
	sess, err := m.Current(ctx)
	if err != nil {
		m.log.Error().Err(err).Msg("session read failed")
		return false
	}
	return sess.Token != "" && !sess.Expiry.IsZero() && m.factory.now().Before(sess.Expiry)
}

// IsExpiringSoon is true when less than threshold remains or no expiry is
// recorded. A non-positive threshold means DefaultExpiryThreshold.
func (m *Manager) IsExpiringSoon(ctx context.Context, threshold time.Duration) bool {
	if threshold <= 0 {
		threshold = DefaultExpiryThreshold
	}
	sess, err := m.Current(ctx)
	if err != nil {
		m.log.Error().Err(err).Msg("session read failed")
		return true
	}
	if sess.Expiry.IsZero() {
		return true
	}
	return sess.Expiry.Sub(m.factory.now()) < threshold
}

func (m *Manager) State(ctx context.Context) State {
	sess, err := m.Current(ctx)
	if err != nil {
		m.log.Error().Err(err).Msg("session read failed")
		return Anonymous
	}
	return m.stateOf(sess)
}

func (m *Manager) stateOf(sess Session) State {
	if sess.Token == "" {
		return Anonymous
	}
	now := m.factory.now()
	switch {
	case sess.Expiry.IsZero(), !now.Before(sess.Expiry):
		return Expired
	case sess.Expiry.Sub(now) < m.factory.threshold:
		return Expiring
	default:
		return Authenticated
	}
}

// Refresh trades the stored token for a new one. Without a token it fails
// with ErrNoSession; on any failure the stored state is left as it was.
// Concurrent refreshes of one client share a single backend call. That call
// is detached from every caller's cancellation and bounded by the refresh
// timeout; a caller whose ctx ends stops waiting with ctx.Err().
func (m *Manager) Refresh(ctx context.Context) error {
	results := m.factory.flight.DoChan(m.clientID, func() (interface{}, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.factory.refreshTimeout)
		defer cancel()
		return nil, m.refresh(flightCtx)
	})

	select {
	case res := <-results:
		if res.Shared {
			m.log.Debug().Msg("refresh shared with concurrent caller")
		}
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) refresh(ctx context.Context) error {
	token, ok, err := m.store.Get(ctx, credstore.KeyToken)
	if err != nil {
		return fmt.Errorf("refresh: %w", err)
	}
	if !ok || token == "" {
		return ErrNoSession
	}

	grant, err := m.factory.refresher.Refresh(ctx, token)
	if err != nil {
		return fmt.Errorf("refresh: %w", err)
	}
	if err := m.SaveSession(ctx, grant.Token, grant.TTL); err != nil {
		return fmt.Errorf("refresh: %w", err)
	}
	m.log.Info().Msg("session refreshed")
	return nil
}

// ClearSession removes the token, expiry and user attributes. The language
// preference survives.
func (m *Manager) ClearSession(ctx context.Context) error {
	if err := m.store.Delete(ctx, sessionKeys...); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// PeriodicCheck refreshes an expiring session and clears it when the
// refresh fails. A check whose own ctx ends first changes nothing. RedirectToLogin is set when the session was cleared and the
// caller is not already on the login page.
func (m *Manager) PeriodicCheck(ctx context.Context, currentPath string) CheckResult {
	if !m.IsExpiringSoon(ctx, m.factory.threshold) {
		return CheckResult{}
	}

	err := m.Refresh(ctx)
	if err == nil {
		return CheckResult{Refreshed: true}
	}
	if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		m.log.Debug().Err(err).Msg("session check abandoned by caller")
		return CheckResult{}
	}

	if errors.Is(err, ErrNoSession) {
		m.log.Debug().Msg("no session to refresh")
	} else {
		m.log.Warn().Err(err).Msg("session refresh failed, clearing")
	}
	result := CheckResult{RedirectToLogin: currentPath != LoginPath}
	if clearErr := m.ClearSession(ctx); clearErr != nil {
		m.log.Error().Err(clearErr).Msg("clear session failed")
		return result
	}
	result.Cleared = true
	return result
}

// Language returns the stored language preference.
func (m *Manager) Language(ctx context.Context) (string, bool) {
	code, ok, err := m.store.Get(ctx, credstore.KeyLanguage)
	if err != nil {
		m.log.Error().Err(err).Msg("language read failed")
		return "", false
	}
	return code, ok && code != ""
}

func (m *Manager) SetLanguage(ctx context.Context, code string) error {
	if err := m.store.Set(ctx, map[string]string{credstore.KeyLanguage: code}); err != nil {
		return fmt.Errorf("save language: %w", err)
	}
	return nil
}

package session

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/xuxiaoleilancy/ai-codehub/internal/apiclient"
)

// GrantTTL works out how long a freshly issued token lives: the backend's
// expires_in when given, else the token's own exp claim, else fallback.
// The signature is not checked; the backend remains the authority.
func GrantTTL(token string, expiresIn int64, fallback time.Duration, now time.Time) time.Duration {
	if expiresIn > 0 {
		return time.Duration(expiresIn) * time.Second
	}

	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err == nil && claims.ExpiresAt != nil {
		return claims.ExpiresAt.Time.Sub(now)
	}
	return fallback
}

type tokenRefresher interface {
	Refresh(ctx context.Context, token string) (apiclient.TokenGrant, error)
}

// BackendRefresher adapts the REST client's refresh call to Refresher.
type BackendRefresher struct {
	client     tokenRefresher
	defaultTTL time.Duration
	now        func() time.Time
}

func NewBackendRefresher(client tokenRefresher, defaultTTL time.Duration) *BackendRefresher {
	return &BackendRefresher{
		client:     client,
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

func (b *BackendRefresher) Refresh(ctx context.Context, token string) (Grant, error) {
	grant, err := b.client.Refresh(ctx, token)
	if err != nil {
		return Grant{}, err
	}
	return Grant{
		Token: grant.AccessToken,
		TTL:   GrantTTL(grant.AccessToken, grant.ExpiresIn, b.defaultTTL, b.now()),
	}, nil
}

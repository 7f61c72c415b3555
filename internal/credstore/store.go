// Package credstore keeps the per-browser key-value state that a browser
// would otherwise hold in local storage: the bearer token, its expiry, basic
// user attributes and the selected language.
package credstore

import (
	"context"
	"errors"
	"fmt"
)

// Field names inside one client's namespace.
const (
	KeyToken       = "token"
	KeyTokenExpiry = "token_expiry"
	KeyUsername    = "username"
	KeySuperuser   = "is_superuser"
	KeyLanguage    = "language"
)

// ErrStorage is wrapped by every failure of the underlying storage.
var ErrStorage = errors.New("credential storage failure")

// Store is one browser client's namespace.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	// GetMany omits missing keys from the result.
	GetMany(ctx context.Context, keys ...string) (map[string]string, error)
	// Set writes all values in a single step.
	Set(ctx context.Context, values map[string]string) error
	Delete(ctx context.Context, keys ...string) error
}

// Provider hands out client-scoped stores.
type Provider interface {
	For(clientID string) Store
	Clients(ctx context.Context) ([]string, error)
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

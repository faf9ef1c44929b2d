package ports

import "context"

// SessionStore persists the single bearer token of the current session.
// Get returns "" when no token is stored.
type SessionStore interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

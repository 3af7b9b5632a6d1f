package auth

import (
	"context"
	"errors"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMissingToken = errors.New("authorization token required")
)

// Identity is the verified caller attached to a request after the
// bearer token has been checked.
type Identity struct {
	UID   string
	Email string
}

// Verifier validates an opaque bearer token and yields the caller identity.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const identityKey contextKey = "identity"

// WithIdentity returns a context carrying the verified caller identity.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom extracts the caller identity from the context.
// Returns nil if the request was never authenticated.
func IdentityFrom(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey).(*Identity)
	return id
}

// UIDFrom extracts the caller's uid from the context.
// Returns empty string if not found.
func UIDFrom(ctx context.Context) string {
	if id := IdentityFrom(ctx); id != nil {
		return id.UID
	}
	return ""
}

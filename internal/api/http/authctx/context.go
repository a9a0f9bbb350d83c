// Package authctx carries the authenticated identity through the request
// context. The key is unexported so only this package can set or read it.
package authctx

import (
	"context"

	"github.com/google/uuid"
)

// Identity is the authenticated caller attached to a request. Requests
// without one are anonymous.
type Identity struct {
	AccountID   uuid.UUID
	Email       string
	DisplayName string
}

type identityKeyType struct{}

var identityKey = identityKeyType{}

// WithIdentity returns a context carrying the identity.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// FromContext extracts the authenticated identity, if any.
func FromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey).(Identity)
	return identity, ok
}

package model

import (
	"context"

	"github.com/google/uuid"
)

// AccountStore defines keyed persistence operations for accounts.
// Implementations must provide per-row atomicity for the two
// read-modify-write paths: Create surfaces ErrEmailTaken on a concurrent
// duplicate signup, and ReplaceRotationCredential succeeds for at most one
// caller per presented credential value.
type AccountStore interface {
	GetByEmail(ctx context.Context, email string) (Account, error)
	GetByRotationCredential(ctx context.Context, credential string) (Account, error)
	Create(ctx context.Context, account Account) (Account, error)

	// SetRotationCredential unconditionally overwrites the account's rotation
	// credential, revoking whatever value was stored before. Used on fresh login.
	SetRotationCredential(ctx context.Context, accountID uuid.UUID, credential string) (Account, error)

	// ReplaceRotationCredential swaps current for next in a single conditional
	// update and returns the owning account. ErrNotFound means the presented
	// value is not (or no longer) bound to any account.
	ReplaceRotationCredential(ctx context.Context, current, next string) (Account, error)

	// UpdateProfile refreshes the mutable profile fields on repeat login.
	UpdateProfile(ctx context.Context, accountID uuid.UUID, displayName, imageURL string) (Account, error)
}

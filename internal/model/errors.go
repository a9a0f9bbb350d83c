package model

import "errors"

var (
	// ErrNotFound is returned by stores when no row matches the key.
	ErrNotFound = errors.New("not found")

	// ErrEmailTaken is the store-level uniqueness violation on email.
	ErrEmailTaken = errors.New("email already registered")

	// ErrRotationCredentialTaken is the store-level uniqueness violation on
	// the rotation credential column.
	ErrRotationCredentialTaken = errors.New("rotation credential already in use")
)

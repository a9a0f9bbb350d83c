package model

import "errors"

var (
	// ErrInvalidToken covers malformed encoding, signature mismatch, expiry
	// and unsupported algorithms. Always non-fatal: request paths degrade to
	// anonymous.
	ErrInvalidToken = errors.New("invalid token")

	// ErrUnknownRotationCredential means the presented rotation token is not
	// bound to any account, typically because it was already consumed.
	ErrUnknownRotationCredential = errors.New("unknown rotation credential")

	// ErrProviderMismatch means the email is already registered under a
	// different identity provider. Fatal to the login attempt; never
	// silently resolved.
	ErrProviderMismatch = errors.New("email registered under a different provider")

	// ErrAccountNotFound is a post-validation identity lookup miss.
	ErrAccountNotFound = errors.New("account not found")

	// ErrUnsupportedProvider indicates a provider tag outside the configured
	// set. Configuration error, fatal to the login attempt.
	ErrUnsupportedProvider = errors.New("unsupported identity provider")
)

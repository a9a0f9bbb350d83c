package model

import "github.com/google/uuid"

// AccessClaims is the identity carried by a validated access token.
type AccessClaims struct {
	AccountID   uuid.UUID
	Email       string
	DisplayName string
}

// TokenCodec signs and validates the gateway's bearer tokens. Rotation
// tokens deliberately carry no account-identifying claims; their binding to
// an account lives in Account.RotationCredential, not in the token payload.
type TokenCodec interface {
	IssueAccessToken(account Account) (string, error)
	IssueRotationToken() (string, error)
	ParseAccessToken(token string) (AccessClaims, error)
	ValidateRotationToken(token string) error
}

package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Provider identifies the federated identity provider an account was first
// created from. The set is closed: supporting a new provider means adding a
// value here and a matching profile resolver, nothing else.
type Provider string

const (
	ProviderGoogle Provider = "google"
	ProviderKakao  Provider = "kakao"
	ProviderNaver  Provider = "naver"
)

// ParseProvider maps a provider tag from the wire to a known Provider.
func ParseProvider(s string) (Provider, error) {
	switch Provider(strings.ToLower(s)) {
	case ProviderGoogle:
		return ProviderGoogle, nil
	case ProviderKakao:
		return ProviderKakao, nil
	case ProviderNaver:
		return ProviderNaver, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedProvider, s)
	}
}

// Status is the account lifecycle state. Only StatusActive is assigned by
// this service; the remaining values are reserved for external tooling.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusSuspended Status = "SUSPENDED"
	StatusDeleted   Status = "DELETED"
)

// Account is a locally known user derived from a federated identity.
// Email and Provider are immutable after creation. RotationCredential holds
// the single currently valid rotation token for the account; overwriting it
// is the only revocation mechanism for the previous value.
type Account struct {
	ID                 uuid.UUID
	Email              string
	DisplayName        string
	ImageURL           string
	Provider           Provider
	ProviderSubjectID  string
	Status             Status
	RotationCredential *string
	CreatedAt          time.Time
	ModifiedAt         time.Time
}

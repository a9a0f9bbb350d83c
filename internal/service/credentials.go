package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/authgate/authgate/internal/logger"
	"github.com/authgate/authgate/internal/model"
)

// TokenPair is an access/rotation credential pair delivered to the caller
// as opaque strings.
type TokenPair struct {
	Access   string
	Rotation string
}

// CredentialIssuer issues access/rotation pairs and performs single-use
// rotation. It composes the TokenCodec and AccountStore.
type CredentialIssuer struct {
	codec  model.TokenCodec
	store  model.AccountStore
	logger *logger.Logger
}

func NewCredentialIssuer(codec model.TokenCodec, store model.AccountStore, logger *logger.Logger) *CredentialIssuer {
	return &CredentialIssuer{codec: codec, store: store, logger: logger}
}

// IssuePair mints a fresh pair for the account and persists the rotation
// token as the account's rotation credential. The overwrite is the sole
// revocation mechanism for the previous credential.
func (s *CredentialIssuer) IssuePair(ctx context.Context, account model.Account) (TokenPair, error) {
	rotation, err := s.codec.IssueRotationToken()
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue rotation: %w", err)
	}

	updated, err := s.store.SetRotationCredential(ctx, account.ID, rotation)
	if err != nil {
		return TokenPair{}, fmt.Errorf("persist rotation credential: %w", err)
	}

	access, err := s.codec.IssueAccessToken(updated)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue access: %w", err)
	}

	return TokenPair{Access: access, Rotation: rotation}, nil
}

// Rotate exchanges a presented rotation token for a fresh pair. The store
// swap is a single conditional update, so a credential value rotates at most
// once: a replay after rotation misses the lookup and fails with
// ErrUnknownRotationCredential.
func (s *CredentialIssuer) Rotate(ctx context.Context, presented string) (TokenPair, error) {
	next, err := s.codec.IssueRotationToken()
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue rotation: %w", err)
	}

	account, err := s.store.ReplaceRotationCredential(ctx, presented, next)
	if errors.Is(err, model.ErrNotFound) {
		return TokenPair{}, model.ErrUnknownRotationCredential
	}
	if err != nil {
		return TokenPair{}, fmt.Errorf("replace rotation credential: %w", err)
	}

	access, err := s.codec.IssueAccessToken(account)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue access: %w", err)
	}

	s.logger.Debug("CredentialIssuer: rotated credentials",
		"email", account.Email)

	return TokenPair{Access: access, Rotation: next}, nil
}

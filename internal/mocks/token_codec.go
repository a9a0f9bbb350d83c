package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/authgate/authgate/internal/model"
)

// TokenCodec is a testify mock for model.TokenCodec.
type TokenCodec struct {
	mock.Mock
}

var _ model.TokenCodec = (*TokenCodec)(nil)

func (m *TokenCodec) IssueAccessToken(account model.Account) (string, error) {
	args := m.Called(account)
	return args.String(0), args.Error(1)
}

func (m *TokenCodec) IssueRotationToken() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

func (m *TokenCodec) ParseAccessToken(token string) (model.AccessClaims, error) {
	args := m.Called(token)
	return args.Get(0).(model.AccessClaims), args.Error(1)
}

func (m *TokenCodec) ValidateRotationToken(token string) error {
	args := m.Called(token)
	return args.Error(0)
}

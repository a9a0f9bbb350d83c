package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/authgate/authgate/internal/model"
)

// AccountStore is a testify mock for model.AccountStore.
type AccountStore struct {
	mock.Mock
}

var _ model.AccountStore = (*AccountStore)(nil)

func (m *AccountStore) GetByEmail(ctx context.Context, email string) (model.Account, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(model.Account), args.Error(1)
}

func (m *AccountStore) GetByRotationCredential(ctx context.Context, credential string) (model.Account, error) {
	args := m.Called(ctx, credential)
	return args.Get(0).(model.Account), args.Error(1)
}

func (m *AccountStore) Create(ctx context.Context, account model.Account) (model.Account, error) {
	args := m.Called(ctx, account)
	return args.Get(0).(model.Account), args.Error(1)
}

func (m *AccountStore) SetRotationCredential(ctx context.Context, accountID uuid.UUID, credential string) (model.Account, error) {
	args := m.Called(ctx, accountID, credential)
	return args.Get(0).(model.Account), args.Error(1)
}

func (m *AccountStore) ReplaceRotationCredential(ctx context.Context, current, next string) (model.Account, error) {
	args := m.Called(ctx, current, next)
	return args.Get(0).(model.Account), args.Error(1)
}

func (m *AccountStore) UpdateProfile(ctx context.Context, accountID uuid.UUID, displayName, imageURL string) (model.Account, error) {
	args := m.Called(ctx, accountID, displayName, imageURL)
	return args.Get(0).(model.Account), args.Error(1)
}

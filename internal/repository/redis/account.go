// Package redis implements an AccountStore on redis for deployments without
// a relational database. Uniqueness is enforced through index keys and
// rotation uses an optimistic WATCH/MULTI transaction, so the single-use
// guarantee holds under concurrent rotation attempts.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/authgate/authgate/internal/model"
)

var _ model.AccountStore = (*AccountRepository)(nil)

const (
	accountKeyPrefix  = "account:id:"
	emailKeyPrefix    = "account:email:"
	rotationKeyPrefix = "account:rotation:"
)

type AccountRepository struct {
	client *redis.Client
}

func NewAccountRepository(client *redis.Client) *AccountRepository {
	return &AccountRepository{client: client}
}

func accountKey(id uuid.UUID) string     { return accountKeyPrefix + id.String() }
func emailKey(email string) string       { return emailKeyPrefix + email }
func rotationKey(credential string) string { return rotationKeyPrefix + credential }

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (model.Account, error) {
	id, err := r.client.Get(ctx, emailKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return model.Account{}, model.ErrNotFound
	}
	if err != nil {
		return model.Account{}, fmt.Errorf("failed to get email index: %w", err)
	}

	return r.getByID(ctx, id)
}

func (r *AccountRepository) GetByRotationCredential(ctx context.Context, credential string) (model.Account, error) {
	id, err := r.client.Get(ctx, rotationKey(credential)).Result()
	if errors.Is(err, redis.Nil) {
		return model.Account{}, model.ErrNotFound
	}
	if err != nil {
		return model.Account{}, fmt.Errorf("failed to get rotation index: %w", err)
	}

	return r.getByID(ctx, id)
}

func (r *AccountRepository) Create(ctx context.Context, account model.Account) (model.Account, error) {
	raw, err := json.Marshal(account)
	if err != nil {
		return model.Account{}, fmt.Errorf("failed to encode account: %w", err)
	}

	// SetNX on the email index is the uniqueness check: the loser of a
	// duplicate-signup race observes an existing key.
	ok, err := r.client.SetNX(ctx, emailKey(account.Email), account.ID.String(), 0).Result()
	if err != nil {
		return model.Account{}, fmt.Errorf("failed to claim email index: %w", err)
	}
	if !ok {
		return model.Account{}, model.ErrEmailTaken
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, accountKey(account.ID), raw, 0)
	if account.RotationCredential != nil {
		pipe.Set(ctx, rotationKey(*account.RotationCredential), account.ID.String(), 0)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return model.Account{}, fmt.Errorf("failed to store account: %w", err)
	}

	return account, nil
}

func (r *AccountRepository) SetRotationCredential(ctx context.Context, accountID uuid.UUID, credential string) (model.Account, error) {
	var account model.Account
	key := accountKey(accountID)

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		var err error
		account, err = getAccount(ctx, tx, key)
		if err != nil {
			return err
		}

		previous := account.RotationCredential
		account.RotationCredential = &credential
		account.ModifiedAt = time.Now()

		raw, err := json.Marshal(account)
		if err != nil {
			return fmt.Errorf("failed to encode account: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if previous != nil {
				pipe.Del(ctx, rotationKey(*previous))
			}
			pipe.Set(ctx, rotationKey(credential), accountID.String(), 0)
			pipe.Set(ctx, key, raw, 0)
			return nil
		})
		return err
	}, key)
	if err != nil {
		return model.Account{}, err
	}

	return account, nil
}

func (r *AccountRepository) ReplaceRotationCredential(ctx context.Context, current, next string) (model.Account, error) {
	var account model.Account
	watched := rotationKey(current)

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		id, err := tx.Get(ctx, watched).Result()
		if errors.Is(err, redis.Nil) {
			return model.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get rotation index: %w", err)
		}

		account, err = getAccount(ctx, tx, accountKeyPrefix+id)
		if err != nil {
			return err
		}

		account.RotationCredential = &next
		account.ModifiedAt = time.Now()

		raw, err := json.Marshal(account)
		if err != nil {
			return fmt.Errorf("failed to encode account: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, watched)
			pipe.Set(ctx, rotationKey(next), id, 0)
			pipe.Set(ctx, accountKeyPrefix+id, raw, 0)
			return nil
		})
		return err
	}, watched)
	if errors.Is(err, redis.TxFailedErr) {
		// A concurrent rotation consumed the credential between WATCH and
		// EXEC; for the loser this is indistinguishable from a replay.
		return model.Account{}, model.ErrNotFound
	}
	if err != nil {
		return model.Account{}, err
	}

	return account, nil
}

func (r *AccountRepository) UpdateProfile(ctx context.Context, accountID uuid.UUID, displayName, imageURL string) (model.Account, error) {
	var account model.Account
	key := accountKey(accountID)

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		var err error
		account, err = getAccount(ctx, tx, key)
		if err != nil {
			return err
		}

		account.DisplayName = displayName
		account.ImageURL = imageURL
		account.ModifiedAt = time.Now()

		raw, err := json.Marshal(account)
		if err != nil {
			return fmt.Errorf("failed to encode account: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, 0)
			return nil
		})
		return err
	}, key)
	if err != nil {
		return model.Account{}, err
	}

	return account, nil
}

func (r *AccountRepository) getByID(ctx context.Context, id string) (model.Account, error) {
	return getAccount(ctx, r.client, accountKeyPrefix+id)
}

func getAccount(ctx context.Context, c redis.Cmdable, key string) (model.Account, error) {
	raw, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Account{}, model.ErrNotFound
	}
	if err != nil {
		return model.Account{}, fmt.Errorf("failed to get account: %w", err)
	}

	var account model.Account
	if err := json.Unmarshal(raw, &account); err != nil {
		return model.Account{}, fmt.Errorf("failed to decode account: %w", err)
	}

	return account, nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/authgate/authgate/internal/model"
)

var _ model.AccountStore = (*AccountRepository)(nil)

const accountColumns = `id, email, display_name, image_url, provider, provider_subject_id, status, rotation_credential, created_at, modified_at`

const (
	uniqueViolationCode       = "23505"
	emailUniqueConstraint     = "accounts_email_key"
	rotationUniqueConstraint  = "accounts_rotation_credential_key"
)

type AccountRepository struct {
	db *Connection
}

func NewAccountRepository(db *Connection) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`

	account, err := r.scanAccount(r.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Account{}, model.ErrNotFound
		}
		return model.Account{}, fmt.Errorf("failed to get account by email: %w", err)
	}

	return account, nil
}

func (r *AccountRepository) GetByRotationCredential(ctx context.Context, credential string) (model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE rotation_credential = $1`

	account, err := r.scanAccount(r.db.QueryRow(ctx, query, credential))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Account{}, model.ErrNotFound
		}
		return model.Account{}, fmt.Errorf("failed to get account by rotation credential: %w", err)
	}

	return account, nil
}

func (r *AccountRepository) Create(ctx context.Context, account model.Account) (model.Account, error) {
	query := `INSERT INTO accounts (id, email, display_name, image_url, provider, provider_subject_id, status, rotation_credential, created_at, modified_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			  RETURNING ` + accountColumns

	saved, err := r.scanAccount(r.db.QueryRow(ctx, query,
		account.ID, account.Email, account.DisplayName, account.ImageURL,
		account.Provider, account.ProviderSubjectID, account.Status,
		account.RotationCredential, account.CreatedAt, account.ModifiedAt,
	))
	if err != nil {
		if uniqueErr := mapUniqueViolation(err); uniqueErr != nil {
			return model.Account{}, uniqueErr
		}
		return model.Account{}, fmt.Errorf("failed to create account: %w", err)
	}

	return saved, nil
}

func (r *AccountRepository) SetRotationCredential(ctx context.Context, accountID uuid.UUID, credential string) (model.Account, error) {
	query := `UPDATE accounts SET rotation_credential = $2, modified_at = NOW()
			  WHERE id = $1
			  RETURNING ` + accountColumns

	account, err := r.scanAccount(r.db.QueryRow(ctx, query, accountID, credential))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Account{}, model.ErrNotFound
		}
		if uniqueErr := mapUniqueViolation(err); uniqueErr != nil {
			return model.Account{}, uniqueErr
		}
		return model.Account{}, fmt.Errorf("failed to set rotation credential: %w", err)
	}

	return account, nil
}

// ReplaceRotationCredential is the single conditional update the rotation
// race depends on: the WHERE clause matches the presented value, so of two
// concurrent rotations the first writer wins and the second scans no rows.
func (r *AccountRepository) ReplaceRotationCredential(ctx context.Context, current, next string) (model.Account, error) {
	query := `UPDATE accounts SET rotation_credential = $2, modified_at = NOW()
			  WHERE rotation_credential = $1
			  RETURNING ` + accountColumns

	account, err := r.scanAccount(r.db.QueryRow(ctx, query, current, next))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Account{}, model.ErrNotFound
		}
		return model.Account{}, fmt.Errorf("failed to replace rotation credential: %w", err)
	}

	return account, nil
}

func (r *AccountRepository) UpdateProfile(ctx context.Context, accountID uuid.UUID, displayName, imageURL string) (model.Account, error) {
	query := `UPDATE accounts SET display_name = $2, image_url = $3, modified_at = NOW()
			  WHERE id = $1
			  RETURNING ` + accountColumns

	account, err := r.scanAccount(r.db.QueryRow(ctx, query, accountID, displayName, imageURL))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Account{}, model.ErrNotFound
		}
		return model.Account{}, fmt.Errorf("failed to update profile: %w", err)
	}

	return account, nil
}

func (r *AccountRepository) scanAccount(row pgx.Row) (model.Account, error) {
	var account model.Account
	err := row.Scan(
		&account.ID, &account.Email, &account.DisplayName, &account.ImageURL,
		&account.Provider, &account.ProviderSubjectID, &account.Status,
		&account.RotationCredential, &account.CreatedAt, &account.ModifiedAt,
	)
	return account, err
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolationCode {
		return nil
	}
	switch pgErr.ConstraintName {
	case emailUniqueConstraint:
		return model.ErrEmailTaken
	case rotationUniqueConstraint:
		return model.ErrRotationCredentialTaken
	default:
		return nil
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/authgate/authgate/internal/logger"
	"github.com/authgate/authgate/internal/model"
	"github.com/authgate/authgate/internal/profile"
)

// Reconciler maps a federated login into exactly one local account,
// enforcing one-provider-per-email.
type Reconciler struct {
	store          model.AccountStore
	refreshProfile bool
	logger         *logger.Logger
}

func NewReconciler(store model.AccountStore, refreshProfile bool, logger *logger.Logger) *Reconciler {
	return &Reconciler{store: store, refreshProfile: refreshProfile, logger: logger}
}

// Reconcile finds or creates the account for the given provider profile.
// An email already bound to a different provider fails with
// ErrProviderMismatch and mutates nothing.
func (r *Reconciler) Reconcile(ctx context.Context, provider model.Provider, p profile.Profile) (model.Account, error) {
	email := strings.ToLower(strings.TrimSpace(p.Email))
	if email == "" {
		return model.Account{}, profile.ErrMissingEmail
	}

	account, err := r.store.GetByEmail(ctx, email)
	if err == nil {
		return r.reconcileExisting(ctx, provider, account, p)
	}
	if !errors.Is(err, model.ErrNotFound) {
		return model.Account{}, fmt.Errorf("failed to get account by email: %w", err)
	}

	now := time.Now()
	account = model.Account{
		ID:                uuid.New(),
		Email:             email,
		DisplayName:       p.Name,
		ImageURL:          p.ImageURL,
		Provider:          provider,
		ProviderSubjectID: p.ID,
		Status:            model.StatusActive,
		CreatedAt:         now,
		ModifiedAt:        now,
	}

	created, err := r.store.Create(ctx, account)
	if errors.Is(err, model.ErrEmailTaken) {
		// Lost a concurrent first-login race for the same email. Converge on
		// the winner's row and apply the same provider check.
		r.logger.Info("Reconciler: duplicate signup race, re-fetching account",
			"email", email)
		winner, getErr := r.store.GetByEmail(ctx, email)
		if getErr != nil {
			return model.Account{}, fmt.Errorf("failed to re-fetch account after duplicate signup: %w", getErr)
		}
		return r.reconcileExisting(ctx, provider, winner, p)
	}
	if err != nil {
		return model.Account{}, fmt.Errorf("failed to create account: %w", err)
	}

	r.logger.Info("Reconciler: created account",
		"email", created.Email,
		"provider", created.Provider)

	return created, nil
}

func (r *Reconciler) reconcileExisting(ctx context.Context, provider model.Provider, account model.Account, p profile.Profile) (model.Account, error) {
	if account.Provider != provider {
		return model.Account{}, fmt.Errorf("reconcile %s as %s: %w", account.Email, provider, model.ErrProviderMismatch)
	}

	if r.refreshProfile && (account.DisplayName != p.Name || account.ImageURL != p.ImageURL) {
		updated, err := r.store.UpdateProfile(ctx, account.ID, p.Name, p.ImageURL)
		if err != nil {
			return model.Account{}, fmt.Errorf("failed to refresh profile: %w", err)
		}
		return updated, nil
	}

	return account, nil
}

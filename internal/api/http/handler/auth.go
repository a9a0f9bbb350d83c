package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/authgate/authgate/internal/api/http/authctx"
	"github.com/authgate/authgate/internal/logger"
	"github.com/authgate/authgate/internal/model"
	"github.com/authgate/authgate/internal/profile"
	"github.com/authgate/authgate/internal/service"
)

const bearerPrefix = "Bearer "

// Auth handles the federated login callback and the identity routes.
type Auth struct {
	reconciler    *service.Reconciler
	issuer        *service.CredentialIssuer
	accessHeader  string
	refreshHeader string
	logger        *logger.Logger
}

func NewAuth(reconciler *service.Reconciler, issuer *service.CredentialIssuer, accessHeader, refreshHeader string, logger *logger.Logger) *Auth {
	return &Auth{
		reconciler:    reconciler,
		issuer:        issuer,
		accessHeader:  accessHeader,
		refreshHeader: refreshHeader,
		logger:        logger,
	}
}

// LoginCallback completes a federated login: the body carries the raw
// userinfo attributes the provider returned for the already-consented user.
// The profile is normalized, reconciled into a local account, and a fresh
// token pair is written into the response headers.
//
// Reconciliation failures are terminal for the login attempt: retrying with
// the same mismatched provider cannot succeed, so the conflict is surfaced
// to the user rather than retried.
func (h *Auth) LoginCallback(c *gin.Context) {
	provider, err := model.ParseProvider(c.Param("provider"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": model.ErrUnsupportedProvider.Error()})
		return
	}

	var attrs map[string]any
	if err := c.ShouldBindJSON(&attrs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "malformed profile payload"})
		return
	}

	p, err := profile.Resolve(provider, attrs)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	account, err := h.reconciler.Reconcile(c.Request.Context(), provider, p)
	if err != nil {
		if errors.Is(err, model.ErrProviderMismatch) {
			c.JSON(http.StatusConflict, gin.H{"message": model.ErrProviderMismatch.Error()})
			return
		}
		h.logger.Error("Auth handler: reconciliation failed",
			"provider", provider,
			"error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"message": "login failed"})
		return
	}

	pair, err := h.issuer.IssuePair(c.Request.Context(), account)
	if err != nil {
		h.logger.Error("Auth handler: failed to issue credentials",
			"email", account.Email,
			"error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"message": "login failed"})
		return
	}

	h.logger.Info("Auth handler: login completed",
		"email", account.Email,
		"provider", account.Provider)

	c.Header(h.accessHeader, bearerPrefix+pair.Access)
	c.Header(h.refreshHeader, bearerPrefix+pair.Rotation)
	c.JSON(http.StatusOK, gin.H{
		"accountId": account.ID.String(),
		"email":     account.Email,
	})
}

// Me returns the authenticated identity. Mounted behind the
// RequireAuthenticated guard.
func (h *Auth) Me(c *gin.Context) {
	identity, ok := authctx.FromContext(c.Request.Context())
	if !ok {
		Deny(c, "authentication required")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"accountId":   identity.AccountID.String(),
		"email":       identity.Email,
		"displayName": identity.DisplayName,
	})
}

// Health is the liveness endpoint.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

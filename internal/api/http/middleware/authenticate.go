package middleware

import (
	"context"
	"errors"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/authgate/authgate/internal/api/http/authctx"
	"github.com/authgate/authgate/internal/logger"
	"github.com/authgate/authgate/internal/model"
	"github.com/authgate/authgate/internal/service"
)

const bearerPrefix = "Bearer "

// CredentialRotator exchanges a rotation token for a fresh pair.
type CredentialRotator interface {
	Rotate(ctx context.Context, presented string) (service.TokenPair, error)
}

// Config holds the header names and exempt path patterns the classifier
// works with. Patterns are exact paths, or prefixes ending in "/*".
type Config struct {
	AccessHeader  string
	RefreshHeader string
	ExemptPaths   []string
}

// Authenticate classifies every request: exempt paths pass through
// untouched, a valid rotation token triggers a credential rotation, a valid
// access token attaches the account identity, anything else stays
// anonymous. Credential failures never reject the request here; downstream
// guards decide which routes require an identity.
type Authenticate struct {
	codec   model.TokenCodec
	store   model.AccountStore
	rotator CredentialRotator
	config  Config
	logger  *logger.Logger
}

// NewAuthenticate creates the request classification middleware.
func NewAuthenticate(codec model.TokenCodec, store model.AccountStore, rotator CredentialRotator, config Config, logger *logger.Logger) *Authenticate {
	return &Authenticate{codec: codec, store: store, rotator: rotator, config: config, logger: logger}
}

// Handler returns the gin middleware. Rotation is checked before access: a
// client performing silent refresh usually presents an expired access token
// alongside, and checking rotation first skips that doomed validation.
func (m *Authenticate) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.exempt(c.Request.URL.Path) {
			c.Next()
			return
		}

		if rotation, ok := bearerToken(c.GetHeader(m.config.RefreshHeader)); ok {
			if err := m.codec.ValidateRotationToken(rotation); err == nil {
				m.rotateCredentials(c, rotation)
				c.Next()
				return
			}
			// An unparseable rotation header is treated as absent; the
			// request may still authenticate with its access token.
			m.logger.Debug("Authenticate: ignoring invalid rotation token",
				"path", c.Request.URL.Path)
		}

		if access, ok := bearerToken(c.GetHeader(m.config.AccessHeader)); ok {
			m.authenticateAccess(c, access)
		}

		c.Next()
	}
}

// rotateCredentials performs the rotation path. On success the new pair is
// written into the response headers; the current request stays anonymous
// and the client presents the new access token on its next request. A
// lookup miss degrades to anonymous without failing the request.
func (m *Authenticate) rotateCredentials(c *gin.Context, presented string) {
	pair, err := m.rotator.Rotate(c.Request.Context(), presented)
	if err != nil {
		if errors.Is(err, model.ErrUnknownRotationCredential) {
			m.logger.Info("Authenticate: stale rotation credential presented, continuing anonymous",
				"path", c.Request.URL.Path)
			return
		}
		m.logger.Error("Authenticate: rotation failed",
			"path", c.Request.URL.Path,
			"error", err.Error())
		return
	}

	c.Header(m.config.AccessHeader, bearerPrefix+pair.Access)
	c.Header(m.config.RefreshHeader, bearerPrefix+pair.Rotation)
}

func (m *Authenticate) authenticateAccess(c *gin.Context, tokenString string) {
	claims, err := m.codec.ParseAccessToken(tokenString)
	if err != nil {
		m.logger.Debug("Authenticate: invalid access token",
			"path", c.Request.URL.Path)
		return
	}

	account, err := m.store.GetByEmail(c.Request.Context(), claims.Email)
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			m.logger.Error("Authenticate: account lookup failed",
				"error", err.Error())
		}
		return
	}

	ctx := authctx.WithIdentity(c.Request.Context(), authctx.Identity{
		AccountID:   account.ID,
		Email:       account.Email,
		DisplayName: account.DisplayName,
	})
	c.Request = c.Request.WithContext(ctx)
}

func (m *Authenticate) exempt(requestPath string) bool {
	clean := path.Clean(requestPath)
	for _, pattern := range m.config.ExemptPaths {
		if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
			if clean == prefix || strings.HasPrefix(clean, prefix+"/") {
				return true
			}
			continue
		}
		if clean == pattern {
			return true
		}
	}
	return false
}

// bearerToken strips the "Bearer " prefix. A header without the prefix
// counts as not present, not as a malformed token.
func bearerToken(header string) (string, bool) {
	token, ok := strings.CutPrefix(header, bearerPrefix)
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

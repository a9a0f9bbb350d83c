package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/authgate/authgate/internal/model"
)

// Claims represents JWT claims for both token kinds. Account fields are set
// on access tokens only; rotation tokens carry registered claims and
// nothing else.
type Claims struct {
	jwt.RegisteredClaims
	AccountID   string `json:"account_id,omitempty"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

const (
	subjectAccess   = "access"
	subjectRotation = "rotation"
)

// Config holds the process-wide signing parameters. Rotating the secret
// invalidates every outstanding token.
type Config struct {
	Secret      string
	AccessTTL   time.Duration
	RotationTTL time.Duration
	// Leeway is the tolerated clock skew when validating iat/exp.
	Leeway time.Duration
}

// JWT implements TokenCodec backed by symmetric HMAC.
type JWT struct {
	config Config
}

// NewJWT creates a new JWT token codec with the provided config.
func NewJWT(config Config) model.TokenCodec {
	return &JWT{config: config}
}

// IssueAccessToken creates a short-lived token bound to the account's
// current identity fields.
func (j *JWT) IssueAccessToken(account model.Account) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectAccess,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.config.AccessTTL)),
		},
		AccountID:   account.ID.String(),
		Email:       account.Email,
		DisplayName: account.DisplayName,
	})

	tokenString, err := token.SignedString([]byte(j.config.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}

	return tokenString, nil
}

// IssueRotationToken creates a long-lived token with no account-identifying
// claims. The JTI makes two tokens minted within the same second distinct,
// so the stored credential value is never ambiguous.
func (j *JWT) IssueRotationToken() (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subjectRotation,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.config.RotationTTL)),
		},
	})

	tokenString, err := token.SignedString([]byte(j.config.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign rotation token: %w", err)
	}

	return tokenString, nil
}

// ParseAccessToken validates an access token and extracts its identity claims.
func (j *JWT) ParseAccessToken(tokenString string) (model.AccessClaims, error) {
	claims, err := j.parse(tokenString, subjectAccess)
	if err != nil {
		return model.AccessClaims{}, err
	}

	accountID, err := uuid.Parse(claims.AccountID)
	if err != nil {
		return model.AccessClaims{}, fmt.Errorf("%w: bad account id claim", model.ErrInvalidToken)
	}

	return model.AccessClaims{
		AccountID:   accountID,
		Email:       claims.Email,
		DisplayName: claims.DisplayName,
	}, nil
}

// ValidateRotationToken verifies signature, expiry and subject of a
// rotation token. The account binding is checked against the store by the
// caller, not here.
func (j *JWT) ValidateRotationToken(tokenString string) error {
	_, err := j.parse(tokenString, subjectRotation)
	return err
}

func (j *JWT) parse(tokenString, wantSubject string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return []byte(j.config.Secret), nil
	}, jwt.WithLeeway(j.config.Leeway))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, model.ErrInvalidToken
	}
	if claims.Subject != wantSubject {
		return nil, fmt.Errorf("%w: subject mismatch: %s", model.ErrInvalidToken, claims.Subject)
	}
	return claims, nil
}

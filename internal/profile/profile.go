// Package profile normalizes provider-specific userinfo payloads into a
// canonical identity shape. It contains facts only, no decisions: account
// lookup and creation belong to the reconciler.
package profile

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/authgate/authgate/internal/model"
)

// Profile is the provider-agnostic identity extracted from a federated
// login callback.
type Profile struct {
	ID       string
	Email    string
	Name     string
	ImageURL string
}

var (
	ErrMissingSubject = errors.New("profile missing subject id")
	ErrMissingEmail   = errors.New("profile missing email")
)

// Resolve maps the raw attribute payload of a login callback to a Profile.
// One variant per supported provider; each variant knows the provider's key
// names and nesting.
func Resolve(provider model.Provider, attrs map[string]any) (Profile, error) {
	switch provider {
	case model.ProviderGoogle:
		return googleProfile(attrs)
	case model.ProviderKakao:
		return kakaoProfile(attrs)
	case model.ProviderNaver:
		return naverProfile(attrs)
	default:
		return Profile{}, fmt.Errorf("resolve profile: %w: %q", model.ErrUnsupportedProvider, provider)
	}
}

func googleProfile(attrs map[string]any) (Profile, error) {
	// OIDC userinfo uses "sub"; the legacy v2 endpoint uses "id".
	id := stringAttr(attrs, "sub")
	if id == "" {
		id = stringAttr(attrs, "id")
	}

	p := Profile{
		ID:       id,
		Email:    stringAttr(attrs, "email"),
		Name:     stringAttr(attrs, "name"),
		ImageURL: stringAttr(attrs, "picture"),
	}
	return p, p.check()
}

func kakaoProfile(attrs map[string]any) (Profile, error) {
	account := mapAttr(attrs, "kakao_account")
	properties := mapAttr(attrs, "properties")

	p := Profile{
		ID:       stringAttr(attrs, "id"),
		Email:    stringAttr(account, "email"),
		Name:     stringAttr(properties, "nickname"),
		ImageURL: stringAttr(properties, "profile_image"),
	}
	return p, p.check()
}

func naverProfile(attrs map[string]any) (Profile, error) {
	response := mapAttr(attrs, "response")

	p := Profile{
		ID:       stringAttr(response, "id"),
		Email:    stringAttr(response, "email"),
		Name:     stringAttr(response, "name"),
		ImageURL: stringAttr(response, "profile_image"),
	}
	return p, p.check()
}

func (p Profile) check() error {
	if p.ID == "" {
		return ErrMissingSubject
	}
	if p.Email == "" {
		return ErrMissingEmail
	}
	return nil
}

// stringAttr tolerates numeric values: kakao sends the subject id as a number.
func stringAttr(attrs map[string]any, key string) string {
	switch v := attrs[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return ""
	}
}

func mapAttr(attrs map[string]any, key string) map[string]any {
	m, _ := attrs[key].(map[string]any)
	return m
}

package auth

import (
	"errors"
	"fmt"
	"time"
)

// RefreshAccessTokenError is the marker attached to a Token whose refresh failed
const RefreshAccessTokenError = "RefreshAccessTokenError"

var (
	// ErrNotAuthenticated is returned when no token is held (signed out)
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrRefreshAccessToken indicates the refresh exchange with the identity provider failed
	ErrRefreshAccessToken = errors.New(RefreshAccessTokenError)
)

// Token is the access/refresh/id token triple of one login session.
// It is replaced wholesale on refresh and never mutated in place.
type Token struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	IDToken      string    `json:"idToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
	Error        string    `json:"error,omitempty"`
}

// Expired reports whether now is at or past ExpiresAt.
// A zero ExpiresAt means the provider declared no lifetime.
func (t Token) Expired(now time.Time) bool {
	if t.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(t.ExpiresAt)
}

// Err returns ErrRefreshAccessToken when the refresh-failed marker is set
func (t Token) Err() error {
	if t.Error == RefreshAccessTokenError {
		return ErrRefreshAccessToken
	}
	return nil
}

// TokenResponse is what the identity provider's token endpoint returned.
// ExpiresIn is preferred; Expiry is used when the lifetime arrived pre-computed.
type TokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	IDToken      string    `json:"id_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	ExpiresIn    int64     `json:"expires_in,omitempty"`
	Expiry       time.Time `json:"-"`
}

func (r *TokenResponse) expiresAt(now time.Time) time.Time {
	if r.ExpiresIn > 0 {
		return now.Add(time.Duration(r.ExpiresIn) * time.Second)
	}
	return r.Expiry
}

// RefreshError indicates the token endpoint rejected a refresh_token grant
type RefreshError struct {
	HTTPStatus int
	Body       string
}

func (e RefreshError) Error() string {
	return fmt.Sprintf("token refresh failed with status %d: %s", e.HTTPStatus, e.Body)
}

func (e RefreshError) Unwrap() error {
	return ErrRefreshAccessToken
}

// State is the lifecycle position of a Manager
type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticatedValid
	StateAuthenticatedExpired
	StateRefreshFailed
)

func (s State) String() string {
	switch s {
	case StateAuthenticatedValid:
		return "authenticated"
	case StateAuthenticatedExpired:
		return "expired"
	case StateRefreshFailed:
		return "refresh_failed"
	default:
		return "unauthenticated"
	}
}

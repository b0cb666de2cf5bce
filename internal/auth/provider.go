package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// DefaultScopes are requested on every authorization
var DefaultScopes = []string{"openid", "profile", "offline_access"}

// Endpoints are the identity provider URLs used by the login flow
type Endpoints struct {
	AuthURL   string `json:"authorization_endpoint"`
	TokenURL  string `json:"token_endpoint"`
	LogoutURL string `json:"end_session_endpoint"`
}

// KeycloakEndpoints derives the realm endpoints from a Keycloak issuer URL
func KeycloakEndpoints(issuer string) Endpoints {
	base := strings.TrimRight(issuer, "/") + "/protocol/openid-connect"
	return Endpoints{
		AuthURL:   base + "/auth",
		TokenURL:  base + "/token",
		LogoutURL: base + "/logout",
	}
}

// Discover fetches {issuer}/.well-known/openid-configuration.
// Missing endpoints are filled from the Keycloak layout.
func Discover(ctx context.Context, httpClient *http.Client, issuer string) (Endpoints, error) {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	wellKnown := strings.TrimRight(issuer, "/") + "/.well-known/openid-configuration"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, wellKnown, nil)
	if err != nil {
		return Endpoints{}, err
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return Endpoints{}, fmt.Errorf("failed to fetch discovery document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Endpoints{}, fmt.Errorf("discovery failed with status %d", resp.StatusCode)
	}

	var doc Endpoints
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return Endpoints{}, fmt.Errorf("failed to parse discovery document: %w", err)
	}

	fallback := KeycloakEndpoints(issuer)
	if doc.AuthURL == "" {
		doc.AuthURL = fallback.AuthURL
	}
	if doc.TokenURL == "" {
		doc.TokenURL = fallback.TokenURL
	}
	if doc.LogoutURL == "" {
		doc.LogoutURL = fallback.LogoutURL
	}
	return doc, nil
}

// ProviderConfig configures the OIDC relying party
type ProviderConfig struct {
	IssuerURL    string
	ClientID     string
	ClientSecret string // empty for public clients
	RedirectURL  string
	Scopes       []string
	Endpoints    Endpoints // zero value selects the Keycloak layout
	HTTPClient   *http.Client
}

// Provider talks to the OAuth2/OIDC identity provider: authorization-code
// exchange with PKCE, refresh_token grants and RP-initiated logout.
type Provider struct {
	oauth      *oauth2.Config
	endpoints  Endpoints
	clientID   string
	secret     string
	httpClient *http.Client
}

// NewProvider builds a Provider from cfg
func NewProvider(cfg ProviderConfig) *Provider {
	endpoints := cfg.Endpoints
	if endpoints == (Endpoints{}) {
		endpoints = KeycloakEndpoints(cfg.IssuerURL)
	}
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Provider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   endpoints.AuthURL,
				TokenURL:  endpoints.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		endpoints:  endpoints,
		clientID:   cfg.ClientID,
		secret:     cfg.ClientSecret,
		httpClient: httpClient,
	}
}

// Endpoints returns the endpoints in use
func (p *Provider) Endpoints() Endpoints {
	return p.endpoints
}

// NewVerifier returns a fresh PKCE code verifier
func NewVerifier() string {
	return oauth2.GenerateVerifier()
}

// AuthCodeURL returns the authorization URL for a code flow bound to state
// and to the S256 challenge of verifier.
func (p *Provider) AuthCodeURL(state, verifier string) string {
	return p.oauth.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
}

// Exchange trades an authorization code for tokens
func (p *Provider) Exchange(ctx context.Context, code, verifier string) (*TokenResponse, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	tok, err := p.oauth.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			log.Warn().
				Int("status", retrieveErr.Response.StatusCode).
				Str("errorCode", retrieveErr.ErrorCode).
				Msg("authorization code exchange rejected")
		}
		return nil, fmt.Errorf("code exchange failed: %w", err)
	}

	idToken, _ := tok.Extra("id_token").(string)

	return &TokenResponse{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		IDToken:      idToken,
		TokenType:    tok.TokenType,
		Expiry:       tok.Expiry,
	}, nil
}

// Refresh performs a grant_type=refresh_token exchange.
// A non-2xx answer is returned as RefreshError.
func (p *Provider) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("client_id", p.clientID)
	if p.secret != "" {
		form.Set("client_secret", p.secret)
	}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoints.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("refresh request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read refresh response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, RefreshError{HTTPStatus: resp.StatusCode, Body: string(body)}
	}

	var tr TokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("failed to parse refresh response: %w", err)
	}
	if tr.AccessToken == "" {
		return nil, fmt.Errorf("refresh response missing access_token")
	}

	return &tr, nil
}

// Logout notifies the end_session endpoint that the session identified by
// idToken is over.
func (p *Provider) Logout(ctx context.Context, idToken string) error {
	u, err := url.Parse(p.endpoints.LogoutURL)
	if err != nil {
		return fmt.Errorf("invalid logout URL: %w", err)
	}
	q := u.Query()
	q.Set("id_token_hint", idToken)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("logout request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("logout failed with status %d", resp.StatusCode)
	}
	return nil
}

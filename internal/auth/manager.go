package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// DefaultLogoutTimeout bounds the fire-and-forget logout notification
const DefaultLogoutTimeout = 10 * time.Second

// IdentityProvider is the token endpoint surface the Manager depends on.
// *Provider implements it; tests substitute fakes.
type IdentityProvider interface {
	Exchange(ctx context.Context, code, verifier string) (*TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error)
	Logout(ctx context.Context, idToken string) error
}

var _ IdentityProvider = (*Provider)(nil)

// RefreshObserver is notified of every refresh exchange outcome
type RefreshObserver interface {
	ObserveRefresh(success bool)
}

// Option configures a Manager
type Option func(*Manager)

// WithClock replaces time.Now (fake clocks in tests)
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithRefreshObserver registers a refresh observer (metrics)
func WithRefreshObserver(o RefreshObserver) Option {
	return func(m *Manager) {
		m.observer = o
	}
}

// WithLogoutTimeout bounds the background logout notification
func WithLogoutTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.logoutTimeout = d
		}
	}
}

// Manager owns the token of one login session.
//
// Expiry is evaluated lazily when a caller asks for the current token; there
// is no background timer. Concurrent callers that observe an expired token
// share a single refresh exchange. The held token is only ever replaced as a
// whole, so readers never observe a partial update.
type Manager struct {
	idp           IdentityProvider
	now           func() time.Time
	observer      RefreshObserver
	logoutTimeout time.Duration

	refreshes singleflight.Group

	mu    sync.RWMutex
	token *Token
}

// NewManager creates a Manager in the Unauthenticated state
func NewManager(idp IdentityProvider, opts ...Option) *Manager {
	m := &Manager{
		idp:           idp,
		now:           time.Now,
		logoutTimeout: DefaultLogoutTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Login completes the authorization-code flow and moves the manager to
// Authenticated-Valid.
func (m *Manager) Login(ctx context.Context, code, verifier string) (Token, error) {
	resp, err := m.idp.Exchange(ctx, code, verifier)
	if err != nil {
		return Token{}, err
	}

	tok := Token{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		IDToken:      resp.IDToken,
		ExpiresAt:    resp.expiresAt(m.now()),
	}
	if err := m.SignIn(tok); err != nil {
		return Token{}, err
	}
	return tok, nil
}

// SignIn installs an already obtained token
func (m *Manager) SignIn(tok Token) error {
	if tok.AccessToken == "" {
		return errors.New("token has no access token")
	}
	tok.Error = ""

	m.mu.Lock()
	m.token = &tok
	m.mu.Unlock()

	log.Debug().Time("expiresAt", tok.ExpiresAt).Msg("session signed in")
	return nil
}

// Token returns a snapshot of the held token without refreshing it
func (m *Manager) Token() (Token, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.token == nil {
		return Token{}, false
	}
	return *m.token, true
}

// State reports the lifecycle state at the manager's current time
func (m *Manager) State() State {
	tok, ok := m.Token()
	switch {
	case !ok:
		return StateUnauthenticated
	case tok.Error == RefreshAccessTokenError:
		return StateRefreshFailed
	case tok.Expired(m.now()):
		return StateAuthenticatedExpired
	default:
		return StateAuthenticatedValid
	}
}

// Current returns the token to present to the API, refreshing it first when
// it has expired. A failed refresh does not fail the call: the previous token
// is returned with Error set to RefreshAccessTokenError.
func (m *Manager) Current(ctx context.Context) (Token, error) {
	tok, ok := m.Token()
	if !ok {
		return Token{}, ErrNotAuthenticated
	}
	if !tok.Expired(m.now()) {
		return tok, nil
	}

	log.Debug().Time("expiresAt", tok.ExpiresAt).Msg("access token expired, refreshing")

	tok, err := m.refresh(ctx, true)
	if errors.Is(err, ErrRefreshAccessToken) {
		return tok, nil
	}
	return tok, err
}

// Refresh unconditionally exchanges the refresh token. On failure the
// returned token carries the error marker and err wraps ErrRefreshAccessToken.
func (m *Manager) Refresh(ctx context.Context) (Token, error) {
	return m.refresh(ctx, false)
}

// SignOut clears the held token. The identity provider is notified in the
// background; a failed notification is logged and otherwise ignored.
func (m *Manager) SignOut(ctx context.Context) {
	m.mu.Lock()
	cur := m.token
	m.token = nil
	m.mu.Unlock()

	if cur == nil || cur.IDToken == "" {
		return
	}

	go m.notifyLogout(context.WithoutCancel(ctx), cur.IDToken)
}

func (m *Manager) notifyLogout(ctx context.Context, idToken string) {
	ctx, cancel := context.WithTimeout(ctx, m.logoutTimeout)
	defer cancel()

	if err := m.idp.Logout(ctx, idToken); err != nil {
		log.Warn().Err(err).Msg("identity provider logout failed")
		return
	}
	log.Debug().Msg("identity provider logout completed")
}

// refresh funnels concurrent callers into one exchange.
// The exchange is detached from caller cancellation: once issued it runs to completion.
func (m *Manager) refresh(ctx context.Context, onlyIfExpired bool) (Token, error) {
	v, err, shared := m.refreshes.Do("refresh", func() (any, error) {
		return m.doRefresh(context.WithoutCancel(ctx), onlyIfExpired)
	})
	if shared {
		log.Debug().Msg("joined in-flight token refresh")
	}

	tok, _ := v.(Token)
	return tok, err
}

func (m *Manager) doRefresh(ctx context.Context, onlyIfExpired bool) (Token, error) {
	m.mu.RLock()
	cur := m.token
	m.mu.RUnlock()

	if cur == nil {
		return Token{}, ErrNotAuthenticated
	}

	// Double-check: a refresh that completed while we waited may already have renewed it
	if onlyIfExpired && !cur.Expired(m.now()) {
		return *cur, nil
	}

	resp, err := m.idp.Refresh(ctx, cur.RefreshToken)
	if err != nil {
		log.Error().Err(err).Msg("error refreshing access token")
		m.observeRefresh(false)

		failed := *cur
		failed.Error = RefreshAccessTokenError
		if !m.replace(cur, &failed) {
			return m.afterLostRace()
		}
		if errors.Is(err, ErrRefreshAccessToken) {
			return failed, err
		}
		return failed, fmt.Errorf("%w: %w", ErrRefreshAccessToken, err)
	}

	next := &Token{
		AccessToken:  resp.AccessToken,
		RefreshToken: cur.RefreshToken,
		IDToken:      cur.IDToken,
		ExpiresAt:    resp.expiresAt(m.now()),
	}
	if resp.RefreshToken != "" {
		next.RefreshToken = resp.RefreshToken
	}
	if resp.IDToken != "" {
		next.IDToken = resp.IDToken
	}

	m.observeRefresh(true)

	if !m.replace(cur, next) {
		return m.afterLostRace()
	}

	log.Info().Time("expiresAt", next.ExpiresAt).Msg("access token refreshed")
	return *next, nil
}

// replace swaps old for next unless the session was signed out or re-signed-in meanwhile
func (m *Manager) replace(old, next *Token) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token != old {
		return false
	}
	m.token = next
	return true
}

func (m *Manager) afterLostRace() (Token, error) {
	tok, ok := m.Token()
	if !ok {
		return Token{}, ErrNotAuthenticated
	}
	return tok, nil
}

func (m *Manager) observeRefresh(success bool) {
	if m.observer != nil {
		m.observer.ObserveRefresh(success)
	}
}

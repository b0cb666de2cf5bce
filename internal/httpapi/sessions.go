package httpapi

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/erauner12/storefront/internal/auth"
	"github.com/erauner12/storefront/internal/session"
	"github.com/google/uuid"
	"github.com/rs/zerolog/hlog"
)

// sessionView is the JSON shape of GET /auth/session
type sessionView struct {
	Status          string        `json:"status"`
	User            *auth.Profile `json:"user,omitempty"`
	ExpiresAt       *time.Time    `json:"expiresAt,omitempty"`
	HasAccessToken  bool          `json:"hasAccessToken"`
	HasRefreshToken bool          `json:"hasRefreshToken"`
	HasIDToken      bool          `json:"hasIdToken"`
	Error           string        `json:"error,omitempty"`
}

// SignIn handles GET /auth/signin?callbackUrl=<path>
// Starts an authorization-code flow and redirects to the identity provider
func (s *Server) SignIn(w http.ResponseWriter, r *http.Request) {
	logger := hlog.FromRequest(r)

	sess, ok := SessionFrom(r.Context())
	if !ok {
		sess = s.Sessions.Create(s.newTokenManager())
		s.setCookie(w, sess)
	}

	pending := &session.PendingLogin{
		State:     uuid.New().String(),
		Verifier:  auth.NewVerifier(),
		ReturnTo:  safeReturnPath(r.URL.Query().Get("callbackUrl")),
		CreatedAt: time.Now().UTC(),
	}
	if _, ok := s.Sessions.Update(sess.ID, func(ss *session.Session) { ss.Pending = pending }); !ok {
		writeError(w, r, errors.New("session vanished during sign-in"))
		return
	}

	logger.Info().Str("sessionId", sess.ID).Str("returnTo", pending.ReturnTo).Msg("sign-in started")

	http.Redirect(w, r, s.IdP.AuthCodeURL(pending.State, pending.Verifier), http.StatusFound)
}

// Callback handles GET /auth/callback?code=<code>&state=<state>
// Completes the flow, rotates the session and redirects to the return path
func (s *Server) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := hlog.FromRequest(r)
	q := r.URL.Query()

	if idpErr := q.Get("error"); idpErr != "" {
		logger.Warn().Str("error", idpErr).Str("description", q.Get("error_description")).Msg("identity provider returned error")
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: idpErr, Status: http.StatusUnauthorized})
		return
	}

	sess, ok := SessionFrom(ctx)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "no sign-in in progress", Status: http.StatusBadRequest})
		return
	}

	pending, ok := s.Sessions.ConsumePending(sess.ID)
	if !ok || subtle.ConstantTimeCompare([]byte(pending.State), []byte(q.Get("state"))) != 1 {
		logger.Warn().Msg("callback state mismatch")
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid state", Status: http.StatusBadRequest})
		return
	}

	code := q.Get("code")
	if code == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing code", Status: http.StatusBadRequest})
		return
	}

	tokens := s.newTokenManager()
	tok, err := tokens.Login(ctx, code, pending.Verifier)
	if err != nil {
		logger.Warn().Err(err).Msg("code exchange failed")
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "sign-in failed", Status: http.StatusUnauthorized})
		return
	}

	var profile *auth.Profile
	if tok.IDToken != "" {
		if p, err := auth.ParseProfile(tok.IDToken); err != nil {
			logger.Warn().Err(err).Msg("id token has no usable profile")
		} else {
			profile = &p
		}
	}

	// Fresh session ID after login
	s.Sessions.Delete(sess.ID)
	next := s.Sessions.Create(tokens)
	next, _ = s.Sessions.Update(next.ID, func(ss *session.Session) { ss.Profile = profile })
	s.setCookie(w, next)

	evt := logger.Info().Str("sessionId", next.ID).Time("expiresAt", tok.ExpiresAt)
	if profile != nil {
		evt = evt.Str("sub", profile.Subject)
	}
	evt.Msg("user signed in")

	http.Redirect(w, r, pending.ReturnTo, http.StatusFound)
}

// SignOut handles POST /auth/signout
// Clears the session; the identity provider is notified in the background
func (s *Server) SignOut(w http.ResponseWriter, r *http.Request) {
	if sess, ok := SessionFrom(r.Context()); ok {
		if sess.Tokens != nil {
			sess.Tokens.SignOut(r.Context())
		}
		s.Sessions.Delete(sess.ID)

		hlog.FromRequest(r).Info().Str("sessionId", sess.ID).Msg("user signed out")
	}

	s.clearCookie(w)

	redirect := s.PostLogoutRedirect
	if redirect == "" {
		redirect = "/"
	}
	http.Redirect(w, r, redirect, http.StatusSeeOther)
}

// GetSession handles GET /auth/session
// Reports the authentication state (debugging aid for the view layer)
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFrom(r.Context())
	if !ok || sess.Tokens == nil {
		writeJSON(w, http.StatusOK, sessionView{Status: auth.StateUnauthenticated.String()})
		return
	}

	tok, err := sess.Tokens.Current(r.Context())
	if errors.Is(err, auth.ErrNotAuthenticated) {
		writeJSON(w, http.StatusOK, sessionView{Status: auth.StateUnauthenticated.String()})
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	view := sessionView{
		Status:          sess.Tokens.State().String(),
		User:            sess.Profile,
		HasAccessToken:  tok.AccessToken != "",
		HasRefreshToken: tok.RefreshToken != "",
		HasIDToken:      tok.IDToken != "",
		Error:           tok.Error,
	}
	if !tok.ExpiresAt.IsZero() {
		view.ExpiresAt = &tok.ExpiresAt
	}
	if tok.Error != "" {
		w.Header().Set(SessionErrorHeader, tok.Error)
	}

	writeJSON(w, http.StatusOK, view)
}

// accessToken returns the bearer token of the request's session, refreshing
// it when expired. With required=false an anonymous request yields "".
// A token whose refresh failed is still returned; the response is flagged
// with SessionErrorHeader.
func (s *Server) accessToken(w http.ResponseWriter, r *http.Request, required bool) (string, error) {
	sess, ok := SessionFrom(r.Context())
	if !ok || sess.Tokens == nil {
		if required {
			return "", auth.ErrNotAuthenticated
		}
		return "", nil
	}

	tok, err := sess.Tokens.Current(r.Context())
	if errors.Is(err, auth.ErrNotAuthenticated) && !required {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	if tok.Error != "" {
		w.Header().Set(SessionErrorHeader, tok.Error)
	}
	return tok.AccessToken, nil
}

func (s *Server) newTokenManager() *auth.Manager {
	return auth.NewManager(s.IdP, s.TokenOptions...)
}

func (s *Server) setCookie(w http.ResponseWriter, sess session.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.Cookie.Name,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.Cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.Cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.Cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// safeReturnPath only accepts local absolute paths
func safeReturnPath(raw string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return "/"
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host != "" || u.Scheme != "" {
		return "/"
	}
	return raw
}

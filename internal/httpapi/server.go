package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/erauner12/storefront/internal/apiclient"
	"github.com/erauner12/storefront/internal/auth"
	"github.com/erauner12/storefront/internal/models"
	"github.com/erauner12/storefront/internal/session"
	"github.com/erauner12/storefront/internal/storefront"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
)

// SessionErrorHeader tells the view layer that the session's token could not
// be refreshed and the user should sign in again.
const SessionErrorHeader = "X-Session-Error"

// LoginProvider is the identity provider surface used by the login flow.
// *auth.Provider implements it.
type LoginProvider interface {
	auth.IdentityProvider
	AuthCodeURL(state, verifier string) string
}

var _ LoginProvider = (*auth.Provider)(nil)

// CookieConfig controls the session cookie
type CookieConfig struct {
	Name   string
	Secure bool
}

// Server is the storefront backend-for-frontend
type Server struct {
	Sessions           *session.Store
	IdP                LoginProvider
	Shop               *storefront.Service
	Cookie             CookieConfig
	PostLogoutRedirect string
	TokenOptions       []auth.Option // applied to every session's token manager
	Metrics            http.Handler  // optional /metrics handler
	Ready              func() error  // optional readiness probe
}

// Routes builds the HTTP handler
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log.Logger))
	r.Use(middleware.Recoverer)

	// Health checks
	r.Get("/livez", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/healthz", s.Healthz)
	if s.Metrics != nil {
		r.Handle("/metrics", s.Metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(SessionMiddleware(s.Sessions, s.Cookie.Name))

		r.Route("/auth", func(r chi.Router) {
			r.Get("/signin", s.SignIn)
			r.Get("/callback", s.Callback)
			r.Post("/signout", s.SignOut)
			r.Get("/session", s.GetSession)
		})

		r.Route("/api", func(r chi.Router) {
			r.Get("/products", s.ListProducts)
			r.Post("/products", s.CreateProduct)
			r.Get("/orders", s.ListOrders)
			r.Post("/orders", s.PlaceOrder)
		})
	})

	return r
}

// Healthz handles GET /healthz
func (s *Server) Healthz(w http.ResponseWriter, r *http.Request) {
	if s.Ready != nil {
		if err := s.Ready(); err != nil {
			hlog.FromRequest(r).Warn().Err(err).Msg("readiness check failed")
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.Write([]byte("ok"))
}

type errorResponse struct {
	Error  string            `json:"error"`
	Status int               `json:"status"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err onto an HTTP status:
// ValidationError 400, not authenticated 401, APIError the gateway's status,
// NetworkError 502, anything else 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	resp := errorResponse{Error: err.Error(), Status: http.StatusInternalServerError}

	var (
		verr   models.ValidationError
		apiErr apiclient.APIError
		netErr apiclient.NetworkError
	)
	switch {
	case errors.As(err, &verr):
		resp.Status = http.StatusBadRequest
		resp.Error = "validation failed"
		resp.Fields = verr.Fields
	case errors.Is(err, auth.ErrNotAuthenticated):
		resp.Status = http.StatusUnauthorized
	case errors.As(err, &apiErr):
		resp.Status = apiErr.HTTPStatus
		resp.Error = apiErr.Message
	case errors.As(err, &netErr):
		resp.Status = http.StatusBadGateway
		resp.Error = "API gateway unreachable"
	default:
		resp.Error = "internal error"
	}

	logger := hlog.FromRequest(r)
	if resp.Status >= 500 {
		logger.Error().Err(err).Int("status", resp.Status).Msg("request failed")
	} else {
		logger.Debug().Err(err).Int("status", resp.Status).Msg("request rejected")
	}

	writeJSON(w, resp.Status, resp)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return models.ValidationError{Fields: map[string]string{"body": "invalid json: " + err.Error()}}
	}
	return nil
}

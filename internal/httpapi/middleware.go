package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/erauner12/storefront/internal/session"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
)

type contextKey string

const (
	sessionKey contextKey = "session"
)

// SessionMiddleware resolves the session cookie against store and adds the
// live session to the request context. Requests without a valid cookie pass
// through anonymously.
func SessionMiddleware(store *session.Store, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			sess, ok := store.Get(cookie.Value)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey, sess)

			// Add to logger context for all logs in this request
			logger := log.Ctx(ctx).With().Str("sessionId", sess.ID).Logger()
			r = r.WithContext(logger.WithContext(ctx))

			next.ServeHTTP(w, r)
		})
	}
}

// SessionFrom retrieves the browser session from context
func SessionFrom(ctx context.Context) (session.Session, bool) {
	sess, ok := ctx.Value(sessionKey).(session.Session)
	return sess, ok
}

// GetSessionID retrieves the session ID from context
func GetSessionID(ctx context.Context) string {
	if sess, ok := SessionFrom(ctx); ok {
		return sess.ID
	}
	return ""
}

// requestLogger installs a request-scoped zerolog logger carrying the chi
// request ID and logs one access line per request.
func requestLogger(base zerolog.Logger) func(http.Handler) http.Handler {
	withRequestID := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id := middleware.GetReqID(r.Context()); id != "" {
				logger := hlog.FromRequest(r).With().Str("requestId", id).Logger()
				r = r.WithContext(logger.WithContext(r.Context()))
			}
			next.ServeHTTP(w, r)
		})
	}

	access := hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	})

	return func(next http.Handler) http.Handler {
		return hlog.NewHandler(base)(withRequestID(access(next)))
	}
}

package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/agersant/polaris/internal/userstore"
)

type ctxKey int

const ctxKeyUser ctxKey = iota

func userFromContext(ctx context.Context) *userstore.User {
	u, _ := ctx.Value(ctxKeyUser).(*userstore.User)
	return u
}

// requestLogger logs one line per request, matching the core packages'
// zerolog-with-structured-fields idiom rather than the stdlib logger.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// requireAuth resolves the bearer token in the Authorization header through
// the user store, rejecting the request with 401 if it is absent or
// unknown.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeErrorMsg(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		user, err := s.users.Resolve(token)
		if err != nil {
			writeErrorMsg(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		ctx := context.WithValue(r.Context(), ctxKeyUser, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	hdr := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(hdr, "Bearer "); ok {
		return after
	}
	return ""
}

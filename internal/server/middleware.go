// Package server exposes the back-office dashboard over HTTP.
package server

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"cashbet-backoffice/internal/policy"
	"cashbet-backoffice/internal/session"
)

// statusWriter captures the response status for request logging.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Logging logs one structured line per request.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(sw, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", sw.status).
			Dur("duration", time.Since(start)).
			Msg("Request")
	})
}

// gate blocks protected routes before their handler runs, distinguishing a
// missing or stale credential (Unauthorized, the UI redirects to login)
// from an authenticated operator whose role fails the check (Forbidden,
// the UI shows a notice). This keeps doomed backend calls from ever being
// issued.
func (s *Server) gate(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := session.ReadCookie(r, s.cfg.Session.CookieName)
		if token == "" || !s.session.Active() {
			writeFailure(w, http.StatusUnauthorized, "missing or expired session")
			return
		}

		identity, err := s.session.Identity()
		if err != nil {
			writeFailure(w, http.StatusUnauthorized, "missing or expired session")
			return
		}
		if !policy.CanAccess(identity.Role, s.cfg.RequiredRole()) {
			log.Debug().
				Str("role", string(identity.Role)).
				Str("required", s.cfg.Access.RequiredRole).
				Msg("Role gate rejected request")
			writeFailure(w, http.StatusForbidden, "you don't have permission to access this page")
			return
		}

		next(w, r)
	}
}

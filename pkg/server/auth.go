package server

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/tempowatch/tempowatch/pkg/log"
)

// adminOnly guards mutating endpoints. Callers present a Google ID token
// (e.g. from Cloud Scheduler or gcloud) whose email must be in the admin
// allowlist. When no verifier and no allowlist are configured the check is
// bypassed entirely (single-user mode).
func (s *Server) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if s.bypassAuth {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeJSONError(w, "missing authorization header", http.StatusUnauthorized)
			return
		}
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			writeJSONError(w, "invalid authorization header", http.StatusUnauthorized)
			return
		}
		if s.verifier == nil {
			log.Ctx(ctx).WarnContext(ctx, "admin endpoint hit but no oidc audience configured")
			writeJSONError(w, "no token verifier configured", http.StatusUnauthorized)
			return
		}

		idToken, err := s.verifier(ctx, parts[1])
		if err != nil {
			log.Ctx(ctx).WarnContext(ctx, "failed to validate id token", slog.Any("error", err))
			writeJSONError(w, "invalid id token", http.StatusUnauthorized)
			return
		}

		var claims struct {
			Email string `json:"email"`
		}
		if err := idToken.Claims(&claims); err != nil || claims.Email == "" {
			log.Ctx(ctx).WarnContext(ctx, "invalid email in id token", slog.Any("error", err))
			writeJSONError(w, "invalid token claims", http.StatusForbidden)
			return
		}

		var allowed bool
		for _, admin := range s.adminEmails {
			if claims.Email == admin {
				allowed = true
				break
			}
		}
		if !allowed {
			log.Ctx(ctx).WarnContext(ctx, "unauthorized email for admin endpoint", slog.String("email", claims.Email))
			writeJSONError(w, "unauthorized email", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

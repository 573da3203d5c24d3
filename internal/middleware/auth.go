package middleware

import (
	"log/slog"
	"net/http"

	"github.com/rentdesk/rentdesk/internal/ctxkeys"
	"github.com/rentdesk/rentdesk/internal/httputil"
	"github.com/rentdesk/rentdesk/internal/service"
)

// BearerAuth verifies an "Authorization: Bearer" token when one is sent and
// stores it in the context. Requests without the header pass through and
// authenticate with body credentials instead.
func BearerAuth(authService *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := httputil.BearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			if _, err := authService.VerifyJWT(token); err != nil {
				slog.Debug("rejected bearer token", "path", r.URL.Path, "error", err)
				httputil.RespondError(w, http.StatusUnauthorized, "invalid or expired token", "")
				return
			}

			ctx := ctxkeys.WithToken(r.Context(), token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireToken rejects requests that did not present a valid bearer token.
func RequireToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ctxkeys.Token(r.Context()) == "" {
			httputil.RespondError(w, http.StatusUnauthorized, "authentication required", "")
			return
		}
		next(w, r)
	}
}

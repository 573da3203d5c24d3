package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/rentdesk/rentdesk/internal/ctxkeys"
)

// RequestID tags each request with an id, reusing a well-formed incoming
// X-Request-ID, and echoes it in the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}

		w.Header().Set("X-Request-ID", id)
		ctx := ctxkeys.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/getsentry/sentry-go"
	"github.com/rentdesk/rentdesk/internal/ctxkeys"
	"github.com/rentdesk/rentdesk/internal/httputil"
)

// Recovery turns a panicking handler into a 500 JSON response.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				if p == http.ErrAbortHandler {
					panic(p)
				}

				slog.Error("panic in handler",
					"panic", p,
					"method", r.Method,
					"path", r.URL.Path,
					"request_id", ctxkeys.RequestID(r.Context()),
					"stack", string(debug.Stack()),
				)
				sentry.CurrentHub().Recover(p)

				httputil.RespondError(w, http.StatusInternalServerError, "internal server error", "")
			}
		}()

		next.ServeHTTP(w, r)
	})
}

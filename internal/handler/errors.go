package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/rentdesk/rentdesk/internal/ctxkeys"
	"github.com/rentdesk/rentdesk/internal/httputil"
	"github.com/rentdesk/rentdesk/internal/service"
)

// handleError converts service errors to HTTP responses
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error(), "")
	case errors.Is(err, service.ErrInvalidCredentials):
		httputil.RespondError(w, http.StatusUnauthorized, service.ErrInvalidCredentials.Error(), "")
	case errors.Is(err, service.ErrForbidden):
		httputil.RespondError(w, http.StatusForbidden, err.Error(), "")
	case service.IsNotFound(err):
		httputil.RespondError(w, http.StatusNotFound, err.Error(), "")
	case service.IsConflict(err):
		httputil.RespondError(w, http.StatusConflict, err.Error(), "")
	case errors.Is(err, service.ErrStorage):
		slog.Error("storage error", "path", r.URL.Path, "request_id", ctxkeys.RequestID(r.Context()), "error", err)
		httputil.RespondError(w, http.StatusBadGateway, "file storage is unavailable", "")
	default:
		slog.Error("request failed", "path", r.URL.Path, "request_id", ctxkeys.RequestID(r.Context()), "error", err)
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error", "")
	}
}

func badRequest(w http.ResponseWriter, message string, err error) {
	details := ""
	if err != nil {
		details = err.Error()
	}
	httputil.RespondError(w, http.StatusBadRequest, message, details)
}

// withToken attaches the verified bearer token, if any, to the credentials.
func withToken(r *http.Request, creds *service.Credentials) {
	creds.Token = ctxkeys.Token(r.Context())
}

// tokenCredentials is used by read endpoints, which only accept bearer
// tokens.
func tokenCredentials(r *http.Request) service.Credentials {
	return service.Credentials{Token: ctxkeys.Token(r.Context())}
}

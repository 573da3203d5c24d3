package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// RespondJSON writes a JSON response with the given status code. The payload
// is marshalled before any header is written so an encoding failure can still
// produce a clean 500.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
		RespondError(w, http.StatusInternalServerError, "failed to encode response", "")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

func RespondError(w http.ResponseWriter, status int, message, details string) {
	payload, _ := json.Marshal(ErrorBody{Message: message, Details: details})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

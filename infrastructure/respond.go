package infrastructure

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// WriteJSON encodes v as the response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// WriteError maps the error taxonomy onto HTTP statuses and writes a
// JSON error body. Internal details are logged, not leaked.
func WriteError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch KindOf(err) {
	case KindNotFound:
		status = http.StatusNotFound
	case KindUnauthorized:
		status = http.StatusForbidden
	case KindConflict:
		status = http.StatusConflict
	case KindValidation:
		status = http.StatusBadRequest
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		slog.Error("internal error", "error", err)
		msg = "internal server error"
	}
	WriteJSON(w, status, map[string]string{"error": msg})
}

// DecodeJSON reads the request body into v, rejecting unknown fields.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return Validation("invalid request body: %v", err)
	}
	return nil
}

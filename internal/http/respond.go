package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Josehuhu/financeiro/internal/auth"
	"github.com/Josehuhu/financeiro/internal/core"
	"github.com/Josehuhu/financeiro/internal/ledger"
	applog "github.com/Josehuhu/financeiro/internal/log"
	"github.com/Josehuhu/financeiro/internal/storage"
)

// envelope is the response shape shared by every endpoint.
type envelope struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string            `json:"message"`
	Fields  []core.FieldError `json:"fields,omitempty"`
}

func writeData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, message string, fields []core.FieldError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{
		Success: false,
		Error:   &apiError{Message: message, Fields: fields},
	})
}

// writeServiceError maps service-layer errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *ledger.ValidationError
	switch {
	case errors.As(err, &vErr):
		writeError(w, http.StatusUnprocessableEntity, "validation failed", vErr.Fields)
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found", nil)
	case errors.Is(err, auth.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "authentication required", nil)
	default:
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			applog.FieldError, err.Error(),
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path)
		writeError(w, http.StatusInternalServerError, "internal error", nil)
	}
}

// maxBodyBytes caps request bodies; no legitimate payload comes close.
const maxBodyBytes = 1 << 20

// decodeBody decodes a JSON request body, rejecting unknown fields and
// oversized payloads.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

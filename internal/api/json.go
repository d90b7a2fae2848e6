package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/fieldaudit/internal/apperr"
)

const maxBodyBytes = 10 << 20 // 10 MB

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error string `json:"error"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// decodeJSON reads a size-limited JSON body into v and validates it.
func decodeJSON(w http.ResponseWriter, r *http.Request, v validation.Validatable) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return v.Validate()
}

// statusOf maps domain errors to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, apperr.ErrNotFound),
		errors.Is(err, apperr.ErrUnknownField),
		errors.Is(err, apperr.ErrUnknownTable),
		errors.Is(err, apperr.ErrUnknownSection):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrReadOnlyField):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrLastRow):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrInvalidValue):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperr.ErrMalformed), errors.Is(err, apperr.ErrResetDeclined):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrStorageFull):
		return http.StatusInsufficientStorage
	case errors.Is(err, apperr.ErrReportUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes err with its mapped status. Internal errors are logged
// and reported without detail.
func writeError(w http.ResponseWriter, op string, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, status, errorBody("internal error"))
		return
	}
	writeJSON(w, status, errorBody(err.Error()))
}

package api

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/khanglvm/vidrank/internal/app"
	"github.com/khanglvm/vidrank/internal/catalog"
	"github.com/khanglvm/vidrank/internal/logging"
	"github.com/khanglvm/vidrank/internal/search"
)

// Error codes returned in the error envelope.
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeNotReady   = "NOT_READY"
	CodeInternal   = "INTERNAL_ERROR"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody describes a failed request.
type ErrorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func respondError(w http.ResponseWriter, status int, code, message string, details map[string]any) {
	respondJSON(w, status, ErrorResponse{Error: ErrorBody{Code: code, Message: message, Details: details}})
}

// respondQueryError maps service errors to status codes.
func respondQueryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrNotReady), errors.Is(err, catalog.ErrDegenerateCatalog), errors.Is(err, search.ErrClosed):
		respondError(w, http.StatusServiceUnavailable, CodeNotReady, err.Error(), nil)
	case errors.Is(err, search.ErrEmptyQuery), errors.Is(err, search.ErrInvalidCount), errors.Is(err, search.ErrUnknownSort):
		respondError(w, http.StatusBadRequest, CodeValidation, err.Error(), nil)
	default:
		log := logging.Component("api")
		log.Error().Err(err).Msg("query failed")
		respondError(w, http.StatusInternalServerError, CodeInternal, "internal error", nil)
	}
}

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fjod/flore/internal/catalog"
	"github.com/fjod/flore/internal/checkout"
	"github.com/fjod/flore/internal/store"
	"github.com/fjod/flore/pkg/logger"
)

// PersistenceWarningHeader is set when a mutation was applied but could not be stored.
const PersistenceWarningHeader = "X-Persistence-Warning"

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Logger.Error().Err(err).Msg("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleError converts domain errors to HTTP status codes.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		httpStatus int
		code       string
	)

	switch {
	case errors.Is(err, store.ErrInvalidQuantity):
		httpStatus, code = http.StatusBadRequest, "invalid_quantity"
	case errors.Is(err, store.ErrInvalidProduct):
		httpStatus, code = http.StatusBadRequest, "invalid_product"
	case errors.Is(err, store.ErrValidation):
		httpStatus, code = http.StatusBadRequest, "invalid_checkout_details"
	case errors.Is(err, store.ErrEmptyCart):
		httpStatus, code = http.StatusConflict, "empty_cart"
	case errors.Is(err, catalog.ErrProductNotFound):
		httpStatus, code = http.StatusNotFound, "not_found"
	case errors.Is(err, checkout.ErrHandOffFailed):
		httpStatus, code = http.StatusServiceUnavailable, "handoff_failed"
	default:
		logger.Error(r.Context()).Err(err).Str("path", r.URL.Path).Msg("Request failed")
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	respondError(w, httpStatus, code, err.Error())
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/localpulse/localpulse-engine/pkg/apperrors"
)

// ApiResponse wraps data in the envelope expected by the console frontend.
type ApiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// ServiceErrorResponse maps a service-layer error onto the HTTP error
// taxonomy: validation rejections are 400, unknown entities 404, state
// conflicts (duplicates, existing main term, active cooldown) 409, and
// everything else a 500 with the fallback error code.
func ServiceErrorResponse(w http.ResponseWriter, err error, fallbackCode string) error {
	switch {
	case apperrors.IsValidation(err):
		return ErrorResponse(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, apperrors.ErrNotFound):
		return ErrorResponse(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, apperrors.ErrDuplicateKeyword),
		errors.Is(err, apperrors.ErrMainTermExists),
		errors.Is(err, apperrors.ErrCooldownActive),
		errors.Is(err, apperrors.ErrConflict):
		return ErrorResponse(w, http.StatusConflict, "conflict", err.Error())
	default:
		return ErrorResponse(w, http.StatusInternalServerError, fallbackCode, err.Error())
	}
}

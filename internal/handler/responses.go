package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/reelhouse/slotengine/internal/domain"
)

// Standard response types for consistent API responses

// SuccessResponse represents a simple successful operation message
type SuccessResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// Helper functions for responding

// respondJSON sends a JSON response with the given status code and payload
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	// Get a buffer from the pool to reduce allocations
	buf := getBuffer()
	defer putBuffer(buf)

	// Encode to the buffer first
	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		// Log the error - we can't write to response at this point since headers are sent
		slog.Error("Failed to encode JSON response", "error", err)
		return
	}

	// Write the buffer to the response
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("Failed to write response buffer", "error", err)
	}
}

// respondError sends a JSON error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// User-facing error messages for engine errors
// These messages are derived from domain errors and tell the player what to do next.
const (
	// Generic messages
	ErrMsgGenericServerError = "Something went wrong"
	ErrMsgUnknownError       = "Unknown error"

	// Credit and bet messages
	ErrMsgInsufficientCreditsError = "Not enough credits for that bet"
	ErrMsgInvalidBetError          = "That bet is not available"

	// Spin messages
	ErrMsgSpinInFlightError    = "A spin is already in progress"
	ErrMsgBonusGameActiveError = "Finish the bonus game first"

	// Feature messages
	ErrMsgFeatureInactiveError = "That feature is not active"
	ErrMsgFeatureActiveError   = "Another feature is already active"
	ErrMsgGambleStateError     = "Gamble is not available right now"

	// Save messages
	ErrMsgSaveCorruptError = "Saved game could not be read"
)

// mapEngineErrorToUserMessage maps domain errors to user-friendly HTTP responses.
// Validation and state errors are the player's to fix (4xx); everything else is
// reported as a server error without leaking internals.
func mapEngineErrorToUserMessage(err error) (int, string) {
	if err == nil {
		return http.StatusInternalServerError, ErrMsgUnknownError
	}

	switch {
	case errors.Is(err, domain.ErrInsufficientCredits):
		return http.StatusPaymentRequired, ErrMsgInsufficientCreditsError
	case errors.Is(err, domain.ErrInvalidBet):
		return http.StatusBadRequest, ErrMsgInvalidBetError
	case errors.Is(err, domain.ErrSpinInFlight):
		return http.StatusConflict, ErrMsgSpinInFlightError
	case errors.Is(err, domain.ErrBonusGameActive):
		return http.StatusConflict, ErrMsgBonusGameActiveError
	case errors.Is(err, domain.ErrFeatureInactive):
		return http.StatusConflict, ErrMsgFeatureInactiveError
	case errors.Is(err, domain.ErrFeatureActive):
		return http.StatusConflict, ErrMsgFeatureActiveError
	case errors.Is(err, domain.ErrGambleState):
		return http.StatusConflict, ErrMsgGambleStateError
	case errors.Is(err, domain.ErrInvalidRecord), errors.Is(err, domain.ErrSchemaTooNew):
		return http.StatusInternalServerError, ErrMsgSaveCorruptError
	}

	switch domain.CategorizeError(err) {
	case domain.ErrorCategoryValidation:
		return http.StatusBadRequest, ErrMsgInvalidRequestSummary
	case domain.ErrorCategoryState:
		return http.StatusConflict, ErrMsgGenericServerError
	default:
		return http.StatusInternalServerError, ErrMsgGenericServerError
	}
}

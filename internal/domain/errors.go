package domain

import "errors"

// Error message string constants - single source of truth for error messages.
// Use these in assert.Contains() checks when testing error messages.
const (
	// Bet/credit errors
	ErrMsgInsufficientCredits = "insufficient credits"
	ErrMsgInvalidBet          = "invalid bet"
	ErrMsgNegativeCredits     = "credits must not be negative"

	// Spin errors
	ErrMsgSpinInFlight    = "a spin is already in progress"
	ErrMsgBonusGameActive = "bonus game is active"

	// Grid/evaluation errors
	ErrMsgInvalidGrid = "grid must be a non-empty rectangle"

	// RNG errors
	ErrMsgEmptySymbolSet    = "no symbols available for reel"
	ErrMsgNonPositiveWeight = "total symbol weight must be positive"
	ErrMsgInvalidReelIndex  = "invalid reel index"
	ErrMsgInvalidStrip      = "invalid strip length"

	// Feature errors
	ErrMsgFeatureInactive = "feature is not active"
	ErrMsgFeatureActive   = "feature is already active"
	ErrMsgGambleState     = "gamble is not in the required state"

	// Persistence errors
	ErrMsgSaveNotFound  = "save record not found"
	ErrMsgSchemaTooNew  = "save record schema is newer than supported"
	ErrMsgInvalidRecord = "invalid save record"
)

// Common domain errors.
// Wrap these with fmt.Errorf("%w: %s", domain.ErrXxx, details) for context.
var (
	ErrInsufficientCredits = errors.New(ErrMsgInsufficientCredits)
	ErrInvalidBet          = errors.New(ErrMsgInvalidBet)
	ErrNegativeCredits     = errors.New(ErrMsgNegativeCredits)

	ErrSpinInFlight    = errors.New(ErrMsgSpinInFlight)
	ErrBonusGameActive = errors.New(ErrMsgBonusGameActive)

	ErrInvalidGrid = errors.New(ErrMsgInvalidGrid)

	ErrEmptySymbolSet    = errors.New(ErrMsgEmptySymbolSet)
	ErrNonPositiveWeight = errors.New(ErrMsgNonPositiveWeight)
	ErrInvalidReelIndex  = errors.New(ErrMsgInvalidReelIndex)
	ErrInvalidStrip      = errors.New(ErrMsgInvalidStrip)

	ErrFeatureInactive = errors.New(ErrMsgFeatureInactive)
	ErrFeatureActive   = errors.New(ErrMsgFeatureActive)
	ErrGambleState     = errors.New(ErrMsgGambleState)

	ErrSaveNotFound  = errors.New(ErrMsgSaveNotFound)
	ErrSchemaTooNew  = errors.New(ErrMsgSchemaTooNew)
	ErrInvalidRecord = errors.New(ErrMsgInvalidRecord)
)

// ErrorCategory buckets an error for logging and user-facing messages.
type ErrorCategory string

const (
	ErrorCategoryValidation ErrorCategory = "validation"
	ErrorCategoryState      ErrorCategory = "state"
	ErrorCategoryFeature    ErrorCategory = "feature"
	ErrorCategorySpin       ErrorCategory = "spin"
	ErrorCategoryFreeSpin   ErrorCategory = "free_spin"
	ErrorCategoryUnknown    ErrorCategory = "unknown"
)

// CategorizeError maps an error onto its category. Unknown errors fall
// through to ErrorCategoryUnknown; the spin pipeline re-labels those as spin
// or free-spin errors depending on where they surfaced.
func CategorizeError(err error) ErrorCategory {
	switch {
	case err == nil:
		return ErrorCategoryUnknown
	case errors.Is(err, ErrInvalidBet),
		errors.Is(err, ErrInvalidGrid),
		errors.Is(err, ErrEmptySymbolSet),
		errors.Is(err, ErrNonPositiveWeight),
		errors.Is(err, ErrInvalidReelIndex),
		errors.Is(err, ErrInvalidStrip),
		errors.Is(err, ErrInvalidRecord):
		return ErrorCategoryValidation
	case errors.Is(err, ErrInsufficientCredits),
		errors.Is(err, ErrNegativeCredits),
		errors.Is(err, ErrSpinInFlight),
		errors.Is(err, ErrBonusGameActive):
		return ErrorCategoryState
	case errors.Is(err, ErrFeatureInactive),
		errors.Is(err, ErrFeatureActive),
		errors.Is(err, ErrGambleState):
		return ErrorCategoryFeature
	default:
		return ErrorCategoryUnknown
	}
}

package handler

// Generic HTTP error messages for client responses.
// These messages intentionally do not expose internal error details.
// Both handlers and tests should reference these constants to maintain consistency.
const (
	// HTTP status messages
	ErrMsgMethodNotAllowed      = "Method not allowed"
	ErrMsgInvalidRequest        = "Invalid request body"
	ErrMsgInvalidRequestSummary = "Invalid request"

	// Query parameter error messages
	ErrMsgMissingQueryParam = "Missing %s query parameter"
	ErrMsgInvalidLimit      = "Invalid limit parameter"

	// Session error messages
	ErrMsgSessionRequired = "Session ID is required"
	ErrMsgSessionInvalid  = "Invalid session ID"

	// Spin error messages
	ErrMsgSpinFailed = "Failed to execute spin"

	// Bet error messages
	ErrMsgSetBetFailed   = "Failed to change bet"
	ErrMsgInvalidBetBody = "bet index is required"

	// Flag error messages
	ErrMsgSetFlagsFailed = "Failed to update settings"

	// Gamble error messages
	ErrMsgGambleAcceptFailed  = "Failed to accept gamble offer"
	ErrMsgGambleDeclineFailed = "Failed to decline gamble offer"
	ErrMsgGambleGuessFailed   = "Failed to resolve gamble guess"
	ErrMsgGambleCollectFailed = "Failed to collect gamble winnings"
	ErrMsgInvalidGambleColor  = "Guess must be 'red' or 'black'"

	// Bonus pick error messages
	ErrMsgBonusPickFailed = "Failed to resolve bonus pick"

	// State error messages
	ErrMsgGetStateFailed = "Failed to load game state"
	ErrMsgResetFailed    = "Failed to reset game"
)

// Success messages for API responses
const (
	MsgGambleDeclinedSuccess = "Offer declined, winnings kept"
	MsgResetSuccess          = "Game reset to defaults"
)

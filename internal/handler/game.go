package handler

import (
	"net/http"
	"strings"

	"github.com/reelhouse/slotengine/internal/gamble"
	"github.com/reelhouse/slotengine/internal/logger"
	"github.com/reelhouse/slotengine/internal/session"
	"github.com/reelhouse/slotengine/internal/spin"
)

// DefaultHistoryLimit caps the history slice returned by the state endpoint
// unless the client asks for more.
const DefaultHistoryLimit = 20

// GameHandler serves the game API. Every endpoint resolves the caller's
// session to an engine and runs exactly one engine command.
type GameHandler struct {
	sessions *session.Manager
}

// NewGameHandler creates a new GameHandler
func NewGameHandler(sessions *session.Manager) *GameHandler {
	return &GameHandler{sessions: sessions}
}

// engine resolves the request's session to a live engine. On failure the
// response has already been written and the handler should return.
func (h *GameHandler) engine(w http.ResponseWriter, r *http.Request) (*spin.Engine, bool) {
	sessionID, ok := EnsureSession(w, r)
	if !ok {
		return nil, false
	}

	engine, err := h.sessions.Get(r.Context(), sessionID)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to resolve session engine",
			"session_id", sessionID, "error", err)
		respondError(w, http.StatusInternalServerError, ErrMsgGetStateFailed)
		return nil, false
	}
	return engine, true
}

// HandleSpin runs one full spin round for the session.
// @Summary Execute a spin
// @Description Deducts the bet, resolves the spin and any triggered features, and returns the full result
// @Tags game
// @Produce json
// @Success 200 {object} spin.Result
// @Failure 402 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/spin [post]
func (h *GameHandler) HandleSpin(w http.ResponseWriter, r *http.Request) {
	engine, ok := h.engine(w, r)
	if !ok {
		return
	}

	result, err := engine.Spin(r.Context())
	if err != nil {
		logger.FromContext(r.Context()).Warn("Spin rejected", "error", err)
		statusCode, userMsg := mapEngineErrorToUserMessage(err)
		respondError(w, statusCode, userMsg)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// HandleGetState returns the session's full read model.
// @Summary Get game state
// @Tags game
// @Produce json
// @Success 200 {object} spin.View
// @Router /api/v1/state [get]
func (h *GameHandler) HandleGetState(w http.ResponseWriter, r *http.Request) {
	engine, ok := h.engine(w, r)
	if !ok {
		return
	}

	limit, ok := GetOptionalIntParam(r, w, "history", DefaultHistoryLimit)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, engine.StateView(limit))
}

// SetBetRequest selects a bet by ladder index.
type SetBetRequest struct {
	Index int `json:"index" validate:"gte=0"`
}

// HandleSetBet changes the session's bet.
func (h *GameHandler) HandleSetBet(w http.ResponseWriter, r *http.Request) {
	engine, ok := h.engine(w, r)
	if !ok {
		return
	}

	var req SetBetRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Set bet"); err != nil {
		return
	}

	if err := engine.SetBet(r.Context(), req.Index); err != nil {
		logger.FromContext(r.Context()).Warn("Set bet failed", "index", req.Index, "error", err)
		statusCode, userMsg := mapEngineErrorToUserMessage(err)
		respondError(w, statusCode, userMsg)
		return
	}

	respondJSON(w, http.StatusOK, engine.StateView(0))
}

// SetFlagsRequest toggles session settings. Omitted fields are left unchanged.
type SetFlagsRequest struct {
	CascadeEnabled *bool `json:"cascade_enabled"`
	TurboMode      *bool `json:"turbo_mode"`
	AutoCollect    *bool `json:"auto_collect"`
}

// HandleSetFlags updates the session toggles.
func (h *GameHandler) HandleSetFlags(w http.ResponseWriter, r *http.Request) {
	engine, ok := h.engine(w, r)
	if !ok {
		return
	}

	var req SetFlagsRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Set flags"); err != nil {
		return
	}

	update := spin.FlagUpdate{
		CascadeEnabled: req.CascadeEnabled,
		TurboMode:      req.TurboMode,
		AutoCollect:    req.AutoCollect,
	}
	if err := engine.SetFlags(r.Context(), update); err != nil {
		logger.FromContext(r.Context()).Error("Set flags failed", "error", err)
		respondError(w, http.StatusInternalServerError, ErrMsgSetFlagsFailed)
		return
	}

	respondJSON(w, http.StatusOK, engine.StateView(0))
}

// HandleGambleAccept puts the pending offer at stake.
func (h *GameHandler) HandleGambleAccept(w http.ResponseWriter, r *http.Request) {
	engine, ok := h.engine(w, r)
	if !ok {
		return
	}

	offer, err := engine.GambleAccept(r.Context())
	if err != nil {
		logger.FromContext(r.Context()).Warn("Gamble accept rejected", "error", err)
		statusCode, userMsg := mapEngineErrorToUserMessage(err)
		respondError(w, statusCode, userMsg)
		return
	}

	respondJSON(w, http.StatusOK, offer)
}

// HandleGambleDecline dismisses the pending offer, keeping the win.
func (h *GameHandler) HandleGambleDecline(w http.ResponseWriter, r *http.Request) {
	engine, ok := h.engine(w, r)
	if !ok {
		return
	}

	if err := engine.GambleDecline(r.Context()); err != nil {
		logger.FromContext(r.Context()).Warn("Gamble decline rejected", "error", err)
		statusCode, userMsg := mapEngineErrorToUserMessage(err)
		respondError(w, statusCode, userMsg)
		return
	}

	respondJSON(w, http.StatusOK, SuccessResponse{Message: MsgGambleDeclinedSuccess})
}

// GambleGuessRequest carries one red-or-black guess.
type GambleGuessRequest struct {
	Color string `json:"color" validate:"required,gamblecolor"`
}

// HandleGambleGuess resolves one double-up round.
func (h *GameHandler) HandleGambleGuess(w http.ResponseWriter, r *http.Request) {
	engine, ok := h.engine(w, r)
	if !ok {
		return
	}

	var req GambleGuessRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Gamble guess"); err != nil {
		return
	}

	result, err := engine.GambleGuess(r.Context(), gamble.Color(strings.ToLower(req.Color)))
	if err != nil {
		logger.FromContext(r.Context()).Warn("Gamble guess rejected", "error", err)
		statusCode, userMsg := mapEngineErrorToUserMessage(err)
		respondError(w, statusCode, userMsg)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GambleCollectResponse reports the banked amount.
type GambleCollectResponse struct {
	Amount  int `json:"amount"`
	Credits int `json:"credits"`
}

// HandleGambleCollect banks the current gamble amount.
func (h *GameHandler) HandleGambleCollect(w http.ResponseWriter, r *http.Request) {
	engine, ok := h.engine(w, r)
	if !ok {
		return
	}

	amount, err := engine.GambleCollect(r.Context())
	if err != nil {
		logger.FromContext(r.Context()).Warn("Gamble collect rejected", "error", err)
		statusCode, userMsg := mapEngineErrorToUserMessage(err)
		respondError(w, statusCode, userMsg)
		return
	}

	respondJSON(w, http.StatusOK, GambleCollectResponse{
		Amount:  amount,
		Credits: engine.StateView(0).Credits,
	})
}

// BonusPickRequest selects one tile in the pick game.
type BonusPickRequest struct {
	Index int `json:"index" validate:"gte=0"`
}

// HandleBonusPick reveals one bonus tile.
func (h *GameHandler) HandleBonusPick(w http.ResponseWriter, r *http.Request) {
	engine, ok := h.engine(w, r)
	if !ok {
		return
	}

	var req BonusPickRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Bonus pick"); err != nil {
		return
	}

	result, err := engine.BonusPick(r.Context(), req.Index)
	if err != nil {
		logger.FromContext(r.Context()).Warn("Bonus pick rejected", "index", req.Index, "error", err)
		statusCode, userMsg := mapEngineErrorToUserMessage(err)
		respondError(w, statusCode, userMsg)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// HandleReset wipes the session back to defaults.
func (h *GameHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	engine, ok := h.engine(w, r)
	if !ok {
		return
	}

	if err := engine.Reset(r.Context()); err != nil {
		logger.FromContext(r.Context()).Error("Reset failed", "error", err)
		statusCode, userMsg := mapEngineErrorToUserMessage(err)
		respondError(w, statusCode, userMsg)
		return
	}

	respondJSON(w, http.StatusOK, SuccessResponse{Message: MsgResetSuccess})
}

package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelhouse/slotengine/internal/bonuspick"
	"github.com/reelhouse/slotengine/internal/config"
	"github.com/reelhouse/slotengine/internal/freespins"
	"github.com/reelhouse/slotengine/internal/gamble"
	"github.com/reelhouse/slotengine/internal/payline"
	"github.com/reelhouse/slotengine/internal/rng"
	"github.com/reelhouse/slotengine/internal/save"
	"github.com/reelhouse/slotengine/internal/session"
	"github.com/reelhouse/slotengine/internal/spin"
	"github.com/reelhouse/slotengine/internal/state"
)

func newTestHandler(t *testing.T) *GameHandler {
	t.Helper()

	cfg := config.DefaultGameConfig()
	symbols := cfg.SymbolTable()
	saves := save.NewMemoryStore(save.DefaultRecord(cfg.InitialCredits, cfg.BetOptions[0]))

	factory := func(sessionID string) (*spin.Engine, error) {
		store, err := state.New(cfg.BetOptions, cfg.InitialCredits, cfg.Reels)
		if err != nil {
			return nil, err
		}
		reels, err := rng.New(symbols, cfg.Reels, nil)
		if err != nil {
			return nil, err
		}
		return spin.NewEngine(spin.Deps{
			Config:    cfg,
			State:     store,
			Reels:     reels,
			Evaluator: payline.New(symbols, cfg.Paylines, cfg.ScatterPayouts),
			FreeSpins: freespins.New(cfg.FreeSpins.Awards, cfg.FreeSpins.Multipliers, cfg.FreeSpins.Retrigger, cfg.FreeSpins.MinScatters, nil),
			BonusPick: bonuspick.New(cfg.BonusPick, nil),
			Gamble:    gamble.New(cfg.Gamble, nil, nil),
			Saves:     saves,
			SessionID: sessionID,
		})
	}

	return NewGameHandler(session.NewManager(16, time.Minute, factory))
}

func doJSON(t *testing.T, handlerFunc http.HandlerFunc, method, target, sessionID string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	if sessionID != "" {
		req.Header.Set(HeaderSessionID, sessionID)
	}
	rec := httptest.NewRecorder()
	handlerFunc(rec, req)
	return rec
}

func TestHandleGetState_ReturnsDefaults(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h.HandleGetState, http.MethodGet, "/api/v1/state", "player-1", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var view spin.View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "player-1", view.SessionID)
	assert.Equal(t, config.DefaultGameConfig().InitialCredits, view.Credits)
	assert.False(t, view.IsSpinning)
}

func TestHandleGetState_MintsSessionCookie(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h.HandleGetState, http.MethodGet, "/api/v1/state", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookie, cookies[0].Name)
	assert.NotEmpty(t, cookies[0].Value)
}

func TestHandleGetState_RejectsMalformedSessionID(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h.HandleGetState, http.MethodGet, "/api/v1/state", "../escape", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), ErrMsgSessionInvalid)
}

func TestHandleSpin_ReturnsResult(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h.HandleSpin, http.MethodPost, "/api/v1/spin", "player-1", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var result spin.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.NotEmpty(t, result.Grid)
	assert.GreaterOrEqual(t, result.TotalWin, 0)
}

func TestHandleSetBet_UpdatesView(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h.HandleSetBet, http.MethodPost, "/api/v1/bet", "player-1", SetBetRequest{Index: 1})

	require.Equal(t, http.StatusOK, rec.Code)
	var view spin.View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, 1, view.BetIndex)
}

func TestHandleSetBet_RejectsUnknownIndex(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h.HandleSetBet, http.MethodPost, "/api/v1/bet", "player-1", SetBetRequest{Index: 99})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), ErrMsgInvalidBetError)
}

func TestHandleSetBet_RejectsMalformedBody(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bet", bytes.NewBufferString("{"))
	req.Header.Set(HeaderSessionID, "player-1")
	rec := httptest.NewRecorder()
	h.HandleSetBet(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), ErrMsgInvalidRequest)
}

func TestHandleSetFlags_TogglesTurbo(t *testing.T) {
	h := newTestHandler(t)
	turbo := true

	rec := doJSON(t, h.HandleSetFlags, http.MethodPost, "/api/v1/flags", "player-1", SetFlagsRequest{TurboMode: &turbo})

	require.Equal(t, http.StatusOK, rec.Code)
	var view spin.View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.True(t, view.Flags.TurboMode)
	assert.False(t, view.Flags.CascadeEnabled, "omitted flags stay unchanged")
}

func TestHandleGambleGuess_RejectsBadColor(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h.HandleGambleGuess, http.MethodPost, "/api/v1/gamble/guess", "player-1", GambleGuessRequest{Color: "green"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), ErrMsgInvalidRequestSummary)
}

func TestHandleGambleAccept_NoOfferConflicts(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h.HandleGambleAccept, http.MethodPost, "/api/v1/gamble/accept", "player-1", nil)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), ErrMsgGambleStateError)
}

func TestHandleBonusPick_InactiveConflicts(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h.HandleBonusPick, http.MethodPost, "/api/v1/bonus/pick", "player-1", BonusPickRequest{Index: 0})

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), ErrMsgFeatureInactiveError)
}

func TestHandleReset_RestoresDefaults(t *testing.T) {
	h := newTestHandler(t)

	require.Equal(t, http.StatusOK, doJSON(t, h.HandleSetBet, http.MethodPost, "/api/v1/bet", "player-1", SetBetRequest{Index: 1}).Code)
	rec := doJSON(t, h.HandleReset, http.MethodPost, "/api/v1/reset", "player-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	state := doJSON(t, h.HandleGetState, http.MethodGet, "/api/v1/state", "player-1", nil)
	var view spin.View
	require.NoError(t, json.Unmarshal(state.Body.Bytes(), &view))
	assert.Equal(t, 0, view.BetIndex)
	assert.Equal(t, config.DefaultGameConfig().InitialCredits, view.Credits)
}

func TestHandleHealthz_AlwaysOK(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleHealthz()(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestHandleReadyz_NilCheckerOK(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleReadyz(nil)(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

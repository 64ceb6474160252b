package spin

import (
	"context"
	"errors"
	"fmt"

	"github.com/reelhouse/slotengine/internal/bonuspick"
	"github.com/reelhouse/slotengine/internal/domain"
	"github.com/reelhouse/slotengine/internal/event"
	"github.com/reelhouse/slotengine/internal/gamble"
	"github.com/reelhouse/slotengine/internal/logger"
	"github.com/reelhouse/slotengine/internal/metrics"
	"github.com/reelhouse/slotengine/internal/render"
	"github.com/reelhouse/slotengine/internal/state"
)

// View is the read model of the whole session for the state endpoint.
type View struct {
	SessionID     string                    `json:"session_id"`
	Credits       int                       `json:"credits"`
	CurrentBet    int                       `json:"current_bet"`
	BetIndex      int                       `json:"bet_index"`
	BetOptions    []int                     `json:"bet_options"`
	LastWin       int                       `json:"last_win"`
	IsSpinning    bool                      `json:"is_spinning"`
	ReelPositions []int                     `json:"reel_positions"`
	FreeSpins     FreeSpinsView             `json:"free_spins"`
	BonusGame     BonusGameView             `json:"bonus_game"`
	Gamble        GambleView                `json:"gamble"`
	Flags         FlagsView                 `json:"flags"`
	Progression   map[string]any            `json:"progression,omitempty"`
	History       []domain.SpinHistoryEntry `json:"history,omitempty"`
}

// FreeSpinsView summarizes the free-spins feature.
type FreeSpinsView struct {
	Active     bool    `json:"active"`
	Remaining  int     `json:"remaining"`
	Multiplier float64 `json:"multiplier"`
}

// BonusGameView summarizes the bonus pick game.
type BonusGameView struct {
	Active    bool `json:"active"`
	Remaining int  `json:"remaining"`
	PoolSize  int  `json:"pool_size"`
}

// GambleView summarizes the gamble feature.
type GambleView struct {
	State  string `json:"state"`
	Amount int    `json:"amount"`
}

// FlagsView exposes the session toggles.
type FlagsView struct {
	CascadeEnabled bool `json:"cascade_enabled"`
	TurboMode      bool `json:"turbo_mode"`
	AutoCollect    bool `json:"auto_collect"`
}

// StateView builds the read model. It takes the engine mutex so in-between
// states of a running command are never observed.
func (e *Engine) StateView(historyLimit int) View {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := e.state.Snapshot()
	view := View{
		SessionID:     e.sessionID,
		Credits:       snap.Credits,
		CurrentBet:    snap.CurrentBet,
		BetIndex:      snap.CurrentBetIndex,
		BetOptions:    e.state.BetOptions(),
		LastWin:       snap.LastWin,
		IsSpinning:    snap.IsSpinning,
		ReelPositions: snap.ReelPositions,
		FreeSpins: FreeSpinsView{
			Active:     e.freeSpins.IsActive(),
			Remaining:  e.freeSpins.Remaining(),
			Multiplier: e.freeSpins.Multiplier(),
		},
		BonusGame: BonusGameView{
			Active:    e.bonusPick.IsActive(),
			Remaining: e.bonusPick.Remaining(),
			PoolSize:  e.bonusPick.PoolSize(),
		},
		Gamble: GambleView{
			State:  string(e.gamble.State()),
			Amount: e.gamble.Amount(),
		},
		Flags: FlagsView{
			CascadeEnabled: e.cascadeEnabled,
			TurboMode:      e.turbo,
			AutoCollect:    e.autoCollect,
		},
	}

	if e.progression != nil {
		prog := e.progression.Snapshot()
		view.Progression = map[string]any{
			"level":            prog.LevelSystem.Level,
			"xp":               prog.LevelSystem.XP,
			"achievements":     prog.Achievements,
			"daily_challenges": prog.DailyChallenges,
			"statistics":       prog.Statistics,
		}
	}
	if e.history != nil {
		view.History = e.history.Recent(historyLimit)
	}
	return view
}

// SetBet selects a bet from the ladder.
func (e *Engine) SetBet(ctx context.Context, index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.state.SetBetIndex(index); err != nil {
		return err
	}
	return e.persist(ctx)
}

// SetFlags updates the session toggles. Nil fields are left unchanged.
type FlagUpdate struct {
	CascadeEnabled *bool
	TurboMode      *bool
	AutoCollect    *bool
}

// SetFlags applies a flag update and persists it.
func (e *Engine) SetFlags(ctx context.Context, update FlagUpdate) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if update.CascadeEnabled != nil {
		e.cascadeEnabled = *update.CascadeEnabled
	}
	if update.TurboMode != nil {
		e.turbo = *update.TurboMode
	}
	if update.AutoCollect != nil {
		e.autoCollect = *update.AutoCollect
	}
	return e.persist(ctx)
}

// GambleAccept puts the offered win at stake: the amount leaves the balance
// and rides on the guesses.
func (e *Engine) GambleAccept(ctx context.Context) (*gamble.Offer, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.collectExpiredOffer(ctx)

	amount := e.gamble.Amount()
	if err := e.gamble.Accept(); err != nil {
		return nil, err
	}
	if err := e.state.DeductCredits(amount); err != nil {
		// Should not happen: the win was just credited. Abort the feature.
		_, _ = e.gamble.Collect()
		return nil, err
	}
	if err := e.persist(ctx); err != nil {
		return nil, err
	}
	return &gamble.Offer{Amount: amount}, nil
}

// GambleDecline drops a pending offer. The win stays on the balance where
// finalize put it.
func (e *Engine) GambleDecline(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.gamble.Decline(); err != nil {
		return err
	}
	return e.persist(ctx)
}

// GambleGuess plays one double-up round. When the round ends the feature,
// the surviving amount (zero on a wrong guess) returns to the balance.
func (e *Engine) GambleGuess(ctx context.Context, guess gamble.Color) (*gamble.RoundResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	result, err := e.gamble.Guess(guess)
	if err != nil {
		return nil, err
	}

	e.sound.PlayGambleCard()
	if result.Correct {
		metrics.GambleRounds.WithLabelValues("win").Inc()
	} else {
		metrics.GambleRounds.WithLabelValues("loss").Inc()
	}

	if result.Ended {
		e.settleGamble(ctx, result.Amount)
	}
	if err := e.persist(ctx); err != nil {
		return nil, err
	}
	return result, nil
}

// GambleCollect banks the current amount, ending the feature. Collecting a
// pending offer just dismisses it since the win never left the balance.
func (e *Engine) GambleCollect(ctx context.Context) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	wasActive := e.gamble.State() == gamble.StateActive
	amount, err := e.gamble.Collect()
	if err != nil {
		return 0, err
	}
	if wasActive {
		e.settleGamble(ctx, amount)
	}
	if err := e.persist(ctx); err != nil {
		return amount, err
	}
	return amount, nil
}

// settleGamble returns the surviving stake to the balance and records the
// session outcome. Only called for stakes that were deducted on accept.
func (e *Engine) settleGamble(ctx context.Context, amount int) {
	if amount > 0 {
		_ = e.state.AddCredits(amount)
	}
	if e.progression != nil {
		e.progression.RecordGamble(ctx, amount > 0)
	}
	e.publish(ctx, event.GambleFinished, domain.GambleFinishedPayload{
		Won:    amount > 0,
		Amount: amount,
		Rounds: e.gamble.Rounds(),
	})
	e.timers.CancelLabel(render.TimerLabelGamble)
}

// collectExpiredOffer dismisses a lapsed gamble offer. The win is already on
// the balance; auto-collect just closes the window.
func (e *Engine) collectExpiredOffer(ctx context.Context) {
	if !e.gamble.Expired() {
		return
	}
	if _, err := e.gamble.Collect(); err == nil {
		logger.FromContext(ctx).Info("gamble offer expired, auto-collected")
	}
}

// BonusPick reveals one bonus pool slot. When the last pick is consumed the
// game ends and the multiplied total is credited.
func (e *Engine) BonusPick(ctx context.Context, index int) (*bonuspick.PickResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	result, err := e.bonusPick.Pick(index)
	if err != nil {
		return nil, err
	}

	if result.Finished {
		total := e.bonusPick.End()
		_ = e.state.AddCredits(total)
		e.publish(ctx, event.FeatureEnded, domain.FeatureTriggeredPayload{Feature: "bonus_pick", Win: total})
		e.showMessage(ctx, e.messages.BonusEnded(total), total)
	}
	if err := e.persist(ctx); err != nil {
		return result, err
	}
	return result, nil
}

// Load restores the session from the save store. A missing record keeps the
// fresh defaults; a pending gamble stake from a previous run returns to the
// balance rather than resuming mid-feature.
func (e *Engine) Load(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	record, err := e.saves.Load(ctx, e.sessionID)
	if errors.Is(err, domain.ErrSaveNotFound) {
		return e.persist(ctx)
	}
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}

	if err := e.state.RestoreSnapshot(state.Snapshot{
		Credits:         record.Credits,
		CurrentBet:      record.CurrentBet,
		CurrentBetIndex: record.CurrentBetIndex,
	}); err != nil {
		logger.FromContext(ctx).Warn("rejected persisted state, keeping defaults", "error", err)
	}

	e.freeSpins.Init(record.Features.FreeSpins)
	e.bonusPick.Init(record.Features.BonusGame)
	e.gamble.Init(record.Features.Gamble)
	e.cascadeEnabled = record.Features.CascadeEnabled
	e.turbo = record.Features.TurboMode
	e.autoplay = record.Features.Autoplay
	e.autoCollect = record.AutoCollectEnabled

	// A session never resumes mid-gamble: any stake that was in play goes
	// back to the balance.
	if e.gamble.State() != gamble.StateInactive {
		wasActive := e.gamble.State() == gamble.StateActive
		if amount, err := e.gamble.Collect(); err == nil && wasActive && amount > 0 {
			_ = e.state.AddCredits(amount)
		}
	}

	if e.progression != nil {
		e.progression.Init(record.Progression)
	}
	if e.history != nil {
		e.history.Init(record.SpinHistory)
	}
	return nil
}

// Reset wipes the session back to factory defaults and deletes the save.
func (e *Engine) Reset(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.IsSpinning() {
		return domain.ErrSpinInFlight
	}

	e.timers.CancelAll()
	e.state.Reset(e.cfg.InitialCredits)
	e.freeSpins.End()
	e.bonusPick.End()
	if e.gamble.State() != gamble.StateInactive {
		_, _ = e.gamble.Collect()
	}
	if e.progression != nil {
		e.progression.Init(domain.ProgressionSave{LevelSystem: domain.LevelSave{Level: 1}})
	}
	if e.history != nil {
		e.history.Init(domain.SpinHistorySave{})
	}
	e.cascadeEnabled = e.cfg.Cascade.Enabled
	e.turbo = false
	e.autoCollect = false
	e.autoplay = domain.AutoplaySave{}

	if err := e.saves.Delete(ctx, e.sessionID); err != nil {
		logger.FromContext(ctx).Warn("failed to delete save on reset", "error", err)
	}
	return e.persist(ctx)
}

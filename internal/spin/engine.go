// Package spin is the top-level sequencer. One Engine owns a session's
// pipeline: validate, checkpoint, commit the bet, draw the outcome, wait out
// the reel stops, evaluate, cascade, trigger features, finalize and persist.
// Any failure rolls the session back to the pre-spin checkpoint.
package spin

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/reelhouse/slotengine/internal/anticipation"
	"github.com/reelhouse/slotengine/internal/bonuspick"
	"github.com/reelhouse/slotengine/internal/cascade"
	"github.com/reelhouse/slotengine/internal/config"
	"github.com/reelhouse/slotengine/internal/domain"
	"github.com/reelhouse/slotengine/internal/event"
	"github.com/reelhouse/slotengine/internal/freespins"
	"github.com/reelhouse/slotengine/internal/gamble"
	"github.com/reelhouse/slotengine/internal/history"
	"github.com/reelhouse/slotengine/internal/logger"
	"github.com/reelhouse/slotengine/internal/metrics"
	"github.com/reelhouse/slotengine/internal/progression"
	"github.com/reelhouse/slotengine/internal/render"
	"github.com/reelhouse/slotengine/internal/save"
	"github.com/reelhouse/slotengine/internal/state"
)

// ReelSource is the slice of the weighted RNG the engine needs: strips and
// stop offsets per reel.
type ReelSource interface {
	BuildStrip(reelIndex, length int) (domain.ReelStrip, error)
	Offset(stripLength int) (int, error)
}

// Evaluator scores a realized grid.
type Evaluator interface {
	Evaluate(grid domain.Grid, bet int) (*domain.WinInfo, error)
}

// Advisor decides dramatic reel pacing from the predetermined outcome.
type Advisor interface {
	Advise(grid domain.Grid) anticipation.Decision
}

// Cascader runs the tumble loop.
type Cascader interface {
	Execute(ctx context.Context, grid domain.Grid, winning []domain.Position, bet int) (*cascade.Result, error)
}

// FreeSpins is the free-spins feature surface the pipeline drives.
type FreeSpins interface {
	IsActive() bool
	Remaining() int
	Multiplier() float64
	CanTrigger(scatterCount int) bool
	Trigger(scatterCount int) error
	Retrigger(scatterCount int) error
	ExecuteSpin() (remaining int, err error)
	ApplyMultiplier(win int) int
	AddWin(win int)
	End() int
	SaveData() *domain.FreeSpinsSave
	Init(save *domain.FreeSpinsSave)
}

var _ FreeSpins = (*freespins.Controller)(nil)

// Timing holds the presentation delays the pipeline waits out. Turbo mode
// skips them entirely.
type Timing struct {
	ReelStop     time.Duration
	Anticipation time.Duration
	CascadeStep  time.Duration
}

// DefaultTiming mirrors the classic reel cadence.
func DefaultTiming() Timing {
	return Timing{
		ReelStop:     300 * time.Millisecond,
		Anticipation: 900 * time.Millisecond,
		CascadeStep:  250 * time.Millisecond,
	}
}

// Result is the full outcome of one spin, including any free spins that ran
// after it finalized.
type Result struct {
	SpinID       string          `json:"spin_id"`
	Grid         domain.Grid     `json:"grid"`
	Win          *domain.WinInfo `json:"win"`
	BaseWin      int             `json:"base_win"`
	CascadeWin   int             `json:"cascade_win"`
	CascadeSteps []cascade.Step  `json:"cascade_steps,omitempty"`
	TotalWin     int             `json:"total_win"`
	Tier         domain.WinTier  `json:"tier"`
	Credits      int             `json:"credits"`

	FreeSpin           bool `json:"free_spin"`
	FreeSpinsTriggered bool `json:"free_spins_triggered,omitempty"`
	FreeSpinsResumed   bool `json:"free_spins_resumed,omitempty"`
	Retriggered        bool `json:"retriggered,omitempty"`
	FreeSpinsRemaining int  `json:"free_spins_remaining,omitempty"`
	FreeSpinsEnded     bool `json:"free_spins_ended,omitempty"`
	FreeSpinsTotalWin  int  `json:"free_spins_total_win,omitempty"`

	BonusTriggered bool `json:"bonus_triggered,omitempty"`
	BonusPicks     int  `json:"bonus_picks,omitempty"`

	GambleOffer *gamble.Offer `json:"gamble_offer,omitempty"`
	Refilled    bool          `json:"refilled,omitempty"`

	Anticipation anticipation.Decision `json:"-"`

	// FreeSpinRounds holds the results of free spins run after this spin
	// finalized, in play order.
	FreeSpinRounds []*Result `json:"free_spin_rounds,omitempty"`
}

// Deps wires the engine. Renderer, Sound and Timers may be nil; the Nop
// implementations take over.
type Deps struct {
	Config      *config.GameConfig
	State       *state.Store
	Reels       ReelSource
	Evaluator   Evaluator
	Advisor     Advisor
	Cascade     Cascader
	FreeSpins   FreeSpins
	BonusPick   *bonuspick.Controller
	Gamble      *gamble.Controller
	Progression *progression.Tracker
	History     *history.Ring
	Saves       save.Store
	Bus         event.Bus
	Renderer    render.Renderer
	Sound       render.Sound
	Timers      render.Timers
	Messages    *render.Messages
	SessionID   string
	Timing      Timing
}

// Engine drives the spin pipeline for one session. Public operations are
// serialized by a mutex; only one command runs at a time and a second spin
// request is rejected, never queued.
type Engine struct {
	mu sync.Mutex

	cfg         *config.GameConfig
	state       *state.Store
	reels       ReelSource
	eval        Evaluator
	advisor     Advisor
	cascade     Cascader
	freeSpins   FreeSpins
	bonusPick   *bonuspick.Controller
	gamble      *gamble.Controller
	progression *progression.Tracker
	history     *history.Ring
	saves       save.Store
	bus         event.Bus
	renderer    render.Renderer
	sound       render.Sound
	timers      render.Timers
	messages    *render.Messages
	sessionID   string
	timing      Timing

	cascadeEnabled bool
	turbo          bool
	autoCollect    bool
	autoplay       domain.AutoplaySave
}

// NewEngine wires an Engine. Required deps missing is a programming error
// and rejected up front.
func NewEngine(deps Deps) (*Engine, error) {
	switch {
	case deps.Config == nil:
		return nil, fmt.Errorf("spin engine: nil config")
	case deps.State == nil:
		return nil, fmt.Errorf("spin engine: nil state store")
	case deps.Reels == nil:
		return nil, fmt.Errorf("spin engine: nil reel source")
	case deps.Evaluator == nil:
		return nil, fmt.Errorf("spin engine: nil evaluator")
	case deps.FreeSpins == nil || deps.BonusPick == nil || deps.Gamble == nil:
		return nil, fmt.Errorf("spin engine: nil feature controller")
	case deps.Saves == nil:
		return nil, fmt.Errorf("spin engine: nil save store")
	}

	if deps.Messages == nil {
		deps.Messages = render.NewMessages()
	}
	if deps.Timing == (Timing{}) {
		deps.Timing = DefaultTiming()
	}
	if deps.SessionID == "" {
		deps.SessionID = uuid.New().String()
	}

	return &Engine{
		cfg:            deps.Config,
		state:          deps.State,
		reels:          deps.Reels,
		eval:           deps.Evaluator,
		advisor:        deps.Advisor,
		cascade:        deps.Cascade,
		freeSpins:      deps.FreeSpins,
		bonusPick:      deps.BonusPick,
		gamble:         deps.Gamble,
		progression:    deps.Progression,
		history:        deps.History,
		saves:          deps.Saves,
		bus:            deps.Bus,
		renderer:       render.OrNopRenderer(deps.Renderer),
		sound:          render.OrNopSound(deps.Sound),
		timers:         render.OrNopTimers(deps.Timers),
		messages:       deps.Messages,
		sessionID:      deps.SessionID,
		timing:         deps.Timing,
		cascadeEnabled: deps.Config.Cascade.Enabled,
	}, nil
}

// SessionID returns the session this engine serves.
func (e *Engine) SessionID() string { return e.sessionID }

// Spin runs one paid spin and, if the spin triggered free spins, the whole
// awarded free-spins session after it finalizes. A session restored with
// free spins still pending resumes them here instead of taking a bet.
func (e *Engine) Spin(ctx context.Context) (*Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.collectExpiredOffer(ctx)

	if e.freeSpins.IsActive() {
		return e.resumeFreeSpins(ctx)
	}

	if err := e.canSpin(false); err != nil {
		metrics.SpinFailures.WithLabelValues(string(domain.CategorizeError(err))).Inc()
		return nil, err
	}

	checkpoint := e.state.CreateCheckpoint()
	result, err := e.runSpin(ctx, false)
	if err != nil {
		return nil, e.recover(ctx, checkpoint, err)
	}

	if result.FreeSpinsTriggered {
		e.runFreeSpins(ctx, result)
	}
	return result, nil
}

// resumeFreeSpins plays out a free-spins session that was active when the
// save record loaded. No bet is taken; the awarded spins just continue.
func (e *Engine) resumeFreeSpins(ctx context.Context) (*Result, error) {
	if err := e.canSpin(true); err != nil {
		metrics.SpinFailures.WithLabelValues(string(domain.CategorizeError(err))).Inc()
		return nil, err
	}

	result := &Result{
		SpinID:             uuid.New().String(),
		FreeSpinsResumed:   true,
		FreeSpinsRemaining: e.freeSpins.Remaining(),
		Credits:            e.state.Credits(),
	}
	e.runFreeSpins(ctx, result)
	return result, nil
}

// canSpin enforces the spin preconditions: no spin in flight, no bonus game
// open, no gamble being played, and enough credits unless this is a free
// spin.
func (e *Engine) canSpin(isFreeSpin bool) error {
	if e.state.IsSpinning() {
		return domain.ErrSpinInFlight
	}
	if e.bonusPick.IsActive() {
		return domain.ErrBonusGameActive
	}
	if e.gamble.State() == gamble.StateActive {
		return fmt.Errorf("%w: gamble", domain.ErrFeatureActive)
	}
	if !isFreeSpin && !e.freeSpins.IsActive() && e.state.Credits() < e.state.Bet() {
		return fmt.Errorf("%w: have %d, bet %d", domain.ErrInsufficientCredits, e.state.Credits(), e.state.Bet())
	}
	return nil
}

// runSpin executes the pipeline once. The caller owns checkpointing and
// rollback.
func (e *Engine) runSpin(ctx context.Context, isFreeSpin bool) (*Result, error) {
	log := logger.FromContext(ctx)

	if err := e.canSpin(isFreeSpin); err != nil {
		return nil, err
	}
	if err := e.state.BeginSpin(); err != nil {
		return nil, err
	}
	defer e.state.EndSpin()

	bet := e.state.Bet()
	if !isFreeSpin {
		if err := e.state.DeductCredits(bet); err != nil {
			return nil, err
		}
	}
	if err := e.state.SetLastWin(0); err != nil {
		return nil, err
	}

	result := &Result{
		SpinID:   uuid.New().String(),
		FreeSpin: isFreeSpin,
	}

	grid, err := e.prepareReelResults()
	if err != nil {
		return nil, err
	}
	result.Grid = grid

	if e.advisor != nil {
		result.Anticipation = e.advisor.Advise(grid)
	}

	e.sound.PlaySpin()
	if err := e.executeReelSpin(ctx, len(grid), result.Anticipation); err != nil {
		return nil, err
	}

	info, err := e.eval.Evaluate(grid, bet)
	if err != nil {
		return nil, err
	}
	result.Win = info

	if err := e.processWins(ctx, result, grid, info, bet); err != nil {
		return nil, err
	}

	e.updateCreditsAndStats(ctx, result, info)
	e.handleFeatureTriggers(ctx, result, info, isFreeSpin)
	if err := e.finalizeSpin(ctx, result, isFreeSpin); err != nil {
		return nil, err
	}

	log.Info("spin resolved",
		"spin_id", result.SpinID,
		"bet", bet,
		"total_win", result.TotalWin,
		"tier", string(result.Tier),
		"free_spin", isFreeSpin,
		"cascade_steps", len(result.CascadeSteps))
	return result, nil
}

// prepareReelResults draws the complete outcome up front: a fresh strip and
// stop offset per reel, then the visible window. Nothing after this point
// changes the outcome.
func (e *Engine) prepareReelResults() (domain.Grid, error) {
	grid := make(domain.Grid, e.cfg.Reels)
	offsets := make([]int, e.cfg.Reels)

	for reel := 0; reel < e.cfg.Reels; reel++ {
		strip, err := e.reels.BuildStrip(reel, e.cfg.StripLength)
		if err != nil {
			return nil, err
		}
		offset, err := e.reels.Offset(len(strip))
		if err != nil {
			return nil, err
		}
		offsets[reel] = offset

		window := make([]domain.SymbolID, e.cfg.Rows)
		for row := 0; row < e.cfg.Rows; row++ {
			window[row] = strip[(offset+row)%len(strip)]
		}
		grid[reel] = window
	}

	if err := e.state.SetReelPositions(offsets); err != nil {
		return nil, err
	}
	return grid, nil
}

// executeReelSpin waits out the reel-stop delays. With anticipation the
// stops are strictly sequential and the dramatic reels get the long delay;
// otherwise all reels stop together after one base delay. Evaluation never
// starts before this returns.
func (e *Engine) executeReelSpin(ctx context.Context, reelCount int, d anticipation.Decision) error {
	if e.turbo {
		return ctx.Err()
	}

	if !d.Triggered {
		if err := e.timers.Sleep(ctx, render.TimerLabelReel, e.timing.ReelStop); err != nil {
			return err
		}
		for reel := 0; reel < reelCount; reel++ {
			e.sound.PlayReelStop()
		}
		return nil
	}

	for reel := 0; reel < reelCount; reel++ {
		delay := e.timing.ReelStop
		if reel >= d.StartReel {
			delay += time.Duration(float64(e.timing.Anticipation) * d.Intensity)
		}
		if err := e.timers.Sleep(ctx, render.TimerLabelReel, delay); err != nil {
			return err
		}
		e.sound.PlayReelStop()
	}
	return nil
}

// processWins applies the free-spins multiplier and runs the cascade chain,
// accumulating the spin total on the result.
func (e *Engine) processWins(ctx context.Context, result *Result, grid domain.Grid, info *domain.WinInfo, bet int) error {
	result.BaseWin = e.freeSpins.ApplyMultiplier(info.TotalWin)
	result.TotalWin = result.BaseWin

	if len(info.Positions) > 0 {
		e.renderer.HighlightPositions(info.Positions)
	}
	if info.Scatter.Triggered {
		e.sound.PlayScatter()
	}

	if e.cascadeEnabled && e.cascade != nil && len(info.Positions) > 0 {
		chain, err := e.cascade.Execute(ctx, grid, info.Positions, bet)
		if err != nil {
			return err
		}
		result.CascadeWin = e.freeSpins.ApplyMultiplier(chain.AdditionalWin)
		result.CascadeSteps = chain.Steps
		result.TotalWin += result.CascadeWin

		for _, step := range chain.Steps {
			e.sound.PlayCascade()
			e.renderer.HighlightPositions(step.Removed)
			if !e.turbo {
				if err := e.timers.Sleep(ctx, render.TimerLabelWinCounter, e.timing.CascadeStep); err != nil {
					return err
				}
			}
		}
		metrics.CascadeDepth.Observe(float64(len(chain.Steps)))
	}
	return nil
}

// updateCreditsAndStats credits the spin total and folds the spin into
// statistics, XP and challenges.
func (e *Engine) updateCreditsAndStats(ctx context.Context, result *Result, info *domain.WinInfo) {
	bet := e.state.Bet()
	if result.TotalWin > 0 {
		// AddCredits only fails on negative amounts, which TotalWin never is.
		_ = e.state.AddCredits(result.TotalWin)
		_ = e.state.SetLastWin(result.TotalWin)
	}
	result.Tier = domain.ClassifyWin(result.TotalWin, bet)

	if e.freeSpins.IsActive() {
		e.freeSpins.AddWin(result.TotalWin)
	}

	metrics.SpinsTotal.WithLabelValues(string(result.Tier)).Inc()
	if !result.FreeSpin {
		metrics.CreditsWagered.Add(float64(bet))
	}
	metrics.CreditsWon.Add(float64(result.TotalWin))

	if result.Tier != domain.TierNone {
		e.sound.PlayWin(result.Tier)
	}
}

// handleFeatureTriggers runs the fixed feature precedence: free spins
// trigger/retrigger first, bonus pick second and only outside free spins.
// Newly triggered free spins are deferred; the caller runs them after this
// spin finalizes.
func (e *Engine) handleFeatureTriggers(ctx context.Context, result *Result, info *domain.WinInfo, isFreeSpin bool) {
	log := logger.FromContext(ctx)
	scatters := 0
	if info.Scatter.Triggered {
		scatters = info.Scatter.Count
	}

	if e.freeSpins.IsActive() && isFreeSpin {
		before := e.freeSpins.Remaining()
		if err := e.freeSpins.Retrigger(scatters); err != nil {
			log.Warn("free spins retrigger rejected", "error", err)
		} else if e.freeSpins.Remaining() > before {
			result.Retriggered = true
			metrics.FeatureTriggers.WithLabelValues("free_spins_retrigger").Inc()
			e.publish(ctx, event.FeatureTriggered, domain.FeatureTriggeredPayload{
				Feature: "free_spins_retrigger",
				Detail:  e.freeSpins.Remaining() - before,
			})
		}
	} else if e.freeSpins.CanTrigger(scatters) {
		if err := e.freeSpins.Trigger(scatters); err != nil {
			log.Warn("free spins trigger rejected", "error", err)
		} else {
			result.FreeSpinsTriggered = true
			metrics.FeatureTriggers.WithLabelValues("free_spins").Inc()
			e.publish(ctx, event.FeatureTriggered, domain.FeatureTriggeredPayload{
				Feature: "free_spins",
				Detail:  e.freeSpins.Remaining(),
			})
			e.showMessage(ctx, e.messages.FreeSpinsTriggered(e.freeSpins.Remaining(), e.freeSpins.Multiplier()), 0)
		}
	}

	if !e.freeSpins.IsActive() && info.Bonus.Triggered && e.bonusPick.CanTrigger(info.Bonus.Count) {
		if err := e.bonusPick.Trigger(info.Bonus.Count); err != nil {
			log.Warn("bonus pick trigger rejected", "error", err)
		} else {
			result.BonusTriggered = true
			result.BonusPicks = e.bonusPick.Remaining()
			metrics.FeatureTriggers.WithLabelValues("bonus_pick").Inc()
			e.publish(ctx, event.FeatureTriggered, domain.FeatureTriggeredPayload{
				Feature: "bonus_pick",
				Detail:  e.bonusPick.Remaining(),
			})
			e.showMessage(ctx, e.messages.BonusTriggered(e.bonusPick.Remaining()), 0)
		}
	}
}

// finalizeSpin consumes the free-spin counter, offers the gamble, records
// history, persists and applies the broke-refill rule.
func (e *Engine) finalizeSpin(ctx context.Context, result *Result, isFreeSpin bool) error {
	if isFreeSpin {
		remaining, err := e.freeSpins.ExecuteSpin()
		if err != nil {
			return err
		}
		result.FreeSpinsRemaining = remaining
		if remaining == 0 && !result.Retriggered {
			total := e.freeSpins.End()
			result.FreeSpinsEnded = true
			result.FreeSpinsTotalWin = total
			e.publish(ctx, event.FeatureEnded, domain.FeatureTriggeredPayload{Feature: "free_spins", Win: total})
			e.showMessage(ctx, e.messages.FreeSpinsEnded(total), total)
		}
	} else if result.FreeSpinsTriggered {
		result.FreeSpinsRemaining = e.freeSpins.Remaining()
	}

	features := result.features()
	if e.progression != nil {
		e.progression.RecordSpin(ctx, progression.SpinOutcome{
			Bet:          e.state.Bet(),
			TotalWin:     result.TotalWin,
			Tier:         result.Tier,
			FreeSpin:     isFreeSpin,
			CascadeSteps: len(result.CascadeSteps),
			Features:     features,
		})
	}

	featureActive := e.freeSpins.IsActive() || e.bonusPick.IsActive()
	if e.gamble.Eligible(result.TotalWin, featureActive, e.autoCollect) {
		offer, err := e.gamble.MakeOffer(result.TotalWin)
		if err == nil {
			result.GambleOffer = offer
			e.showMessage(ctx, e.messages.GambleOffer(offer.Amount), 0)
		}
	}

	if e.history != nil {
		e.history.Add(domain.SpinHistoryEntry{
			ID:        result.SpinID,
			Bet:       e.state.Bet(),
			TotalWin:  result.TotalWin,
			Tier:      result.Tier,
			FreeSpin:  isFreeSpin,
			Features:  features,
			Timestamp: time.Now().UnixMilli(),
		})
	}

	// The spinning flag clears before persisting so a restored session never
	// resumes mid-spin.
	e.state.EndSpin()

	if e.state.Credits() == 0 && !e.freeSpins.IsActive() && e.gamble.State() == gamble.StateInactive {
		_ = e.state.SetCredits(e.cfg.InitialCredits)
		result.Refilled = true
		e.showMessage(ctx, e.messages.CreditsRefilled(e.cfg.InitialCredits), e.cfg.InitialCredits)
	}

	result.Credits = e.state.Credits()
	if result.TotalWin > 0 {
		e.showMessage(ctx, e.messages.Win(result.Tier, result.TotalWin), result.TotalWin)
	}

	e.publish(ctx, event.SpinCompleted, domain.SpinCompletedPayload{
		SpinID:       result.SpinID,
		Bet:          e.state.Bet(),
		TotalWin:     result.TotalWin,
		Tier:         result.Tier,
		FreeSpin:     isFreeSpin,
		CascadeSteps: len(result.CascadeSteps),
		Credits:      result.Credits,
	})

	return e.persist(ctx)
}

// runFreeSpins plays the awarded free spins to exhaustion, one full pipeline
// pass per spin. A watchdog force-terminates the feature if an iteration
// fails to consume a spin; a failed iteration rolls back and ends the
// feature instead of aborting the whole session.
func (e *Engine) runFreeSpins(ctx context.Context, parent *Result) {
	log := logger.FromContext(ctx)

	for e.freeSpins.IsActive() && e.freeSpins.Remaining() > 0 {
		before := e.freeSpins.Remaining()

		checkpoint := e.state.CreateCheckpoint()
		round, err := e.runSpin(ctx, true)
		if err != nil {
			metrics.SpinFailures.WithLabelValues(string(domain.ErrorCategoryFreeSpin)).Inc()
			log.Error("free spin failed, ending feature", "error", err)
			e.timers.CancelLabel(render.TimerLabelReel)
			e.timers.CancelLabel(render.TimerLabelWinCounter)
			e.state.RestoreCheckpoint(checkpoint)
			e.state.EndSpin()
			e.endFreeSpinsForcibly(ctx)
			return
		}
		parent.FreeSpinRounds = append(parent.FreeSpinRounds, round)
		parent.Credits = round.Credits

		if e.freeSpins.IsActive() && !round.Retriggered && e.freeSpins.Remaining() >= before {
			log.Error("free spin did not consume its counter, terminating feature",
				"remaining", e.freeSpins.Remaining())
			e.endFreeSpinsForcibly(ctx)
			return
		}
	}

	// A restored record can mark the feature active with nothing left to
	// play; close it out rather than leaving the session stuck.
	if e.freeSpins.IsActive() && e.freeSpins.Remaining() == 0 {
		e.endFreeSpinsForcibly(ctx)
	}
}

// endFreeSpinsForcibly is the watchdog exit: the feature ends gracefully,
// keeping wins already credited, and the session persists.
func (e *Engine) endFreeSpinsForcibly(ctx context.Context) {
	total := e.freeSpins.End()
	e.publish(ctx, event.FeatureEnded, domain.FeatureTriggeredPayload{Feature: "free_spins", Win: total})
	e.showMessage(ctx, e.messages.FreeSpinsEnded(total), total)
	if err := e.persist(ctx); err != nil {
		logger.FromContext(ctx).Error("failed to persist after forced free-spins end", "error", err)
	}
}

// recover is the single top-level error handler: categorize, log, cancel
// pending timers, restore the checkpoint, tell the player, persist the
// rolled-back state. Fallback failures are logged, never allowed to mask
// the original error.
func (e *Engine) recover(ctx context.Context, checkpoint state.Checkpoint, err error) error {
	log := logger.FromContext(ctx)
	category := domain.CategorizeError(err)

	metrics.SpinFailures.WithLabelValues(string(category)).Inc()
	log.Error("spin failed, rolling back", "category", string(category), "error", err)

	e.timers.CancelLabel(render.TimerLabelReel)
	e.timers.CancelLabel(render.TimerLabelWinCounter)
	e.timers.CancelLabel(render.TimerLabelMessage)

	e.state.RestoreCheckpoint(checkpoint)
	e.state.EndSpin()

	e.showMessage(ctx, e.messages.BetRefunded(), 0)

	if persistErr := e.persist(ctx); persistErr != nil {
		log.Error("failed to persist rolled-back state", "error", persistErr)
	}
	return err
}

// persist snapshots every component into one save record and writes it.
func (e *Engine) persist(ctx context.Context) error {
	snap := e.state.Snapshot()

	record := &domain.SaveRecord{
		SchemaVersion:   domain.SaveSchemaVersion,
		Credits:         snap.Credits,
		CurrentBet:      snap.CurrentBet,
		CurrentBetIndex: snap.CurrentBetIndex,
		Features: domain.FeaturesSave{
			FreeSpins:      e.freeSpins.SaveData(),
			BonusGame:      e.bonusPick.SaveData(),
			Gamble:         e.gamble.SaveData(),
			CascadeEnabled: e.cascadeEnabled,
			TurboMode:      e.turbo,
			Autoplay:       e.autoplay,
		},
		AutoCollectEnabled: e.autoCollect,
	}
	if e.progression != nil {
		record.Progression = e.progression.Snapshot()
	}
	if e.history != nil {
		record.SpinHistory = e.history.Snapshot()
	}

	if err := e.saves.Save(ctx, e.sessionID, record); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	return nil
}

// publish sends an event on the bus, logging handler failures.
func (e *Engine) publish(ctx context.Context, eventType event.Type, payload interface{}) {
	if e.bus == nil {
		return
	}
	if err := e.bus.Publish(ctx, event.New(eventType, payload)); err != nil {
		logger.FromContext(ctx).Warn("event handler failed",
			"type", string(eventType), "error", err)
	}
}

// showMessage displays user-facing text, tolerating renderer failures.
func (e *Engine) showMessage(ctx context.Context, text string, amount int) {
	if err := e.renderer.ShowMessage(ctx, text, amount); err != nil {
		logger.FromContext(ctx).Warn("failed to show message", "text", text, "error", err)
	}
}

// features lists the feature names this spin activated, for history and
// progression.
func (r *Result) features() []string {
	var out []string
	if r.FreeSpinsTriggered {
		out = append(out, "free_spins")
	}
	if r.Retriggered {
		out = append(out, "free_spins_retrigger")
	}
	if r.BonusTriggered {
		out = append(out, "bonus_game")
	}
	return out
}

package spin

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelhouse/slotengine/internal/bonuspick"
	"github.com/reelhouse/slotengine/internal/cascade"
	"github.com/reelhouse/slotengine/internal/config"
	"github.com/reelhouse/slotengine/internal/domain"
	"github.com/reelhouse/slotengine/internal/event"
	"github.com/reelhouse/slotengine/internal/freespins"
	"github.com/reelhouse/slotengine/internal/gamble"
	"github.com/reelhouse/slotengine/internal/history"
	"github.com/reelhouse/slotengine/internal/payline"
	"github.com/reelhouse/slotengine/internal/progression"
	"github.com/reelhouse/slotengine/internal/save"
	"github.com/reelhouse/slotengine/internal/state"
)

// fixedSource always returns 0, making every controller draw deterministic.
func fixedSource(int) int { return 0 }

func testSymbols() []domain.Symbol {
	return []domain.Symbol{
		{ID: "ace", Glyph: "A", Category: domain.CategoryStandard, Payouts: map[int]float64{3: 5, 4: 10, 5: 25}, Weight: 10},
		{ID: "king", Glyph: "K", Category: domain.CategoryStandard, Payouts: map[int]float64{3: 2, 4: 5, 5: 10}, Weight: 10},
		{ID: "ten", Glyph: "10", Category: domain.CategoryStandard, Weight: 10},
		{ID: "wild", Glyph: "W", Category: domain.CategoryWild, Weight: 2},
		{ID: "scat", Glyph: "S", Category: domain.CategoryScatter, Weight: 2},
		{ID: "bonus", Glyph: "B", Category: domain.CategoryBonus, Weight: 2},
	}
}

func testPaylines() [][]int {
	return [][]int{
		{0, 0, 0, 0, 0},
		{1, 1, 1, 1, 1},
		{2, 2, 2, 2, 2},
	}
}

func testGameConfig() *config.GameConfig {
	return &config.GameConfig{
		Reels:          5,
		Rows:           3,
		StripLength:    9,
		InitialCredits: 1000,
		BetOptions:     []int{1, 5, 10},
		ScatterPayouts: map[int]float64{3: 2, 4: 10, 5: 50},
		FreeSpins: config.FreeSpinsConfig{
			Awards:      map[int]int{3: 2, 4: 3, 5: 5},
			Multipliers: []float64{2},
			Retrigger:   true,
			MinScatters: 3,
		},
		Cascade: config.CascadeConfig{
			Enabled:       false,
			Multipliers:   []float64{1, 2, 3},
			MaxIterations: 3,
		},
		BonusPick: config.BonusPickConfig{
			MaxPicks:         12,
			PoolSize:         12,
			CreditsWeight:    60,
			MultiplierWeight: 30,
			ExtraPickWeight:  10,
			CreditsMin:       50,
			CreditsMax:       200,
			MultiplierMin:    2,
			MultiplierMax:    3,
			FillerMin:        5,
			FillerMax:        10,
		},
		Gamble: config.GambleConfig{
			MaxAttempts:        3,
			WinCeiling:         10000,
			MaxEligibleWin:     2500,
			AutoCollectSeconds: 10,
		},
	}
}

// Deterministic grids. Columns are reel-major: grid[reel][row].

func losingGrid() domain.Grid {
	return domain.Grid{
		{"ace", "king", "ace"},
		{"king", "ace", "king"},
		{"ace", "king", "ace"},
		{"king", "ace", "king"},
		{"ace", "king", "ace"},
	}
}

// topLineWin pays 3x ace on the top line: 5x the bet.
func topLineWin() domain.Grid {
	return domain.Grid{
		{"ace", "king", "ten"},
		{"ace", "ten", "king"},
		{"ace", "king", "ten"},
		{"king", "ten", "king"},
		{"ten", "king", "ten"},
	}
}

// threeScatters triggers free spins and pays the 3-scatter table entry.
func threeScatters() domain.Grid {
	return domain.Grid{
		{"scat", "king", "ace"},
		{"king", "ace", "king"},
		{"ace", "scat", "ace"},
		{"king", "ace", "king"},
		{"ace", "king", "scat"},
	}
}

// bonusLine puts three bonus symbols on the middle payline.
func bonusLine() domain.Grid {
	return domain.Grid{
		{"ace", "bonus", "king"},
		{"king", "bonus", "ace"},
		{"ace", "bonus", "king"},
		{"king", "ace", "king"},
		{"ace", "king", "ace"},
	}
}

// scriptedReels replays a fixed sequence of grids, repeating the last one
// forever. Offsets are always zero so the visible window is the column
// as scripted.
type scriptedReels struct {
	grids []domain.Grid
	idx   int
}

func (s *scriptedReels) current() domain.Grid {
	if s.idx >= len(s.grids) {
		return s.grids[len(s.grids)-1]
	}
	return s.grids[s.idx]
}

func (s *scriptedReels) BuildStrip(reelIndex, length int) (domain.ReelStrip, error) {
	grid := s.current()
	column := grid[reelIndex]
	strip := make(domain.ReelStrip, length)
	for i := range strip {
		strip[i] = column[i%len(column)]
	}
	if reelIndex == len(grid)-1 {
		s.idx++
	}
	return strip, nil
}

func (s *scriptedReels) Offset(int) (int, error) { return 0, nil }

// constantSymbols refills cascades with one fixed symbol.
type constantSymbols struct{ id domain.SymbolID }

func (c constantSymbols) Symbol(int) (domain.SymbolID, error) { return c.id, nil }

// failingEval delegates to a real evaluator but fails on the nth call.
type failingEval struct {
	inner  Evaluator
	failOn int
	calls  int
}

func (f *failingEval) Evaluate(grid domain.Grid, bet int) (*domain.WinInfo, error) {
	f.calls++
	if f.calls == f.failOn {
		return nil, errors.New("evaluator exploded")
	}
	return f.inner.Evaluate(grid, bet)
}

type rig struct {
	engine    *Engine
	state     *state.Store
	saves     *save.MemoryStore
	freeSpins *freespins.Controller
	bonusPick *bonuspick.Controller
	gamble    *gamble.Controller
	cfg       *config.GameConfig
	bus       *event.MemoryBus
}

type rigOption func(*Deps)

func withEvaluator(eval Evaluator) rigOption {
	return func(d *Deps) { d.Evaluator = eval }
}

func withCascade(c Cascader, enabled bool) rigOption {
	return func(d *Deps) {
		d.Cascade = c
		d.Config.Cascade.Enabled = enabled
	}
}

func withFreeSpins(fs FreeSpins) rigOption {
	return func(d *Deps) { d.FreeSpins = fs }
}

func newRig(t *testing.T, grids []domain.Grid, opts ...rigOption) *rig {
	t.Helper()

	cfg := testGameConfig()
	store, err := state.New(cfg.BetOptions, cfg.InitialCredits, cfg.Reels)
	require.NoError(t, err)

	symbols := testSymbols()
	eval := payline.New(symbols, testPaylines(), cfg.ScatterPayouts)
	bus := event.NewMemoryBus()

	fs := freespins.New(cfg.FreeSpins.Awards, cfg.FreeSpins.Multipliers, cfg.FreeSpins.Retrigger, cfg.FreeSpins.MinScatters, fixedSource)
	bp := bonuspick.New(cfg.BonusPick, fixedSource)
	gm := gamble.New(cfg.Gamble, fixedSource, nil)
	saves := save.NewMemoryStore(save.DefaultRecord(cfg.InitialCredits, cfg.BetOptions[0]))

	deps := Deps{
		Config:      cfg,
		State:       store,
		Reels:       &scriptedReels{grids: grids},
		Evaluator:   eval,
		FreeSpins:   fs,
		BonusPick:   bp,
		Gamble:      gm,
		Progression: progression.New(bus),
		History:     history.New(history.DefaultCapacity),
		Saves:       saves,
		Bus:         bus,
		SessionID:   "test-session",
	}
	for _, opt := range opts {
		opt(&deps)
	}

	engine, err := NewEngine(deps)
	require.NoError(t, err)

	return &rig{
		engine:    engine,
		state:     store,
		saves:     saves,
		freeSpins: fs,
		bonusPick: bp,
		gamble:    gm,
		cfg:       cfg,
		bus:       bus,
	}
}

func TestSpin_LosingSpinDeductsBet(t *testing.T) {
	r := newRig(t, []domain.Grid{losingGrid()})

	result, err := r.engine.Spin(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, result.TotalWin)
	assert.Equal(t, domain.TierNone, result.Tier)
	assert.Equal(t, 999, r.state.Credits())
	assert.False(t, r.state.IsSpinning())
}

func TestSpin_LineWinCreditsPayout(t *testing.T) {
	r := newRig(t, []domain.Grid{topLineWin()})

	result, err := r.engine.Spin(context.Background())
	require.NoError(t, err)

	// 3x ace pays 5x the bet of 1.
	assert.Equal(t, 5, result.TotalWin)
	assert.Equal(t, 1004, r.state.Credits())
	require.NotNil(t, result.Win)
	require.Len(t, result.Win.Lines, 1)
	assert.Equal(t, domain.SymbolID("ace"), result.Win.Lines[0].Symbol)
	assert.Equal(t, 3, result.Win.Lines[0].MatchCount)
}

func TestSpin_RejectsWhileSpinInFlight(t *testing.T) {
	r := newRig(t, []domain.Grid{losingGrid()})
	require.NoError(t, r.state.BeginSpin())

	_, err := r.engine.Spin(context.Background())

	assert.ErrorIs(t, err, domain.ErrSpinInFlight)
	assert.Equal(t, 1000, r.state.Credits(), "no bet deducted on rejection")
}

func TestSpin_RejectsWhenCreditsShort(t *testing.T) {
	r := newRig(t, []domain.Grid{losingGrid()})
	require.NoError(t, r.state.SetBetIndex(2)) // bet 10
	require.NoError(t, r.state.SetCredits(9))

	_, err := r.engine.Spin(context.Background())

	assert.ErrorIs(t, err, domain.ErrInsufficientCredits)
	assert.Equal(t, 9, r.state.Credits())
}

func TestSpin_RejectsWhileBonusGameActive(t *testing.T) {
	r := newRig(t, []domain.Grid{losingGrid()})
	require.NoError(t, r.bonusPick.Trigger(3))

	_, err := r.engine.Spin(context.Background())

	assert.ErrorIs(t, err, domain.ErrBonusGameActive)
}

func TestSpin_ErrorRollsBackToCheckpoint(t *testing.T) {
	cfg := testGameConfig()
	real := payline.New(testSymbols(), testPaylines(), cfg.ScatterPayouts)
	r := newRig(t, []domain.Grid{losingGrid()}, withEvaluator(&failingEval{inner: real, failOn: 1}))

	_, err := r.engine.Spin(context.Background())

	require.Error(t, err)
	assert.Equal(t, 1000, r.state.Credits(), "bet refunded via checkpoint restore")
	assert.False(t, r.state.IsSpinning())

	// The rolled-back state was persisted.
	record, loadErr := r.saves.Load(context.Background(), "test-session")
	require.NoError(t, loadErr)
	assert.Equal(t, 1000, record.Credits)
}

func TestSpin_ScattersTriggerAndRunFreeSpins(t *testing.T) {
	r := newRig(t, []domain.Grid{threeScatters(), losingGrid()})

	result, err := r.engine.Spin(context.Background())
	require.NoError(t, err)

	assert.True(t, result.FreeSpinsTriggered)
	// Scatter pays 2x bet; free spins run after finalize at no cost.
	assert.Equal(t, 2, result.TotalWin)
	require.Len(t, result.FreeSpinRounds, 2, "3 scatters award 2 spins in this table")
	for _, round := range result.FreeSpinRounds {
		assert.True(t, round.FreeSpin)
	}
	assert.True(t, result.FreeSpinRounds[1].FreeSpinsEnded)
	assert.False(t, r.freeSpins.IsActive(), "feature over once spins are exhausted")
	// One bet for the trigger spin, none for the free spins.
	assert.Equal(t, 1000-1+2, r.state.Credits())
}

func TestSpin_FreeSpinWinsUseSessionMultiplier(t *testing.T) {
	r := newRig(t, []domain.Grid{threeScatters(), topLineWin(), losingGrid()})

	result, err := r.engine.Spin(context.Background())
	require.NoError(t, err)

	require.Len(t, result.FreeSpinRounds, 2)
	// The sampled session multiplier is 2, so the 5x line pays 10.
	assert.Equal(t, 10, result.FreeSpinRounds[0].TotalWin)
	assert.Equal(t, 1000-1+2+10, r.state.Credits())
}

func TestSpin_FreeSpinFailureEndsFeatureGracefully(t *testing.T) {
	cfg := testGameConfig()
	real := payline.New(testSymbols(), testPaylines(), cfg.ScatterPayouts)
	// Call 1 is the trigger spin, call 2 the first free spin.
	r := newRig(t, []domain.Grid{threeScatters(), losingGrid()}, withEvaluator(&failingEval{inner: real, failOn: 2}))

	result, err := r.engine.Spin(context.Background())

	require.NoError(t, err, "the paid spin itself succeeded")
	assert.True(t, result.FreeSpinsTriggered)
	assert.Empty(t, result.FreeSpinRounds)
	assert.False(t, r.freeSpins.IsActive(), "feature force-ended, not stuck")
	assert.False(t, r.state.IsSpinning())
}

func TestSpin_ResumesRestoredFreeSpins(t *testing.T) {
	r := newRig(t, []domain.Grid{losingGrid()})
	// A previous run left the feature mid-session.
	r.freeSpins.Init(&domain.FreeSpinsSave{Active: true, RemainingSpins: 2, TotalSpins: 2, Multiplier: 2})

	result, err := r.engine.Spin(context.Background())
	require.NoError(t, err)

	assert.True(t, result.FreeSpinsResumed)
	require.Len(t, result.FreeSpinRounds, 2)
	for _, round := range result.FreeSpinRounds {
		assert.True(t, round.FreeSpin)
	}
	assert.False(t, r.freeSpins.IsActive(), "restored session plays out and ends")
	assert.Equal(t, 1000, r.state.Credits(), "no bet taken while resuming free spins")
	assert.Equal(t, 1000, result.Credits)
}

func TestSpin_RestoredFreeSpinsWithNothingLeftEndCleanly(t *testing.T) {
	r := newRig(t, []domain.Grid{losingGrid()})
	r.freeSpins.Init(&domain.FreeSpinsSave{Active: true, RemainingSpins: 0, Multiplier: 2})

	result, err := r.engine.Spin(context.Background())
	require.NoError(t, err)

	assert.True(t, result.FreeSpinsResumed)
	assert.Empty(t, result.FreeSpinRounds)
	assert.False(t, r.freeSpins.IsActive())

	// The next spin is an ordinary paid one.
	next, err := r.engine.Spin(context.Background())
	require.NoError(t, err)
	assert.False(t, next.FreeSpinsResumed)
	assert.Equal(t, 999, r.state.Credits())
}

// stuckFreeSpins reports an active session whose counter never moves.
type stuckFreeSpins struct {
	active    bool
	remaining int
}

func (s *stuckFreeSpins) IsActive() bool              { return s.active }
func (s *stuckFreeSpins) Remaining() int              { return s.remaining }
func (s *stuckFreeSpins) Multiplier() float64         { return 1 }
func (s *stuckFreeSpins) CanTrigger(int) bool         { return false }
func (s *stuckFreeSpins) Trigger(int) error           { return domain.ErrFeatureActive }
func (s *stuckFreeSpins) Retrigger(int) error         { return nil }
func (s *stuckFreeSpins) ExecuteSpin() (int, error)   { return s.remaining, nil }
func (s *stuckFreeSpins) ApplyMultiplier(win int) int { return win }
func (s *stuckFreeSpins) AddWin(int)                  {}
func (s *stuckFreeSpins) Init(*domain.FreeSpinsSave)  {}

func (s *stuckFreeSpins) SaveData() *domain.FreeSpinsSave {
	return &domain.FreeSpinsSave{Active: s.active}
}

func (s *stuckFreeSpins) End() int {
	s.active = false
	s.remaining = 0
	return 0
}

func TestSpin_WatchdogEndsNonConsumingFreeSpins(t *testing.T) {
	stuck := &stuckFreeSpins{active: true, remaining: 2}
	r := newRig(t, []domain.Grid{losingGrid()}, withFreeSpins(stuck))

	result, err := r.engine.Spin(context.Background())
	require.NoError(t, err)

	require.Len(t, result.FreeSpinRounds, 1, "the loop stops after one non-consuming iteration")
	assert.False(t, stuck.active, "feature force-ended instead of looping")
	assert.False(t, r.state.IsSpinning())
}

func TestSpin_BonusLineOpensPickGame(t *testing.T) {
	r := newRig(t, []domain.Grid{bonusLine(), losingGrid()})

	result, err := r.engine.Spin(context.Background())
	require.NoError(t, err)

	assert.True(t, result.BonusTriggered)
	assert.Equal(t, 3, result.BonusPicks)
	assert.True(t, r.bonusPick.IsActive())

	// The session is locked until the picks are played out.
	_, err = r.engine.Spin(context.Background())
	assert.ErrorIs(t, err, domain.ErrBonusGameActive)

	creditsBefore := r.state.Credits()
	var finished bool
	for i := 0; i < r.bonusPick.PoolSize() && !finished; i++ {
		pick, pickErr := r.engine.BonusPick(context.Background(), i)
		require.NoError(t, pickErr)
		finished = pick.Finished
	}
	require.True(t, finished)
	assert.False(t, r.bonusPick.IsActive())
	assert.Greater(t, r.state.Credits(), creditsBefore, "pick total credited at end")

	_, err = r.engine.Spin(context.Background())
	assert.NoError(t, err, "spinning unlocked after the bonus game ends")
}

func TestGamble_AcceptGuessCollect(t *testing.T) {
	r := newRig(t, []domain.Grid{topLineWin(), losingGrid()})
	ctx := context.Background()

	result, err := r.engine.Spin(ctx)
	require.NoError(t, err)
	require.NotNil(t, result.GambleOffer)
	assert.Equal(t, 5, result.GambleOffer.Amount)
	assert.Equal(t, 1004, r.state.Credits(), "win credited before the offer")

	_, err = r.engine.GambleAccept(ctx)
	require.NoError(t, err)
	assert.Equal(t, 999, r.state.Credits(), "stake leaves the balance on accept")

	// fixedSource draws hearts, which is red.
	round, err := r.engine.GambleGuess(ctx, gamble.ColorRed)
	require.NoError(t, err)
	assert.True(t, round.Correct)
	assert.Equal(t, 10, round.Amount)
	assert.False(t, round.Ended)

	amount, err := r.engine.GambleCollect(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, amount)
	assert.Equal(t, 1009, r.state.Credits())
	assert.Equal(t, gamble.StateInactive, r.gamble.State())
}

func TestGamble_WrongGuessZeroesStake(t *testing.T) {
	r := newRig(t, []domain.Grid{topLineWin(), losingGrid()})
	ctx := context.Background()

	_, err := r.engine.Spin(ctx)
	require.NoError(t, err)
	_, err = r.engine.GambleAccept(ctx)
	require.NoError(t, err)

	// fixedSource draws red; guessing black loses.
	round, err := r.engine.GambleGuess(ctx, gamble.ColorBlack)
	require.NoError(t, err)
	assert.False(t, round.Correct)
	assert.True(t, round.Ended)
	assert.Equal(t, 0, round.Amount)
	assert.Equal(t, 999, r.state.Credits(), "the stake is gone")
	assert.Equal(t, gamble.StateInactive, r.gamble.State())
}

func TestGamble_DeclineKeepsWin(t *testing.T) {
	r := newRig(t, []domain.Grid{topLineWin(), losingGrid()})
	ctx := context.Background()

	_, err := r.engine.Spin(ctx)
	require.NoError(t, err)

	require.NoError(t, r.engine.GambleDecline(ctx))
	assert.Equal(t, 1004, r.state.Credits())
	assert.Equal(t, gamble.StateInactive, r.gamble.State())
}

func TestSpin_CascadeChainAccumulates(t *testing.T) {
	cfg := testGameConfig()
	eval := payline.New(testSymbols(), testPaylines(), cfg.ScatterPayouts)
	// Refilling with kings keeps the top line winning until the iteration
	// cap cuts the chain at 3 steps.
	resolver := cascade.New(eval, constantSymbols{id: "king"}, cfg.Cascade.Multipliers, cfg.Cascade.MaxIterations)
	r := newRig(t, []domain.Grid{topLineWin(), losingGrid()}, withCascade(resolver, true))

	result, err := r.engine.Spin(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, result.BaseWin)
	require.Len(t, result.CascadeSteps, 3)
	assert.Greater(t, result.CascadeWin, 0)
	assert.Equal(t, result.BaseWin+result.CascadeWin, result.TotalWin)
	assert.Equal(t, 1000-1+result.TotalWin, r.state.Credits())
}

func TestSpin_ZeroCreditsRefillOutsideFreeSpins(t *testing.T) {
	r := newRig(t, []domain.Grid{losingGrid()})
	require.NoError(t, r.state.SetCredits(1))

	result, err := r.engine.Spin(context.Background())
	require.NoError(t, err)

	assert.True(t, result.Refilled)
	assert.Equal(t, r.cfg.InitialCredits, r.state.Credits())
}

func TestEngine_PersistsAndReloads(t *testing.T) {
	r := newRig(t, []domain.Grid{topLineWin()})
	ctx := context.Background()

	_, err := r.engine.Spin(ctx)
	require.NoError(t, err)
	require.NoError(t, r.engine.GambleDecline(ctx))
	creditsBefore := r.state.Credits()

	// A second engine over the same store resumes where the first left off.
	cfg := testGameConfig()
	store2, err := state.New(cfg.BetOptions, cfg.InitialCredits, cfg.Reels)
	require.NoError(t, err)
	engine2, err := NewEngine(Deps{
		Config:      cfg,
		State:       store2,
		Reels:       &scriptedReels{grids: []domain.Grid{losingGrid()}},
		Evaluator:   payline.New(testSymbols(), testPaylines(), cfg.ScatterPayouts),
		FreeSpins:   freespins.New(cfg.FreeSpins.Awards, cfg.FreeSpins.Multipliers, true, 3, fixedSource),
		BonusPick:   bonuspick.New(cfg.BonusPick, fixedSource),
		Gamble:      gamble.New(cfg.Gamble, fixedSource, nil),
		Progression: progression.New(event.NewMemoryBus()),
		History:     history.New(history.DefaultCapacity),
		Saves:       r.saves,
		SessionID:   "test-session",
	})
	require.NoError(t, err)

	require.NoError(t, engine2.Load(ctx))
	assert.Equal(t, creditsBefore, store2.Credits())

	view := engine2.StateView(10)
	require.Len(t, view.History, 1)
	assert.Equal(t, 5, view.History[0].TotalWin)
}

func TestEngine_ResetRestoresDefaults(t *testing.T) {
	r := newRig(t, []domain.Grid{topLineWin(), losingGrid()})
	ctx := context.Background()

	_, err := r.engine.Spin(ctx)
	require.NoError(t, err)
	require.NoError(t, r.engine.GambleDecline(ctx))
	require.NotEqual(t, 1000, r.state.Credits())

	require.NoError(t, r.engine.Reset(ctx))

	assert.Equal(t, 1000, r.state.Credits())
	view := r.engine.StateView(10)
	assert.Empty(t, view.History)
	assert.Equal(t, 1, view.Progression["level"])
}

func TestEngine_SpinCompletedEventPublished(t *testing.T) {
	r := newRig(t, []domain.Grid{topLineWin(), losingGrid()})

	var payloads []domain.SpinCompletedPayload
	r.bus.Subscribe(event.SpinCompleted, func(_ context.Context, e event.Event) error {
		payloads = append(payloads, e.Payload.(domain.SpinCompletedPayload))
		return nil
	})

	_, err := r.engine.Spin(context.Background())
	require.NoError(t, err)

	require.Len(t, payloads, 1)
	assert.Equal(t, 5, payloads[0].TotalWin)
	assert.Equal(t, 1004, payloads[0].Credits)
}

func TestEngine_SetBetRejectedMidSpin(t *testing.T) {
	r := newRig(t, []domain.Grid{losingGrid()})
	require.NoError(t, r.state.BeginSpin())

	err := r.engine.SetBet(context.Background(), 1)

	assert.ErrorIs(t, err, domain.ErrSpinInFlight)
}

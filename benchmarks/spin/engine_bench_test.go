package spin_bench

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/reelhouse/slotengine/internal/bonuspick"
	"github.com/reelhouse/slotengine/internal/config"
	"github.com/reelhouse/slotengine/internal/domain"
	"github.com/reelhouse/slotengine/internal/freespins"
	"github.com/reelhouse/slotengine/internal/gamble"
	"github.com/reelhouse/slotengine/internal/payline"
	"github.com/reelhouse/slotengine/internal/rng"
	"github.com/reelhouse/slotengine/internal/save"
	"github.com/reelhouse/slotengine/internal/spin"
	"github.com/reelhouse/slotengine/internal/state"
)

// newBenchEngine wires a full engine over an in-memory save store with a
// credit balance large enough that the bench loop never runs dry.
func newBenchEngine(b *testing.B) *spin.Engine {
	b.Helper()

	// Per-spin logging would dominate the measurement
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))

	cfg := config.DefaultGameConfig()
	symbols := cfg.SymbolTable()

	const credits = 1 << 30
	store, err := state.New(cfg.BetOptions, credits, cfg.Reels)
	if err != nil {
		b.Fatalf("state.New failed: %v", err)
	}
	reels, err := rng.New(symbols, cfg.Reels, nil)
	if err != nil {
		b.Fatalf("rng.New failed: %v", err)
	}

	engine, err := spin.NewEngine(spin.Deps{
		Config:    cfg,
		State:     store,
		Reels:     reels,
		Evaluator: payline.New(symbols, cfg.Paylines, cfg.ScatterPayouts),
		FreeSpins: freespins.New(cfg.FreeSpins.Awards, cfg.FreeSpins.Multipliers, cfg.FreeSpins.Retrigger, cfg.FreeSpins.MinScatters, nil),
		BonusPick: bonuspick.New(cfg.BonusPick, nil),
		Gamble:    gamble.New(cfg.Gamble, nil, nil),
		Saves:     save.NewMemoryStore(save.DefaultRecord(credits, 1)),
		SessionID: "bench",
	})
	if err != nil {
		b.Fatalf("NewEngine failed: %v", err)
	}
	return engine
}

// drainBonusGame plays out an open bonus pick round so the loop can keep
// spinning.
func drainBonusGame(ctx context.Context, engine *spin.Engine, poolSize int) {
	for i := 0; i < poolSize*2 && engine.StateView(0).BonusGame.Active; i++ {
		_, _ = engine.BonusPick(ctx, i%poolSize)
	}
}

// BenchmarkEngineSpin measures the full spin pipeline: reel draw, payline
// evaluation, cascades, feature triggers and the save-store write.
func BenchmarkEngineSpin(b *testing.B) {
	engine := newBenchEngine(b)
	poolSize := config.DefaultGameConfig().BonusPick.PoolSize
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := engine.Spin(ctx)
		if errors.Is(err, domain.ErrBonusGameActive) {
			drainBonusGame(ctx, engine, poolSize)
			continue
		}
		if err != nil {
			b.Fatalf("Spin failed: %v", err)
		}
		if engine.StateView(0).BonusGame.Active {
			drainBonusGame(ctx, engine, poolSize)
		}
	}
}

// BenchmarkPaylineEvaluate measures win evaluation alone on a fixed grid.
func BenchmarkPaylineEvaluate(b *testing.B) {
	cfg := config.DefaultGameConfig()
	symbols := cfg.SymbolTable()

	reels, err := rng.New(symbols, cfg.Reels, nil)
	if err != nil {
		b.Fatalf("rng.New failed: %v", err)
	}
	grid := make(domain.Grid, cfg.Reels)
	for reel := range grid {
		grid[reel] = make([]domain.SymbolID, cfg.Rows)
		for row := range grid[reel] {
			id, err := reels.Symbol(reel)
			if err != nil {
				b.Fatalf("Symbol failed: %v", err)
			}
			grid[reel][row] = id
		}
	}

	evaluator := payline.New(symbols, cfg.Paylines, cfg.ScatterPayouts)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := evaluator.Evaluate(grid, 10); err != nil {
			b.Fatalf("Evaluate failed: %v", err)
		}
	}
}

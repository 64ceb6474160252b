package bootstrap

import (
	"fmt"

	"github.com/reelhouse/slotengine/internal/anticipation"
	"github.com/reelhouse/slotengine/internal/bonuspick"
	"github.com/reelhouse/slotengine/internal/cascade"
	"github.com/reelhouse/slotengine/internal/config"
	"github.com/reelhouse/slotengine/internal/event"
	"github.com/reelhouse/slotengine/internal/freespins"
	"github.com/reelhouse/slotengine/internal/gamble"
	"github.com/reelhouse/slotengine/internal/history"
	"github.com/reelhouse/slotengine/internal/payline"
	"github.com/reelhouse/slotengine/internal/progression"
	"github.com/reelhouse/slotengine/internal/render"
	"github.com/reelhouse/slotengine/internal/rng"
	"github.com/reelhouse/slotengine/internal/save"
	"github.com/reelhouse/slotengine/internal/session"
	"github.com/reelhouse/slotengine/internal/spin"
	"github.com/reelhouse/slotengine/internal/state"
)

// BuildSessionFactory wires a complete engine per session. Every session gets
// its own state, reels and feature controllers; the save store and event bus
// are shared.
func BuildSessionFactory(gameCfg *config.GameConfig, saves save.Store, bus event.Bus) session.Factory {
	symbols := gameCfg.SymbolTable()

	return func(sessionID string) (*spin.Engine, error) {
		stateStore, err := state.New(gameCfg.BetOptions, gameCfg.InitialCredits, gameCfg.Reels)
		if err != nil {
			return nil, fmt.Errorf("failed to build state store: %w", err)
		}

		reels, err := rng.New(symbols, gameCfg.Reels, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build reel source: %w", err)
		}

		evaluator := payline.New(symbols, gameCfg.Paylines, gameCfg.ScatterPayouts)

		advisor := anticipation.New(anticipation.Config{
			TriggerChance:  gameCfg.Anticipation.TriggerChance,
			FlukeChance:    gameCfg.Anticipation.FlukeChance,
			ScattersNeeded: gameCfg.FreeSpins.MinScatters,
		}, symbols, nil)

		return spin.NewEngine(spin.Deps{
			Config:      gameCfg,
			State:       stateStore,
			Reels:       reels,
			Evaluator:   evaluator,
			Advisor:     advisor,
			Cascade:     cascade.New(evaluator, reels, gameCfg.Cascade.Multipliers, gameCfg.Cascade.MaxIterations),
			FreeSpins:   freespins.New(gameCfg.FreeSpins.Awards, gameCfg.FreeSpins.Multipliers, gameCfg.FreeSpins.Retrigger, gameCfg.FreeSpins.MinScatters, nil),
			BonusPick:   bonuspick.New(gameCfg.BonusPick, nil),
			Gamble:      gamble.New(gameCfg.Gamble, nil, nil),
			Progression: progression.New(bus),
			History:     history.New(history.DefaultCapacity),
			Saves:       saves,
			Bus:         bus,
			Timers:      render.NewRegistry(),
			SessionID:   sessionID,
		})
	}
}

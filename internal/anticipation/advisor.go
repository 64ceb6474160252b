// Package anticipation decides whether to slow later reels down for a
// near-miss tease. The full outcome is known before any reveal, so the
// advisor peeks at the predetermined grid; it never changes it. Pacing only.
package anticipation

import (
	"github.com/reelhouse/slotengine/internal/domain"
	"github.com/reelhouse/slotengine/internal/rng"
)

// Chance denominators for the random gates, in basis points of 10000.
const gateDenominator = 10000

// Config tunes the advisor. Probabilities are in [0,1].
type Config struct {
	// TriggerChance gates a mathematically eligible near-miss. Most eligible
	// spins still play at normal speed.
	TriggerChance float64
	// FlukeChance occasionally teases even when the outcome never qualified.
	FlukeChance float64
	// ScattersNeeded is the scatter count that triggers a feature; one fewer
	// on the early reels makes a spin eligible.
	ScattersNeeded int
}

// Decision is the advisor's output: purely presentation pacing.
type Decision struct {
	Triggered bool
	// StartReel is the first reel whose stop gets the dramatic slow-down.
	StartReel int
	// Intensity scales the extra stop delay, 1.0 = full drama.
	Intensity float64
}

// Advisor is a probabilistic near-miss heuristic.
type Advisor struct {
	cfg      Config
	scatters map[domain.SymbolID]bool
	src      rng.Source
}

// New builds an Advisor over the symbol table. src is injectable for
// deterministic tests.
func New(cfg Config, symbols []domain.Symbol, src rng.Source) *Advisor {
	if src == nil {
		src = rng.CryptoSource
	}
	scatters := make(map[domain.SymbolID]bool)
	for _, s := range symbols {
		if s.IsScatter() || s.IsBonus() {
			scatters[s.ID] = true
		}
	}
	return &Advisor{cfg: cfg, scatters: scatters, src: src}
}

// Advise inspects the predetermined outcome and decides on dramatic pacing.
// It must be called before any reel is revealed and must not mutate grid.
func (a *Advisor) Advise(grid domain.Grid) Decision {
	if len(grid) < 2 {
		return Decision{}
	}

	// Count trigger symbols reel by reel; once the count on the reels before
	// reel r reaches ScattersNeeded-1, reel r is a candidate for drama.
	seen := 0
	candidate := -1
	for reel := 0; reel < len(grid)-1; reel++ {
		for _, id := range grid[reel] {
			if a.scatters[id] {
				seen++
			}
		}
		if seen >= a.cfg.ScattersNeeded-1 {
			candidate = reel + 1
			break
		}
	}

	if candidate >= 0 {
		if a.gate(a.cfg.TriggerChance) {
			return Decision{Triggered: true, StartReel: candidate, Intensity: 1.0}
		}
		return Decision{}
	}

	// Fluke tease: rare drama on a spin that never qualified.
	if a.gate(a.cfg.FlukeChance) {
		return Decision{Triggered: true, StartReel: len(grid) - 1, Intensity: 0.5}
	}
	return Decision{}
}

// gate rolls the uniform source against a probability.
func (a *Advisor) gate(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return a.src(gateDenominator) < int(p*gateDenominator)
}

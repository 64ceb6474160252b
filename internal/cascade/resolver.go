// Package cascade implements the tumble loop: winning symbols are removed,
// the remainder drops down, fresh symbols refill from the weight table and
// the grid is re-evaluated, with an escalating multiplier per chain step.
package cascade

import (
	"context"

	"github.com/reelhouse/slotengine/internal/domain"
	"github.com/reelhouse/slotengine/internal/logger"
)

// Evaluator re-scores the grid after each refill.
type Evaluator interface {
	Evaluate(grid domain.Grid, bet int) (*domain.WinInfo, error)
}

// SymbolSource draws replacement symbols for vacated cells.
type SymbolSource interface {
	Symbol(reelIndex int) (domain.SymbolID, error)
}

// Step records one cascade iteration for rendering and history.
type Step struct {
	Removed    []domain.Position `json:"removed"`
	Grid       domain.Grid       `json:"grid"`
	Win        int               `json:"win"`
	Multiplier float64           `json:"multiplier"`
}

// Result accumulates the whole chain.
type Result struct {
	AdditionalWin int         `json:"additional_win"`
	Steps         []Step      `json:"steps"`
	FinalGrid     domain.Grid `json:"final_grid"`
	// CapHit is set when the iteration cap aborted the loop. That is a
	// safety net, not an error.
	CapHit bool `json:"cap_hit"`
}

// Resolver runs cascades over a grid.
type Resolver struct {
	eval        Evaluator
	source      SymbolSource
	multipliers []float64
	maxIter     int
}

// New builds a Resolver. multipliers[i] scales the win of cascade iteration
// i; iterations past the table's end reuse its last entry. maxIter bounds
// the loop unconditionally.
func New(eval Evaluator, source SymbolSource, multipliers []float64, maxIter int) *Resolver {
	if len(multipliers) == 0 {
		multipliers = []float64{1}
	}
	if maxIter <= 0 {
		maxIter = 20
	}
	return &Resolver{
		eval:        eval,
		source:      source,
		multipliers: multipliers,
		maxIter:     maxIter,
	}
}

// Execute runs the tumble loop starting from the winning positions of the
// initial evaluation. The input grid is not mutated; the final grid is
// returned on the result.
func (r *Resolver) Execute(ctx context.Context, grid domain.Grid, initialWinning []domain.Position, bet int) (*Result, error) {
	log := logger.FromContext(ctx)

	current := grid.Clone()
	winning := initialWinning
	result := &Result{}

	for iter := 0; len(winning) > 0; iter++ {
		if iter >= r.maxIter {
			result.CapHit = true
			log.Warn("cascade iteration cap reached, aborting chain",
				"iterations", iter, "accumulated_win", result.AdditionalWin)
			break
		}

		removed := domain.DedupePositions(winning)
		r.collapse(current, removed)
		if err := r.refill(current); err != nil {
			return nil, err
		}

		info, err := r.eval.Evaluate(current, bet)
		if err != nil {
			return nil, err
		}
		if !info.HasWin() {
			break
		}

		mult := r.multiplier(iter)
		stepWin := int(float64(info.TotalWin) * mult)
		result.AdditionalWin += stepWin
		result.Steps = append(result.Steps, Step{
			Removed:    removed,
			Grid:       current.Clone(),
			Win:        stepWin,
			Multiplier: mult,
		})

		winning = info.Positions
	}

	result.FinalGrid = current
	return result, nil
}

// multiplier returns the escalation factor for an iteration, clamped to the
// table's last entry.
func (r *Resolver) multiplier(iter int) float64 {
	if iter >= len(r.multipliers) {
		return r.multipliers[len(r.multipliers)-1]
	}
	return r.multipliers[iter]
}

// collapse blanks the removed cells and drops the survivors of each
// affected reel toward the bottom, leaving the vacancies at the top.
func (r *Resolver) collapse(grid domain.Grid, removed []domain.Position) {
	byReel := make(map[int]map[int]bool)
	for _, p := range removed {
		if byReel[p.Reel] == nil {
			byReel[p.Reel] = make(map[int]bool)
		}
		byReel[p.Reel][p.Row] = true
	}

	for reel, rows := range byReel {
		if reel < 0 || reel >= len(grid) {
			continue
		}
		column := grid[reel]
		kept := make([]domain.SymbolID, 0, len(column))
		for row := 0; row < len(column); row++ {
			if !rows[row] {
				kept = append(kept, column[row])
			}
		}
		vacancies := len(column) - len(kept)
		for i := 0; i < vacancies; i++ {
			column[i] = ""
		}
		copy(column[vacancies:], kept)
	}
}

// refill draws fresh symbols for every vacated cell.
func (r *Resolver) refill(grid domain.Grid) error {
	for reel := range grid {
		for row := range grid[reel] {
			if grid[reel][row] != "" {
				continue
			}
			id, err := r.source.Symbol(reel)
			if err != nil {
				return err
			}
			grid[reel][row] = id
		}
	}
	return nil
}

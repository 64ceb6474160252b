// Package payline evaluates a realized reel grid against the configured
// paylines. Evaluation is pure: same grid and bet always produce the same
// WinInfo, and nothing here touches the RNG or game state.
package payline

import (
	"fmt"

	"github.com/reelhouse/slotengine/internal/domain"
)

// MinMatchCount is the minimum consecutive match length that pays.
const MinMatchCount = 3

// MaxScatterCount caps the scatter payout lookup; more scatters pay the
// 5-count table entry.
const MaxScatterCount = 5

// Evaluator holds the immutable evaluation tables: the symbol set, the
// payline definitions and the scatter payout table.
type Evaluator struct {
	symbols        map[domain.SymbolID]domain.Symbol
	paylines       [][]int
	scatterPayouts map[int]float64
}

// New builds an Evaluator. paylines are row-per-reel sequences;
// scatterPayouts maps scatter counts (3..5) to bet multipliers.
func New(symbols []domain.Symbol, paylines [][]int, scatterPayouts map[int]float64) *Evaluator {
	table := make(map[domain.SymbolID]domain.Symbol, len(symbols))
	for _, s := range symbols {
		table[s.ID] = s
	}
	return &Evaluator{
		symbols:        table,
		paylines:       paylines,
		scatterPayouts: scatterPayouts,
	}
}

// Evaluate computes all line wins, the scatter win and the bonus trigger for
// the grid at the given bet. The grid must be a non-empty rectangle and the
// bet positive; anything else is rejected, never coerced.
func (e *Evaluator) Evaluate(grid domain.Grid, bet int) (*domain.WinInfo, error) {
	if !grid.Valid() {
		return nil, domain.ErrInvalidGrid
	}
	if bet <= 0 {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidBet, bet)
	}

	info := &domain.WinInfo{}
	var positions []domain.Position

	for lineIndex, line := range e.paylines {
		lineWin, linePositions := e.evaluateLine(grid, line, lineIndex, bet)
		if lineWin != nil {
			info.Lines = append(info.Lines, *lineWin)
			info.LineIndices = append(info.LineIndices, lineIndex)
			info.TotalWin += lineWin.Win
			positions = append(positions, linePositions...)
		}

		if !info.Bonus.Triggered {
			if count := e.bonusCount(grid, line); count >= MinMatchCount {
				// The first qualifying line sizes the bonus game.
				info.Bonus = domain.BonusInfo{Triggered: true, Count: count, LineIndex: lineIndex}
			}
		}
	}

	scatter, scatterPositions := e.evaluateScatters(grid, bet)
	info.Scatter = scatter
	info.TotalWin += scatter.Win
	positions = append(positions, scatterPositions...)

	info.Positions = domain.DedupePositions(positions)
	return info, nil
}

// evaluateLine scores one payline. Wilds substitute for the base symbol (the
// first non-wild, non-scatter, non-bonus symbol on the line) but a line of
// nothing but wild/scatter/bonus pays zero: wilds never pay on their own.
func (e *Evaluator) evaluateLine(grid domain.Grid, line []int, lineIndex, bet int) (*domain.LineWin, []domain.Position) {
	reels := len(grid)
	if len(line) < reels {
		reels = len(line)
	}

	var base domain.Symbol
	baseFound := false
	for reel := 0; reel < reels; reel++ {
		if line[reel] < 0 || line[reel] >= len(grid[reel]) {
			return nil, nil
		}
		sym, ok := e.symbols[grid[reel][line[reel]]]
		if !ok {
			continue
		}
		if sym.IsWild() || sym.IsScatter() || sym.IsBonus() {
			continue
		}
		base = sym
		baseFound = true
		break
	}
	if !baseFound {
		return nil, nil
	}

	matchCount := 0
	for reel := 0; reel < reels; reel++ {
		sym, ok := e.symbols[grid[reel][line[reel]]]
		if !ok {
			break
		}
		if sym.ID == base.ID || sym.IsWild() {
			matchCount++
			continue
		}
		break
	}

	if matchCount < MinMatchCount {
		return nil, nil
	}
	payout, ok := base.Payouts[matchCount]
	if !ok {
		return nil, nil
	}

	win := int(payout * float64(bet))
	if win <= 0 {
		return nil, nil
	}

	positions := make([]domain.Position, 0, matchCount)
	for reel := 0; reel < matchCount; reel++ {
		positions = append(positions, domain.Position{Reel: reel, Row: line[reel]})
	}

	return &domain.LineWin{
		LineIndex:  lineIndex,
		Symbol:     base.ID,
		MatchCount: matchCount,
		Win:        win,
	}, positions
}

// evaluateScatters counts scatters anywhere on the grid; three or more pay
// by count (clamped to MaxScatterCount) and every scatter cell is a winning
// position regardless of payline membership.
func (e *Evaluator) evaluateScatters(grid domain.Grid, bet int) (domain.ScatterWin, []domain.Position) {
	var positions []domain.Position
	count := 0
	for reel := range grid {
		for row := range grid[reel] {
			sym, ok := e.symbols[grid[reel][row]]
			if ok && sym.IsScatter() {
				count++
				positions = append(positions, domain.Position{Reel: reel, Row: row})
			}
		}
	}

	if count < MinMatchCount {
		return domain.ScatterWin{Count: count}, nil
	}

	lookup := count
	if lookup > MaxScatterCount {
		lookup = MaxScatterCount
	}
	payout := e.scatterPayouts[lookup]
	win := int(payout * float64(bet))

	return domain.ScatterWin{Triggered: true, Count: count, Win: win}, positions
}

// bonusCount counts bonus symbols on the line's cells, honoring the bonus
// symbol's reel restriction.
func (e *Evaluator) bonusCount(grid domain.Grid, line []int) int {
	reels := len(grid)
	if len(line) < reels {
		reels = len(line)
	}

	count := 0
	for reel := 0; reel < reels; reel++ {
		if line[reel] < 0 || line[reel] >= len(grid[reel]) {
			return 0
		}
		sym, ok := e.symbols[grid[reel][line[reel]]]
		if ok && sym.IsBonus() && sym.AllowedOnReel(reel) {
			count++
		}
	}
	return count
}

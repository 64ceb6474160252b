// Package state owns the canonical mutable game state. All mutation goes
// through validated setters or an atomic batch; the backing fields are
// private so nothing can bypass the invariants. The store is safe for use
// from multiple goroutines.
package state

import (
	"fmt"
	"sync"

	"github.com/reelhouse/slotengine/internal/domain"
)

// Store is the single source of truth for credits, bet, spin flags and reel
// positions.
type Store struct {
	mu sync.Mutex

	credits         int
	currentBet      int
	currentBetIndex int
	lastWin         int
	isSpinning      bool
	reelPositions   []int

	betOptions []int
}

// Snapshot is an exported copy of the store for persistence and rendering.
type Snapshot struct {
	Credits         int   `json:"credits"`
	CurrentBet      int   `json:"current_bet"`
	CurrentBetIndex int   `json:"current_bet_index"`
	LastWin         int   `json:"last_win"`
	IsSpinning      bool  `json:"is_spinning"`
	ReelPositions   []int `json:"reel_positions"`
}

// Checkpoint captures the pre-spin fields used for rollback.
type Checkpoint struct {
	Credits         int
	LastWin         int
	IsSpinning      bool
	CurrentBet      int
	CurrentBetIndex int
}

// New builds a Store with the given bet ladder, initial credits and reel
// count. The first bet option is the starting bet.
func New(betOptions []int, initialCredits, reelCount int) (*Store, error) {
	if len(betOptions) == 0 {
		return nil, fmt.Errorf("%w: no bet options", domain.ErrInvalidBet)
	}
	for _, b := range betOptions {
		if b <= 0 {
			return nil, fmt.Errorf("%w: %d", domain.ErrInvalidBet, b)
		}
	}
	if initialCredits < 0 {
		return nil, domain.ErrNegativeCredits
	}

	opts := make([]int, len(betOptions))
	copy(opts, betOptions)

	return &Store{
		credits:       initialCredits,
		currentBet:    opts[0],
		betOptions:    opts,
		reelPositions: make([]int, reelCount),
	}, nil
}

// Credits returns the current credit balance.
func (s *Store) Credits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.credits
}

// SetCredits replaces the balance. Negative values are rejected, never
// clamped.
func (s *Store) SetCredits(credits int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if credits < 0 {
		return fmt.Errorf("%w: %d", domain.ErrNegativeCredits, credits)
	}
	s.credits = credits
	return nil
}

// AddCredits adds a non-negative win to the balance.
func (s *Store) AddCredits(amount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if amount < 0 {
		return fmt.Errorf("%w: add %d", domain.ErrNegativeCredits, amount)
	}
	s.credits += amount
	return nil
}

// DeductCredits removes amount from the balance. A deduction that would go
// negative is rejected and leaves the balance untouched.
func (s *Store) DeductCredits(amount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if amount < 0 {
		return fmt.Errorf("%w: deduct %d", domain.ErrNegativeCredits, amount)
	}
	if amount > s.credits {
		return fmt.Errorf("%w: have %d, need %d", domain.ErrInsufficientCredits, s.credits, amount)
	}
	s.credits -= amount
	return nil
}

// Bet returns the current bet amount.
func (s *Store) Bet() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentBet
}

// BetIndex returns the index of the current bet in the bet ladder.
func (s *Store) BetIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentBetIndex
}

// BetOptions returns a copy of the bet ladder.
func (s *Store) BetOptions() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, len(s.betOptions))
	copy(out, s.betOptions)
	return out
}

// SetBetIndex selects a bet from the ladder, keeping bet and index in sync.
// Changing the bet mid-spin is rejected.
func (s *Store) SetBetIndex(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isSpinning {
		return domain.ErrSpinInFlight
	}
	if index < 0 || index >= len(s.betOptions) {
		return fmt.Errorf("%w: index %d", domain.ErrInvalidBet, index)
	}
	s.currentBetIndex = index
	s.currentBet = s.betOptions[index]
	return nil
}

// LastWin returns the most recent spin's total win.
func (s *Store) LastWin() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastWin
}

// SetLastWin records the most recent spin's total win.
func (s *Store) SetLastWin(win int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if win < 0 {
		return fmt.Errorf("%w: last win %d", domain.ErrNegativeCredits, win)
	}
	s.lastWin = win
	return nil
}

// IsSpinning reports whether a spin is in flight.
func (s *Store) IsSpinning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isSpinning
}

// BeginSpin sets the spinning flag. It fails if a spin is already in
// flight; this is the re-entrancy guard.
func (s *Store) BeginSpin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isSpinning {
		return domain.ErrSpinInFlight
	}
	s.isSpinning = true
	return nil
}

// EndSpin clears the spinning flag.
func (s *Store) EndSpin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isSpinning = false
}

// ReelPositions returns a copy of the current reel strip offsets.
func (s *Store) ReelPositions() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, len(s.reelPositions))
	copy(out, s.reelPositions)
	return out
}

// SetReelPositions records the strip offsets for all reels. The slice must
// match the reel count and hold non-negative offsets.
func (s *Store) SetReelPositions(positions []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(positions) != len(s.reelPositions) {
		return fmt.Errorf("%w: got %d positions, want %d", domain.ErrInvalidReelIndex, len(positions), len(s.reelPositions))
	}
	for i, p := range positions {
		if p < 0 {
			return fmt.Errorf("%w: reel %d offset %d", domain.ErrInvalidReelIndex, i, p)
		}
	}
	copy(s.reelPositions, positions)
	return nil
}

// Batch applies several mutations atomically: validation failures abort the
// whole batch, leaving the store untouched.
type Batch struct {
	Credits       *int
	BetIndex      *int
	LastWin       *int
	ReelPositions []int
}

// Apply validates the complete batch before committing any of it.
func (s *Store) Apply(b Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b.Credits != nil && *b.Credits < 0 {
		return fmt.Errorf("%w: %d", domain.ErrNegativeCredits, *b.Credits)
	}
	if b.BetIndex != nil && (*b.BetIndex < 0 || *b.BetIndex >= len(s.betOptions)) {
		return fmt.Errorf("%w: index %d", domain.ErrInvalidBet, *b.BetIndex)
	}
	if b.LastWin != nil && *b.LastWin < 0 {
		return fmt.Errorf("%w: last win %d", domain.ErrNegativeCredits, *b.LastWin)
	}
	if b.ReelPositions != nil {
		if len(b.ReelPositions) != len(s.reelPositions) {
			return fmt.Errorf("%w: got %d positions, want %d", domain.ErrInvalidReelIndex, len(b.ReelPositions), len(s.reelPositions))
		}
		for i, p := range b.ReelPositions {
			if p < 0 {
				return fmt.Errorf("%w: reel %d offset %d", domain.ErrInvalidReelIndex, i, p)
			}
		}
	}

	if b.Credits != nil {
		s.credits = *b.Credits
	}
	if b.BetIndex != nil {
		s.currentBetIndex = *b.BetIndex
		s.currentBet = s.betOptions[*b.BetIndex]
	}
	if b.LastWin != nil {
		s.lastWin = *b.LastWin
	}
	if b.ReelPositions != nil {
		copy(s.reelPositions, b.ReelPositions)
	}
	return nil
}

// CreateCheckpoint snapshots the fields a failed spin must roll back.
func (s *Store) CreateCheckpoint() Checkpoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Checkpoint{
		Credits:         s.credits,
		LastWin:         s.lastWin,
		IsSpinning:      s.isSpinning,
		CurrentBet:      s.currentBet,
		CurrentBetIndex: s.currentBetIndex,
	}
}

// RestoreCheckpoint rolls the store back to a checkpoint.
func (s *Store) RestoreCheckpoint(cp Checkpoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credits = cp.Credits
	s.lastWin = cp.LastWin
	s.isSpinning = cp.IsSpinning
	s.currentBet = cp.CurrentBet
	s.currentBetIndex = cp.CurrentBetIndex
}

// Snapshot copies the full state for persistence or rendering.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	positions := make([]int, len(s.reelPositions))
	copy(positions, s.reelPositions)
	return Snapshot{
		Credits:         s.credits,
		CurrentBet:      s.currentBet,
		CurrentBetIndex: s.currentBetIndex,
		LastWin:         s.lastWin,
		IsSpinning:      s.isSpinning,
		ReelPositions:   positions,
	}
}

// Reset restores defaults: initial credits, first bet option, cleared win
// and flags. Used by explicit "reset all data".
func (s *Store) Reset(initialCredits int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credits = initialCredits
	s.currentBetIndex = 0
	s.currentBet = s.betOptions[0]
	s.lastWin = 0
	s.isSpinning = false
	for i := range s.reelPositions {
		s.reelPositions[i] = 0
	}
}

// RestoreSnapshot loads persisted values back into the store, validating
// each field; invalid fields are rejected so the caller can fall back to
// defaults.
func (s *Store) RestoreSnapshot(snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if snap.Credits < 0 {
		return fmt.Errorf("%w: %d", domain.ErrNegativeCredits, snap.Credits)
	}
	if snap.CurrentBetIndex < 0 || snap.CurrentBetIndex >= len(s.betOptions) {
		return fmt.Errorf("%w: index %d", domain.ErrInvalidBet, snap.CurrentBetIndex)
	}
	if snap.LastWin < 0 {
		return fmt.Errorf("%w: last win %d", domain.ErrNegativeCredits, snap.LastWin)
	}
	s.credits = snap.Credits
	s.currentBetIndex = snap.CurrentBetIndex
	s.currentBet = s.betOptions[snap.CurrentBetIndex]
	s.lastWin = snap.LastWin
	// A restored session is never mid-spin.
	s.isSpinning = false
	if len(snap.ReelPositions) == len(s.reelPositions) {
		copy(s.reelPositions, snap.ReelPositions)
	}
	return nil
}

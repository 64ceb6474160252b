// Package rng provides the weighted random source behind reel outcomes.
// The underlying uniform source is injectable so tests and replays are
// fully deterministic.
package rng

import (
	crand "crypto/rand"
	"fmt"
	"math/big"

	"github.com/reelhouse/slotengine/internal/domain"
)

// Source returns a uniform random integer in [0, n). n must be positive.
type Source func(n int) int

// CryptoSource draws from crypto/rand. It is the production source.
func CryptoSource(n int) int {
	v, err := crand.Int(crand.Reader, big.NewInt(int64(n)))
	if err != nil {
		// crypto/rand only fails when the OS entropy source is broken;
		// there is no meaningful recovery for a game draw.
		panic(fmt.Sprintf("crypto rand failed: %v", err))
	}
	return int(v.Int64())
}

type candidate struct {
	id     domain.SymbolID
	weight int
}

// WeightedRNG draws symbols per reel according to symbol weights, builds
// reel strips and slices circular windows out of them.
type WeightedRNG struct {
	reels [][]candidate
	src   Source
}

// New builds a WeightedRNG for reelCount reels from the symbol table.
// Symbols with reel restrictions only enter the candidate list of their
// allowed reels. Degenerate tables are rejected up front.
func New(symbols []domain.Symbol, reelCount int, src Source) (*WeightedRNG, error) {
	if reelCount <= 0 {
		return nil, fmt.Errorf("%w: reel count %d", domain.ErrInvalidReelIndex, reelCount)
	}
	if src == nil {
		src = CryptoSource
	}

	reels := make([][]candidate, reelCount)
	for reel := 0; reel < reelCount; reel++ {
		total := 0
		for _, sym := range symbols {
			if !sym.AllowedOnReel(reel) {
				continue
			}
			if sym.Weight <= 0 {
				continue
			}
			reels[reel] = append(reels[reel], candidate{id: sym.ID, weight: sym.Weight})
			total += sym.Weight
		}
		if len(reels[reel]) == 0 {
			return nil, fmt.Errorf("%w: reel %d", domain.ErrEmptySymbolSet, reel)
		}
		if total <= 0 {
			return nil, fmt.Errorf("%w: reel %d", domain.ErrNonPositiveWeight, reel)
		}
	}

	return &WeightedRNG{reels: reels, src: src}, nil
}

// Symbol draws one symbol for the given reel: uniform u in [0, totalWeight),
// then walk the weighted list subtracting weights until u goes negative.
func (r *WeightedRNG) Symbol(reelIndex int) (domain.SymbolID, error) {
	if reelIndex < 0 || reelIndex >= len(r.reels) {
		return "", fmt.Errorf("%w: %d", domain.ErrInvalidReelIndex, reelIndex)
	}

	total := 0
	for _, c := range r.reels[reelIndex] {
		total += c.weight
	}

	u := r.src(total)
	for _, c := range r.reels[reelIndex] {
		u -= c.weight
		if u < 0 {
			return c.id, nil
		}
	}
	// Unreachable when the source honors its [0, n) contract.
	return r.reels[reelIndex][len(r.reels[reelIndex])-1].id, nil
}

// BuildStrip generates an immutable reel strip of the given length for one
// reel, drawing each slot independently from the reel's weight table.
func (r *WeightedRNG) BuildStrip(reelIndex, length int) (domain.ReelStrip, error) {
	if length <= 0 {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidStrip, length)
	}
	strip := make(domain.ReelStrip, length)
	for i := range strip {
		id, err := r.Symbol(reelIndex)
		if err != nil {
			return nil, err
		}
		strip[i] = id
	}
	return strip, nil
}

// Offset picks a uniform strip offset in [0, stripLength).
func (r *WeightedRNG) Offset(stripLength int) (int, error) {
	if stripLength <= 0 {
		return 0, fmt.Errorf("%w: %d", domain.ErrInvalidStrip, stripLength)
	}
	return r.src(stripLength), nil
}

// Window slices count symbols from the strip starting at offset, wrapping
// modulo strip length.
func Window(strip domain.ReelStrip, offset, count int) []domain.SymbolID {
	if len(strip) == 0 || count <= 0 {
		return nil
	}
	out := make([]domain.SymbolID, count)
	for i := 0; i < count; i++ {
		out[i] = strip[(offset+i)%len(strip)]
	}
	return out
}

package domain

// SymbolID identifies a reel symbol.
type SymbolID string

// SymbolCategory classifies how a symbol participates in evaluation
type SymbolCategory string

const (
	CategoryStandard SymbolCategory = "standard"
	CategoryWild     SymbolCategory = "wild"
	CategoryScatter  SymbolCategory = "scatter"
	CategoryBonus    SymbolCategory = "bonus"
)

// Symbol describes a reel symbol: its glyph, payout table, draw weight and
// optional reel restriction.
type Symbol struct {
	ID       SymbolID       `json:"id"`
	Glyph    string         `json:"glyph"`
	Category SymbolCategory `json:"category"`
	// Payouts maps a consecutive match count to a bet multiplier.
	Payouts map[int]float64 `json:"payouts,omitempty"`
	// Weight is the relative draw probability of the symbol.
	Weight int `json:"weight"`
	// Reels restricts which reels the symbol may appear on. Empty = all reels.
	Reels []int `json:"reels,omitempty"`
}

// IsWild reports whether the symbol substitutes for paying symbols.
func (s Symbol) IsWild() bool { return s.Category == CategoryWild }

// IsScatter reports whether the symbol pays by grid-wide count.
func (s Symbol) IsScatter() bool { return s.Category == CategoryScatter }

// IsBonus reports whether the symbol triggers the bonus pick game.
func (s Symbol) IsBonus() bool { return s.Category == CategoryBonus }

// AllowedOnReel reports whether the symbol may be drawn for the given reel.
func (s Symbol) AllowedOnReel(reel int) bool {
	if len(s.Reels) == 0 {
		return true
	}
	for _, r := range s.Reels {
		if r == reel {
			return true
		}
	}
	return false
}

// ReelStrip is the ordered symbol sequence of a single reel, generated once
// per session and immutable thereafter.
type ReelStrip []SymbolID

package domain

// Grid is the visible symbol window, indexed reel-first: Grid[reel][row].
type Grid [][]SymbolID

// Position addresses a single cell of the grid.
type Position struct {
	Reel int `json:"reel"`
	Row  int `json:"row"`
}

// Clone returns a deep copy of the grid.
func (g Grid) Clone() Grid {
	out := make(Grid, len(g))
	for i, reel := range g {
		out[i] = make([]SymbolID, len(reel))
		copy(out[i], reel)
	}
	return out
}

// Valid reports whether the grid is non-empty and rectangular.
func (g Grid) Valid() bool {
	if len(g) == 0 || len(g[0]) == 0 {
		return false
	}
	rows := len(g[0])
	for _, reel := range g {
		if len(reel) != rows {
			return false
		}
	}
	return true
}

// DedupePositions returns the positions with duplicates removed, preserving
// first-seen order.
func DedupePositions(positions []Position) []Position {
	seen := make(map[Position]struct{}, len(positions))
	out := make([]Position, 0, len(positions))
	for _, p := range positions {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

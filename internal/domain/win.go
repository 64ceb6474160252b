package domain

// LineWin describes a single winning payline.
type LineWin struct {
	LineIndex  int      `json:"line_index"`
	Symbol     SymbolID `json:"symbol"`
	MatchCount int      `json:"match_count"`
	Win        int      `json:"win"`
}

// ScatterWin describes a grid-wide scatter payout.
type ScatterWin struct {
	Triggered bool `json:"triggered"`
	Count     int  `json:"count"`
	Win       int  `json:"win"`
}

// BonusInfo describes a bonus-line trigger. Count comes from the first
// qualifying payline and sizes the bonus pick game.
type BonusInfo struct {
	Triggered bool `json:"triggered"`
	Count     int  `json:"count"`
	LineIndex int  `json:"line_index"`
}

// WinInfo is the result of evaluating one grid. It is ephemeral: consumed by
// the orchestrator and renderers, never persisted.
type WinInfo struct {
	TotalWin    int        `json:"total_win"`
	Positions   []Position `json:"positions"`
	LineIndices []int      `json:"line_indices"`
	Lines       []LineWin  `json:"lines"`
	Scatter     ScatterWin `json:"scatter"`
	Bonus       BonusInfo  `json:"bonus"`
}

// HasWin reports whether anything paid on this evaluation.
func (w *WinInfo) HasWin() bool { return w.TotalWin > 0 }

// WinTier classifies a win for messages, stats and metrics.
type WinTier string

const (
	TierNone    WinTier = "none"
	TierNormal  WinTier = "normal"
	TierBig     WinTier = "big_win"
	TierJackpot WinTier = "jackpot"
	TierMega    WinTier = "mega_jackpot"
)

// Win tier thresholds, in multiples of the bet.
const (
	BigWinThreshold      = 10.0
	JackpotThreshold     = 50.0
	MegaJackpotThreshold = 100.0
)

// ClassifyWin maps a total win and bet to a WinTier.
func ClassifyWin(totalWin, bet int) WinTier {
	if totalWin <= 0 || bet <= 0 {
		return TierNone
	}
	ratio := float64(totalWin) / float64(bet)
	switch {
	case ratio >= MegaJackpotThreshold:
		return TierMega
	case ratio >= JackpotThreshold:
		return TierJackpot
	case ratio >= BigWinThreshold:
		return TierBig
	default:
		return TierNormal
	}
}

package config

// DefaultGameConfig returns the built-in game math, mirroring
// configs/game.json. Used as the fallback when no config file is present
// and as the baseline for tests.
func DefaultGameConfig() *GameConfig {
	return &GameConfig{
		Reels:          5,
		Rows:           3,
		StripLength:    32,
		InitialCredits: 1000,
		BetOptions:     []int{1, 2, 5, 10, 25, 50},
		Symbols: []SymbolConfig{
			{ID: "cherry", Glyph: "🍒", Category: "standard", Weight: 25, Payouts: map[int]float64{3: 5, 4: 15, 5: 50}},
			{ID: "lemon", Glyph: "🍋", Category: "standard", Weight: 30, Payouts: map[int]float64{3: 3, 4: 10, 5: 25}},
			{ID: "orange", Glyph: "🍊", Category: "standard", Weight: 28, Payouts: map[int]float64{3: 4, 4: 12, 5: 30}},
			{ID: "grape", Glyph: "🍇", Category: "standard", Weight: 20, Payouts: map[int]float64{3: 6, 4: 20, 5: 60}},
			{ID: "bell", Glyph: "🔔", Category: "standard", Weight: 12, Payouts: map[int]float64{3: 10, 4: 40, 5: 100}},
			{ID: "seven", Glyph: "7️⃣", Category: "standard", Weight: 6, Payouts: map[int]float64{3: 25, 4: 100, 5: 500}},
			{ID: "diamond", Glyph: "💎", Category: "standard", Weight: 3, Payouts: map[int]float64{3: 50, 4: 200, 5: 1000}},
			{ID: "wild", Glyph: "🃏", Category: "wild", Weight: 4},
			{ID: "scatter", Glyph: "⭐", Category: "scatter", Weight: 3},
			{ID: "bonus", Glyph: "🎁", Category: "bonus", Weight: 4, Reels: []int{0, 2, 4}},
		},
		Paylines: [][]int{
			{1, 1, 1, 1, 1},
			{0, 0, 0, 0, 0},
			{2, 2, 2, 2, 2},
			{0, 1, 2, 1, 0},
			{2, 1, 0, 1, 2},
			{0, 0, 1, 2, 2},
			{2, 2, 1, 0, 0},
			{1, 0, 1, 2, 1},
			{1, 2, 1, 0, 1},
		},
		ScatterPayouts: map[int]float64{3: 2, 4: 10, 5: 50},
		FreeSpins: FreeSpinsConfig{
			Awards:      map[int]int{3: 10, 4: 15, 5: 20},
			Multipliers: []float64{2, 3, 5},
			Retrigger:   true,
			MinScatters: 3,
		},
		Cascade: CascadeConfig{
			Enabled:       true,
			Multipliers:   []float64{1, 2, 3, 5},
			MaxIterations: 20,
		},
		BonusPick: BonusPickConfig{
			MaxPicks:         5,
			PoolSize:         12,
			CreditsWeight:    60,
			MultiplierWeight: 30,
			ExtraPickWeight:  10,
			CreditsMin:       50,
			CreditsMax:       500,
			MultiplierMin:    2,
			MultiplierMax:    5,
			FillerMin:        5,
			FillerMax:        25,
		},
		Gamble: GambleConfig{
			MaxAttempts:        5,
			WinCeiling:         10000,
			MaxEligibleWin:     2500,
			AutoCollectSeconds: 10,
		},
		Anticipation: AnticipationConfig{
			TriggerChance: 0.35,
			FlukeChance:   0.02,
		},
	}
}

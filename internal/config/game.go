package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/reelhouse/slotengine/internal/domain"
	"github.com/reelhouse/slotengine/internal/validation"
)

// SymbolConfig is the JSON shape of one symbol definition.
type SymbolConfig struct {
	ID       string          `json:"id" validate:"required"`
	Glyph    string          `json:"glyph" validate:"required"`
	Category string          `json:"category" validate:"required,oneof=standard wild scatter bonus"`
	Payouts  map[int]float64 `json:"payouts,omitempty" validate:"omitempty,dive,gt=0"`
	Weight   int             `json:"weight" validate:"gt=0"`
	Reels    []int           `json:"reels,omitempty" validate:"omitempty,dive,gte=0"`
}

// FreeSpinsConfig tunes the free-spins feature.
type FreeSpinsConfig struct {
	// Awards maps scatter count (3..5) to granted spins.
	Awards map[int]int `json:"awards" validate:"required,min=1,dive,gt=0"`
	// Multipliers is the set one session multiplier is sampled from.
	Multipliers []float64 `json:"multipliers" validate:"required,min=1,dive,gte=1"`
	Retrigger   bool      `json:"retrigger"`
	// MinScatters is the scatter count that triggers the feature.
	MinScatters int `json:"min_scatters" validate:"gte=2"`
}

// CascadeConfig tunes the tumble feature.
type CascadeConfig struct {
	Enabled bool `json:"enabled"`
	// Multipliers escalate per chain step; past the end the last entry holds.
	Multipliers   []float64 `json:"multipliers" validate:"required,min=1,dive,gte=1"`
	MaxIterations int       `json:"max_iterations" validate:"gt=0"`
}

// BonusPickConfig tunes the pick game.
type BonusPickConfig struct {
	MaxPicks int `json:"max_picks" validate:"gt=0"`
	PoolSize int `json:"pool_size" validate:"gt=0"`
	// Category weights, relative: credits / multiplier / extra pick.
	CreditsWeight    int `json:"credits_weight" validate:"gte=0"`
	MultiplierWeight int `json:"multiplier_weight" validate:"gte=0"`
	ExtraPickWeight  int `json:"extra_pick_weight" validate:"gte=0"`
	// Value ranges per category. Credits are absolute amounts, multipliers
	// integer factors, filler the low-value credit padding.
	CreditsMin    int `json:"credits_min" validate:"gt=0"`
	CreditsMax    int `json:"credits_max" validate:"gtefield=CreditsMin"`
	MultiplierMin int `json:"multiplier_min" validate:"gte=2"`
	MultiplierMax int `json:"multiplier_max" validate:"gtefield=MultiplierMin"`
	FillerMin     int `json:"filler_min" validate:"gt=0"`
	FillerMax     int `json:"filler_max" validate:"gtefield=FillerMin"`
}

// GambleConfig tunes the double-up feature.
type GambleConfig struct {
	MaxAttempts int `json:"max_attempts" validate:"gt=0"`
	// WinCeiling stops doubling once the amount reaches it.
	WinCeiling int `json:"win_ceiling" validate:"gt=0"`
	// MaxEligibleWin bounds which wins may be gambled at all.
	MaxEligibleWin int `json:"max_eligible_win" validate:"gt=0"`
	// AutoCollectSeconds is the offer countdown before auto-collect.
	AutoCollectSeconds int `json:"auto_collect_seconds" validate:"gt=0"`
}

// AnticipationConfig tunes the near-miss pacing heuristic.
type AnticipationConfig struct {
	TriggerChance float64 `json:"trigger_chance" validate:"gte=0,lte=1"`
	FlukeChance   float64 `json:"fluke_chance" validate:"gte=0,lte=1"`
}

// GameConfig is the complete game math configuration.
type GameConfig struct {
	Reels          int                `json:"reels" validate:"gte=3,lte=8"`
	Rows           int                `json:"rows" validate:"gte=2,lte=6"`
	StripLength    int                `json:"strip_length" validate:"gte=8"`
	InitialCredits int                `json:"initial_credits" validate:"gt=0"`
	BetOptions     []int              `json:"bet_options" validate:"required,min=1,dive,gt=0"`
	Symbols        []SymbolConfig     `json:"symbols" validate:"required,min=2,dive"`
	Paylines       [][]int            `json:"paylines" validate:"required,min=1,dive,min=1"`
	ScatterPayouts map[int]float64    `json:"scatter_payouts" validate:"required,min=1"`
	FreeSpins      FreeSpinsConfig    `json:"free_spins"`
	Cascade        CascadeConfig      `json:"cascade"`
	BonusPick      BonusPickConfig    `json:"bonus_pick"`
	Gamble         GambleConfig       `json:"gamble"`
	Anticipation   AnticipationConfig `json:"anticipation"`
}

// LoadGameConfig reads, schema-validates and struct-validates the game math
// configuration.
func LoadGameConfig(gamePath, schemaPath string) (*GameConfig, error) {
	data, err := os.ReadFile(gamePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read game config: %w", err)
	}

	if schemaPath != "" {
		sv := validation.NewSchemaValidator()
		if err := sv.ValidateBytes(data, schemaPath); err != nil {
			return nil, fmt.Errorf("game config rejected by schema: %w", err)
		}
	}

	var cfg GameConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse game config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate runs struct validation plus the cross-field rules the tag
// language cannot express.
func (c *GameConfig) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid game config: %w", err)
	}

	for i, line := range c.Paylines {
		if len(line) != c.Reels {
			return fmt.Errorf("invalid game config: payline %d has %d rows, want %d", i, len(line), c.Reels)
		}
		for reel, row := range line {
			if row < 0 || row >= c.Rows {
				return fmt.Errorf("invalid game config: payline %d row %d out of range on reel %d", i, row, reel)
			}
		}
	}

	for _, s := range c.Symbols {
		for _, reel := range s.Reels {
			if reel >= c.Reels {
				return fmt.Errorf("invalid game config: symbol %s restricted to missing reel %d", s.ID, reel)
			}
		}
	}

	return nil
}

// SymbolTable converts the symbol configs into domain symbols.
func (c *GameConfig) SymbolTable() []domain.Symbol {
	out := make([]domain.Symbol, 0, len(c.Symbols))
	for _, s := range c.Symbols {
		out = append(out, domain.Symbol{
			ID:       domain.SymbolID(s.ID),
			Glyph:    s.Glyph,
			Category: domain.SymbolCategory(s.Category),
			Payouts:  s.Payouts,
			Weight:   s.Weight,
			Reels:    s.Reels,
		})
	}
	return out
}

// Package bonuspick owns the bonus pick mini-game: a hidden, shuffled pool
// of prizes the player reveals one by one. Triggered by a bonus-symbol line,
// never during free spins.
package bonuspick

import (
	"fmt"

	"github.com/reelhouse/slotengine/internal/config"
	"github.com/reelhouse/slotengine/internal/domain"
	"github.com/reelhouse/slotengine/internal/rng"
)

// PickResult reports the outcome of revealing one pool index.
type PickResult struct {
	Index     int          `json:"index"`
	Prize     domain.Prize `json:"prize"`
	Remaining int          `json:"remaining"`
	Total     int          `json:"total"`
	// Finished is set when the last pick was consumed; the caller should
	// End() the feature and collect the total.
	Finished bool `json:"finished"`
}

// Controller is the bonus pick state machine.
type Controller struct {
	active         bool
	totalPicks     int
	remainingPicks int
	accumulatedWin int
	multiplier     float64

	prizes   []domain.Prize
	consumed []bool

	cfg config.BonusPickConfig
	src rng.Source
}

// New builds an inactive controller.
func New(cfg config.BonusPickConfig, src rng.Source) *Controller {
	if src == nil {
		src = rng.CryptoSource
	}
	return &Controller{cfg: cfg, multiplier: 1, src: src}
}

// CanTrigger reports whether a bonus line count would start the game.
func (c *Controller) CanTrigger(bonusCount int) bool {
	return !c.active && bonusCount >= 3
}

// Trigger activates the game with min(bonusCount, maxPicks) picks and
// generates the shuffled prize pool.
func (c *Controller) Trigger(bonusCount int) error {
	if c.active {
		return fmt.Errorf("%w: bonus pick", domain.ErrFeatureActive)
	}
	if bonusCount < 3 {
		return fmt.Errorf("%w: %d bonus symbols", domain.ErrFeatureInactive, bonusCount)
	}

	picks := bonusCount
	if picks > c.cfg.MaxPicks {
		picks = c.cfg.MaxPicks
	}

	c.active = true
	c.totalPicks = picks
	c.remainingPicks = picks
	c.accumulatedWin = 0
	c.multiplier = 1
	c.prizes = c.generatePool(picks)
	c.consumed = make([]bool, len(c.prizes))
	return nil
}

// Pick reveals one pool index. Repeated picks of the same index are no-ops.
// The prize effect applies immediately: credits add to the running total,
// multipliers scale it, extra picks grow both counters.
func (c *Controller) Pick(index int) (*PickResult, error) {
	if !c.active {
		return nil, fmt.Errorf("%w: bonus pick", domain.ErrFeatureInactive)
	}
	if index < 0 || index >= len(c.prizes) {
		return nil, fmt.Errorf("%w: pick index %d", domain.ErrFeatureInactive, index)
	}
	if c.consumed[index] {
		return &PickResult{
			Index:     index,
			Prize:     c.prizes[index],
			Remaining: c.remainingPicks,
			Total:     c.currentTotal(),
		}, nil
	}
	if c.remainingPicks <= 0 {
		return nil, fmt.Errorf("%w: no picks remaining", domain.ErrFeatureInactive)
	}

	c.consumed[index] = true
	prize := c.prizes[index]

	switch prize.Kind {
	case domain.PrizeCredits:
		c.accumulatedWin += int(prize.Value)
	case domain.PrizeMultiplier:
		c.multiplier *= prize.Value
	case domain.PrizeExtraPick:
		c.totalPicks++
		c.remainingPicks++
	}
	c.remainingPicks--

	return &PickResult{
		Index:     index,
		Prize:     prize,
		Remaining: c.remainingPicks,
		Total:     c.currentTotal(),
		Finished:  c.remainingPicks == 0,
	}, nil
}

// End finalizes the game and returns the multiplied total.
func (c *Controller) End() int {
	total := c.currentTotal()
	c.active = false
	c.totalPicks = 0
	c.remainingPicks = 0
	c.accumulatedWin = 0
	c.multiplier = 1
	c.prizes = nil
	c.consumed = nil
	return total
}

// IsActive reports whether the game is running.
func (c *Controller) IsActive() bool { return c.active }

// Remaining returns how many picks are left.
func (c *Controller) Remaining() int { return c.remainingPicks }

// PoolSize returns the size of the prize pool.
func (c *Controller) PoolSize() int { return len(c.prizes) }

func (c *Controller) currentTotal() int {
	return int(float64(c.accumulatedWin) * c.multiplier)
}

// generatePool fills the fixed-size pool: one guaranteed weighted-category
// prize per granted pick, filler low-value credits for the rest, shuffled.
func (c *Controller) generatePool(picks int) []domain.Prize {
	size := c.cfg.PoolSize
	if picks > size {
		size = picks
	}

	pool := make([]domain.Prize, 0, size)
	for i := 0; i < picks; i++ {
		pool = append(pool, c.rollPrize())
	}
	for len(pool) < size {
		pool = append(pool, domain.Prize{
			Kind:  domain.PrizeCredits,
			Value: float64(c.rollRange(c.cfg.FillerMin, c.cfg.FillerMax)),
		})
	}

	// Fisher-Yates shuffle so pick order reveals nothing.
	for i := len(pool) - 1; i > 0; i-- {
		j := c.src(i + 1)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool
}

// rollPrize draws a guaranteed prize: category by weight, value by the
// category's range.
func (c *Controller) rollPrize() domain.Prize {
	total := c.cfg.CreditsWeight + c.cfg.MultiplierWeight + c.cfg.ExtraPickWeight
	if total <= 0 {
		return domain.Prize{Kind: domain.PrizeCredits, Value: float64(c.cfg.CreditsMin)}
	}

	u := c.src(total)
	switch {
	case u < c.cfg.CreditsWeight:
		return domain.Prize{
			Kind:  domain.PrizeCredits,
			Value: float64(c.rollRange(c.cfg.CreditsMin, c.cfg.CreditsMax)),
		}
	case u < c.cfg.CreditsWeight+c.cfg.MultiplierWeight:
		return domain.Prize{
			Kind:  domain.PrizeMultiplier,
			Value: float64(c.rollRange(c.cfg.MultiplierMin, c.cfg.MultiplierMax)),
		}
	default:
		return domain.Prize{Kind: domain.PrizeExtraPick, Value: 1}
	}
}

func (c *Controller) rollRange(min, max int) int {
	if max <= min {
		return min
	}
	return min + c.src(max-min+1)
}

// SaveData snapshots the feature for persistence.
func (c *Controller) SaveData() *domain.BonusGameSave {
	save := &domain.BonusGameSave{
		Active:         c.active,
		TotalPicks:     c.totalPicks,
		RemainingPicks: c.remainingPicks,
		AccumulatedWin: c.accumulatedWin,
		Multiplier:     c.multiplier,
	}
	if c.active {
		save.Prizes = append([]domain.Prize(nil), c.prizes...)
		save.Consumed = append([]bool(nil), c.consumed...)
	}
	return save
}

// Init restores a persisted snapshot.
func (c *Controller) Init(save *domain.BonusGameSave) {
	if save == nil {
		return
	}
	c.active = save.Active
	c.totalPicks = save.TotalPicks
	c.remainingPicks = save.RemainingPicks
	c.accumulatedWin = save.AccumulatedWin
	c.multiplier = save.Multiplier
	if c.multiplier < 1 {
		c.multiplier = 1
	}
	c.prizes = append([]domain.Prize(nil), save.Prizes...)
	c.consumed = append([]bool(nil), save.Consumed...)
	if len(c.consumed) != len(c.prizes) {
		c.consumed = make([]bool, len(c.prizes))
	}
}

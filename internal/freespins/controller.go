// Package freespins owns the free-spins feature state machine:
// inactive -> active -> inactive. The controller tracks its own win
// accumulation and session multiplier; the spin pipeline drives it.
package freespins

import (
	"fmt"

	"github.com/reelhouse/slotengine/internal/domain"
	"github.com/reelhouse/slotengine/internal/rng"
)

// Controller is the free-spins state machine.
type Controller struct {
	active         bool
	remainingSpins int
	totalSpins     int
	accumulatedWin int
	multiplier     float64
	retriggerCount int

	awards      map[int]int
	multipliers []float64
	retrigger   bool
	minScatters int
	src         rng.Source
}

// New builds an inactive controller. awards maps scatter count to granted
// spins; multipliers is the set the session multiplier is sampled from.
func New(awards map[int]int, multipliers []float64, retrigger bool, minScatters int, src rng.Source) *Controller {
	if src == nil {
		src = rng.CryptoSource
	}
	return &Controller{
		awards:      awards,
		multipliers: multipliers,
		retrigger:   retrigger,
		minScatters: minScatters,
		multiplier:  1,
		src:         src,
	}
}

// CanTrigger reports whether a scatter count would start the feature.
func (c *Controller) CanTrigger(scatterCount int) bool {
	return !c.active && scatterCount >= c.minScatters
}

// Trigger activates the feature: spins come from the award table (counts
// above 5 use the 5 entry) and one multiplier is sampled for the session.
func (c *Controller) Trigger(scatterCount int) error {
	if c.active {
		return fmt.Errorf("%w: free spins", domain.ErrFeatureActive)
	}
	if scatterCount < c.minScatters {
		return fmt.Errorf("%w: %d scatters", domain.ErrFeatureInactive, scatterCount)
	}

	spins := c.award(scatterCount)
	c.active = true
	c.remainingSpins = spins
	c.totalSpins = spins
	c.accumulatedWin = 0
	c.retriggerCount = 0
	c.multiplier = c.multipliers[c.src(len(c.multipliers))]
	return nil
}

// Retrigger adds spins mid-feature per the same award table. The session
// multiplier is not resampled.
func (c *Controller) Retrigger(scatterCount int) error {
	if !c.active {
		return fmt.Errorf("%w: free spins", domain.ErrFeatureInactive)
	}
	if !c.retrigger || scatterCount < c.minScatters {
		return nil
	}
	spins := c.award(scatterCount)
	c.remainingSpins += spins
	c.totalSpins += spins
	c.retriggerCount++
	return nil
}

// ExecuteSpin consumes one free spin and reports whether more remain.
func (c *Controller) ExecuteSpin() (remaining int, err error) {
	if !c.active {
		return 0, fmt.Errorf("%w: free spins", domain.ErrFeatureInactive)
	}
	if c.remainingSpins > 0 {
		c.remainingSpins--
	}
	return c.remainingSpins, nil
}

// ApplyMultiplier scales a win by the session multiplier while active.
func (c *Controller) ApplyMultiplier(win int) int {
	if !c.active {
		return win
	}
	return int(float64(win) * c.multiplier)
}

// AddWin accumulates a free-spin win into the feature total.
func (c *Controller) AddWin(win int) {
	if c.active && win > 0 {
		c.accumulatedWin += win
	}
}

// End deactivates the feature, returning the accumulated win and resetting
// all counters.
func (c *Controller) End() int {
	total := c.accumulatedWin
	c.active = false
	c.remainingSpins = 0
	c.totalSpins = 0
	c.accumulatedWin = 0
	c.multiplier = 1
	c.retriggerCount = 0
	return total
}

// IsActive reports whether the feature is running.
func (c *Controller) IsActive() bool { return c.active }

// Remaining returns how many free spins are left.
func (c *Controller) Remaining() int { return c.remainingSpins }

// Total returns how many spins this session granted, retriggers included.
func (c *Controller) Total() int { return c.totalSpins }

// Multiplier returns the session multiplier.
func (c *Controller) Multiplier() float64 { return c.multiplier }

// RetriggerCount returns how many retriggers happened this session.
func (c *Controller) RetriggerCount() int { return c.retriggerCount }

// award looks up granted spins for a scatter count, clamped to the table's
// 5-scatter entry.
func (c *Controller) award(scatterCount int) int {
	count := scatterCount
	if count > 5 {
		count = 5
	}
	if spins, ok := c.awards[count]; ok {
		return spins
	}
	// Fall back to the highest defined award.
	best := 0
	for _, spins := range c.awards {
		if spins > best {
			best = spins
		}
	}
	return best
}

// SaveData snapshots the feature for persistence.
func (c *Controller) SaveData() *domain.FreeSpinsSave {
	return &domain.FreeSpinsSave{
		Active:         c.active,
		RemainingSpins: c.remainingSpins,
		TotalSpins:     c.totalSpins,
		AccumulatedWin: c.accumulatedWin,
		Multiplier:     c.multiplier,
		RetriggerCount: c.retriggerCount,
	}
}

// Init restores a persisted snapshot.
func (c *Controller) Init(save *domain.FreeSpinsSave) {
	if save == nil {
		return
	}
	c.active = save.Active
	c.remainingSpins = save.RemainingSpins
	c.totalSpins = save.TotalSpins
	c.accumulatedWin = save.AccumulatedWin
	c.multiplier = save.Multiplier
	if c.multiplier < 1 {
		c.multiplier = 1
	}
	c.retriggerCount = save.RetriggerCount
}

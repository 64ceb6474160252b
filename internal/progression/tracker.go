// Package progression tracks lifetime statistics, XP levels, achievements
// and daily challenges, publishing level.up and achievement.unlocked events
// as milestones are reached.
package progression

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/reelhouse/slotengine/internal/domain"
	"github.com/reelhouse/slotengine/internal/event"
	"github.com/reelhouse/slotengine/internal/logger"
)

// XP awarded per action. Win XP scales with the win-to-bet ratio so big wins
// level faster without letting a single jackpot skip many levels.
const (
	xpPerSpin          = 10
	xpPerWin           = 5
	xpPerFeature       = 50
	xpChallengeReward  = 100
	winXPCap           = 50
	dailyChallengeSize = 3
)

// xpToNext returns the XP needed to advance from the given level.
func xpToNext(level int) int {
	return 100 * level
}

// Achievement is a catalog entry. Unlocks persist as IDs in the save record.
type Achievement struct {
	ID    string
	Title string
}

// catalog is checked in order on every recorded action.
var catalog = []Achievement{
	{ID: "first_spin", Title: "First Pull"},
	{ID: "first_win", Title: "Beginner's Luck"},
	{ID: "big_win", Title: "Big Winner"},
	{ID: "jackpot", Title: "Jackpot!"},
	{ID: "mega_jackpot", Title: "Mega Jackpot"},
	{ID: "cascade_chain", Title: "Chain Reaction"},
	{ID: "century", Title: "Centurion"},
	{ID: "high_roller", Title: "High Roller"},
	{ID: "free_spinner", Title: "Free Spinner"},
	{ID: "bonus_hunter", Title: "Bonus Hunter"},
	{ID: "gambler", Title: "Risk Taker"},
	{ID: "level_ten", Title: "Double Digits"},
}

// SpinOutcome is what the orchestrator reports after every resolved spin.
type SpinOutcome struct {
	Bet          int
	TotalWin     int
	Tier         domain.WinTier
	FreeSpin     bool
	CascadeSteps int
	Features     []string
}

// Tracker owns progression state for one session. Callers serialize access
// per session; the mutex only guards against snapshot-during-record races.
type Tracker struct {
	mu           sync.Mutex
	stats        domain.StatisticsSave
	level        domain.LevelSave
	achievements map[string]bool
	challenges   []domain.ChallengeSave
	bus          event.Bus
	now          func() time.Time
}

// New builds a Tracker at level 1 with today's challenges.
func New(bus event.Bus) *Tracker {
	t := &Tracker{
		level:        domain.LevelSave{Level: 1},
		achievements: make(map[string]bool),
		bus:          bus,
		now:          time.Now,
	}
	t.ensureDailyLocked()
	return t
}

// RecordSpin folds one resolved spin into statistics, XP, achievements and
// daily challenges.
func (t *Tracker) RecordSpin(ctx context.Context, outcome SpinOutcome) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.ensureDailyLocked()

	t.stats.TotalSpins++
	t.stats.TotalWagered += outcome.Bet
	if outcome.TotalWin > 0 {
		t.stats.TotalWins++
		t.stats.TotalWon += outcome.TotalWin
		if outcome.TotalWin > t.stats.BiggestWin {
			t.stats.BiggestWin = outcome.TotalWin
		}
	}
	if outcome.CascadeSteps > 0 {
		t.stats.CascadesTotal += outcome.CascadeSteps
		if outcome.CascadeSteps > t.stats.LongestCascade {
			t.stats.LongestCascade = outcome.CascadeSteps
		}
	}
	if outcome.FreeSpin {
		t.stats.FreeSpinsPlayed++
	}
	for _, feature := range outcome.Features {
		if feature == "bonus_game" {
			t.stats.BonusGames++
		}
	}

	xp := xpPerSpin
	if outcome.TotalWin > 0 && outcome.Bet > 0 {
		winXP := xpPerWin * outcome.TotalWin / outcome.Bet
		if winXP > winXPCap {
			winXP = winXPCap
		}
		xp += winXP
	}
	xp += xpPerFeature * len(outcome.Features)
	xp += t.updateChallengesLocked(ctx, outcome)
	t.addXPLocked(ctx, xp)

	t.checkSpinAchievementsLocked(ctx, outcome)
}

// RecordGamble folds one finished gamble session into statistics.
func (t *Tracker) RecordGamble(ctx context.Context, won bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stats.GamblesPlayed++
	if won {
		t.stats.GamblesWon++
	}
	if t.stats.GamblesWon >= 10 {
		t.unlockLocked(ctx, "gambler")
	}
}

// Snapshot returns the persistable progression block.
func (t *Tracker) Snapshot() domain.ProgressionSave {
	t.mu.Lock()
	defer t.mu.Unlock()

	unlocked := make([]string, 0, len(t.achievements))
	for _, entry := range catalog {
		if t.achievements[entry.ID] {
			unlocked = append(unlocked, entry.ID)
		}
	}
	challenges := make([]domain.ChallengeSave, len(t.challenges))
	copy(challenges, t.challenges)

	return domain.ProgressionSave{
		LevelSystem:     t.level,
		Achievements:    unlocked,
		DailyChallenges: challenges,
		Statistics:      t.stats,
	}
}

// Init restores progression from a save record, replacing current state.
// Challenges from a previous day are regenerated.
func (t *Tracker) Init(data domain.ProgressionSave) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.level = data.LevelSystem
	if t.level.Level < 1 {
		t.level.Level = 1
	}
	t.stats = data.Statistics
	t.achievements = make(map[string]bool, len(data.Achievements))
	for _, id := range data.Achievements {
		t.achievements[id] = true
	}
	t.challenges = make([]domain.ChallengeSave, len(data.DailyChallenges))
	copy(t.challenges, data.DailyChallenges)
	t.ensureDailyLocked()
}

// addXPLocked credits XP and emits level.up for each level crossed.
func (t *Tracker) addXPLocked(ctx context.Context, xp int) {
	t.level.XP += xp
	leveled := false
	for t.level.XP >= xpToNext(t.level.Level) {
		t.level.XP -= xpToNext(t.level.Level)
		t.level.Level++
		leveled = true
	}
	if !leveled {
		return
	}

	t.publishLocked(ctx, event.LevelUp, domain.LevelUpPayload{
		Level: t.level.Level,
		XP:    t.level.XP,
	})
	if t.level.Level >= 10 {
		t.unlockLocked(ctx, "level_ten")
	}
}

func (t *Tracker) checkSpinAchievementsLocked(ctx context.Context, outcome SpinOutcome) {
	t.unlockLocked(ctx, "first_spin")
	if outcome.TotalWin > 0 {
		t.unlockLocked(ctx, "first_win")
	}
	switch outcome.Tier {
	case domain.TierMega:
		t.unlockLocked(ctx, "mega_jackpot")
		fallthrough
	case domain.TierJackpot:
		t.unlockLocked(ctx, "jackpot")
		fallthrough
	case domain.TierBig:
		t.unlockLocked(ctx, "big_win")
	}
	if outcome.CascadeSteps >= 4 {
		t.unlockLocked(ctx, "cascade_chain")
	}
	if t.stats.TotalSpins >= 100 {
		t.unlockLocked(ctx, "century")
	}
	if outcome.Bet >= 50 {
		t.unlockLocked(ctx, "high_roller")
	}
	if t.stats.FreeSpinsPlayed >= 10 {
		t.unlockLocked(ctx, "free_spinner")
	}
	if t.stats.BonusGames >= 3 {
		t.unlockLocked(ctx, "bonus_hunter")
	}
}

// unlockLocked marks an achievement and publishes it once. Unknown IDs are
// unlocked silently without an event, so late catalog removals don't break
// old saves.
func (t *Tracker) unlockLocked(ctx context.Context, id string) {
	if t.achievements[id] {
		return
	}
	t.achievements[id] = true

	for _, entry := range catalog {
		if entry.ID == id {
			t.publishLocked(ctx, event.Achievement, domain.AchievementPayload{
				ID:    entry.ID,
				Title: entry.Title,
			})
			return
		}
	}
}

func (t *Tracker) publishLocked(ctx context.Context, eventType event.Type, payload interface{}) {
	if t.bus == nil {
		return
	}
	if err := t.bus.Publish(ctx, event.New(eventType, payload)); err != nil {
		logger.FromContext(ctx).Warn("failed to publish progression event",
			"type", string(eventType), "error", err)
	}
}

// ensureDailyLocked regenerates the challenge set when the day rolls over.
func (t *Tracker) ensureDailyLocked() {
	day := t.now().UTC().Format("2006-01-02")
	if len(t.challenges) == dailyChallengeSize && t.challenges[0].Day == day {
		return
	}
	t.challenges = []domain.ChallengeSave{
		{ID: "daily_spins", Target: 25, Day: day},
		{ID: "daily_winnings", Target: 200, Day: day},
		{ID: "daily_features", Target: 2, Day: day},
	}
}

// updateChallengesLocked advances challenge progress and returns reward XP
// for challenges completed by this spin.
func (t *Tracker) updateChallengesLocked(ctx context.Context, outcome SpinOutcome) int {
	reward := 0
	for i := range t.challenges {
		c := &t.challenges[i]
		if c.Completed {
			continue
		}
		switch c.ID {
		case "daily_spins":
			c.Progress++
		case "daily_winnings":
			c.Progress += outcome.TotalWin
		case "daily_features":
			c.Progress += len(outcome.Features)
		}
		if c.Progress >= c.Target {
			c.Progress = c.Target
			c.Completed = true
			reward += xpChallengeReward
			logger.FromContext(ctx).Info("daily challenge completed", "challenge", c.ID)
		}
	}
	return reward
}

// Describe returns a human label for a challenge, for the state endpoint.
func Describe(c domain.ChallengeSave) string {
	switch c.ID {
	case "daily_spins":
		return fmt.Sprintf("Spin %d times", c.Target)
	case "daily_winnings":
		return fmt.Sprintf("Win %d credits", c.Target)
	case "daily_features":
		return fmt.Sprintf("Trigger %d features", c.Target)
	default:
		return c.ID
	}
}

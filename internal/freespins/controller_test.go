package freespins

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelhouse/slotengine/internal/domain"
)

var testAwards = map[int]int{3: 10, 4: 15, 5: 20}

var testMultipliers = []float64{2, 3, 5}

// firstMultiplier always samples multipliers[0].
func firstMultiplier(int) int { return 0 }

func newActive(t *testing.T, scatters int) *Controller {
	t.Helper()
	c := New(testAwards, testMultipliers, true, 3, firstMultiplier)
	require.NoError(t, c.Trigger(scatters))
	return c
}

func TestCanTrigger(t *testing.T) {
	c := New(testAwards, testMultipliers, true, 3, firstMultiplier)

	assert.False(t, c.CanTrigger(2))
	assert.True(t, c.CanTrigger(3))
	assert.True(t, c.CanTrigger(5))

	require.NoError(t, c.Trigger(3))
	assert.False(t, c.CanTrigger(3), "already running")
}

func TestTrigger_AwardsByScatterCount(t *testing.T) {
	tests := []struct {
		scatters int
		spins    int
	}{
		{3, 10},
		{4, 15},
		{5, 20},
		{7, 20}, // above the table tops out at the 5-scatter award
	}
	for _, tt := range tests {
		c := newActive(t, tt.scatters)
		assert.Equal(t, tt.spins, c.Remaining(), "scatters=%d", tt.scatters)
		assert.Equal(t, tt.spins, c.Total())
	}
}

func TestTrigger_SamplesSessionMultiplier(t *testing.T) {
	c := newActive(t, 3)
	assert.Equal(t, 2.0, c.Multiplier())
	assert.Equal(t, 200, c.ApplyMultiplier(100))
}

func TestTrigger_Rejections(t *testing.T) {
	c := New(testAwards, testMultipliers, true, 3, firstMultiplier)

	assert.ErrorIs(t, c.Trigger(2), domain.ErrFeatureInactive)

	require.NoError(t, c.Trigger(3))
	assert.ErrorIs(t, c.Trigger(3), domain.ErrFeatureActive)
}

func TestExecuteSpin_CountsDown(t *testing.T) {
	c := newActive(t, 3)

	remaining, err := c.ExecuteSpin()
	require.NoError(t, err)
	assert.Equal(t, 9, remaining)

	for i := 0; i < 9; i++ {
		remaining, err = c.ExecuteSpin()
		require.NoError(t, err)
	}
	assert.Equal(t, 0, remaining)
	assert.True(t, c.IsActive(), "the pipeline ends the feature, not the counter")
}

func TestExecuteSpin_RequiresActive(t *testing.T) {
	c := New(testAwards, testMultipliers, true, 3, firstMultiplier)

	_, err := c.ExecuteSpin()
	assert.ErrorIs(t, err, domain.ErrFeatureInactive)
}

func TestRetrigger_AddsSpins(t *testing.T) {
	c := newActive(t, 3)
	before := c.Multiplier()

	require.NoError(t, c.Retrigger(4))

	assert.Equal(t, 25, c.Remaining())
	assert.Equal(t, 25, c.Total())
	assert.Equal(t, 1, c.RetriggerCount())
	assert.Equal(t, before, c.Multiplier(), "retrigger keeps the session multiplier")
}

func TestRetrigger_IgnoredWhenDisabled(t *testing.T) {
	c := New(testAwards, testMultipliers, false, 3, firstMultiplier)
	require.NoError(t, c.Trigger(3))

	require.NoError(t, c.Retrigger(5))

	assert.Equal(t, 10, c.Remaining())
	assert.Equal(t, 0, c.RetriggerCount())
}

func TestRetrigger_RequiresActive(t *testing.T) {
	c := New(testAwards, testMultipliers, true, 3, firstMultiplier)
	assert.ErrorIs(t, c.Retrigger(3), domain.ErrFeatureInactive)
}

func TestApplyMultiplier_InactivePassesThrough(t *testing.T) {
	c := New(testAwards, testMultipliers, true, 3, firstMultiplier)
	assert.Equal(t, 100, c.ApplyMultiplier(100))
}

func TestEnd_ReturnsAccumulatedWinAndResets(t *testing.T) {
	c := newActive(t, 3)
	c.AddWin(50)
	c.AddWin(30)

	total := c.End()

	assert.Equal(t, 80, total)
	assert.False(t, c.IsActive())
	assert.Equal(t, 0, c.Remaining())
	assert.Equal(t, 1.0, c.Multiplier())
	assert.Equal(t, 0, c.End(), "second end has nothing left to pay")
}

func TestAddWin_OnlyWhileActive(t *testing.T) {
	c := New(testAwards, testMultipliers, true, 3, firstMultiplier)
	c.AddWin(50)
	assert.Equal(t, 0, c.End())
}

func TestSaveData_InitRoundTrip(t *testing.T) {
	c := newActive(t, 4)
	_, err := c.ExecuteSpin()
	require.NoError(t, err)
	c.AddWin(120)

	restored := New(testAwards, testMultipliers, true, 3, firstMultiplier)
	restored.Init(c.SaveData())

	assert.True(t, restored.IsActive())
	assert.Equal(t, 14, restored.Remaining())
	assert.Equal(t, 15, restored.Total())
	assert.Equal(t, 2.0, restored.Multiplier())
	assert.Equal(t, 120, restored.End())
}

func TestInit_RepairsMultiplier(t *testing.T) {
	c := New(testAwards, testMultipliers, true, 3, firstMultiplier)
	c.Init(&domain.FreeSpinsSave{Active: true, RemainingSpins: 3, Multiplier: 0})

	assert.Equal(t, 1.0, c.Multiplier())
}

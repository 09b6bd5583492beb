package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"balans/wellbeing-app/internal/domain"
)

func ex(id, name, category string, tier domain.SlotType, difficulty int, weight float64) domain.Exercise {
	return domain.Exercise{
		ID:           id,
		InternalName: name,
		Category:     category,
		PriorityTier: tier,
		Difficulty:   difficulty,
		IsActive:     true,
		BaseWeight:   weight,
	}
}

func TestCategoryDistributionSumsToTotal(t *testing.T) {
	for _, focus := range []domain.Focus{
		domain.FocusSomatic,
		domain.FocusCognitive,
		domain.FocusBoundaries,
		domain.FocusRest,
		domain.FocusMixed,
	} {
		for _, total := range []int{7, 14, 21, 42, 90} {
			result := CategoryDistribution(focus, total)
			sum := 0
			for _, count := range result {
				sum += count
			}
			assert.Equal(t, total, sum, "focus %s, total %d", focus, total)
		}
	}
}

func TestCategoryDistributionDominantShare(t *testing.T) {
	result := CategoryDistribution(domain.FocusSomatic, 20)
	// 0.8 dominant on 20 slots, remainders also land on the dominant.
	assert.GreaterOrEqual(t, result[string(domain.FocusSomatic)], 16)
}

func TestCategoryDistributionStarvationGuard(t *testing.T) {
	// Two slots round every complement to zero; the guard must move one slot
	// off the dominant category so the plan is not single-category.
	result := CategoryDistribution(domain.FocusSomatic, 2)
	assert.Equal(t, 1, result[string(domain.FocusSomatic)])
	assert.Equal(t, 1, result[string(domain.FocusCognitive)])
}

func TestPickCategoryPrefersDominant(t *testing.T) {
	dist := map[string]int{"somatic": 2, "cognitive": 5}
	assert.Equal(t, "somatic", PickCategory(dist, domain.FocusSomatic))

	dist["somatic"] = 0
	assert.Equal(t, "cognitive", PickCategory(dist, domain.FocusSomatic))

	dist["cognitive"] = 0
	assert.Equal(t, "somatic", PickCategory(dist, domain.FocusSomatic))
}

func TestDifficultyForWeek(t *testing.T) {
	cases := []struct {
		duration domain.Duration
		week     int
		want     int
	}{
		{domain.DurationShort, 1, 1},
		{domain.DurationShort, 2, 2},
		{domain.DurationMedium, 1, 1},
		{domain.DurationMedium, 2, 2},
		{domain.DurationStandard, 3, 3},
		{domain.DurationLong, 1, 1},
		{domain.DurationLong, 2, 2},
		{domain.DurationLong, 3, 2},
		{domain.DurationLong, 4, 3},
		{domain.DurationLong, 5, 1},
		// The wave cycle restarts after the recovery week.
		{domain.DurationLong, 6, 1},
		{domain.DurationLong, 9, 3},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, DifficultyForWeek(c.week, c.duration), "%s week %d", c.duration, c.week)
	}
}

func TestTimeSlotFor(t *testing.T) {
	// User preference wins when it intersects the slot type's table.
	got := TimeSlotFor(domain.SlotCore, []domain.TimeSlot{domain.TimeDay}, nil)
	assert.Equal(t, domain.TimeDay, got)

	// Preference outside the table falls back to the table order.
	got = TimeSlotFor(domain.SlotCore, []domain.TimeSlot{domain.TimeEvening}, nil)
	assert.Equal(t, domain.TimeMorning, got)

	// A slot already used today is skipped.
	got = TimeSlotFor(domain.SlotSupport, nil, []domain.TimeSlot{domain.TimeDay})
	assert.Equal(t, domain.TimeEvening, got)

	// With the whole table used, any unused preference serves.
	got = TimeSlotFor(domain.SlotRest, []domain.TimeSlot{domain.TimeMorning}, []domain.TimeSlot{domain.TimeEvening})
	assert.Equal(t, domain.TimeMorning, got)
}

func TestShouldUseHonoursPolicy(t *testing.T) {
	e := ex("e1", "breathing", "somatic", domain.SlotCore, 1, 1.0)
	e.ImpactAreas = []string{"sleep"}

	params := domain.PlanParameters{}
	assert.True(t, ShouldUse(e, params))

	params.Policy.ForbiddenCategories = []string{"SOMATIC"}
	assert.False(t, ShouldUse(e, params), "category comparison is case-insensitive")

	params.Policy.ForbiddenCategories = nil
	params.Policy.ForbiddenImpactAreas = []string{"sleep"}
	assert.False(t, ShouldUse(e, params))

	e.IsActive = false
	params.Policy.ForbiddenImpactAreas = nil
	assert.False(t, ShouldUse(e, params))
}

func TestFilter(t *testing.T) {
	exercises := []domain.Exercise{
		ex("a", "a", "somatic", domain.SlotCore, 1, 1.0),
		ex("b", "b", "somatic", domain.SlotSupport, 2, 1.0),
		ex("c", "c", "cognitive", domain.SlotCore, 3, 1.0),
	}

	got := Filter(exercises, Criteria{Category: "somatic"})
	assert.Len(t, got, 2)

	got = Filter(exercises, Criteria{PriorityTier: domain.SlotCore, MaxDifficulty: 2})
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)

	got = Filter(exercises, Criteria{MaxDifficulty: 2})
	assert.Len(t, got, 2)
}

func TestSelectWithFallbackPreferredCategory(t *testing.T) {
	candidates := []domain.Exercise{
		ex("a", "a", "somatic", domain.SlotCore, 1, 1.0),
		ex("b", "b", "cognitive", domain.SlotCore, 1, 5.0),
	}

	got := SelectWithFallback(candidates, candidates, "somatic", domain.SlotCore, 1, domain.PlanParameters{}, "")
	require.NotNil(t, got)
	// The preferred category wins even against a heavier exercise elsewhere.
	assert.Equal(t, "a", got.ID)
}

func TestSelectWithFallbackImpactAreaBridge(t *testing.T) {
	somatic := ex("a", "a", "somatic", domain.SlotCore, 3, 1.0)
	somatic.ImpactAreas = []string{"stress"}
	related := ex("b", "b", "cognitive", domain.SlotCore, 1, 1.0)
	related.ImpactAreas = []string{"stress"}
	unrelated := ex("c", "c", "rest", domain.SlotCore, 1, 9.0)
	unrelated.ImpactAreas = []string{"sleep"}

	all := []domain.Exercise{somatic, related, unrelated}

	// Difficulty 1 excludes the somatic exercise itself; the bridge picks the
	// cognitive one sharing its impact area over the heavier unrelated one.
	got := SelectWithFallback(all, all, "somatic", domain.SlotCore, 1, domain.PlanParameters{}, "")
	require.NotNil(t, got)
	assert.Equal(t, "b", got.ID)
}

func TestSelectWithFallbackLastResort(t *testing.T) {
	candidates := []domain.Exercise{
		ex("a", "a", "rest", domain.SlotCore, 1, 1.0),
	}

	got := SelectWithFallback(candidates, candidates, "somatic", domain.SlotCore, 1, domain.PlanParameters{}, "")
	require.NotNil(t, got)
	assert.Equal(t, "a", got.ID)

	// Nothing on the right tier means a nil result, not a wrong-tier pick.
	got = SelectWithFallback(candidates, candidates, "somatic", domain.SlotSupport, 1, domain.PlanParameters{}, "")
	assert.Nil(t, got)
}

func TestLessOrdering(t *testing.T) {
	heavy := ex("a", "zzz", "somatic", domain.SlotCore, 1, 5.0)
	light := ex("b", "aaa", "somatic", domain.SlotCore, 1, 1.0)

	assert.True(t, Less(heavy, light, ""), "weight beats name")
	assert.False(t, Less(light, heavy, ""))

	light.BaseWeight = 5.0
	assert.False(t, Less(heavy, light, ""), "equal weight falls back to internal name")
	assert.True(t, Less(light, heavy, ""))
}

func TestDeterministicChoiceStable(t *testing.T) {
	exercises := []domain.Exercise{
		ex("a", "a", "somatic", domain.SlotCore, 1, 1.0),
		ex("b", "b", "somatic", domain.SlotCore, 1, 1.0),
		ex("c", "c", "somatic", domain.SlotCore, 1, 1.0),
	}

	first := DeterministicChoice(exercises, "user-42:3:1")
	require.NotNil(t, first)
	for i := 0; i < 10; i++ {
		again := DeterministicChoice(exercises, "user-42:3:1")
		require.NotNil(t, again)
		assert.Equal(t, first.ID, again.ID)
	}

	// Without a seed the order is weight, then internal name.
	unseeded := DeterministicChoice(exercises, "")
	require.NotNil(t, unseeded)
	assert.Equal(t, "a", unseeded.ID)
}

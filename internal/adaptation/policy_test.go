package adaptation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"balans/wellbeing-app/internal/domain"
)

func activePlan(load domain.Load) *domain.Plan {
	return &domain.Plan{
		Status:     domain.PlanActive,
		Load:       load,
		Duration:   domain.DurationStandard,
		TotalDays:  21,
		CurrentDay: 3,
	}
}

func historyEntry(intent domain.AdaptationIntent, appliedAt time.Time, rolledBack bool) domain.AdaptationHistory {
	return domain.AdaptationHistory{
		Intent:       intent,
		Category:     intent.Category(),
		AppliedAt:    appliedAt,
		IsRolledBack: rolledBack,
	}
}

func reasonOf(t *testing.T, err error) string {
	t.Helper()
	var notEligible *NotEligibleError
	require.ErrorAs(t, err, &notEligible)
	return notEligible.Reason
}

func TestCheckEligibilityCleanSlate(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	err := CheckEligibility(domain.IntentReduceDailyLoad, activePlan(domain.LoadMid), nil, now)
	assert.NoError(t, err)
}

func TestCheckEligibilityUnknownIntent(t *testing.T) {
	err := CheckEligibility("DO_EVERYTHING", activePlan(domain.LoadMid), nil, time.Now())
	assert.Equal(t, ReasonUnknownIntent, reasonOf(t, err))
}

func TestCheckEligibilityStateShortCircuits(t *testing.T) {
	now := time.Now().UTC()

	err := CheckEligibility(domain.IntentReduceDailyLoad, activePlan(domain.LoadLite), nil, now)
	assert.Equal(t, ReasonAlreadyAtMinimumLoad, reasonOf(t, err))

	err = CheckEligibility(domain.IntentIncreaseDailyLoad, activePlan(domain.LoadIntensive), nil, now)
	assert.Equal(t, ReasonAlreadyAtMaximumLoad, reasonOf(t, err))

	paused := activePlan(domain.LoadMid)
	paused.Status = domain.PlanPaused
	err = CheckEligibility(domain.IntentPausePlan, paused, nil, now)
	assert.Equal(t, ReasonAlreadyPaused, reasonOf(t, err))

	err = CheckEligibility(domain.IntentResumePlan, activePlan(domain.LoadMid), nil, now)
	assert.Equal(t, ReasonNotPaused, reasonOf(t, err))

	short := activePlan(domain.LoadMid)
	short.TotalDays = 7
	err = CheckEligibility(domain.IntentShortenPlanDuration, short, nil, now)
	assert.Equal(t, ReasonAlreadyAtMinimumDuration, reasonOf(t, err))

	long := activePlan(domain.LoadMid)
	long.TotalDays = 90
	err = CheckEligibility(domain.IntentExtendPlanDuration, long, nil, now)
	assert.Equal(t, ReasonAlreadyAtMaximumDuration, reasonOf(t, err))

	abandoned := activePlan(domain.LoadMid)
	abandoned.Status = domain.PlanAbandoned
	err = CheckEligibility(domain.IntentReduceDailyLoad, abandoned, nil, now)
	assert.Equal(t, ReasonPlanNotAdaptable, reasonOf(t, err))
}

func TestCheckEligibilityConflictMatrix(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	plan := activePlan(domain.LoadMid)

	history := []domain.AdaptationHistory{
		historyEntry(domain.IntentReduceDailyLoad, now.Add(-2*time.Hour), false),
	}

	err := CheckEligibility(domain.IntentReduceDailyLoad, plan, history, now)
	assert.Equal(t, "conflicts_with_previous_REDUCE_DAILY_LOAD", reasonOf(t, err))

	// The opposite direction does not conflict with a reduce.
	err = CheckEligibility(domain.IntentIncreaseDailyLoad, plan, history, now)
	assert.NoError(t, err)

	// Duration changes conflict pairwise.
	history = []domain.AdaptationHistory{
		historyEntry(domain.IntentExtendPlanDuration, now.Add(-4*time.Hour), false),
	}
	err = CheckEligibility(domain.IntentShortenPlanDuration, plan, history, now)
	assert.Equal(t, "conflicts_with_previous_EXTEND_PLAN_DURATION", reasonOf(t, err))
}

func TestCheckEligibilityConflictSkipsRolledBack(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	plan := activePlan(domain.LoadMid)

	// The most recent entry is rolled back; the one before it is an unrelated
	// pause, so no conflict fires.
	history := []domain.AdaptationHistory{
		historyEntry(domain.IntentReduceDailyLoad, now.Add(-90*time.Minute), true),
		historyEntry(domain.IntentPausePlan, now.Add(-3*time.Hour), false),
	}
	err := CheckEligibility(domain.IntentReduceDailyLoad, plan, history, now)
	assert.NoError(t, err)
}

func TestCheckEligibilityOnlyLatestEntryConflicts(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	plan := activePlan(domain.LoadMid)

	// A conflicting entry further back is shadowed by a newer unrelated one.
	history := []domain.AdaptationHistory{
		historyEntry(domain.IntentPausePlan, now.Add(-2*time.Hour), false),
		historyEntry(domain.IntentReduceDailyLoad, now.Add(-5*time.Hour), false),
	}
	err := CheckEligibility(domain.IntentReduceDailyLoad, plan, history, now)
	assert.NoError(t, err)
}

func TestCheckEligibilityDailyLimit(t *testing.T) {
	now := time.Date(2025, 6, 10, 18, 0, 0, 0, time.UTC)
	plan := activePlan(domain.LoadMid)

	// Two load adjustments already landed today; the most recent one is a
	// reduce, so an increase clears the conflict matrix but not the daily cap.
	history := []domain.AdaptationHistory{
		historyEntry(domain.IntentReduceDailyLoad, now.Add(-2*time.Hour), false),
		historyEntry(domain.IntentIncreaseDailyLoad, now.Add(-6*time.Hour), false),
	}

	err := CheckEligibility(domain.IntentIncreaseDailyLoad, plan, history, now)
	assert.Equal(t, "daily_limit_reached_2_of_2", reasonOf(t, err))
}

func TestCheckEligibilityLifetimeLimit(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	plan := activePlan(domain.LoadMid)

	// Three duration adjustments on past days exhaust the lifetime budget.
	var history []domain.AdaptationHistory
	for i := 1; i <= 3; i++ {
		history = append(history, historyEntry(domain.IntentExtendPlanDuration, now.AddDate(0, 0, -i*7), false))
	}

	err := CheckEligibility(domain.IntentExtendPlanDuration, plan, history, now)
	assert.Equal(t, "lifetime_limit_reached_3_of_3", reasonOf(t, err))
}

func TestCheckEligibilityCooldown(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	plan := activePlan(domain.LoadMid)

	// One load adjustment 30 minutes ago: under the daily cap but inside the
	// 60-minute cooldown.
	history := []domain.AdaptationHistory{
		historyEntry(domain.IntentIncreaseDailyLoad, now.Add(-30*time.Minute), false),
	}

	err := CheckEligibility(domain.IntentReduceDailyLoad, plan, history, now)
	assert.Equal(t, "cooldown_active_31_minutes_remaining", reasonOf(t, err))

	// Past the cooldown the intent is eligible again.
	err = CheckEligibility(domain.IntentReduceDailyLoad, plan, history, now.Add(31*time.Minute))
	assert.NoError(t, err)
}

func TestCheckEligibilityRolledBackEntriesDoNotCount(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	plan := activePlan(domain.LoadMid)

	history := []domain.AdaptationHistory{
		historyEntry(domain.IntentIncreaseDailyLoad, now.Add(-10*time.Minute), true),
		historyEntry(domain.IntentReduceDailyLoad, now.Add(-5*time.Hour), false),
	}

	err := CheckEligibility(domain.IntentIncreaseDailyLoad, plan, history, now)
	assert.NoError(t, err)
}

func TestRateLimitTable(t *testing.T) {
	cases := map[domain.AdaptationCategory]RateLimit{
		domain.CategoryLoadAdjustment:       {MaxPerDay: 2, MaxLifetime: 10, CooldownMinutes: 60},
		domain.CategoryDifficultyAdjustment: {MaxPerDay: 2, MaxLifetime: 10, CooldownMinutes: 60},
		domain.CategoryDurationAdjustment:   {MaxPerDay: 1, MaxLifetime: 3, CooldownMinutes: 180},
		domain.CategoryExecutionState:       {MaxPerDay: 3, MaxLifetime: 30, CooldownMinutes: 15},
		domain.CategoryFocusChange:          {MaxPerDay: 1, MaxLifetime: 2, CooldownMinutes: 1440},
	}
	for category, want := range cases {
		assert.Equal(t, want, RateLimitFor(category), string(category))
	}
}

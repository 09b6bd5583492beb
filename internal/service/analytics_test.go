package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"balans/wellbeing-app/internal/domain"
)

func entry(intent domain.AdaptationIntent, appliedAt time.Time, rolledBack bool) domain.AdaptationHistory {
	return domain.AdaptationHistory{
		Intent:       intent,
		Category:     intent.Category(),
		AppliedAt:    appliedAt,
		IsRolledBack: rolledBack,
	}
}

func TestComputeAdaptationAnalyticsEmpty(t *testing.T) {
	analytics := ComputeAdaptationAnalytics(nil, time.Now().UTC())

	assert.Zero(t, analytics.Total)
	assert.Empty(t, analytics.ByCategory)
	assert.Empty(t, analytics.MostFrequentIntent)
	assert.Zero(t, analytics.UndoRate)
	assert.Zero(t, analytics.VelocityPerWeek)
}

func TestComputeAdaptationAnalytics(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	history := []domain.AdaptationHistory{
		entry(domain.IntentReduceDailyLoad, now.Add(-1*time.Hour), false),
		entry(domain.IntentReduceDailyLoad, now.AddDate(0, 0, -2), false),
		entry(domain.IntentPausePlan, now.AddDate(0, 0, -5), false),
		entry(domain.IntentIncreaseDailyLoad, now.AddDate(0, 0, -10), true),
		// Outside the 30-day velocity window but inside the totals.
		entry(domain.IntentExtendPlanDuration, now.AddDate(0, 0, -45), false),
	}

	analytics := ComputeAdaptationAnalytics(history, now)

	assert.Equal(t, 4, analytics.Total)
	assert.Equal(t, 2, analytics.ByCategory[domain.CategoryLoadAdjustment])
	assert.Equal(t, 1, analytics.ByCategory[domain.CategoryExecutionState])
	assert.Equal(t, 1, analytics.ByCategory[domain.CategoryDurationAdjustment])
	assert.Equal(t, domain.IntentReduceDailyLoad, analytics.MostFrequentIntent)

	// One of five entries was rolled back.
	assert.InDelta(t, 0.2, analytics.UndoRate, 1e-9)

	// Three applied entries fall inside the 30-day window.
	assert.InDelta(t, 3.0/(30.0/7.0), analytics.VelocityPerWeek, 1e-9)
}

func TestComputeAdaptationAnalyticsTieBreak(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	// One of each: declaration order decides the winner.
	history := []domain.AdaptationHistory{
		entry(domain.IntentPausePlan, now.Add(-1*time.Hour), false),
		entry(domain.IntentReduceDailyLoad, now.Add(-2*time.Hour), false),
	}

	analytics := ComputeAdaptationAnalytics(history, now)
	assert.Equal(t, domain.IntentReduceDailyLoad, analytics.MostFrequentIntent)
}

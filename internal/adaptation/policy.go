// Package adaptation mutates live plans on behalf of user intents: load and
// difficulty adjustments, duration changes, focus changes and pause/resume.
// Policy checks run first and are pure lookups; the engine then applies the
// mutation in memory and reports the affected step ids so the caller can
// persist the plan and sequence delivery side effects after commit.
package adaptation

import (
	"fmt"
	"time"

	"balans/wellbeing-app/internal/domain"
)

// NotEligibleError rejects an adaptation based on current plan state, the
// conflict matrix or a rate limit. Reason is a stable machine-readable string
// consumed by the UI and analytics.
type NotEligibleError struct {
	Intent domain.AdaptationIntent
	Reason string
}

func (e *NotEligibleError) Error() string {
	return fmt.Sprintf("adaptation %s not eligible: %s", e.Intent, e.Reason)
}

func notEligible(intent domain.AdaptationIntent, reason string) error {
	return &NotEligibleError{Intent: intent, Reason: reason}
}

// Stable reason strings for state short-circuits and engine failures.
const (
	ReasonAlreadyAtMinimumLoad     = "already_at_minimum_load"
	ReasonAlreadyAtMaximumLoad     = "already_at_maximum_load"
	ReasonAlreadyPaused            = "already_paused"
	ReasonNotPaused                = "not_paused"
	ReasonPlanNotAdaptable         = "plan_not_adaptable"
	ReasonAlreadyAtMinimumDuration = "already_at_minimum_duration"
	ReasonAlreadyAtMaximumDuration = "already_at_maximum_duration"
	ReasonSlotNotInPlan            = "slot_not_in_plan"
	ReasonNoFutureStepsInSlot      = "no_future_steps_in_slot"
	ReasonSlotMissingOrInvalid     = "slot_missing_or_invalid"
	ReasonNoFutureDays             = "no_future_days_to_add_steps_to"
	ReasonTargetNotCanonical       = "target_days_not_canonical"
	ReasonTargetNotShorter         = "target_not_shorter"
	ReasonTargetNotLonger          = "target_not_longer"
	ReasonCurrentDayBeyondTarget   = "current_day_beyond_target"
	ReasonPlanAlreadyFinished      = "plan_already_finished"
	ReasonFocusUnchanged           = "focus_unchanged"
	ReasonFocusInvalid             = "focus_invalid"
	ReasonNoAdjustableSteps        = "no_adjustable_steps"
	ReasonUnknownIntent            = "unknown_intent"
)

// RateLimit caps one adaptation category.
type RateLimit struct {
	MaxPerDay       int
	MaxLifetime     int
	CooldownMinutes int
}

// rateLimitTable fixes the per-category limits. Counting only considers
// non-rolled-back history entries.
var rateLimitTable = map[domain.AdaptationCategory]RateLimit{
	domain.CategoryLoadAdjustment:       {MaxPerDay: 2, MaxLifetime: 10, CooldownMinutes: 60},
	domain.CategoryDifficultyAdjustment: {MaxPerDay: 2, MaxLifetime: 10, CooldownMinutes: 60},
	domain.CategoryDurationAdjustment:   {MaxPerDay: 1, MaxLifetime: 3, CooldownMinutes: 180},
	domain.CategoryExecutionState:       {MaxPerDay: 3, MaxLifetime: 30, CooldownMinutes: 15},
	domain.CategoryFocusChange:          {MaxPerDay: 1, MaxLifetime: 2, CooldownMinutes: 1440},
}

// RateLimitFor returns the limit configuration of a category.
func RateLimitFor(category domain.AdaptationCategory) RateLimit {
	return rateLimitTable[category]
}

// CheckEligibility gates an intent before it may enter confirmation. Order:
// state short-circuits, then the conflict matrix against the immediately
// preceding applied adaptation, then the per-category rate limits. history
// must be the plan's adaptation history sorted most recent first.
func CheckEligibility(intent domain.AdaptationIntent, plan *domain.Plan, history []domain.AdaptationHistory, now time.Time) error {
	if !intent.Valid() {
		return notEligible(intent, ReasonUnknownIntent)
	}
	if err := checkState(intent, plan); err != nil {
		return err
	}
	if err := checkConflict(intent, history); err != nil {
		return err
	}
	return checkRateLimit(intent, history, now)
}

func checkState(intent domain.AdaptationIntent, plan *domain.Plan) error {
	if plan.Status == domain.PlanAbandoned || plan.Status == domain.PlanCompleted {
		return notEligible(intent, ReasonPlanNotAdaptable)
	}

	switch intent {
	case domain.IntentReduceDailyLoad:
		if plan.Load == domain.LoadLite {
			return notEligible(intent, ReasonAlreadyAtMinimumLoad)
		}
	case domain.IntentIncreaseDailyLoad:
		if plan.Load == domain.LoadIntensive {
			return notEligible(intent, ReasonAlreadyAtMaximumLoad)
		}
	case domain.IntentPausePlan:
		if plan.Status == domain.PlanPaused {
			return notEligible(intent, ReasonAlreadyPaused)
		}
	case domain.IntentResumePlan:
		if plan.Status != domain.PlanPaused {
			return notEligible(intent, ReasonNotPaused)
		}
	case domain.IntentShortenPlanDuration:
		if plan.TotalDays <= domain.DurationShort.TotalDays() {
			return notEligible(intent, ReasonAlreadyAtMinimumDuration)
		}
	case domain.IntentExtendPlanDuration:
		if plan.TotalDays >= domain.DurationLong.TotalDays() {
			return notEligible(intent, ReasonAlreadyAtMaximumDuration)
		}
	}
	return nil
}

func checkConflict(intent domain.AdaptationIntent, history []domain.AdaptationHistory) error {
	for _, entry := range history {
		if entry.IsRolledBack {
			continue
		}
		if intent.ConflictsWith(entry.Intent) {
			return notEligible(intent, fmt.Sprintf("conflicts_with_previous_%s", entry.Intent))
		}
		// Only the immediately preceding applied adaptation participates.
		break
	}
	return nil
}

func checkRateLimit(intent domain.AdaptationIntent, history []domain.AdaptationHistory, now time.Time) error {
	category := intent.Category()
	limit, ok := rateLimitTable[category]
	if !ok {
		return nil
	}

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	var today, lifetime int
	var lastApplied time.Time

	for _, entry := range history {
		if entry.IsRolledBack || entry.Category != category {
			continue
		}
		lifetime++
		if !entry.AppliedAt.Before(dayStart) {
			today++
		}
		if entry.AppliedAt.After(lastApplied) {
			lastApplied = entry.AppliedAt
		}
	}

	if lifetime >= limit.MaxLifetime {
		return notEligible(intent, fmt.Sprintf("lifetime_limit_reached_%d_of_%d", lifetime, limit.MaxLifetime))
	}
	if today >= limit.MaxPerDay {
		return notEligible(intent, fmt.Sprintf("daily_limit_reached_%d_of_%d", today, limit.MaxPerDay))
	}
	if !lastApplied.IsZero() {
		elapsed := now.Sub(lastApplied)
		cooldown := time.Duration(limit.CooldownMinutes) * time.Minute
		if elapsed < cooldown {
			remaining := int((cooldown - elapsed).Minutes()) + 1
			return notEligible(intent, fmt.Sprintf("cooldown_active_%d_minutes_remaining", remaining))
		}
	}
	return nil
}

package planner

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"balans/wellbeing-app/internal/domain"
)

// Catalog is the read-only content view the builder composes from.
type Catalog interface {
	ActiveExercises() []domain.Exercise
	ByID(id string) (domain.Exercise, bool)
}

// compositionVersion is recorded in draft metadata so stored drafts can be
// told apart after rule changes.
const compositionVersion = "mvp_v1"

// BuildDraft composes a complete draft from the three pillars and the
// catalog. Pure and deterministic: identical inputs (including userSeed)
// always yield identical step sequences, so previews are reproducible.
//
// Failure modes: *ThreePillarsError when a pillar is unset,
// *SlotCountError when the user's preferred slots do not match the load
// contract, *InsufficientLibraryError when the catalog cannot fill a slot
// even ignoring cooldowns. Validator findings do not fail the build; they
// are collected on the returned draft.
func BuildDraft(params domain.PlanParameters, catalog Catalog, userSeed string) (*domain.Draft, error) {
	if missing := params.MissingPillars(); len(missing) > 0 {
		return nil, &ThreePillarsError{Missing: missing}
	}

	expectedSlots := params.Load.SlotsPerDay()
	if len(params.Policy.PreferredTimeSlots) != expectedSlots {
		return nil, &SlotCountError{
			Load:     params.Load,
			Expected: expectedSlots,
			Got:      len(params.Policy.PreferredTimeSlots),
		}
	}

	totalDays := params.Duration.TotalDays()
	totalSlots := totalDays * expectedSlots
	distribution := CategoryDistribution(params.Focus, totalSlots)

	available := catalog.ActiveExercises()
	if len(available) == 0 {
		return nil, &InsufficientLibraryError{}
	}

	// Cooldown accumulator: exercise id -> last day used. Owned by this call
	// and discarded with it.
	lastUsed := map[string]int{}
	inCooldown := func(e domain.Exercise, day int) bool {
		last, ok := lastUsed[e.ID]
		if !ok {
			return false
		}
		return day-last <= e.CooldownDays
	}

	steps := make([]domain.DraftStep, 0, totalSlots)

	for day := 1; day <= totalDays; day++ {
		week := ((day - 1) / 7) + 1
		maxDifficulty := DifficultyForWeek(week, params.Duration)
		usedToday := make([]domain.TimeSlot, 0, expectedSlots)

		for slotIndex, slotType := range params.Load.SlotStructure() {
			category := PickCategory(distribution, params.Focus)

			candidates := make([]domain.Exercise, 0, len(available))
			for _, e := range available {
				if !inCooldown(e, day) {
					candidates = append(candidates, e)
				}
			}

			seed := ""
			if userSeed != "" {
				seed = fmt.Sprintf("%s:%d:%d", userSeed, day, slotIndex)
			}

			exercise := SelectWithFallback(candidates, available, category, slotType, maxDifficulty, params, seed)
			if exercise == nil {
				// Retry the full fallback chain ignoring cooldowns, so
				// composition only fails when the catalog itself is too small.
				exercise = SelectWithFallback(available, available, category, slotType, maxDifficulty, params, seed)
			}
			if exercise == nil {
				return nil, &InsufficientLibraryError{Day: day, Slot: slotType}
			}

			timeSlot := TimeSlotFor(slotType, params.Policy.PreferredTimeSlots, usedToday)
			usedToday = append(usedToday, timeSlot)

			steps = append(steps, domain.DraftStep{
				StepID:       fmt.Sprintf("step_%d_%d", day, slotIndex),
				DayNumber:    day,
				ExerciseID:   exercise.ID,
				ExerciseName: exercise.InternalName,
				Category:     exercise.Category,
				ImpactAreas:  exercise.ImpactAreas,
				SlotType:     slotType,
				TimeSlot:     timeSlot,
				Difficulty:   exercise.Difficulty,
				EnergyCost:   exercise.EnergyCost,
			})

			if distribution[category] > 0 {
				distribution[category]--
			}
			lastUsed[exercise.ID] = day
		}
	}

	sourceIDs := make([]string, 0, len(available))
	for _, e := range available {
		sourceIDs = append(sourceIDs, e.ID)
	}

	draft := &domain.Draft{
		ID:              uuid.NewString(),
		Duration:        params.Duration,
		Focus:           params.Focus,
		Load:            params.Load,
		TotalDays:       totalDays,
		Steps:           steps,
		SourceExercises: sourceIDs,
		Status:          domain.DraftPending,
		Metadata: map[string]string{
			"composition_version": compositionVersion,
		},
		CreatedAt: time.Now().UTC(),
	}
	draft.ValidationErrors = ValidateDraft(draft)
	return draft, nil
}

package adaptation

import (
	"fmt"
	"time"

	"balans/wellbeing-app/internal/domain"
	"balans/wellbeing-app/internal/planner"
	"balans/wellbeing-app/internal/schedule"
)

// Result is the outcome of one applied adaptation. Diff is the payload of
// the PlanVersion record the caller appends; the step id lists inside it are
// also the caller's input for post-commit delivery side effects (cancel jobs
// for canceled ids, schedule jobs for added/rescheduled ids).
type Result struct {
	Intent domain.AdaptationIntent
	Diff   domain.VersionDiff

	// NewDraft is set only by ChangeMainCategory: the replacement plan's
	// draft, which the caller activates as a new plan in the same
	// transaction.
	NewDraft *domain.Draft
}

// Engine applies adaptation intents to a plan in memory. It never touches
// persistence; callers own the transaction, the optimistic-concurrency check
// and post-commit scheduling.
type Engine struct {
	catalog planner.Catalog
}

// NewEngine creates an adaptation engine over the content catalog.
func NewEngine(catalog planner.Catalog) *Engine {
	return &Engine{catalog: catalog}
}

func (e *Engine) bump(plan *domain.Plan, now time.Time) {
	plan.AdaptationVersion++
	plan.UpdatedAt = now
}

// ReduceLoad cancels every future step in slotToRemove and steps the plan's
// load contract down one level.
func (e *Engine) ReduceLoad(plan *domain.Plan, slotToRemove domain.TimeSlot, now time.Time) (*Result, error) {
	intent := domain.IntentReduceDailyLoad

	active := plan.ActiveTimeSlots()
	if len(active) <= 1 {
		return nil, notEligible(intent, ReasonAlreadyAtMinimumLoad)
	}
	if !slotToRemove.Valid() || !containsSlot(active, slotToRemove) {
		return nil, notEligible(intent, ReasonSlotNotInPlan)
	}

	var canceled []string
	for _, fs := range plan.FutureSteps(now) {
		if fs.Step.TimeSlot != slotToRemove {
			continue
		}
		fs.Step.CanceledByAdaptation = true
		fs.Step.ScheduledFor = nil
		canceled = append(canceled, fs.Step.ID)
	}
	if len(canceled) == 0 {
		return nil, notEligible(intent, ReasonNoFutureStepsInSlot)
	}

	var remaining []domain.TimeSlot
	for _, slot := range plan.PreferredTimeSlots {
		if slot != slotToRemove {
			remaining = append(remaining, slot)
		}
	}
	plan.PreferredTimeSlots = remaining
	if load, ok := domain.LoadForSlotCount(len(remaining)); ok {
		plan.Load = load
	}
	e.bump(plan, now)

	return &Result{
		Intent: intent,
		Diff: domain.VersionDiff{
			EffectiveFrom:      now,
			CanceledStepIDs:    canceled,
			SlotRemoved:        slotToRemove,
			Load:               plan.Load,
			PreferredTimeSlots: plan.PreferredTimeSlots,
		},
	}, nil
}

// IncreaseLoad adds one step per remaining future day in a new time slot and
// steps the load contract up one level. Going from two slots to three the
// single unused slot is selected automatically; going from one to two the
// caller must name the target slot.
func (e *Engine) IncreaseLoad(plan *domain.Plan, slotToAdd domain.TimeSlot, now time.Time) (*Result, error) {
	intent := domain.IntentIncreaseDailyLoad

	active := plan.ActiveTimeSlots()
	if len(active) >= len(domain.AllTimeSlots()) {
		return nil, notEligible(intent, ReasonAlreadyAtMaximumLoad)
	}

	var unused []domain.TimeSlot
	for _, slot := range domain.AllTimeSlots() {
		if !containsSlot(active, slot) {
			unused = append(unused, slot)
		}
	}

	var target domain.TimeSlot
	switch {
	case len(unused) == 1:
		target = unused[0]
		if slotToAdd != "" && slotToAdd != target {
			return nil, notEligible(intent, ReasonSlotMissingOrInvalid)
		}
	default:
		if !slotToAdd.Valid() || !containsSlot(unused, slotToAdd) {
			return nil, notEligible(intent, ReasonSlotMissingOrInvalid)
		}
		target = slotToAdd
	}

	// Group future steps by day so each remaining day gets exactly one new
	// step and the day's first future step fixes the difficulty ceiling.
	type dayState struct {
		day       *domain.PlanDay
		reference int
		usedIDs   map[string]struct{}
	}
	byDay := map[int]*dayState{}
	var dayOrder []int
	for _, fs := range plan.FutureSteps(now) {
		state, ok := byDay[fs.Day.DayNumber]
		if !ok {
			state = &dayState{day: fs.Day, reference: fs.Step.Difficulty, usedIDs: map[string]struct{}{}}
			byDay[fs.Day.DayNumber] = state
			dayOrder = append(dayOrder, fs.Day.DayNumber)
		}
		state.usedIDs[fs.Step.ExerciseID] = struct{}{}
	}
	if len(dayOrder) == 0 {
		return nil, notEligible(intent, ReasonNoFutureDays)
	}

	// The added step takes the slot type the larger load contract introduces
	// (SUPPORT when going to MID, REST when going to INTENSIVE).
	newSlotType := domain.SlotSupport
	if newLoad, ok := domain.LoadForSlotCount(len(active) + 1); ok {
		structure := newLoad.SlotStructure()
		newSlotType = structure[len(structure)-1]
	}

	activeExercises := e.catalog.ActiveExercises()
	version := plan.AdaptationVersion + 1
	var added []string
	for _, dayNumber := range dayOrder {
		state := byDay[dayNumber]

		var preferred, fallback []domain.Exercise
		for _, ex := range activeExercises {
			if _, used := state.usedIDs[ex.ID]; used {
				continue
			}
			fallback = append(fallback, ex)
			if ex.Category == string(plan.Focus) && ex.Difficulty <= state.reference {
				preferred = append(preferred, ex)
			}
		}
		chosen := planner.DeterministicChoice(preferred, "")
		if chosen == nil {
			chosen = planner.DeterministicChoice(fallback, "")
		}
		if chosen == nil {
			continue
		}

		step := domain.PlanStep{
			ID:         fmt.Sprintf("step_%d_%d_v%d", dayNumber, len(state.day.Steps), version),
			ExerciseID: chosen.ID,
			Title:      chosen.InternalName,
			Category:   chosen.Category,
			SlotType:   newSlotType,
			TimeSlot:   target,
			Difficulty: chosen.Difficulty,
			EnergyCost: chosen.EnergyCost,
			OrderInDay: len(state.day.Steps),
		}
		state.day.Steps = append(state.day.Steps, step)
		added = append(added, step.ID)
	}
	if len(added) == 0 {
		return nil, notEligible(intent, ReasonNoFutureDays)
	}

	plan.PreferredTimeSlots = append(plan.PreferredTimeSlots, target)
	if load, ok := domain.LoadForSlotCount(len(plan.PreferredTimeSlots)); ok {
		plan.Load = load
	}
	e.bump(plan, now)

	return &Result{
		Intent: intent,
		Diff: domain.VersionDiff{
			EffectiveFrom:      now,
			AddedStepIDs:       added,
			SlotAdded:          target,
			Load:               plan.Load,
			PreferredTimeSlots: plan.PreferredTimeSlots,
		},
	}, nil
}

// ShortenDuration cancels every future step beyond the target day and
// shrinks the plan to the target canonical length.
func (e *Engine) ShortenDuration(plan *domain.Plan, targetDays int, now time.Time) (*Result, error) {
	intent := domain.IntentShortenPlanDuration

	duration, ok := domain.DurationForDays(targetDays)
	if !ok {
		return nil, notEligible(intent, ReasonTargetNotCanonical)
	}
	if targetDays >= plan.TotalDays {
		return nil, notEligible(intent, ReasonTargetNotShorter)
	}
	if plan.CurrentDay > targetDays {
		return nil, notEligible(intent, ReasonCurrentDayBeyondTarget)
	}

	var canceled []string
	for _, fs := range plan.FutureSteps(now) {
		if fs.Day.DayNumber <= targetDays {
			continue
		}
		fs.Step.CanceledByAdaptation = true
		fs.Step.ScheduledFor = nil
		canceled = append(canceled, fs.Step.ID)
	}

	oldTotal := plan.TotalDays
	plan.TotalDays = targetDays
	plan.Duration = duration
	end := plan.StartDate.AddDate(0, 0, targetDays)
	plan.EndDate = &end
	e.bump(plan, now)

	return &Result{
		Intent: intent,
		Diff: domain.VersionDiff{
			EffectiveFrom:   now,
			CanceledStepIDs: canceled,
			OldTotalDays:    oldTotal,
			NewTotalDays:    targetDays,
		},
	}, nil
}

// ExtendDuration grows the plan to a longer canonical length by composing a
// fresh draft of the full target length and splicing only its added day
// range onto the plan.
func (e *Engine) ExtendDuration(plan *domain.Plan, targetDays int, policy domain.UserPolicy, seed string, now time.Time) (*Result, error) {
	intent := domain.IntentExtendPlanDuration

	duration, ok := domain.DurationForDays(targetDays)
	if !ok {
		return nil, notEligible(intent, ReasonTargetNotCanonical)
	}
	if targetDays <= plan.TotalDays {
		return nil, notEligible(intent, ReasonTargetNotLonger)
	}
	if plan.CurrentDay >= plan.TotalDays {
		return nil, notEligible(intent, ReasonPlanAlreadyFinished)
	}

	policy.PreferredTimeSlots = plan.PreferredTimeSlots
	draft, err := planner.BuildDraft(domain.PlanParameters{
		Duration: duration,
		Focus:    plan.Focus,
		Load:     plan.Load,
		Policy:   policy,
	}, e.catalog, seed)
	if err != nil {
		return nil, err
	}

	oldTotal := plan.TotalDays
	version := plan.AdaptationVersion + 1
	var added []string
	for day := oldTotal + 1; day <= targetDays; day++ {
		planDay := domain.PlanDay{DayNumber: day}
		for i, ds := range draft.StepsForDay(day) {
			step := domain.PlanStep{
				ID:         fmt.Sprintf("step_%d_%d_v%d", day, i, version),
				ExerciseID: ds.ExerciseID,
				Title:      ds.ExerciseName,
				Category:   ds.Category,
				SlotType:   ds.SlotType,
				TimeSlot:   ds.TimeSlot,
				Difficulty: ds.Difficulty,
				EnergyCost: ds.EnergyCost,
				OrderInDay: i,
			}
			planDay.Steps = append(planDay.Steps, step)
			added = append(added, step.ID)
		}
		plan.Days = append(plan.Days, planDay)
	}

	plan.TotalDays = targetDays
	plan.Duration = duration
	end := plan.StartDate.AddDate(0, 0, targetDays)
	plan.EndDate = &end
	e.bump(plan, now)

	return &Result{
		Intent: intent,
		Diff: domain.VersionDiff{
			EffectiveFrom: now,
			AddedStepIDs:  added,
			OldTotalDays:  oldTotal,
			NewTotalDays:  targetDays,
		},
	}, nil
}

// ChangeMainCategory composes a replacement draft with the new focus but the
// same duration and load, then pauses the current plan and cancels its
// future steps. The draft is built first so a composition failure leaves the
// plan untouched. The caller activates the draft as a new plan and links the
// two through the version record.
func (e *Engine) ChangeMainCategory(plan *domain.Plan, newFocus domain.Focus, policy domain.UserPolicy, seed string, now time.Time) (*Result, error) {
	intent := domain.IntentChangeMainCategory

	if !newFocus.Valid() {
		return nil, notEligible(intent, ReasonFocusInvalid)
	}
	if newFocus == plan.Focus {
		return nil, notEligible(intent, ReasonFocusUnchanged)
	}

	policy.PreferredTimeSlots = plan.PreferredTimeSlots
	draft, err := planner.BuildDraft(domain.PlanParameters{
		Duration: plan.Duration,
		Focus:    newFocus,
		Load:     plan.Load,
		Policy:   policy,
	}, e.catalog, seed)
	if err != nil {
		return nil, err
	}

	var canceled []string
	for _, fs := range plan.FutureSteps(now) {
		fs.Step.CanceledByAdaptation = true
		fs.Step.ScheduledFor = nil
		canceled = append(canceled, fs.Step.ID)
	}
	plan.Status = domain.PlanPaused
	e.bump(plan, now)

	return &Result{
		Intent:   intent,
		NewDraft: draft,
		Diff: domain.VersionDiff{
			EffectiveFrom:   now,
			CanceledStepIDs: canceled,
			Status:          domain.PlanPaused,
		},
	}, nil
}

// Pause retracts scheduling for every future step without canceling them.
func (e *Engine) Pause(plan *domain.Plan, now time.Time) (*Result, error) {
	intent := domain.IntentPausePlan
	if plan.Status == domain.PlanPaused {
		return nil, notEligible(intent, ReasonAlreadyPaused)
	}

	var unscheduled []string
	for _, fs := range plan.FutureSteps(now) {
		if fs.Step.ScheduledFor == nil {
			continue
		}
		fs.Step.ScheduledFor = nil
		unscheduled = append(unscheduled, fs.Step.ID)
	}
	plan.Status = domain.PlanPaused
	e.bump(plan, now)

	return &Result{
		Intent: intent,
		Diff: domain.VersionDiff{
			EffectiveFrom:      now,
			RescheduledStepIDs: unscheduled,
			Status:             domain.PlanPaused,
		},
	}, nil
}

// Resume reactivates a paused plan and recomputes scheduled_for for every
// future step from its day-number anchor using the user's current slot
// times, which may differ from the ones in effect when the step was made.
func (e *Engine) Resume(plan *domain.Plan, timezoneName string, slotTimes map[domain.TimeSlot]string, now time.Time) (*Result, error) {
	intent := domain.IntentResumePlan
	if plan.Status != domain.PlanPaused {
		return nil, notEligible(intent, ReasonNotPaused)
	}

	plan.Status = domain.PlanActive
	rescheduled, err := schedule.RecomputeFutureSteps(plan, timezoneName, slotTimes, now)
	if err != nil {
		return nil, err
	}
	e.bump(plan, now)

	return &Result{
		Intent: intent,
		Diff: domain.VersionDiff{
			EffectiveFrom:      now,
			RescheduledStepIDs: rescheduled,
			Status:             domain.PlanActive,
		},
	}, nil
}

// AdjustDifficulty swaps each future step's exercise for one of the same
// category a difficulty level away in the requested direction. Steps with no
// suitable replacement keep their exercise.
func (e *Engine) AdjustDifficulty(plan *domain.Plan, intent domain.AdaptationIntent, now time.Time) (*Result, error) {
	var delta int
	switch intent {
	case domain.IntentLowerDifficulty:
		delta = -1
	case domain.IntentIncreaseDifficulty:
		delta = 1
	default:
		return nil, notEligible(intent, ReasonUnknownIntent)
	}

	activeExercises := e.catalog.ActiveExercises()
	var modified []string
	for _, fs := range plan.FutureSteps(now) {
		target := fs.Step.Difficulty + delta
		if target < 1 || target > 3 {
			continue
		}
		var candidates []domain.Exercise
		for _, ex := range activeExercises {
			if ex.Category == fs.Step.Category && ex.Difficulty == target && ex.ID != fs.Step.ExerciseID {
				candidates = append(candidates, ex)
			}
		}
		chosen := planner.DeterministicChoice(candidates, "")
		if chosen == nil {
			continue
		}
		fs.Step.ExerciseID = chosen.ID
		fs.Step.Title = chosen.InternalName
		fs.Step.Difficulty = chosen.Difficulty
		fs.Step.EnergyCost = chosen.EnergyCost
		modified = append(modified, fs.Step.ID)
	}
	if len(modified) == 0 {
		return nil, notEligible(intent, ReasonNoAdjustableSteps)
	}
	e.bump(plan, now)

	return &Result{
		Intent: intent,
		Diff: domain.VersionDiff{
			EffectiveFrom:   now,
			ModifiedStepIDs: modified,
		},
	}, nil
}

func containsSlot(slots []domain.TimeSlot, target domain.TimeSlot) bool {
	for _, s := range slots {
		if s == target {
			return true
		}
	}
	return false
}

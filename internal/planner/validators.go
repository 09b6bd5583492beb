package planner

import (
	"fmt"

	"balans/wellbeing-app/internal/domain"
)

// Validator checks one structural property of a composed draft and returns
// coded findings. Findings never abort composition; an empty combined list
// means the draft is valid.
type Validator func(d *domain.Draft) []string

// ValidateDraft runs every registered validator and collects all findings.
func ValidateDraft(d *domain.Draft) []string {
	var findings []string
	for _, v := range draftValidators {
		findings = append(findings, v(d)...)
	}
	return findings
}

var draftValidators = []Validator{
	validateNonEmpty,
	validateDayCount,
	validateTimeSlots,
	validateSlotDistribution,
	validateNoConsecutiveRepeats,
}

func validateNonEmpty(d *domain.Draft) []string {
	if len(d.Steps) == 0 {
		return []string{"EMPTY_PLAN: draft contains no steps"}
	}
	return nil
}

func validateDayCount(d *domain.Draft) []string {
	if !domain.CanonicalDayCount(d.TotalDays) {
		return []string{fmt.Sprintf("INVALID_DAY_COUNT: %d is not a canonical plan length", d.TotalDays)}
	}
	var findings []string
	for _, step := range d.Steps {
		if step.DayNumber < 1 || step.DayNumber > d.TotalDays {
			findings = append(findings, fmt.Sprintf("STEP_OUT_OF_RANGE: %s targets day %d of %d", step.StepID, step.DayNumber, d.TotalDays))
		}
	}
	return findings
}

func validateTimeSlots(d *domain.Draft) []string {
	var findings []string
	for _, step := range d.Steps {
		if !step.TimeSlot.Valid() {
			findings = append(findings, fmt.Sprintf("INVALID_TIME_SLOT: %s has slot %q", step.StepID, step.TimeSlot))
		}
	}
	return findings
}

// validateSlotDistribution checks every day against the load contract: the
// right number of steps, and the slot-type composition the load demands. MID
// days need a CORE and a SUPPORT; INTENSIVE days additionally need an
// EMERGENCY or REST step.
func validateSlotDistribution(d *domain.Draft) []string {
	expected := d.Load.SlotsPerDay()
	if expected == 0 {
		return []string{fmt.Sprintf("INVALID_SLOT_DISTRIBUTION: unknown load %q", d.Load)}
	}

	var findings []string
	for day := 1; day <= d.TotalDays; day++ {
		steps := d.StepsForDay(day)
		if len(steps) != expected {
			findings = append(findings, fmt.Sprintf("INVALID_SLOT_DISTRIBUTION: day %d has %d steps, expected %d", day, len(steps), expected))
			continue
		}

		have := map[domain.SlotType]int{}
		for _, step := range steps {
			have[step.SlotType]++
		}

		switch d.Load {
		case domain.LoadMid:
			if have[domain.SlotCore] == 0 || have[domain.SlotSupport] == 0 {
				findings = append(findings, fmt.Sprintf("INVALID_SLOT_DISTRIBUTION: day %d lacks CORE+SUPPORT composition", day))
			}
		case domain.LoadIntensive:
			if have[domain.SlotCore] == 0 || have[domain.SlotSupport] == 0 {
				findings = append(findings, fmt.Sprintf("INVALID_SLOT_DISTRIBUTION: day %d lacks CORE+SUPPORT composition", day))
			} else if have[domain.SlotEmergency] == 0 && have[domain.SlotRest] == 0 {
				findings = append(findings, fmt.Sprintf("INVALID_SLOT_DISTRIBUTION: day %d lacks an EMERGENCY or REST step", day))
			}
		}
	}
	return findings
}

// validateNoConsecutiveRepeats flags an exercise appearing on two adjacent
// days. Cooldowns should prevent this during composition, so a finding here
// points at catalog cooldown misconfiguration.
func validateNoConsecutiveRepeats(d *domain.Draft) []string {
	byDay := map[int]map[string]struct{}{}
	for _, step := range d.Steps {
		if byDay[step.DayNumber] == nil {
			byDay[step.DayNumber] = map[string]struct{}{}
		}
		byDay[step.DayNumber][step.ExerciseID] = struct{}{}
	}

	var findings []string
	for day := 2; day <= d.TotalDays; day++ {
		for id := range byDay[day] {
			if _, ok := byDay[day-1][id]; ok {
				findings = append(findings, fmt.Sprintf("CONSECUTIVE_REPEAT: exercise %s appears on days %d and %d", id, day-1, day))
			}
		}
	}
	return findings
}

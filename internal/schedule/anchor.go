package schedule

import (
	"time"

	"balans/wellbeing-app/internal/domain"
)

// ResolveAnchor maps a draft plus an activation instant to the UTC instant
// of local midnight on the calendar day the plan's day 1 starts.
//
// Rule: localize the activation instant to the user's timezone and compute
// each distinct day-1 slot's wall-clock instant on the activation date. If
// any of them has already passed, day 1 shifts to tomorrow; otherwise day 1
// is today.
func ResolveAnchor(draft *domain.Draft, activationUTC time.Time, timezoneName string, slotTimes map[domain.TimeSlot]string) (time.Time, error) {
	loc := LoadLocation(timezoneName)
	local := activationUTC.In(loc)

	shift := 0
	for _, step := range draft.StepsForDay(1) {
		if !step.TimeSlot.Valid() {
			return time.Time{}, ErrInvalidTimeSlot
		}
		instant, err := slotInstantOn(local, step.TimeSlot, slotTimes, loc)
		if err != nil {
			return time.Time{}, err
		}
		if !instant.After(local) {
			shift = 1
			break
		}
	}

	anchorDate := local.AddDate(0, 0, shift)
	anchor := localize(anchorDate.Year(), anchorDate.Month(), anchorDate.Day(), 0, 0, loc)
	return anchor.UTC(), nil
}

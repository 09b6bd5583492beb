// Package schedule resolves calendar anchors and per-step delivery instants
// for plans. All computation is timezone-aware and deterministic; the engine
// never talks to the delivery transport itself.
package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"balans/wellbeing-app/internal/domain"
)

var (
	ErrInvalidTimeFormat = errors.New("invalid time format, expected HH:MM")
	ErrInvalidTimeRange  = errors.New("time out of range")
	ErrInvalidTimeSlot   = errors.New("invalid time slot")
	ErrMissingTimeSlot   = errors.New("daily time slots must cover MORNING, DAY and EVENING")
)

// DefaultSlotTimes are the fixed wall-clock delivery times per time slot,
// used when a user has no overrides.
var DefaultSlotTimes = map[domain.TimeSlot]string{
	domain.TimeMorning: "09:30",
	domain.TimeDay:     "14:00",
	domain.TimeEvening: "21:00",
}

// ParseClock parses an "HH:MM" wall-clock value.
func ParseClock(value string) (hour, minute int, err error) {
	parts := strings.SplitN(strings.TrimSpace(value), ":", 2)
	if len(parts) != 2 {
		return 0, 0, ErrInvalidTimeFormat
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, ErrInvalidTimeFormat
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, ErrInvalidTimeFormat
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, ErrInvalidTimeRange
	}
	return hour, minute, nil
}

// NormalizeSlotTimes validates per-slot clock overrides and fills gaps from
// the defaults. With requireAll set, every slot must be present in raw.
func NormalizeSlotTimes(raw map[domain.TimeSlot]string, requireAll bool) (map[domain.TimeSlot]string, error) {
	normalized := make(map[domain.TimeSlot]string, len(DefaultSlotTimes))
	for slot, value := range raw {
		if !slot.Valid() {
			return nil, ErrInvalidTimeSlot
		}
		hour, minute, err := ParseClock(value)
		if err != nil {
			return nil, err
		}
		normalized[slot] = fmt.Sprintf("%02d:%02d", hour, minute)
	}
	for _, slot := range domain.AllTimeSlots() {
		if _, ok := normalized[slot]; !ok {
			if requireAll {
				return nil, ErrMissingTimeSlot
			}
			normalized[slot] = DefaultSlotTimes[slot]
		}
	}
	return normalized, nil
}

// LoadLocation resolves an IANA timezone name, falling back to UTC for empty
// or unknown names.
func LoadLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// localize builds the instant for a wall-clock time on a calendar date in
// loc. A nonexistent time (spring-forward gap) is shifted forward by one
// hour; an ambiguous time (fall-back) resolves to the post-transition
// standard-time instant.
func localize(year int, month time.Month, day, hour, minute int, loc *time.Location) time.Time {
	t := time.Date(year, month, day, hour, minute, 0, 0, loc)
	if alt := t.Add(time.Hour); alt.Year() == year && alt.Month() == month &&
		alt.Day() == day && alt.Hour() == hour && alt.Minute() == minute {
		return alt
	}
	return t
}

// slotInstantOn computes the slot's instant on the given local calendar date.
func slotInstantOn(date time.Time, slot domain.TimeSlot, slotTimes map[domain.TimeSlot]string, loc *time.Location) (time.Time, error) {
	clock, ok := slotTimes[slot]
	if !ok {
		return time.Time{}, ErrInvalidTimeSlot
	}
	hour, minute, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return localize(date.Year(), date.Month(), date.Day(), hour, minute, loc), nil
}

// ComputeScheduledFor returns the UTC delivery instant of a step: the slot's
// wall-clock time on the anchor date advanced by dayNumber-1 calendar days.
func ComputeScheduledFor(anchorUTC time.Time, dayNumber int, slot domain.TimeSlot, timezoneName string, slotTimes map[domain.TimeSlot]string) (time.Time, error) {
	if dayNumber < 1 {
		return time.Time{}, fmt.Errorf("invalid day number %d", dayNumber)
	}
	loc := LoadLocation(timezoneName)
	target := anchorUTC.In(loc).AddDate(0, 0, dayNumber-1)
	instant, err := slotInstantOn(target, slot, slotTimes, loc)
	if err != nil {
		return time.Time{}, err
	}
	return instant.UTC(), nil
}

// stepDate resolves the local calendar date a step belongs to: the local
// date of its current scheduled_for when set, otherwise the plan start date
// advanced by the day offset.
func stepDate(plan *domain.Plan, day *domain.PlanDay, step *domain.PlanStep, loc *time.Location) time.Time {
	if step.ScheduledFor != nil {
		return step.ScheduledFor.In(loc)
	}
	offset := day.DayNumber - 1
	if offset < 0 {
		offset = 0
	}
	return plan.StartDate.In(loc).AddDate(0, 0, offset)
}

// RecomputeFutureSteps rewrites scheduled_for on every future step of the
// plan from its day anchor and the given slot times, and returns the ids of
// the steps that were rescheduled. The caller persists the plan and forwards
// the ids to the delivery scheduler after commit.
func RecomputeFutureSteps(plan *domain.Plan, timezoneName string, slotTimes map[domain.TimeSlot]string, effectiveFrom time.Time) ([]string, error) {
	loc := LoadLocation(timezoneName)
	var updated []string
	for _, fs := range plan.FutureSteps(effectiveFrom) {
		if !fs.Step.TimeSlot.Valid() {
			return nil, ErrInvalidTimeSlot
		}
		date := stepDate(plan, fs.Day, fs.Step, loc)
		instant, err := slotInstantOn(date, fs.Step.TimeSlot, slotTimes, loc)
		if err != nil {
			return nil, err
		}
		utc := instant.UTC()
		fs.Step.ScheduledFor = &utc
		updated = append(updated, fs.Step.ID)
	}
	return updated, nil
}

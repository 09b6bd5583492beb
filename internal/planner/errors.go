package planner

import (
	"fmt"
	"strings"

	"balans/wellbeing-app/internal/domain"
)

// ThreePillarsError reports which of duration/focus/load are unset. It is a
// recoverable validation failure: the caller asks the user for the missing
// pillars instead of aborting.
type ThreePillarsError struct {
	Missing []string
}

func (e *ThreePillarsError) Error() string {
	return "three pillars incomplete: missing " + strings.Join(e.Missing, ", ")
}

// SlotCountError reports a mismatch between the user's preferred time slots
// and the slot count the load contract demands.
type SlotCountError struct {
	Load     domain.Load
	Expected int
	Got      int
}

func (e *SlotCountError) Error() string {
	return fmt.Sprintf("expected %d preferred time slots for load %s, got %d", e.Expected, e.Load, e.Got)
}

// InsufficientLibraryError means the content catalog cannot fill a slot even
// after every fallback stage, including ignoring cooldowns.
type InsufficientLibraryError struct {
	Day  int
	Slot domain.SlotType
}

func (e *InsufficientLibraryError) Error() string {
	if e.Day == 0 {
		return "content catalog has no active exercises"
	}
	return fmt.Sprintf("no exercise found for day %d, slot %s", e.Day, e.Slot)
}

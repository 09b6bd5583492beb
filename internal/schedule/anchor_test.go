package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"balans/wellbeing-app/internal/domain"
)

func draftWithDayOneSlots(slots ...domain.TimeSlot) *domain.Draft {
	d := &domain.Draft{TotalDays: 7}
	for i, slot := range slots {
		d.Steps = append(d.Steps, domain.DraftStep{
			StepID:    "step",
			DayNumber: 1,
			SlotType:  domain.SlotCore,
			TimeSlot:  slot,
			ExerciseID: "e" + string(rune('0'+i)),
		})
	}
	return d
}

func TestResolveAnchorToday(t *testing.T) {
	draft := draftWithDayOneSlots(domain.TimeEvening)

	// 10:00 local, evening slot at 21:00 still ahead: day 1 is today.
	activation := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC) // 10:00 CEST
	anchor, err := ResolveAnchor(draft, activation, "Europe/Berlin", DefaultSlotTimes)
	require.NoError(t, err)

	// Local midnight 2025-06-02 CEST is 22:00 UTC the day before.
	assert.Equal(t, time.Date(2025, 6, 1, 22, 0, 0, 0, time.UTC), anchor)
}

func TestResolveAnchorTomorrow(t *testing.T) {
	draft := draftWithDayOneSlots(domain.TimeEvening)

	// 22:00 local, evening slot at 21:00 already passed: day 1 shifts.
	activation := time.Date(2025, 6, 2, 20, 0, 0, 0, time.UTC) // 22:00 CEST
	anchor, err := ResolveAnchor(draft, activation, "Europe/Berlin", DefaultSlotTimes)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, 6, 2, 22, 0, 0, 0, time.UTC), anchor)
}

func TestResolveAnchorAnyPassedSlotShifts(t *testing.T) {
	draft := draftWithDayOneSlots(domain.TimeMorning, domain.TimeEvening)

	// 12:00 local: the morning slot already passed even though evening has
	// not, so the whole day shifts.
	activation := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	anchor, err := ResolveAnchor(draft, activation, "Europe/Berlin", DefaultSlotTimes)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, 6, 2, 22, 0, 0, 0, time.UTC), anchor)
}

func TestResolveAnchorUTCFallback(t *testing.T) {
	draft := draftWithDayOneSlots(domain.TimeMorning)

	activation := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	anchor, err := ResolveAnchor(draft, activation, "", DefaultSlotTimes)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), anchor)
}

func TestResolveAnchorInvalidSlot(t *testing.T) {
	draft := draftWithDayOneSlots("MIDNIGHT")

	_, err := ResolveAnchor(draft, time.Now().UTC(), "UTC", DefaultSlotTimes)
	assert.ErrorIs(t, err, ErrInvalidTimeSlot)
}

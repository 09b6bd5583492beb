package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"balans/wellbeing-app/internal/domain"
)

func TestParseClock(t *testing.T) {
	hour, minute, err := ParseClock("09:30")
	require.NoError(t, err)
	assert.Equal(t, 9, hour)
	assert.Equal(t, 30, minute)

	hour, minute, err = ParseClock(" 23:59 ")
	require.NoError(t, err)
	assert.Equal(t, 23, hour)
	assert.Equal(t, 59, minute)

	_, _, err = ParseClock("930")
	assert.ErrorIs(t, err, ErrInvalidTimeFormat)

	_, _, err = ParseClock("ab:cd")
	assert.ErrorIs(t, err, ErrInvalidTimeFormat)

	_, _, err = ParseClock("24:00")
	assert.ErrorIs(t, err, ErrInvalidTimeRange)

	_, _, err = ParseClock("12:60")
	assert.ErrorIs(t, err, ErrInvalidTimeRange)
}

func TestNormalizeSlotTimesFillsDefaults(t *testing.T) {
	normalized, err := NormalizeSlotTimes(map[domain.TimeSlot]string{
		domain.TimeMorning: "7:15",
	}, false)
	require.NoError(t, err)

	assert.Equal(t, "07:15", normalized[domain.TimeMorning])
	assert.Equal(t, DefaultSlotTimes[domain.TimeDay], normalized[domain.TimeDay])
	assert.Equal(t, DefaultSlotTimes[domain.TimeEvening], normalized[domain.TimeEvening])
}

func TestNormalizeSlotTimesRequireAll(t *testing.T) {
	_, err := NormalizeSlotTimes(map[domain.TimeSlot]string{
		domain.TimeMorning: "08:00",
	}, true)
	assert.ErrorIs(t, err, ErrMissingTimeSlot)
}

func TestNormalizeSlotTimesRejectsBadInput(t *testing.T) {
	_, err := NormalizeSlotTimes(map[domain.TimeSlot]string{"NIGHT": "03:00"}, false)
	assert.ErrorIs(t, err, ErrInvalidTimeSlot)

	_, err = NormalizeSlotTimes(map[domain.TimeSlot]string{domain.TimeDay: "25:00"}, false)
	assert.ErrorIs(t, err, ErrInvalidTimeRange)
}

func TestLoadLocationFallsBackToUTC(t *testing.T) {
	assert.Equal(t, time.UTC, LoadLocation(""))
	assert.Equal(t, time.UTC, LoadLocation("Not/AZone"))
	assert.Equal(t, "Europe/Berlin", LoadLocation("Europe/Berlin").String())
}

func TestComputeScheduledFor(t *testing.T) {
	// Anchor: local midnight of 2025-06-02 in Berlin (UTC+2 in summer).
	anchor := time.Date(2025, 6, 1, 22, 0, 0, 0, time.UTC)

	got, err := ComputeScheduledFor(anchor, 1, domain.TimeMorning, "Europe/Berlin", DefaultSlotTimes)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 2, 7, 30, 0, 0, time.UTC), got)

	// Day 3 advances two calendar days.
	got, err = ComputeScheduledFor(anchor, 3, domain.TimeEvening, "Europe/Berlin", DefaultSlotTimes)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 4, 19, 0, 0, 0, time.UTC), got)

	_, err = ComputeScheduledFor(anchor, 0, domain.TimeMorning, "Europe/Berlin", DefaultSlotTimes)
	assert.Error(t, err)
}

func TestComputeScheduledForSpringForwardGap(t *testing.T) {
	// Berlin springs forward on 2025-03-30: 02:00-03:00 does not exist.
	// A 02:30 slot shifts forward one hour to 03:30 local (01:30 UTC).
	anchor := time.Date(2025, 3, 29, 23, 0, 0, 0, time.UTC)
	slotTimes := map[domain.TimeSlot]string{domain.TimeMorning: "02:30"}

	got, err := ComputeScheduledFor(anchor, 1, domain.TimeMorning, "Europe/Berlin", slotTimes)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 30, 1, 30, 0, 0, time.UTC), got)
}

func TestComputeScheduledForFallBackAmbiguity(t *testing.T) {
	// Berlin falls back on 2025-10-26: 02:30 occurs twice. The post-transition
	// standard-time instant (01:30 UTC) wins.
	anchor := time.Date(2025, 10, 25, 22, 0, 0, 0, time.UTC)
	slotTimes := map[domain.TimeSlot]string{domain.TimeMorning: "02:30"}

	got, err := ComputeScheduledFor(anchor, 1, domain.TimeMorning, "Europe/Berlin", slotTimes)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 10, 26, 1, 30, 0, 0, time.UTC), got)
}

func TestRecomputeFutureSteps(t *testing.T) {
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	old := time.Date(2025, 6, 3, 7, 30, 0, 0, time.UTC)
	done := time.Date(2025, 6, 2, 7, 30, 0, 0, time.UTC)

	plan := &domain.Plan{
		StartDate: start,
		Days: []domain.PlanDay{
			{DayNumber: 1, Steps: []domain.PlanStep{
				{ID: "s1", TimeSlot: domain.TimeMorning, IsCompleted: true, ScheduledFor: &done},
			}},
			{DayNumber: 2, Steps: []domain.PlanStep{
				{ID: "s2", TimeSlot: domain.TimeMorning, ScheduledFor: &old},
				{ID: "s3", TimeSlot: domain.TimeMorning, CanceledByAdaptation: true},
			}},
		},
	}

	slotTimes := map[domain.TimeSlot]string{
		domain.TimeMorning: "10:00",
		domain.TimeDay:     "14:00",
		domain.TimeEvening: "21:00",
	}
	effectiveFrom := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

	updated, err := RecomputeFutureSteps(plan, "UTC", slotTimes, effectiveFrom)
	require.NoError(t, err)

	// Only the pending future step moves; terminal and canceled are left alone.
	assert.Equal(t, []string{"s2"}, updated)
	require.NotNil(t, plan.Days[1].Steps[0].ScheduledFor)
	assert.Equal(t, time.Date(2025, 6, 3, 10, 0, 0, 0, time.UTC), *plan.Days[1].Steps[0].ScheduledFor)
	assert.Equal(t, done, *plan.Days[0].Steps[0].ScheduledFor)
	assert.Nil(t, plan.Days[1].Steps[1].ScheduledFor)
}

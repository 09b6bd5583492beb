package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnumTables(t *testing.T) {
	assert.Equal(t, 7, DurationShort.TotalDays())
	assert.Equal(t, 14, DurationMedium.TotalDays())
	assert.Equal(t, 21, DurationStandard.TotalDays())
	assert.Equal(t, 90, DurationLong.TotalDays())

	assert.Equal(t, []SlotType{SlotCore}, LoadLite.SlotStructure())
	assert.Equal(t, []SlotType{SlotCore, SlotSupport}, LoadMid.SlotStructure())
	assert.Equal(t, []SlotType{SlotCore, SlotSupport, SlotRest}, LoadIntensive.SlotStructure())

	load, ok := LoadForSlotCount(2)
	require.True(t, ok)
	assert.Equal(t, LoadMid, load)
	_, ok = LoadForSlotCount(4)
	assert.False(t, ok)

	duration, ok := DurationForDays(21)
	require.True(t, ok)
	assert.Equal(t, DurationStandard, duration)
	assert.True(t, CanonicalDayCount(90))
	assert.False(t, CanonicalDayCount(30))
}

func TestFocusDistributionsSumToOne(t *testing.T) {
	for _, focus := range []Focus{FocusSomatic, FocusCognitive, FocusBoundaries, FocusRest, FocusMixed} {
		dist := focus.Distribution()
		sum := dist.Dominant
		for _, share := range dist.Complementary {
			sum += share.Ratio
		}
		assert.InDelta(t, 1.0, sum, 1e-9, string(focus))
	}
}

func TestPlanFutureSteps(t *testing.T) {
	now := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	past := now.Add(-2 * time.Hour)
	future := now.Add(9 * time.Hour)

	plan := &Plan{
		StartDate: now.AddDate(0, 0, -2),
		Days: []PlanDay{
			{DayNumber: 1, Steps: []PlanStep{
				{ID: "done", IsCompleted: true, ScheduledFor: &future},
				{ID: "skipped", Skipped: true, ScheduledFor: &future},
			}},
			{DayNumber: 2, Steps: []PlanStep{
				{ID: "past", ScheduledFor: &past},
				{ID: "canceled", CanceledByAdaptation: true, ScheduledFor: &future},
				{ID: "pending", ScheduledFor: &future},
			}},
			{DayNumber: 3, Steps: []PlanStep{
				// No scheduled_for: the anchor is start date + day offset.
				{ID: "unscheduled"},
			}},
		},
	}

	var ids []string
	for _, fs := range plan.FutureSteps(now) {
		ids = append(ids, fs.Step.ID)
	}
	assert.Equal(t, []string{"pending", "unscheduled"}, ids)
}

func TestPlanActiveTimeSlots(t *testing.T) {
	plan := &Plan{
		Days: []PlanDay{
			{DayNumber: 1, Steps: []PlanStep{
				{ID: "a", TimeSlot: TimeEvening},
				{ID: "b", TimeSlot: TimeMorning, CanceledByAdaptation: true},
			}},
			{DayNumber: 2, Steps: []PlanStep{
				{ID: "c", TimeSlot: TimeDay, IsCompleted: true},
				{ID: "d", TimeSlot: TimeEvening},
			}},
		},
	}

	// Only EVENING carries live steps; the result follows day order.
	assert.Equal(t, []TimeSlot{TimeEvening}, plan.ActiveTimeSlots())
}

func TestPlanLookups(t *testing.T) {
	plan := &Plan{
		Days: []PlanDay{
			{DayNumber: 1, Steps: []PlanStep{{ID: "a"}}},
			{DayNumber: 2, Steps: []PlanStep{{ID: "b"}}},
		},
	}

	require.NotNil(t, plan.Day(2))
	assert.Nil(t, plan.Day(9))

	step := plan.FindStep("b")
	require.NotNil(t, step)
	assert.Equal(t, "b", step.ID)
	assert.Nil(t, plan.FindStep("zzz"))
}

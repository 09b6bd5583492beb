package planner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"balans/wellbeing-app/internal/domain"
)

func liteDraft(days int) *domain.Draft {
	d := &domain.Draft{
		Duration:  domain.DurationShort,
		Focus:     domain.FocusSomatic,
		Load:      domain.LoadLite,
		TotalDays: days,
	}
	for day := 1; day <= days; day++ {
		id := "a"
		if day%2 == 0 {
			id = "b"
		}
		d.Steps = append(d.Steps, domain.DraftStep{
			StepID:     "step",
			DayNumber:  day,
			ExerciseID: id,
			SlotType:   domain.SlotCore,
			TimeSlot:   domain.TimeMorning,
		})
	}
	return d
}

func TestValidateDraftClean(t *testing.T) {
	assert.Empty(t, ValidateDraft(liteDraft(7)))
}

func TestValidateDraftEmpty(t *testing.T) {
	d := liteDraft(7)
	d.Steps = nil

	findings := ValidateDraft(d)
	require.NotEmpty(t, findings)
	assert.Contains(t, findings[0], "EMPTY_PLAN")
}

func TestValidateDraftDayCount(t *testing.T) {
	d := liteDraft(7)
	d.TotalDays = 10

	findings := ValidateDraft(d)
	require.NotEmpty(t, findings)
	assert.Contains(t, findings[0], "INVALID_DAY_COUNT")
}

func TestValidateDraftStepOutOfRange(t *testing.T) {
	d := liteDraft(7)
	d.Steps[0].DayNumber = 9

	found := false
	for _, finding := range ValidateDraft(d) {
		if strings.HasPrefix(finding, "STEP_OUT_OF_RANGE") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidateDraftInvalidTimeSlot(t *testing.T) {
	d := liteDraft(7)
	d.Steps[2].TimeSlot = "MIDNIGHT"

	findings := ValidateDraft(d)
	require.NotEmpty(t, findings)
	assert.Contains(t, findings[0], "INVALID_TIME_SLOT")
}

func TestValidateDraftSlotDistribution(t *testing.T) {
	d := liteDraft(7)
	d.Load = domain.LoadMid

	findings := ValidateDraft(d)
	require.NotEmpty(t, findings)
	assert.Contains(t, findings[0], "INVALID_SLOT_DISTRIBUTION")
}

func TestValidateDraftMidComposition(t *testing.T) {
	d := &domain.Draft{
		Duration:  domain.DurationShort,
		Focus:     domain.FocusSomatic,
		Load:      domain.LoadMid,
		TotalDays: 7,
	}
	for day := 1; day <= 7; day++ {
		// Two CORE steps instead of CORE+SUPPORT.
		for i := 0; i < 2; i++ {
			d.Steps = append(d.Steps, domain.DraftStep{
				StepID:     "step",
				DayNumber:  day,
				ExerciseID: "a" + string(rune('0'+i+day%2*2)),
				SlotType:   domain.SlotCore,
				TimeSlot:   domain.AllTimeSlots()[i],
			})
		}
	}

	findings := ValidateDraft(d)
	require.NotEmpty(t, findings)
	assert.Contains(t, findings[0], "lacks CORE+SUPPORT")
}

func TestValidateDraftConsecutiveRepeat(t *testing.T) {
	d := liteDraft(7)
	d.Steps[1].ExerciseID = d.Steps[0].ExerciseID

	findings := ValidateDraft(d)
	require.NotEmpty(t, findings)
	assert.Contains(t, findings[0], "CONSECUTIVE_REPEAT")
}

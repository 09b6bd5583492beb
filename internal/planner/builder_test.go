package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"balans/wellbeing-app/internal/domain"
)

type fixtureCatalog struct {
	exercises []domain.Exercise
}

func (c fixtureCatalog) ActiveExercises() []domain.Exercise {
	var out []domain.Exercise
	for _, e := range c.exercises {
		if e.IsActive {
			out = append(out, e)
		}
	}
	return out
}

func (c fixtureCatalog) ByID(id string) (domain.Exercise, bool) {
	for _, e := range c.exercises {
		if e.ID == id {
			return e, true
		}
	}
	return domain.Exercise{}, false
}

// testCatalog carries enough variety to fill every slot type across
// categories, with cooldowns that force rotation.
func testCatalog() fixtureCatalog {
	tiers := []domain.SlotType{domain.SlotCore, domain.SlotSupport, domain.SlotRest, domain.SlotEmergency}
	categories := []string{"somatic", "cognitive", "boundaries", "rest"}

	var exercises []domain.Exercise
	for _, tier := range tiers {
		for _, category := range categories {
			for i := 0; i < 3; i++ {
				id := string(tier) + "-" + category + "-" + string(rune('a'+i))
				e := ex(id, id, category, tier, 1+i%2, 1.0)
				e.CooldownDays = 1
				e.ImpactAreas = []string{"stress"}
				exercises = append(exercises, e)
			}
		}
	}
	return fixtureCatalog{exercises: exercises}
}

func midParams() domain.PlanParameters {
	return domain.PlanParameters{
		Duration: domain.DurationMedium,
		Focus:    domain.FocusSomatic,
		Load:     domain.LoadMid,
		Policy: domain.UserPolicy{
			PreferredTimeSlots: []domain.TimeSlot{domain.TimeMorning, domain.TimeEvening},
		},
	}
}

func TestBuildDraftDeterministic(t *testing.T) {
	catalog := testCatalog()
	params := midParams()

	first, err := BuildDraft(params, catalog, "user-42")
	require.NoError(t, err)
	second, err := BuildDraft(params, catalog, "user-42")
	require.NoError(t, err)

	assert.Equal(t, first.Steps, second.Steps, "same pillars and seed must reproduce the draft exactly")
}

func TestBuildDraftSlotContract(t *testing.T) {
	catalog := testCatalog()

	cases := []struct {
		load    domain.Load
		slots   []domain.TimeSlot
		perDay  int
		needs   []domain.SlotType
	}{
		{domain.LoadLite, []domain.TimeSlot{domain.TimeMorning}, 1, []domain.SlotType{domain.SlotCore}},
		{domain.LoadMid, []domain.TimeSlot{domain.TimeMorning, domain.TimeEvening}, 2, []domain.SlotType{domain.SlotCore, domain.SlotSupport}},
		{domain.LoadIntensive, []domain.TimeSlot{domain.TimeMorning, domain.TimeDay, domain.TimeEvening}, 3, []domain.SlotType{domain.SlotCore, domain.SlotSupport, domain.SlotRest}},
	}

	for _, c := range cases {
		params := domain.PlanParameters{
			Duration: domain.DurationShort,
			Focus:    domain.FocusSomatic,
			Load:     c.load,
			Policy:   domain.UserPolicy{PreferredTimeSlots: c.slots},
		}

		draft, err := BuildDraft(params, catalog, "")
		require.NoError(t, err, "load %s", c.load)
		assert.Equal(t, 7, draft.TotalDays)
		assert.Len(t, draft.Steps, 7*c.perDay)
		assert.True(t, draft.IsValid(), "load %s: %v", c.load, draft.ValidationErrors)

		for day := 1; day <= draft.TotalDays; day++ {
			steps := draft.StepsForDay(day)
			require.Len(t, steps, c.perDay, "load %s day %d", c.load, day)
			for i, want := range c.needs {
				assert.Equal(t, want, steps[i].SlotType, "load %s day %d slot %d", c.load, day, i)
			}
		}
	}
}

func TestBuildDraftNoConsecutiveRepeats(t *testing.T) {
	catalog := testCatalog()
	params := midParams()

	draft, err := BuildDraft(params, catalog, "user-7")
	require.NoError(t, err)

	for _, finding := range draft.ValidationErrors {
		assert.NotContains(t, finding, "CONSECUTIVE_REPEAT")
	}
}

func TestBuildDraftDifficultyCeiling(t *testing.T) {
	catalog := testCatalog()
	params := midParams()

	draft, err := BuildDraft(params, catalog, "")
	require.NoError(t, err)

	// MEDIUM runs the progressive curve: week one stays at difficulty 1.
	for _, step := range draft.Steps {
		if step.DayNumber <= 7 {
			assert.LessOrEqual(t, step.Difficulty, 1, "step %s", step.StepID)
		} else {
			assert.LessOrEqual(t, step.Difficulty, 2, "step %s", step.StepID)
		}
	}
}

func TestBuildDraftHonoursForbiddenCategory(t *testing.T) {
	catalog := testCatalog()
	params := midParams()
	params.Policy.ForbiddenCategories = []string{"rest"}

	draft, err := BuildDraft(params, catalog, "")
	require.NoError(t, err)
	for _, step := range draft.Steps {
		assert.NotEqual(t, "rest", step.Category, "step %s", step.StepID)
	}
}

func TestBuildDraftMissingPillars(t *testing.T) {
	_, err := BuildDraft(domain.PlanParameters{}, testCatalog(), "")

	var pillars *ThreePillarsError
	require.ErrorAs(t, err, &pillars)
	assert.Equal(t, []string{"duration", "focus", "load"}, pillars.Missing)
}

func TestBuildDraftSlotCountMismatch(t *testing.T) {
	params := midParams()
	params.Policy.PreferredTimeSlots = []domain.TimeSlot{domain.TimeMorning}

	_, err := BuildDraft(params, testCatalog(), "")

	var slots *SlotCountError
	require.ErrorAs(t, err, &slots)
	assert.Equal(t, 2, slots.Expected)
	assert.Equal(t, 1, slots.Got)
}

func TestBuildDraftEmptyCatalog(t *testing.T) {
	_, err := BuildDraft(midParams(), fixtureCatalog{}, "")

	var library *InsufficientLibraryError
	require.ErrorAs(t, err, &library)
	assert.Zero(t, library.Day)
}

func TestBuildDraftTooNarrowCatalog(t *testing.T) {
	// Only SUPPORT-tier content: the CORE slot cannot be filled even after
	// the cooldown-free retry.
	catalog := fixtureCatalog{exercises: []domain.Exercise{
		ex("s1", "s1", "somatic", domain.SlotSupport, 1, 1.0),
	}}

	_, err := BuildDraft(midParams(), catalog, "")

	var library *InsufficientLibraryError
	require.ErrorAs(t, err, &library)
	assert.Equal(t, 1, library.Day)
	assert.Equal(t, domain.SlotCore, library.Slot)
}

func TestBuildDraftMetadata(t *testing.T) {
	draft, err := BuildDraft(midParams(), testCatalog(), "")
	require.NoError(t, err)

	assert.NotEmpty(t, draft.ID)
	assert.Equal(t, domain.DraftPending, draft.Status)
	assert.Equal(t, "mvp_v1", draft.Metadata["composition_version"])
	assert.NotEmpty(t, draft.SourceExercises)
}

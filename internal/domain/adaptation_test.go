package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdaptationIntentInverses(t *testing.T) {
	pairs := map[AdaptationIntent]AdaptationIntent{
		IntentReduceDailyLoad:    IntentIncreaseDailyLoad,
		IntentIncreaseDailyLoad:  IntentReduceDailyLoad,
		IntentLowerDifficulty:    IntentIncreaseDifficulty,
		IntentIncreaseDifficulty: IntentLowerDifficulty,
		IntentPausePlan:          IntentResumePlan,
		IntentResumePlan:         IntentPausePlan,
	}
	for intent, want := range pairs {
		inverse, ok := intent.Inverse()
		assert.True(t, ok, string(intent))
		assert.Equal(t, want, inverse, string(intent))
		assert.True(t, intent.Reversible())
	}

	// Inverses are symmetric.
	for intent, want := range pairs {
		back, _ := want.Inverse()
		assert.Equal(t, intent, back)
	}
}

func TestAdaptationIntentIrreversible(t *testing.T) {
	for _, intent := range []AdaptationIntent{
		IntentExtendPlanDuration,
		IntentShortenPlanDuration,
		IntentChangeMainCategory,
	} {
		_, ok := intent.Inverse()
		assert.False(t, ok, string(intent))
		assert.False(t, intent.Reversible(), string(intent))
	}
}

func TestAdaptationIntentConflicts(t *testing.T) {
	assert.True(t, IntentReduceDailyLoad.ConflictsWith(IntentReduceDailyLoad))
	assert.False(t, IntentReduceDailyLoad.ConflictsWith(IntentIncreaseDailyLoad))
	assert.True(t, IntentExtendPlanDuration.ConflictsWith(IntentShortenPlanDuration))
	assert.True(t, IntentShortenPlanDuration.ConflictsWith(IntentExtendPlanDuration))
	assert.False(t, IntentPausePlan.ConflictsWith(IntentResumePlan))
}

func TestAdaptationIntentValidity(t *testing.T) {
	for _, intent := range AllAdaptationIntents() {
		assert.True(t, intent.Valid(), string(intent))
		assert.NotEmpty(t, intent.Category(), string(intent))
	}
	assert.False(t, AdaptationIntent("REWRITE_HISTORY").Valid())
}

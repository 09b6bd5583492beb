package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AdaptationIntent is one user- or rule-initiated mutation of a live plan.
type AdaptationIntent string

const (
	IntentReduceDailyLoad     AdaptationIntent = "REDUCE_DAILY_LOAD"
	IntentIncreaseDailyLoad   AdaptationIntent = "INCREASE_DAILY_LOAD"
	IntentLowerDifficulty     AdaptationIntent = "LOWER_DIFFICULTY"
	IntentIncreaseDifficulty  AdaptationIntent = "INCREASE_DIFFICULTY"
	IntentExtendPlanDuration  AdaptationIntent = "EXTEND_PLAN_DURATION"
	IntentShortenPlanDuration AdaptationIntent = "SHORTEN_PLAN_DURATION"
	IntentPausePlan           AdaptationIntent = "PAUSE_PLAN"
	IntentResumePlan          AdaptationIntent = "RESUME_PLAN"
	IntentChangeMainCategory  AdaptationIntent = "CHANGE_MAIN_CATEGORY"
)

// AdaptationCategory groups intents for rate limiting and analytics.
type AdaptationCategory string

const (
	CategoryLoadAdjustment       AdaptationCategory = "LOAD_ADJUSTMENT"
	CategoryDifficultyAdjustment AdaptationCategory = "DIFFICULTY_ADJUSTMENT"
	CategoryDurationAdjustment   AdaptationCategory = "DURATION_ADJUSTMENT"
	CategoryExecutionState       AdaptationCategory = "EXECUTION_STATE"
	CategoryFocusChange          AdaptationCategory = "FOCUS_CHANGE"
)

// AdaptationMeta describes one intent. All intent properties derive from
// this table; reversibility is computed from Inverse rather than stored as a
// separate flag.
type AdaptationMeta struct {
	Category         AdaptationCategory
	RequiresParams   bool
	AffectsStructure bool
	// Inverse is the intent applied for UX "undo". Empty means the intent is
	// irreversible: a focus change spawns a new plan, and duration changes
	// make pre-adaptation step history ambiguous to restore.
	Inverse AdaptationIntent
	// ConflictsWith lists intents that may not have been the immediately
	// preceding applied adaptation.
	ConflictsWith []AdaptationIntent
}

var adaptationTable = map[AdaptationIntent]AdaptationMeta{
	IntentReduceDailyLoad: {
		Category:         CategoryLoadAdjustment,
		RequiresParams:   true,
		AffectsStructure: true,
		Inverse:          IntentIncreaseDailyLoad,
		ConflictsWith:    []AdaptationIntent{IntentReduceDailyLoad},
	},
	IntentIncreaseDailyLoad: {
		Category:         CategoryLoadAdjustment,
		RequiresParams:   false,
		AffectsStructure: true,
		Inverse:          IntentReduceDailyLoad,
		ConflictsWith:    []AdaptationIntent{IntentIncreaseDailyLoad},
	},
	IntentLowerDifficulty: {
		Category:         CategoryDifficultyAdjustment,
		RequiresParams:   false,
		AffectsStructure: true,
		Inverse:          IntentIncreaseDifficulty,
		ConflictsWith:    []AdaptationIntent{IntentLowerDifficulty},
	},
	IntentIncreaseDifficulty: {
		Category:         CategoryDifficultyAdjustment,
		RequiresParams:   false,
		AffectsStructure: true,
		Inverse:          IntentLowerDifficulty,
		ConflictsWith:    []AdaptationIntent{IntentIncreaseDifficulty},
	},
	IntentExtendPlanDuration: {
		Category:         CategoryDurationAdjustment,
		RequiresParams:   true,
		AffectsStructure: true,
		ConflictsWith:    []AdaptationIntent{IntentShortenPlanDuration},
	},
	IntentShortenPlanDuration: {
		Category:         CategoryDurationAdjustment,
		RequiresParams:   true,
		AffectsStructure: true,
		ConflictsWith:    []AdaptationIntent{IntentExtendPlanDuration},
	},
	IntentPausePlan: {
		Category:         CategoryExecutionState,
		RequiresParams:   false,
		AffectsStructure: false,
		Inverse:          IntentResumePlan,
	},
	IntentResumePlan: {
		Category:         CategoryExecutionState,
		RequiresParams:   false,
		AffectsStructure: false,
		Inverse:          IntentPausePlan,
	},
	IntentChangeMainCategory: {
		Category:         CategoryFocusChange,
		RequiresParams:   true,
		AffectsStructure: true,
		ConflictsWith:    []AdaptationIntent{IntentChangeMainCategory},
	},
}

func (i AdaptationIntent) Valid() bool {
	_, ok := adaptationTable[i]
	return ok
}

// Meta returns the intent's metadata entry.
func (i AdaptationIntent) Meta() AdaptationMeta {
	return adaptationTable[i]
}

// Category returns the rate-limit category of the intent.
func (i AdaptationIntent) Category() AdaptationCategory {
	return adaptationTable[i].Category
}

// Inverse returns the undo intent, if the intent is reversible.
func (i AdaptationIntent) Inverse() (AdaptationIntent, bool) {
	inv := adaptationTable[i].Inverse
	return inv, inv != ""
}

// Reversible reports whether an inverse intent exists.
func (i AdaptationIntent) Reversible() bool {
	return adaptationTable[i].Inverse != ""
}

// AffectsStructure reports whether the intent mutates the plan's step set.
func (i AdaptationIntent) AffectsStructure() bool {
	return adaptationTable[i].AffectsStructure
}

// ConflictsWith reports whether previous may not immediately precede the
// intent.
func (i AdaptationIntent) ConflictsWith(previous AdaptationIntent) bool {
	for _, conflicting := range adaptationTable[i].ConflictsWith {
		if conflicting == previous {
			return true
		}
	}
	return false
}

// AllAdaptationIntents lists every intent in declaration order.
func AllAdaptationIntents() []AdaptationIntent {
	return []AdaptationIntent{
		IntentReduceDailyLoad,
		IntentIncreaseDailyLoad,
		IntentLowerDifficulty,
		IntentIncreaseDifficulty,
		IntentExtendPlanDuration,
		IntentShortenPlanDuration,
		IntentPausePlan,
		IntentResumePlan,
		IntentChangeMainCategory,
	}
}

// AdaptationHistory is one append-only record of an applied adaptation,
// consumed by the rate-limit and conflict checks.
type AdaptationHistory struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PlanID       primitive.ObjectID `bson:"planId" json:"planId"`
	UserID       primitive.ObjectID `bson:"userId" json:"userId"`
	Intent       AdaptationIntent   `bson:"intent" json:"intent"`
	Category     AdaptationCategory `bson:"category" json:"category"`
	AppliedAt    time.Time          `bson:"appliedAt" json:"appliedAt"`
	IsRolledBack bool               `bson:"isRolledBack" json:"isRolledBack"`
}

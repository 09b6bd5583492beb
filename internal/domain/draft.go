package domain

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserPolicy restricts composition on behalf of the user.
type UserPolicy struct {
	ForbiddenCategories  []string   `bson:"forbiddenCategories,omitempty" json:"forbiddenCategories,omitempty"`
	ForbiddenImpactAreas []string   `bson:"forbiddenImpactAreas,omitempty" json:"forbiddenImpactAreas,omitempty"`
	PreferredTimeSlots   []TimeSlot `bson:"preferredTimeSlots,omitempty" json:"preferredTimeSlots,omitempty"`
}

// AllowsCategory reports whether the category is not forbidden.
// Comparison is case-insensitive.
func (p UserPolicy) AllowsCategory(category string) bool {
	for _, forbidden := range p.ForbiddenCategories {
		if strings.EqualFold(forbidden, category) {
			return false
		}
	}
	return true
}

// AllowsImpactAreas reports whether none of the given impact areas is
// forbidden.
func (p UserPolicy) AllowsImpactAreas(areas []string) bool {
	for _, area := range areas {
		for _, forbidden := range p.ForbiddenImpactAreas {
			if strings.EqualFold(forbidden, area) {
				return false
			}
		}
	}
	return true
}

// PlanParameters are the "Three Pillars" plus the optional user policy.
// A draft cannot be built unless duration, focus and load are all set.
type PlanParameters struct {
	Duration Duration   `bson:"duration" json:"duration"`
	Focus    Focus      `bson:"focus" json:"focus"`
	Load     Load       `bson:"load" json:"load"`
	Policy   UserPolicy `bson:"policy" json:"policy"`
}

// MissingPillars returns the names of unset pillars, in a fixed order.
func (p PlanParameters) MissingPillars() []string {
	var missing []string
	if p.Duration == "" {
		missing = append(missing, "duration")
	}
	if p.Focus == "" {
		missing = append(missing, "focus")
	}
	if p.Load == "" {
		missing = append(missing, "load")
	}
	return missing
}

// Complete reports whether all three pillars are present.
func (p PlanParameters) Complete() bool {
	return len(p.MissingPillars()) == 0
}

// DraftStep is a single composed step before activation.
type DraftStep struct {
	StepID       string   `bson:"stepId" json:"stepId"`
	DayNumber    int      `bson:"dayNumber" json:"dayNumber"`
	ExerciseID   string   `bson:"exerciseId" json:"exerciseId"`
	ExerciseName string   `bson:"exerciseName" json:"exerciseName"`
	Category     string   `bson:"category" json:"category"`
	ImpactAreas  []string `bson:"impactAreas,omitempty" json:"impactAreas,omitempty"`
	SlotType     SlotType `bson:"slotType" json:"slotType"`
	TimeSlot     TimeSlot `bson:"timeSlot" json:"timeSlot"`
	Difficulty   int      `bson:"difficulty" json:"difficulty"`
	EnergyCost   string   `bson:"energyCost" json:"energyCost"`
}

// DraftStatus tracks the draft lifecycle. A user holds at most one pending
// draft; composing a new one replaces it outright.
type DraftStatus string

const (
	DraftPending   DraftStatus = "PENDING"
	DraftFinalized DraftStatus = "FINALIZED"
)

// Draft is a fully composed, unactivated candidate plan.
type Draft struct {
	ID               string             `bson:"_id" json:"id"`
	UserID           primitive.ObjectID `bson:"userId" json:"userId"`
	Duration         Duration           `bson:"duration" json:"duration"`
	Focus            Focus              `bson:"focus" json:"focus"`
	Load             Load               `bson:"load" json:"load"`
	TotalDays        int                `bson:"totalDays" json:"totalDays"`
	Steps            []DraftStep        `bson:"steps" json:"steps"`
	SourceExercises  []string           `bson:"sourceExercises" json:"sourceExercises"`
	ValidationErrors []string           `bson:"validationErrors,omitempty" json:"validationErrors,omitempty"`
	Status           DraftStatus        `bson:"status" json:"status"`
	Metadata         map[string]string  `bson:"metadata,omitempty" json:"metadata,omitempty"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
}

// IsValid reports whether the draft passed all validators.
func (d *Draft) IsValid() bool {
	return len(d.ValidationErrors) == 0
}

// StepsForDay returns the draft steps of one day, in composed order.
func (d *Draft) StepsForDay(dayNumber int) []DraftStep {
	var steps []DraftStep
	for _, step := range d.Steps {
		if step.DayNumber == dayNumber {
			steps = append(steps, step)
		}
	}
	return steps
}

package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanStatus is the execution state of a live plan.
type PlanStatus string

const (
	PlanActive    PlanStatus = "active"
	PlanPaused    PlanStatus = "paused"
	PlanAbandoned PlanStatus = "abandoned"
	PlanCompleted PlanStatus = "completed"
)

// PlanStep is a scheduled step of a live plan. A step is terminal once
// completed or skipped; terminal steps are never mutated by adaptation.
type PlanStep struct {
	ID                   string     `bson:"id" json:"id"`
	ExerciseID           string     `bson:"exerciseId" json:"exerciseId"`
	Title                string     `bson:"title" json:"title"`
	Category             string     `bson:"category" json:"category"`
	SlotType             SlotType   `bson:"slotType" json:"slotType"`
	TimeSlot             TimeSlot   `bson:"timeSlot" json:"timeSlot"`
	Difficulty           int        `bson:"difficulty" json:"difficulty"`
	EnergyCost           string     `bson:"energyCost" json:"energyCost"`
	OrderInDay           int        `bson:"orderInDay" json:"orderInDay"`
	IsCompleted          bool       `bson:"isCompleted" json:"isCompleted"`
	Skipped              bool       `bson:"skipped" json:"skipped"`
	CanceledByAdaptation bool       `bson:"canceledByAdaptation" json:"canceledByAdaptation"`
	ScheduledFor         *time.Time `bson:"scheduledFor,omitempty" json:"scheduledFor,omitempty"`
	CompletedAt          *time.Time `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
}

// Terminal reports whether the step reached a final state.
func (s *PlanStep) Terminal() bool {
	return s.IsCompleted || s.Skipped
}

// PlanDay groups the steps of one 1-based plan day. Days and steps are owned
// by the plan document and live inside it.
type PlanDay struct {
	DayNumber int        `bson:"dayNumber" json:"dayNumber"`
	Steps     []PlanStep `bson:"steps" json:"steps"`
}

// Plan is an activated, live plan instance. AdaptationVersion is a monotonic
// counter incremented by every structural adaptation and doubles as the
// optimistic-concurrency token for plan updates.
type Plan struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID             primitive.ObjectID `bson:"userId" json:"userId"`
	Status             PlanStatus         `bson:"status" json:"status"`
	Focus              Focus              `bson:"focus" json:"focus"`
	Load               Load               `bson:"load" json:"load"`
	Duration           Duration           `bson:"duration" json:"duration"`
	TotalDays          int                `bson:"totalDays" json:"totalDays"`
	CurrentDay         int                `bson:"currentDay" json:"currentDay"`
	AdaptationVersion  int64              `bson:"adaptationVersion" json:"adaptationVersion"`
	PreferredTimeSlots []TimeSlot         `bson:"preferredTimeSlots" json:"preferredTimeSlots"`
	StartDate          time.Time          `bson:"startDate" json:"startDate"`
	EndDate            *time.Time         `bson:"endDate,omitempty" json:"endDate,omitempty"`
	Days               []PlanDay          `bson:"days" json:"days"`
	SourceDraftID      string             `bson:"sourceDraftId" json:"sourceDraftId"`
	CreatedAt          time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Day returns the plan day with the given number, or nil.
func (p *Plan) Day(dayNumber int) *PlanDay {
	for i := range p.Days {
		if p.Days[i].DayNumber == dayNumber {
			return &p.Days[i]
		}
	}
	return nil
}

// FindStep returns the step with the given id, or nil.
func (p *Plan) FindStep(stepID string) *PlanStep {
	for i := range p.Days {
		for j := range p.Days[i].Steps {
			if p.Days[i].Steps[j].ID == stepID {
				return &p.Days[i].Steps[j]
			}
		}
	}
	return nil
}

// FutureStep pairs a non-terminal, non-canceled step with its day for
// adaptation passes.
type FutureStep struct {
	Day  *PlanDay
	Step *PlanStep
}

// FutureSteps returns every step that is neither terminal nor already
// canceled and whose anchor instant is at or after effectiveFrom. The anchor
// is the step's scheduled_for when present, otherwise start date plus day
// offset.
func (p *Plan) FutureSteps(effectiveFrom time.Time) []FutureStep {
	var out []FutureStep
	for i := range p.Days {
		day := &p.Days[i]
		for j := range day.Steps {
			step := &day.Steps[j]
			if step.Terminal() || step.CanceledByAdaptation {
				continue
			}
			if !p.StepAnchor(day, step).Before(effectiveFrom) {
				out = append(out, FutureStep{Day: day, Step: step})
			}
		}
	}
	return out
}

// StepAnchor resolves the instant used to decide whether a step is in the
// future.
func (p *Plan) StepAnchor(day *PlanDay, step *PlanStep) time.Time {
	if step.ScheduledFor != nil {
		return step.ScheduledFor.UTC()
	}
	offset := day.DayNumber - 1
	if offset < 0 {
		offset = 0
	}
	return p.StartDate.UTC().AddDate(0, 0, offset)
}

// ActiveTimeSlots returns the distinct time slots still carrying
// non-canceled, non-terminal steps, in day order.
func (p *Plan) ActiveTimeSlots() []TimeSlot {
	present := map[TimeSlot]bool{}
	for i := range p.Days {
		for j := range p.Days[i].Steps {
			step := &p.Days[i].Steps[j]
			if step.CanceledByAdaptation || step.Terminal() {
				continue
			}
			present[step.TimeSlot] = true
		}
	}
	var out []TimeSlot
	for _, slot := range AllTimeSlots() {
		if present[slot] {
			out = append(out, slot)
		}
	}
	return out
}

// VersionDiff is the structured payload of one PlanVersion record.
type VersionDiff struct {
	EffectiveFrom      time.Time           `bson:"effectiveFrom" json:"effectiveFrom"`
	CanceledStepIDs    []string            `bson:"canceledStepIds,omitempty" json:"canceledStepIds,omitempty"`
	AddedStepIDs       []string            `bson:"addedStepIds,omitempty" json:"addedStepIds,omitempty"`
	RescheduledStepIDs []string            `bson:"rescheduledStepIds,omitempty" json:"rescheduledStepIds,omitempty"`
	ModifiedStepIDs    []string            `bson:"modifiedStepIds,omitempty" json:"modifiedStepIds,omitempty"`
	SlotRemoved        TimeSlot            `bson:"slotRemoved,omitempty" json:"slotRemoved,omitempty"`
	SlotAdded          TimeSlot            `bson:"slotAdded,omitempty" json:"slotAdded,omitempty"`
	OldTotalDays       int                 `bson:"oldTotalDays,omitempty" json:"oldTotalDays,omitempty"`
	NewTotalDays       int                 `bson:"newTotalDays,omitempty" json:"newTotalDays,omitempty"`
	Load               Load                `bson:"load,omitempty" json:"load,omitempty"`
	PreferredTimeSlots []TimeSlot          `bson:"preferredTimeSlots,omitempty" json:"preferredTimeSlots,omitempty"`
	Status             PlanStatus          `bson:"status,omitempty" json:"status,omitempty"`
	RelatedPlanID      *primitive.ObjectID `bson:"relatedPlanId,omitempty" json:"relatedPlanId,omitempty"`
}

// PlanVersion is one append-only audit record: what changed and when. Never
// mutated or deleted.
type PlanVersion struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PlanID         primitive.ObjectID `bson:"planId" json:"planId"`
	AdaptationType AdaptationIntent   `bson:"adaptationType" json:"adaptationType"`
	AppliedAt      time.Time          `bson:"appliedAt" json:"appliedAt"`
	Diff           VersionDiff        `bson:"diff" json:"diff"`
}

package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents an account the engine composes and adapts plans for.
// CurrentState holds the finite-state gate position (see internal/fsm).
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"` // unique
	PasswordHash string             `bson:"passwordHash" json:"-"`
	Timezone     string             `bson:"timezone" json:"timezone"`
	CurrentState string             `bson:"currentState" json:"currentState"`

	// DailyTimeSlots overrides the default wall-clock time per time slot,
	// keyed by slot name with "HH:MM" values.
	DailyTimeSlots map[TimeSlot]string `bson:"dailyTimeSlots,omitempty" json:"dailyTimeSlots,omitempty"`

	Policy UserPolicy `bson:"policy" json:"policy"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

package repository

import (
	"context"

	"balans/wellbeing-app/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound        = RepositoryError("not found")
	ErrUpdateFailed    = RepositoryError("update failed")
	ErrVersionConflict = RepositoryError("version conflict")
	ErrDuplicate       = RepositoryError("duplicate")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	// UpdateState moves the user's gate state with a compare-and-set on the
	// expected current state, so two concurrent flows cannot both win.
	UpdateState(ctx context.Context, id primitive.ObjectID, fromState, toState string) error
	UpdateTimeSlots(ctx context.Context, id primitive.ObjectID, slots map[domain.TimeSlot]string) error
	UpdateTimezone(ctx context.Context, id primitive.ObjectID, timezone string) error
}

// DraftRepository stores at most one pending draft per user; composing a new
// draft replaces the previous one outright.
type DraftRepository interface {
	Replace(ctx context.Context, draft *domain.Draft) error
	GetPendingByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.Draft, error)
	MarkFinalized(ctx context.Context, draftID string) error
}

// PlanRepository defines the interface for interacting with live plan data.
// Update performs an optimistic-concurrency check on the plan's adaptation
// version: the write only lands if the stored version still matches.
type PlanRepository interface {
	Create(ctx context.Context, plan *domain.Plan) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Plan, error)
	GetActiveByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.Plan, error)
	ListByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.Plan, error)
	Update(ctx context.Context, plan *domain.Plan, expectedVersion int64) error
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status domain.PlanStatus) error
}

// PlanVersionRepository is the append-only adaptation audit log.
type PlanVersionRepository interface {
	Append(ctx context.Context, version *domain.PlanVersion) error
	ListByPlanID(ctx context.Context, planID primitive.ObjectID) ([]domain.PlanVersion, error)
}

// AdaptationHistoryRepository feeds the rate-limit and conflict checks.
// Listings are ordered most recent first.
type AdaptationHistoryRepository interface {
	Append(ctx context.Context, entry *domain.AdaptationHistory) error
	ListByPlanID(ctx context.Context, planID primitive.ObjectID) ([]domain.AdaptationHistory, error)
	ListByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.AdaptationHistory, error)
	// MarkRolledBack flags an undone entry; rolled-back entries no longer
	// count toward conflicts or rate limits.
	MarkRolledBack(ctx context.Context, id primitive.ObjectID) error
}

// CatalogRepository mirrors the content library into the database so ops and
// analytics can see what composition ran against.
type CatalogRepository interface {
	Sync(ctx context.Context, exercises []domain.Exercise) (int, error)
	ListActive(ctx context.Context) ([]domain.Exercise, error)
}

// UnitOfWork runs fn inside one transaction; every repository call made with
// the callback's context joins it. Finalize and adapt operations read then
// write several related documents and must not interleave.
type UnitOfWork interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

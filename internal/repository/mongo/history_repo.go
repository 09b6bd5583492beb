package mongo

import (
	"context"
	"errors"
	"time"

	"balans/wellbeing-app/internal/domain"
	"balans/wellbeing-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const historyCollectionName = "adaptation_history"

// mongoHistoryRepository implements repository.AdaptationHistoryRepository
type mongoHistoryRepository struct {
	collection *mongo.Collection
}

// NewMongoHistoryRepository creates a new adaptation history repository backed by MongoDB.
func NewMongoHistoryRepository(db *mongo.Database) repository.AdaptationHistoryRepository {
	return &mongoHistoryRepository{
		collection: db.Collection(historyCollectionName),
	}
}

// Append inserts one history entry.
func (r *mongoHistoryRepository) Append(ctx context.Context, entry *domain.AdaptationHistory) error {
	if entry.PlanID == primitive.NilObjectID || entry.UserID == primitive.NilObjectID {
		return errors.New("history plan ID and user ID are required")
	}

	entry.ID = primitive.NewObjectID()
	if entry.AppliedAt.IsZero() {
		entry.AppliedAt = time.Now().UTC()
	}
	if entry.Category == "" {
		entry.Category = entry.Intent.Category()
	}

	_, err := r.collection.InsertOne(ctx, entry)
	return err
}

func (r *mongoHistoryRepository) list(ctx context.Context, filter bson.M) ([]domain.AdaptationHistory, error) {
	var entries []domain.AdaptationHistory

	findOptions := options.Find().SetSort(bson.D{{Key: "appliedAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

// ListByPlanID retrieves a plan's history, newest first.
func (r *mongoHistoryRepository) ListByPlanID(ctx context.Context, planID primitive.ObjectID) ([]domain.AdaptationHistory, error) {
	return r.list(ctx, bson.M{"planId": planID})
}

// ListByUserID retrieves a user's history across plans, newest first.
func (r *mongoHistoryRepository) ListByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.AdaptationHistory, error) {
	return r.list(ctx, bson.M{"userId": userID})
}

// MarkRolledBack flags one entry as undone so it stops participating in
// conflict and rate-limit checks.
func (r *mongoHistoryRepository) MarkRolledBack(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"isRolledBack": true}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureHistoryIndexes creates necessary indexes for the history collection.
func EnsureHistoryIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "planId", Value: 1}, {Key: "appliedAt", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "userId", Value: 1}, {Key: "appliedAt", Value: -1}},
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}

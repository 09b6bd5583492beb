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

const draftCollectionName = "plan_drafts"

// mongoDraftRepository implements repository.DraftRepository
type mongoDraftRepository struct {
	collection *mongo.Collection
}

// NewMongoDraftRepository creates a new draft repository backed by MongoDB.
func NewMongoDraftRepository(db *mongo.Database) repository.DraftRepository {
	return &mongoDraftRepository{
		collection: db.Collection(draftCollectionName),
	}
}

// Replace stores the draft and deletes any previous pending draft of the
// same user. A user holds at most one pending draft at a time.
func (r *mongoDraftRepository) Replace(ctx context.Context, draft *domain.Draft) error {
	if draft.ID == "" || draft.UserID == primitive.NilObjectID {
		return errors.New("draft ID and user ID are required")
	}

	_, err := r.collection.DeleteMany(ctx, bson.M{
		"userId": draft.UserID,
		"status": domain.DraftPending,
	})
	if err != nil {
		return err
	}

	_, err = r.collection.InsertOne(ctx, draft)
	return err
}

// GetPendingByUserID retrieves the user's pending draft.
func (r *mongoDraftRepository) GetPendingByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.Draft, error) {
	var draft domain.Draft
	filter := bson.M{"userId": userID, "status": domain.DraftPending}

	err := r.collection.FindOne(ctx, filter).Decode(&draft)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &draft, nil
}

// MarkFinalized transitions a pending draft to FINALIZED.
func (r *mongoDraftRepository) MarkFinalized(ctx context.Context, draftID string) error {
	filter := bson.M{"_id": draftID, "status": domain.DraftPending}
	update := bson.M{
		"$set": bson.M{
			"status":      domain.DraftFinalized,
			"finalizedAt": time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureDraftIndexes creates necessary indexes for the drafts collection.
func EnsureDraftIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "userId", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": domain.DraftPending}),
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}

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

const versionCollectionName = "plan_versions"

// mongoVersionRepository implements repository.PlanVersionRepository
type mongoVersionRepository struct {
	collection *mongo.Collection
}

// NewMongoVersionRepository creates a new plan version repository backed by MongoDB.
func NewMongoVersionRepository(db *mongo.Database) repository.PlanVersionRepository {
	return &mongoVersionRepository{
		collection: db.Collection(versionCollectionName),
	}
}

// Append inserts one version record. Records are never updated or deleted.
func (r *mongoVersionRepository) Append(ctx context.Context, version *domain.PlanVersion) error {
	if version.PlanID == primitive.NilObjectID {
		return errors.New("version plan ID is required")
	}

	version.ID = primitive.NewObjectID()
	if version.AppliedAt.IsZero() {
		version.AppliedAt = time.Now().UTC()
	}

	_, err := r.collection.InsertOne(ctx, version)
	return err
}

// ListByPlanID retrieves all version records of a plan, newest first.
func (r *mongoVersionRepository) ListByPlanID(ctx context.Context, planID primitive.ObjectID) ([]domain.PlanVersion, error) {
	var versions []domain.PlanVersion
	filter := bson.M{"planId": planID}

	findOptions := options.Find().SetSort(bson.D{{Key: "appliedAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &versions); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}

	return versions, nil
}

// EnsureVersionIndexes creates necessary indexes for the versions collection.
func EnsureVersionIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "planId", Value: 1}, {Key: "appliedAt", Value: -1}},
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}

package mongo

import (
	"context"
	"time"

	"balans/wellbeing-app/internal/domain"
	"balans/wellbeing-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const catalogCollectionName = "exercises"

// catalogEntry is the stored shape of one content library exercise.
type catalogEntry struct {
	ID           string          `bson:"_id"`
	InternalName string          `bson:"internalName"`
	Category     string          `bson:"category"`
	ImpactAreas  []string        `bson:"impactAreas,omitempty"`
	PriorityTier domain.SlotType `bson:"priorityTier"`
	Difficulty   int             `bson:"difficulty"`
	EnergyCost   string          `bson:"energyCost"`
	CooldownDays int             `bson:"cooldownDays"`
	IsActive     bool            `bson:"isActive"`
	BaseWeight   float64         `bson:"baseWeight"`
	SyncedAt     time.Time       `bson:"syncedAt"`
}

func toEntry(e domain.Exercise, now time.Time) catalogEntry {
	return catalogEntry{
		ID:           e.ID,
		InternalName: e.InternalName,
		Category:     e.Category,
		ImpactAreas:  e.ImpactAreas,
		PriorityTier: e.PriorityTier,
		Difficulty:   e.Difficulty,
		EnergyCost:   e.EnergyCost,
		CooldownDays: e.CooldownDays,
		IsActive:     e.IsActive,
		BaseWeight:   e.BaseWeight,
		SyncedAt:     now,
	}
}

func (c catalogEntry) toDomain() domain.Exercise {
	return domain.Exercise{
		ID:           c.ID,
		InternalName: c.InternalName,
		Category:     c.Category,
		ImpactAreas:  c.ImpactAreas,
		PriorityTier: c.PriorityTier,
		Difficulty:   c.Difficulty,
		EnergyCost:   c.EnergyCost,
		CooldownDays: c.CooldownDays,
		IsActive:     c.IsActive,
		BaseWeight:   c.BaseWeight,
	}
}

// mongoCatalogRepository implements repository.CatalogRepository
type mongoCatalogRepository struct {
	collection *mongo.Collection
}

// NewMongoCatalogRepository creates a new catalog mirror repository backed by MongoDB.
func NewMongoCatalogRepository(db *mongo.Database) repository.CatalogRepository {
	return &mongoCatalogRepository{
		collection: db.Collection(catalogCollectionName),
	}
}

// Sync upserts every catalog exercise and returns how many were written.
// Entries that disappeared from the source file are kept but their is_active
// flag is only what the source says, so they stop being composed against on
// the next refresh.
func (r *mongoCatalogRepository) Sync(ctx context.Context, exercises []domain.Exercise) (int, error) {
	now := time.Now().UTC()
	updated := 0
	for _, e := range exercises {
		entry := toEntry(e, now)
		filter := bson.M{"_id": entry.ID}
		opts := options.Replace().SetUpsert(true)
		if _, err := r.collection.ReplaceOne(ctx, filter, entry, opts); err != nil {
			return updated, err
		}
		updated++
	}
	return updated, nil
}

// ListActive retrieves the active exercises in stable id order.
func (r *mongoCatalogRepository) ListActive(ctx context.Context) ([]domain.Exercise, error) {
	filter := bson.M{"isActive": true}
	findOptions := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []catalogEntry
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}

	exercises := make([]domain.Exercise, 0, len(entries))
	for _, entry := range entries {
		exercises = append(exercises, entry.toDomain())
	}
	return exercises, nil
}

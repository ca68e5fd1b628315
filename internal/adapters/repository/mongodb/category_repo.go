package mongodb

import (
	"context"
	"fmt"

	"github.com/developia-II/vendora-onboarding/internal/core/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CategoryRepository stores product categories and lists them sorted by name.
type CategoryRepository struct {
	collection *mongo.Collection
}

func NewCategoryRepository(db *mongo.Database) *CategoryRepository {
	return &CategoryRepository{collection: db.Collection("categories")}
}

func (r *CategoryRepository) List(ctx context.Context, limit int) ([]domain.Category, error) {
	opts := options.Find().SetSort(bson.M{"name": 1})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	categories := []domain.Category{}
	if err := cursor.All(ctx, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// Seed inserts each category whose slug is not stored yet. Existing
// documents are left untouched.
func (r *CategoryRepository) Seed(ctx context.Context, categories []domain.Category) error {
	for _, c := range categories {
		_, err := r.collection.UpdateOne(ctx,
			bson.M{"slug": c.Slug},
			bson.M{"$setOnInsert": c},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return fmt.Errorf("seed category %q: %w", c.Slug, err)
		}
	}
	return nil
}

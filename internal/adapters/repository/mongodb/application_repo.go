package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/developia-II/vendora-onboarding/internal/core/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ApplicationRepository implements domain.ApplicationRepository using MongoDB.
type ApplicationRepository struct {
	collection *mongo.Collection
}

func NewApplicationRepository(db *mongo.Database) *ApplicationRepository {
	return &ApplicationRepository{
		collection: db.Collection("vendorApplications"),
	}
}

// Create inserts a new vendor application.
func (r *ApplicationRepository) Create(ctx context.Context, app *domain.VendorApplication) error {
	now := time.Now()
	app.CreatedAt = now
	app.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, app)
	return err
}

// GetByUserID finds the latest application of a user. It returns nil, nil when none exists.
func (r *ApplicationRepository) GetByUserID(ctx context.Context, userID string) (*domain.VendorApplication, error) {
	opts := options.FindOne().SetSort(bson.M{"createdAt": -1})

	var app domain.VendorApplication
	err := r.collection.FindOne(ctx, bson.M{"userID": userID}, opts).Decode(&app)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &app, nil
}

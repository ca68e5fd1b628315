package main

import (
	"context"
	"log"
	"time"

	"github.com/developia-II/vendora-onboarding/internal/adapters/repository/mongodb"
	"github.com/developia-II/vendora-onboarding/internal/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Run this script once to create database indexes.
// Usage: MONGO_URI=... go run scripts/create_indexes.go
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	if cfg.MongoURI == "" {
		log.Fatal("❌ MONGO_URI must be set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	log.Println("🔄 Connecting to MongoDB...")
	client, err := mongodb.Connect(ctx, cfg.MongoURI)
	if err != nil {
		log.Fatalf("❌ %v\nCheck MONGO_URI and network access", err)
	}
	defer client.Disconnect(ctx)
	log.Println("✅ Connected to MongoDB")

	db := client.Database(cfg.MongoDatabase)

	indexes := []struct {
		collection string
		model      mongo.IndexModel
	}{
		// users: one account per email
		{"users", mongo.IndexModel{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("idx_email").SetUnique(true),
		}},
		// vendorApplications: latest application of a user
		{"vendorApplications", mongo.IndexModel{
			Keys: bson.D{
				{Key: "userID", Value: 1},
				{Key: "createdAt", Value: -1},
			},
			Options: options.Index().SetName("idx_user_applications_date"),
		}},
		{"vendorApplications", mongo.IndexModel{
			Keys:    bson.D{{Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_application_status"),
		}},
		// categories: listing is sorted by name, seeding upserts by slug
		{"categories", mongo.IndexModel{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetName("idx_name"),
		}},
		{"categories", mongo.IndexModel{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetName("idx_slug").SetUnique(true),
		}},
	}

	failed := 0
	for _, idx := range indexes {
		name, err := db.Collection(idx.collection).Indexes().CreateOne(ctx, idx.model)
		if err != nil {
			failed++
			log.Printf("Failed to create index on %s: %v", idx.collection, err)
			continue
		}
		log.Printf("✅ Created index: %s on %s", name, idx.collection)
	}

	// session_kv is owned by the session store.
	if err := mongodb.NewSessionStore(db, cfg.SessionNamespace).EnsureIndexes(ctx); err != nil {
		failed++
		log.Printf("Failed to create session_kv index: %v", err)
	} else {
		log.Println("✅ Created index on session_kv")
	}

	if failed > 0 {
		log.Fatalf("❌ %d index(es) failed", failed)
	}
	log.Println("🎉 All indexes created")
}

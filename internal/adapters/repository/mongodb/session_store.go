package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/developia-II/vendora-onboarding/internal/core/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

var _ domain.SessionStore = (*SessionStore)(nil)

// SessionStore implements domain.SessionStore on a MongoDB collection, one
// document per key. Writes use majority write concern so a read-back sees them.
type SessionStore struct {
	collection *mongo.Collection
	namespace  string
}

type sessionEntry struct {
	Namespace string    `bson:"namespace"`
	Key       string    `bson:"key"`
	Value     string    `bson:"value"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// NewSessionStore scopes all keys to namespace (typically a device or install ID).
func NewSessionStore(db *mongo.Database, namespace string) *SessionStore {
	return &SessionStore{
		collection: db.Collection("session_kv", options.Collection().SetWriteConcern(writeconcern.Majority())),
		namespace:  namespace,
	}
}

// EnsureIndexes creates the unique (namespace, key) index.
func (s *SessionStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "namespace", Value: 1}, {Key: "key", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("idx_namespace_key"),
	})
	return err
}

func (s *SessionStore) Set(ctx context.Context, key, value string) error {
	filter := bson.M{"namespace": s.namespace, "key": key}
	update := bson.M{
		"$set": bson.M{
			"value":     value,
			"updatedAt": time.Now(),
		},
		"$setOnInsert": bson.M{"namespace": s.namespace, "key": key},
	}
	opts := options.Update().SetUpsert(true)
	if _, err := s.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStorageWrite, err)
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, key string) (string, bool, error) {
	var entry sessionEntry
	err := s.collection.FindOne(ctx, bson.M{"namespace": s.namespace, "key": key}).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", false, nil
		}
		return "", false, err
	}
	return entry.Value, true, nil
}

func (s *SessionStore) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := s.collection.DeleteMany(ctx, bson.M{
		"namespace": s.namespace,
		"key":       bson.M{"$in": keys},
	})
	return err
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type entry struct {
	Key       string    `bson:"key"`
	Value     string    `bson:"value"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// Mongo stores one document per key in the storefront_state collection.
// Entries are kept until overwritten, like every other backend; a session's
// cart and favorites slots share one lifetime.
type Mongo struct {
	collection *mongo.Collection
}

func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{
		collection: db.Collection("storefront_state"),
	}
}

func ConnectMongoDB(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100).
		SetMinPoolSize(10)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(database), nil
}

func (m *Mongo) Load(ctx context.Context, key string) ([]byte, error) {
	var e entry
	err := m.collection.FindOne(ctx, bson.M{"key": key}).Decode(&e)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load %q: %w", key, err)
	}
	return []byte(e.Value), nil
}

func (m *Mongo) Save(ctx context.Context, key string, value []byte) error {
	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"value":      string(value),
			"updated_at": now,
		},
		"$setOnInsert": bson.M{"created_at": now},
	}
	opts := options.Update().SetUpsert(true)

	if _, err := m.collection.UpdateOne(ctx, bson.M{"key": key}, update, opts); err != nil {
		return fmt.Errorf("failed to save %q: %w", key, err)
	}
	return nil
}

func (m *Mongo) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "key", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	if _, err := m.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

package config

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectMongoDB opens the corpus connection once at startup.
func ConnectMongoDB(cfg *Config) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %v", err)
	}

	// Test connection
	err = client.Ping(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %v", err)
	}

	return client, nil
}

// VectorIndex describes an Atlas vector search index on a corpus collection.
type VectorIndex struct {
	Collection string
	Name       string
	Dimensions int
}

// EnsureVectorIndexes creates missing vector search indexes. Existing indexes
// are left untouched, even if their definition differs.
func EnsureVectorIndexes(ctx context.Context, db *mongo.Database, indexes []VectorIndex) ([]string, error) {
	var created []string
	for _, idx := range indexes {
		view := db.Collection(idx.Collection).SearchIndexes()

		cursor, err := view.List(ctx, options.SearchIndexes().SetName(idx.Name))
		if err != nil {
			return created, fmt.Errorf("list search indexes on %s: %w", idx.Collection, err)
		}
		exists := cursor.Next(ctx)
		cursor.Close(ctx)
		if exists {
			continue
		}

		model := mongo.SearchIndexModel{
			Definition: bson.D{{Key: "fields", Value: bson.A{
				bson.D{
					{Key: "type", Value: "vector"},
					{Key: "path", Value: "embedding"},
					{Key: "numDimensions", Value: idx.Dimensions},
					{Key: "similarity", Value: "cosine"},
				},
			}}},
			Options: options.SearchIndexes().SetName(idx.Name).SetType("vectorSearch"),
		}
		if _, err := view.CreateOne(ctx, model); err != nil {
			return created, fmt.Errorf("create %s on %s: %w", idx.Name, idx.Collection, err)
		}
		created = append(created, idx.Name)
	}
	return created, nil
}

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"legal-rag-chatbot/internal/config"
	"legal-rag-chatbot/internal/health"
	"legal-rag-chatbot/internal/rag"

	"go.mongodb.org/mongo-driver/mongo"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run ./cmd/migrate <command>")
		fmt.Println("Commands:")
		fmt.Println("  create-indexes  - Create missing vector search indexes on the corpus collections")
		fmt.Println("  verify          - Report document counts per corpus collection")
		os.Exit(1)
	}

	command := os.Args[1]

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	client, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(context.Background())

	db := client.Database(cfg.DBName)

	switch command {
	case "create-indexes":
		if err := createIndexes(db, cfg.VectorDimensions); err != nil {
			log.Fatalf("Index creation failed: %v", err)
		}

	case "verify":
		if err := verifyCorpus(db); err != nil {
			log.Fatalf("Verification failed: %v", err)
		}
		fmt.Println("Corpus verification completed successfully!")

	default:
		fmt.Printf("Unknown command: %s\n", command)
		os.Exit(1)
	}
}

func corpusIndexes(dims int) []config.VectorIndex {
	indexes := make([]config.VectorIndex, 0, len(rag.Categories))
	for _, cat := range rag.Categories {
		indexes = append(indexes, config.VectorIndex{
			Collection: cat.Collection(),
			Name:       cat.IndexName(),
			Dimensions: dims,
		})
	}
	return indexes
}

func createIndexes(db *mongo.Database, dims int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	created, err := config.EnsureVectorIndexes(ctx, db, corpusIndexes(dims))
	for _, name := range created {
		fmt.Printf("Created %s (%d dimensions)\n", name, dims)
	}
	if err != nil {
		return err
	}
	if len(created) == 0 {
		fmt.Println("All vector indexes already exist")
	}
	return nil
}

func verifyCorpus(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	corpus := health.MongoCorpus{DB: db}
	for _, cat := range rag.Categories {
		count, err := corpus.Count(ctx, cat.Collection())
		if err != nil {
			return fmt.Errorf("failed to count documents in %s: %v", cat.Collection(), err)
		}
		fmt.Printf("  %s: %d documents\n", cat.Collection(), count)
		if count == 0 {
			return fmt.Errorf("collection %s is empty", cat.Collection())
		}
	}
	return nil
}

package rag

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// DefaultNumCandidates is the ANN candidate pool size per query.
const DefaultNumCandidates = 100

// Retriever runs a vector similarity search against one category.
type Retriever interface {
	RetrieveCases(ctx context.Context, vector []float32, topK int) ([]CaseDoc, error)
	RetrieveLaws(ctx context.Context, vector []float32, topK int) ([]LawDoc, error)
	RetrievePractices(ctx context.Context, vector []float32, topK int) ([]PracticeDoc, error)
}

// MongoRetriever searches the legal corpus with Atlas $vectorSearch.
type MongoRetriever struct {
	db            *mongo.Database
	numCandidates int
}

// NewMongoRetriever wraps the corpus database. The handle is shared and safe
// for concurrent use.
func NewMongoRetriever(db *mongo.Database, numCandidates int) *MongoRetriever {
	if numCandidates <= 0 {
		numCandidates = DefaultNumCandidates
	}
	return &MongoRetriever{db: db, numCandidates: numCandidates}
}

func (r *MongoRetriever) RetrieveCases(ctx context.Context, vector []float32, topK int) ([]CaseDoc, error) {
	docs := make([]CaseDoc, 0, max(topK, 0))
	if err := r.search(ctx, CategoryCase, vector, topK, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *MongoRetriever) RetrieveLaws(ctx context.Context, vector []float32, topK int) ([]LawDoc, error) {
	docs := make([]LawDoc, 0, max(topK, 0))
	if err := r.search(ctx, CategoryLaw, vector, topK, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *MongoRetriever) RetrievePractices(ctx context.Context, vector []float32, topK int) ([]PracticeDoc, error) {
	docs := make([]PracticeDoc, 0, max(topK, 0))
	if err := r.search(ctx, CategoryPractice, vector, topK, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *MongoRetriever) search(ctx context.Context, cat Category, vector []float32, topK int, out any) error {
	// A non-positive limit asks for nothing; $vectorSearch would reject it.
	if topK <= 0 {
		return nil
	}
	coll := r.db.Collection(cat.Collection())

	cursor, err := coll.Aggregate(ctx, VectorSearchPipeline(cat, vector, r.numCandidates, topK))
	if err != nil {
		return fmt.Errorf("aggregate %s: %w", coll.Name(), err)
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, out); err != nil {
		return fmt.Errorf("decode %s: %w", coll.Name(), err)
	}
	return nil
}

// VectorSearchPipeline builds the $vectorSearch + $project stages for a category.
func VectorSearchPipeline(cat Category, vector []float32, numCandidates, topK int) mongo.Pipeline {
	if numCandidates < topK {
		numCandidates = topK
	}
	return mongo.Pipeline{
		{{Key: "$vectorSearch", Value: bson.D{
			{Key: "index", Value: cat.IndexName()},
			{Key: "path", Value: "embedding"},
			{Key: "queryVector", Value: vector},
			{Key: "numCandidates", Value: numCandidates},
			{Key: "limit", Value: topK},
		}}},
		{{Key: "$project", Value: projection(cat)}},
	}
}

func projection(cat Category) bson.D {
	proj := bson.D{{Key: "_id", Value: 0}}
	var fields []string
	switch cat {
	case CategoryCase:
		fields = []string{"case_no", "case_name", "holding", "text"}
	case CategoryLaw:
		fields = []string{"law_id", "law_name", "promulgation_no", "text"}
	case CategoryPractice:
		fields = []string{"material_type", "edition", "org_author", "filename", "text"}
	}
	for _, f := range fields {
		proj = append(proj, bson.E{Key: f, Value: 1})
	}
	return append(proj, bson.E{Key: "score", Value: bson.D{{Key: "$meta", Value: "vectorSearchScore"}}})
}

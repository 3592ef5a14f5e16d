package health

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoCorpus adapts a database to Corpus.
type MongoCorpus struct {
	DB *mongo.Database
}

func (m MongoCorpus) Ping(ctx context.Context) error {
	return m.DB.Client().Ping(ctx, readpref.Primary())
}

func (m MongoCorpus) Count(ctx context.Context, collection string) (int64, error) {
	return m.DB.Collection(collection).EstimatedDocumentCount(ctx)
}

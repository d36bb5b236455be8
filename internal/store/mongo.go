package store

import (
	"context"
	"fmt"

	"github.com/bobby-s-dev/cloudburst/internal/models"
	"github.com/jonboulle/clockwork"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	clock      clockwork.Clock
	logger     *zap.Logger
}

// NewMongoStore connects to uri and verifies the connection before returning.
func NewMongoStore(ctx context.Context, uri, database string, clock clockwork.Clock, logger *zap.Logger) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}

	logger.Info("MongoDB connected",
		zap.String("database", database),
		zap.String("collection", Collection))

	return &MongoStore{
		client:     client,
		collection: client.Database(database).Collection(Collection),
		clock:      orRealClock(clock),
		logger:     logger,
	}, nil
}

func (s *MongoStore) SaveSearch(ctx context.Context, city, userID string) (*models.SavedSearch, error) {
	search, err := newSearch(s.clock, city, userID)
	if err != nil {
		return nil, err
	}

	if _, err := s.collection.InsertOne(ctx, search); err != nil {
		return nil, fmt.Errorf("inserting search: %w", err)
	}
	return search, nil
}

// CountSearches returns how many documents exist for userID.
func (s *MongoStore) CountSearches(ctx context.Context, userID string) (int64, error) {
	return s.collection.CountDocuments(ctx, bson.M{"userId": userID})
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

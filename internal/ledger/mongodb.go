package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/socialsync/instagram-sync-service/internal/config"
	"github.com/socialsync/instagram-sync-service/internal/models"
)

const (
	mongoDatabase   = "instagram_sync"
	mongoCollection = "processed_posts"
)

// MongoDBLedger implements Ledger using MongoDB.
type MongoDBLedger struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoDBLedger creates a new MongoDB ledger instance.
func NewMongoDBLedger(cfg config.LedgerConfig) (*MongoDBLedger, error) {
	if cfg.MongoDBURI == "" {
		return nil, fmt.Errorf("MongoDB URI is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoDBURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &MongoDBLedger{
		client:     client,
		collection: client.Database(mongoDatabase).Collection(mongoCollection),
	}, nil
}

// IsProcessed reports whether a record exists for the post ID.
func (l *MongoDBLedger) IsProcessed(ctx context.Context, postID string) (bool, error) {
	err := l.collection.FindOne(ctx, bson.M{"instagramPostId": postID}).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get record for post %s: %w", postID, err)
	}
	return true, nil
}

// MarkProcessed upserts the record for its post ID.
func (l *MongoDBLedger) MarkProcessed(ctx context.Context, rec models.ProcessedPost) (string, error) {
	result, err := l.collection.ReplaceOne(ctx,
		bson.M{"instagramPostId": rec.InstagramPostID},
		rec,
		options.Replace().SetUpsert(true))
	if err != nil {
		return "", fmt.Errorf("failed to store record for post %s: %w", rec.InstagramPostID, err)
	}

	if result.ModifiedCount == 0 && result.UpsertedCount == 0 && result.MatchedCount == 0 {
		// The driver acknowledged the write but nothing changed
		return "", nil
	}

	return rec.InstagramPostID, nil
}

// GetRecords returns up to limit records, most recent first.
func (l *MongoDBLedger) GetRecords(ctx context.Context, limit int) ([]models.ProcessedPost, error) {
	opts := options.Find().
		SetLimit(int64(limit)).
		SetSort(bson.M{"createdAt": -1})

	cursor, err := l.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer cursor.Close(ctx)

	var records []models.ProcessedPost
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode records: %w", err)
	}

	return records, nil
}

// Close disconnects from MongoDB.
func (l *MongoDBLedger) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return l.client.Disconnect(ctx)
}

// Package ledger tracks which Instagram posts have already been
// published. A record's existence is the sole idempotency signal for the
// pipeline; absence means "not yet processed", not "in progress".
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/socialsync/instagram-sync-service/internal/config"
	"github.com/socialsync/instagram-sync-service/internal/models"
)

// Ledger defines the contract for the dedup store.
//
// MarkProcessed upserts by post ID: a second write for the same key
// overwrites rather than erroring. It returns the post ID on success and
// "" when the store reported non-success without a transport error, so
// callers can tell "ledger unavailable" from "ledger rejected the write".
type Ledger interface {
	IsProcessed(ctx context.Context, postID string) (bool, error)
	MarkProcessed(ctx context.Context, rec models.ProcessedPost) (string, error)
	GetRecords(ctx context.Context, limit int) ([]models.ProcessedPost, error)
	Close() error
}

// NewLedger creates a ledger instance based on configuration.
func NewLedger(cfg config.LedgerConfig) (Ledger, error) {
	switch cfg.Type {
	case "dynamodb":
		return NewDynamoDBLedger(cfg)
	case "mongodb":
		return NewMongoDBLedger(cfg)
	case "postgresql":
		return NewPostgreSQLLedger(cfg)
	default:
		return nil, fmt.Errorf("unsupported ledger type: %s", cfg.Type)
	}
}

// NewRecord builds a ledger record for a freshly published post.
func NewRecord(postID string, articleID int64, meta models.RecordMetadata) models.ProcessedPost {
	now := time.Now().UTC()
	metaJSON, _ := json.Marshal(meta)

	return models.ProcessedPost{
		InstagramPostID: postID,
		StrapiArticleID: articleID,
		CreatedAt:       now.UnixMilli(),
		ProcessedAt:     now.Format(time.RFC3339),
		Metadata:        string(metaJSON),
		Status:          models.StatusProcessed,
	}
}

package ledger

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/socialsync/instagram-sync-service/internal/config"
	"github.com/socialsync/instagram-sync-service/internal/models"
)

const createTableStmt = `
CREATE TABLE IF NOT EXISTS processed_posts (
	instagram_post_id TEXT PRIMARY KEY,
	strapi_article_id BIGINT NOT NULL,
	created_at        BIGINT NOT NULL,
	processed_at      TEXT NOT NULL,
	metadata          TEXT NOT NULL,
	status            TEXT NOT NULL
)`

// PostgreSQLLedger implements Ledger using PostgreSQL.
type PostgreSQLLedger struct {
	db *sql.DB
}

// NewPostgreSQLLedger creates a new PostgreSQL ledger instance.
func NewPostgreSQLLedger(cfg config.LedgerConfig) (*PostgreSQLLedger, error) {
	if cfg.PostgresURI == "" {
		return nil, fmt.Errorf("Postgres URI is required")
	}

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open Postgres connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping Postgres: %w", err)
	}

	if _, err := db.Exec(createTableStmt); err != nil {
		return nil, fmt.Errorf("failed to ensure table exists: %w", err)
	}

	return &PostgreSQLLedger{db: db}, nil
}

// IsProcessed reports whether a record exists for the post ID.
func (l *PostgreSQLLedger) IsProcessed(ctx context.Context, postID string) (bool, error) {
	var exists bool
	err := l.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM processed_posts WHERE instagram_post_id = $1)",
		postID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to get record for post %s: %w", postID, err)
	}
	return exists, nil
}

// MarkProcessed upserts the record for its post ID.
func (l *PostgreSQLLedger) MarkProcessed(ctx context.Context, rec models.ProcessedPost) (string, error) {
	result, err := l.db.ExecContext(ctx, `
		INSERT INTO processed_posts
			(instagram_post_id, strapi_article_id, created_at, processed_at, metadata, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (instagram_post_id) DO UPDATE SET
			strapi_article_id = EXCLUDED.strapi_article_id,
			created_at = EXCLUDED.created_at,
			processed_at = EXCLUDED.processed_at,
			metadata = EXCLUDED.metadata,
			status = EXCLUDED.status`,
		rec.InstagramPostID, rec.StrapiArticleID, rec.CreatedAt,
		rec.ProcessedAt, rec.Metadata, rec.Status)
	if err != nil {
		return "", fmt.Errorf("failed to store record for post %s: %w", rec.InstagramPostID, err)
	}

	rows, err := result.RowsAffected()
	if err == nil && rows == 0 {
		// Acknowledged but nothing written
		return "", nil
	}

	return rec.InstagramPostID, nil
}

// GetRecords returns up to limit records, most recent first.
func (l *PostgreSQLLedger) GetRecords(ctx context.Context, limit int) ([]models.ProcessedPost, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT instagram_post_id, strapi_article_id, created_at, processed_at, metadata, status
		FROM processed_posts
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []models.ProcessedPost
	for rows.Next() {
		var rec models.ProcessedPost
		if err := rows.Scan(&rec.InstagramPostID, &rec.StrapiArticleID, &rec.CreatedAt,
			&rec.ProcessedAt, &rec.Metadata, &rec.Status); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// Close closes the database connection.
func (l *PostgreSQLLedger) Close() error {
	return l.db.Close()
}

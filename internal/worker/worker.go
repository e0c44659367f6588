// Package worker runs the per-item pipeline: dedup check, enhancement,
// publish, ledger write.
package worker

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/socialsync/instagram-sync-service/internal/ledger"
	"github.com/socialsync/instagram-sync-service/internal/models"
	"github.com/socialsync/instagram-sync-service/internal/textutil"
)

// Outcome is the terminal state of one work item.
type Outcome int

const (
	// OutcomePublished means the post was enhanced, published and recorded.
	OutcomePublished Outcome = iota
	// OutcomeSkipped means the ledger already holds a record for the post.
	OutcomeSkipped
	// OutcomeMalformed means the payload could not be parsed; the item is
	// dropped, not redelivered.
	OutcomeMalformed
	// OutcomeFailed means a pipeline step failed; queue redelivery is the
	// only retry mechanism.
	OutcomeFailed
)

// ContentEnhancer derives blog content from a post. Never fails.
type ContentEnhancer interface {
	Enhance(ctx context.Context, post models.InstagramPost) models.EnhancedContent
}

// ArticlePublisher publishes a post and returns the sink article ID.
type ArticlePublisher interface {
	Publish(ctx context.Context, post models.InstagramPost, content models.EnhancedContent) (int64, error)
}

// Worker processes work items delivered from the queue.
//
// The dedup check is read-then-act with no cross-invocation lock: two
// concurrent deliveries of the same unseen post can both pass the check
// and both publish, producing two articles for one post. This race is
// accepted; a stronger design would claim the post with a conditional
// write before publishing.
type Worker struct {
	ledger    ledger.Ledger
	enhancer  ContentEnhancer
	publisher ArticlePublisher
	logger    *slog.Logger
}

// NewWorker creates a new worker.
func NewWorker(l ledger.Ledger, e ContentEnhancer, p ArticlePublisher, logger *slog.Logger) *Worker {
	return &Worker{
		ledger:    l,
		enhancer:  e,
		publisher: p,
		logger:    logger,
	}
}

// Process runs one work item through the pipeline.
func (w *Worker) Process(ctx context.Context, body string) (Outcome, error) {
	var item models.WorkItem
	if err := json.Unmarshal([]byte(body), &item); err != nil {
		w.logger.Error("malformed work item, dropping",
			slog.String("error", err.Error()))
		return OutcomeMalformed, err
	}

	post := item.Post
	w.logger.Info("processing post", slog.String("post_id", post.ID))

	processed, err := w.ledger.IsProcessed(ctx, post.ID)
	if err != nil {
		// Fail open: availability over strict once-only semantics. A
		// post may be re-published while the ledger is unreachable.
		w.logger.Warn("ledger check failed, treating post as unprocessed",
			slog.String("post_id", post.ID),
			slog.String("error", err.Error()))
		processed = false
	}
	if processed {
		w.logger.Info("post already processed, skipping",
			slog.String("post_id", post.ID))
		return OutcomeSkipped, nil
	}

	content := w.enhancer.Enhance(ctx, post)

	articleID, err := w.publisher.Publish(ctx, post, content)
	if err != nil {
		w.logger.Error("publish failed",
			slog.String("post_id", post.ID),
			slog.String("error", err.Error()))
		return OutcomeFailed, err
	}

	rec := ledger.NewRecord(post.ID, articleID, models.RecordMetadata{
		Title:           content.Title,
		Slug:            textutil.GenerateSlug(content.Title),
		ImageURL:        post.ImageURL(),
		OriginalCaption: post.Caption,
		AIEnhanced:      true,
		Tags:            content.Tags,
	})

	// Best effort: a failed write leaves the post published but
	// unrecorded, so a redelivery would publish it again.
	if id, err := w.ledger.MarkProcessed(ctx, rec); err != nil {
		w.logger.Warn("failed to record processed post",
			slog.String("post_id", post.ID),
			slog.String("error", err.Error()))
	} else if id == "" {
		w.logger.Warn("ledger did not record processed post",
			slog.String("post_id", post.ID))
	}

	w.logger.Info("post published",
		slog.String("post_id", post.ID),
		slog.Int64("article_id", articleID))

	return OutcomePublished, nil
}

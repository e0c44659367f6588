// Package dispatcher fans a fetched batch of posts out onto the work
// queue, one message per eligible post.
package dispatcher

import (
	"context"
	"encoding/json"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/socialsync/instagram-sync-service/internal/errs"
	"github.com/socialsync/instagram-sync-service/internal/models"
	"github.com/socialsync/instagram-sync-service/internal/queue"
)

// PostFetcher lists eligible posts for an access token.
type PostFetcher interface {
	FetchPosts(ctx context.Context, accessToken string) ([]models.InstagramPost, error)
}

// Dispatcher handles sync triggers.
type Dispatcher struct {
	fetcher PostFetcher
	queue   queue.Queue
	logger  *slog.Logger
}

// NewDispatcher creates a new dispatcher.
func NewDispatcher(fetcher PostFetcher, q queue.Queue, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		fetcher: fetcher,
		queue:   q,
		logger:  logger,
	}
}

// Dispatch fetches the account's eligible posts and enqueues one work
// item per post. Enqueues run concurrently and the dispatch succeeds only
// if all of them do; a partial failure surfaces as a single aggregate
// error. Returns the number of posts queued.
//
// Dispatch is not idempotent: triggering it twice re-enqueues the same
// posts. The worker's dedup check absorbs the duplicates.
func (d *Dispatcher) Dispatch(ctx context.Context, accessToken string) (int, error) {
	if accessToken == "" {
		return 0, errs.New(errs.KindValidation, "Instagram access token is required")
	}

	posts, err := d.fetcher.FetchPosts(ctx, accessToken)
	if err != nil {
		return 0, err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, post := range posts {
		post := post
		g.Go(func() error {
			body, err := json.Marshal(models.WorkItem{
				Post:        post,
				AccessToken: accessToken,
			})
			if err != nil {
				return err
			}
			return d.queue.Send(gctx, string(body))
		})
	}

	if err := g.Wait(); err != nil {
		return 0, errs.Wrap(errs.KindEnqueue, "failed to enqueue posts", err)
	}

	d.logger.Info("posts queued for processing", slog.Int("count", len(posts)))

	return len(posts), nil
}

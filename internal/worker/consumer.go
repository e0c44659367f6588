package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/socialsync/instagram-sync-service/internal/config"
	"github.com/socialsync/instagram-sync-service/internal/queue"
)

const receiveErrorBackoff = 5 * time.Second

// Consumer drives the worker from the queue. Messages in one received
// batch are processed strictly sequentially; one item's failure never
// aborts the rest of the batch.
type Consumer struct {
	queue       queue.Queue
	worker      *Worker
	maxAttempts int
	logger      *slog.Logger
}

// NewConsumer creates a new queue consumer.
func NewConsumer(q queue.Queue, w *Worker, cfg config.ConsumerConfig, logger *slog.Logger) *Consumer {
	return &Consumer{
		queue:       q,
		worker:      w,
		maxAttempts: cfg.MaxAttempts,
		logger:      logger,
	}
}

// Start long-polls the queue until the context is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		messages, err := c.queue.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Error("failed to receive messages",
				slog.String("error", err.Error()))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(receiveErrorBackoff):
			}
			continue
		}

		c.ProcessBatch(ctx, messages)
	}
}

// ProcessBatch handles one received batch. Successful and skipped items
// are acknowledged; malformed ones are dropped; failed ones are left for
// redelivery until the attempt limit, then moved to the dead-letter
// queue.
func (c *Consumer) ProcessBatch(ctx context.Context, messages []queue.Message) {
	for _, msg := range messages {
		outcome, err := c.worker.Process(ctx, msg.Body)

		switch outcome {
		case OutcomePublished, OutcomeSkipped:
			c.ack(ctx, msg)

		case OutcomeMalformed:
			// Redelivering an unparseable payload can never succeed
			c.ack(ctx, msg)

		case OutcomeFailed:
			if msg.ReceiveCount >= c.maxAttempts {
				c.logger.Error("giving up on message, moving to dead-letter queue",
					slog.String("message_id", msg.ID),
					slog.Int("attempts", msg.ReceiveCount),
					slog.String("error", err.Error()))
				if dlqErr := c.queue.SendDeadLetter(ctx, msg.Body); dlqErr != nil {
					c.logger.Error("failed to dead-letter message",
						slog.String("message_id", msg.ID),
						slog.String("error", dlqErr.Error()))
					// Leave the message for another redelivery round
					continue
				}
				c.ack(ctx, msg)
			}
			// Otherwise leave the message; it returns after the
			// visibility timeout
		}
	}
}

func (c *Consumer) ack(ctx context.Context, msg queue.Message) {
	if err := c.queue.Delete(ctx, msg.ReceiptHandle); err != nil {
		c.logger.Warn("failed to delete message",
			slog.String("message_id", msg.ID),
			slog.String("error", err.Error()))
	}
}

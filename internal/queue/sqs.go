package queue

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/aws/aws-sdk-go/service/sqs/sqsiface"

	"github.com/socialsync/instagram-sync-service/internal/config"
	"github.com/socialsync/instagram-sync-service/internal/errs"
)

// SQSQueue implements Queue on AWS SQS.
type SQSQueue struct {
	client        sqsiface.SQSAPI
	queueURL      string
	deadLetterURL string
	waitTime      int64
	maxMessages   int64
}

// NewSQSQueue creates a new SQS-backed queue.
func NewSQSQueue(cfg config.QueueConfig) (*SQSQueue, error) {
	if cfg.QueueURL == "" {
		return nil, fmt.Errorf("queue URL is required")
	}

	awsConfig := &aws.Config{
		Region: aws.String(cfg.Region),
	}

	// For local testing with ElasticMQ/LocalStack
	if cfg.Endpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.Endpoint)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &SQSQueue{
		client:        sqs.New(sess),
		queueURL:      cfg.QueueURL,
		deadLetterURL: cfg.DeadLetterURL,
		waitTime:      int64(cfg.WaitTime.Seconds()),
		maxMessages:   int64(cfg.MaxPerReceive),
	}, nil
}

// Send enqueues one message body.
func (q *SQSQueue) Send(ctx context.Context, body string) error {
	_, err := q.client.SendMessageWithContext(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(q.queueURL),
		MessageBody: aws.String(body),
	})
	if err != nil {
		return errs.Wrap(errs.KindEnqueue, "failed to send message", err)
	}
	return nil
}

// Receive long-polls the queue and returns up to the configured number
// of messages. An empty slice means the poll timed out with nothing to do.
func (q *SQSQueue) Receive(ctx context.Context) ([]Message, error) {
	out, err := q.client.ReceiveMessageWithContext(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(q.queueURL),
		MaxNumberOfMessages: aws.Int64(q.maxMessages),
		WaitTimeSeconds:     aws.Int64(q.waitTime),
		AttributeNames: []*string{
			aws.String(sqs.MessageSystemAttributeNameApproximateReceiveCount),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to receive messages: %w", err)
	}

	messages := make([]Message, 0, len(out.Messages))
	for _, m := range out.Messages {
		msg := Message{
			ID:            aws.StringValue(m.MessageId),
			ReceiptHandle: aws.StringValue(m.ReceiptHandle),
			Body:          aws.StringValue(m.Body),
			ReceiveCount:  1,
		}
		if v, ok := m.Attributes[sqs.MessageSystemAttributeNameApproximateReceiveCount]; ok {
			if n, err := strconv.Atoi(aws.StringValue(v)); err == nil {
				msg.ReceiveCount = n
			}
		}
		messages = append(messages, msg)
	}

	return messages, nil
}

// Delete acknowledges a received message so it will not be redelivered.
func (q *SQSQueue) Delete(ctx context.Context, receiptHandle string) error {
	_, err := q.client.DeleteMessageWithContext(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(q.queueURL),
		ReceiptHandle: aws.String(receiptHandle),
	})
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

// SendDeadLetter copies a poison message body to the dead-letter queue.
// A no-op when no dead-letter queue is configured.
func (q *SQSQueue) SendDeadLetter(ctx context.Context, body string) error {
	if q.deadLetterURL == "" {
		return nil
	}

	_, err := q.client.SendMessageWithContext(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(q.deadLetterURL),
		MessageBody: aws.String(body),
	})
	if err != nil {
		return fmt.Errorf("failed to send to dead-letter queue: %w", err)
	}
	return nil
}

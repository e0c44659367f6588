package queue

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/aws/aws-sdk-go/service/sqs/sqsiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/socialsync/instagram-sync-service/internal/errs"
)

// mockSQS mocks the three SQS calls the queue uses; everything else
// panics via the embedded interface.
type mockSQS struct {
	sqsiface.SQSAPI
	mock.Mock
}

func (m *mockSQS) SendMessageWithContext(ctx aws.Context, input *sqs.SendMessageInput, opts ...request.Option) (*sqs.SendMessageOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sqs.SendMessageOutput), args.Error(1)
}

func (m *mockSQS) ReceiveMessageWithContext(ctx aws.Context, input *sqs.ReceiveMessageInput, opts ...request.Option) (*sqs.ReceiveMessageOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sqs.ReceiveMessageOutput), args.Error(1)
}

func (m *mockSQS) DeleteMessageWithContext(ctx aws.Context, input *sqs.DeleteMessageInput, opts ...request.Option) (*sqs.DeleteMessageOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sqs.DeleteMessageOutput), args.Error(1)
}

func newTestQueue(client sqsiface.SQSAPI) *SQSQueue {
	return &SQSQueue{
		client:        client,
		queueURL:      "https://sqs.test/main",
		deadLetterURL: "https://sqs.test/dlq",
		waitTime:      1,
		maxMessages:   5,
	}
}

func TestSQSQueue_Send(t *testing.T) {
	client := new(mockSQS)
	client.On("SendMessageWithContext", mock.Anything, mock.MatchedBy(func(in *sqs.SendMessageInput) bool {
		return aws.StringValue(in.QueueUrl) == "https://sqs.test/main" &&
			aws.StringValue(in.MessageBody) == `{"x":1}`
	})).Return(&sqs.SendMessageOutput{}, nil)

	q := newTestQueue(client)

	err := q.Send(context.Background(), `{"x":1}`)

	assert.NoError(t, err)
	client.AssertExpectations(t)
}

func TestSQSQueue_Send_Error(t *testing.T) {
	client := new(mockSQS)
	client.On("SendMessageWithContext", mock.Anything, mock.Anything).
		Return(nil, assert.AnError)

	q := newTestQueue(client)

	err := q.Send(context.Background(), "body")

	assert.Error(t, err)
	assert.Equal(t, errs.KindEnqueue, errs.KindOf(err))
}

func TestSQSQueue_Receive(t *testing.T) {
	client := new(mockSQS)
	client.On("ReceiveMessageWithContext", mock.Anything, mock.Anything).
		Return(&sqs.ReceiveMessageOutput{
			Messages: []*sqs.Message{
				{
					MessageId:     aws.String("m1"),
					ReceiptHandle: aws.String("rh1"),
					Body:          aws.String("body1"),
					Attributes: map[string]*string{
						sqs.MessageSystemAttributeNameApproximateReceiveCount: aws.String("3"),
					},
				},
				{
					MessageId:     aws.String("m2"),
					ReceiptHandle: aws.String("rh2"),
					Body:          aws.String("body2"),
				},
			},
		}, nil)

	q := newTestQueue(client)

	messages, err := q.Receive(context.Background())

	assert.NoError(t, err)
	assert.Len(t, messages, 2)
	assert.Equal(t, Message{ID: "m1", ReceiptHandle: "rh1", Body: "body1", ReceiveCount: 3}, messages[0])
	// Missing attribute defaults to a first delivery
	assert.Equal(t, 1, messages[1].ReceiveCount)
}

func TestSQSQueue_Delete(t *testing.T) {
	client := new(mockSQS)
	client.On("DeleteMessageWithContext", mock.Anything, mock.MatchedBy(func(in *sqs.DeleteMessageInput) bool {
		return aws.StringValue(in.ReceiptHandle) == "rh1"
	})).Return(&sqs.DeleteMessageOutput{}, nil)

	q := newTestQueue(client)

	assert.NoError(t, q.Delete(context.Background(), "rh1"))
	client.AssertExpectations(t)
}

func TestSQSQueue_SendDeadLetter(t *testing.T) {
	client := new(mockSQS)
	client.On("SendMessageWithContext", mock.Anything, mock.MatchedBy(func(in *sqs.SendMessageInput) bool {
		return aws.StringValue(in.QueueUrl) == "https://sqs.test/dlq"
	})).Return(&sqs.SendMessageOutput{}, nil)

	q := newTestQueue(client)

	assert.NoError(t, q.SendDeadLetter(context.Background(), "poison"))
	client.AssertExpectations(t)
}

func TestSQSQueue_SendDeadLetter_NotConfigured(t *testing.T) {
	client := new(mockSQS)
	q := newTestQueue(client)
	q.deadLetterURL = ""

	assert.NoError(t, q.SendDeadLetter(context.Background(), "poison"))
	client.AssertNotCalled(t, "SendMessageWithContext", mock.Anything, mock.Anything)
}

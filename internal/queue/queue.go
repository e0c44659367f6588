package queue

import "context"

// Message is a single delivery from the queue. ReceiveCount carries how
// many times the message has been delivered, used by the consumer to
// bound redelivery of poison messages.
type Message struct {
	ID            string
	ReceiptHandle string
	Body          string
	ReceiveCount  int
}

// Queue defines the contract for the work-item transport. Delivery is
// at-least-once: a message that is received but not deleted comes back
// after the visibility timeout.
type Queue interface {
	Send(ctx context.Context, body string) error
	Receive(ctx context.Context) ([]Message, error)
	Delete(ctx context.Context, receiptHandle string) error
	SendDeadLetter(ctx context.Context, body string) error
}

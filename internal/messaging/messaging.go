package messaging

import (
	"context"
	"time"
)

const (
	// GenerateQueue carries wake-up messages for the banner worker. The
	// database row remains the source of truth; the message only tells a
	// worker that something is claimable.
	GenerateQueue = "banner_generate"

	RetryDelay      = 5 * time.Second
	MaxConnectRetry = 5
)

// TaskMessage is the payload published for each enqueued task.
type TaskMessage struct {
	TaskID string `json:"task_id"`
}

// Delivery is one received queue message.
type Delivery interface {
	Payload() []byte

	Ack() error

	Nack() error
}

// Publisher enqueues task messages.
type Publisher interface {
	PublishGenerateTask(ctx context.Context, msg TaskMessage) error

	Close()
}

// Receiver exposes a stream of deliveries for the worker to consume.
type Receiver interface {
	Deliveries() <-chan Delivery

	Close()
}

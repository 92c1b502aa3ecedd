package messaging

import (
	"context"
	"encoding/json"
	"sync"
)

type memoryDelivery struct {
	payload []byte
}

func (d memoryDelivery) Payload() []byte { return d.payload }
func (d memoryDelivery) Ack() error      { return nil }
func (d memoryDelivery) Nack() error     { return nil }

// InMemoryQueue is a broker-less Publisher/Receiver pair for tests and
// single-process setups.
type InMemoryQueue struct {
	mu         sync.Mutex
	closed     bool
	deliveries chan Delivery
}

func NewInMemoryQueue() *InMemoryQueue {
	return &InMemoryQueue{deliveries: make(chan Delivery, 100)}
}

func (q *InMemoryQueue) PublishGenerateTask(ctx context.Context, msg TaskMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	select {
	case q.deliveries <- memoryDelivery{payload: data}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *InMemoryQueue) Deliveries() <-chan Delivery { return q.deliveries }

func (q *InMemoryQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.deliveries)
	}
}

var (
	_ Publisher = (*InMemoryQueue)(nil)
	_ Receiver  = (*InMemoryQueue)(nil)
)

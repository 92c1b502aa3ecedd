package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

func dialWithRetry(url string, logger zerolog.Logger) (*amqp.Connection, error) {
	var conn *amqp.Connection
	var err error
	for i := 0; i < MaxConnectRetry; i++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			logger.Info().Msg("rabbitmq: connected")
			return conn, nil
		}
		logger.Warn().Err(err).Int("attempt", i+1).Int("max_attempts", MaxConnectRetry).Msg("rabbitmq: connect failed, retrying")
		time.Sleep(RetryDelay)
	}
	return nil, fmt.Errorf("rabbitmq: connect after %d attempts: %w", MaxConnectRetry, err)
}

// RabbitPublisher publishes task messages to a durable queue.
type RabbitPublisher struct {
	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
	url     string
	logger  zerolog.Logger
}

// NewRabbitPublisher connects, declares the queue and returns a publisher.
func NewRabbitPublisher(url string, logger zerolog.Logger) (*RabbitPublisher, error) {
	p := &RabbitPublisher{url: url, logger: logger}
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *RabbitPublisher) connect() error {
	conn, err := dialWithRetry(p.url, p.logger)
	if err != nil {
		return err
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("rabbitmq: open channel: %w", err)
	}
	if _, err := channel.QueueDeclare(GenerateQueue, true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return fmt.Errorf("rabbitmq: declare queue %s: %w", GenerateQueue, err)
	}
	p.conn = conn
	p.channel = channel
	return nil
}

func (p *RabbitPublisher) ensureChannel() error {
	if p.channel != nil && !p.channel.IsClosed() {
		return nil
	}
	p.logger.Warn().Msg("rabbitmq: channel lost, reconnecting")
	return p.connect()
}

// PublishGenerateTask sends one persistent task message.
func (p *RabbitPublisher) PublishGenerateTask(ctx context.Context, msg TaskMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensureChannel(); err != nil {
		return err
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("rabbitmq: marshal task message: %w", err)
	}
	err = p.channel.PublishWithContext(ctx,
		"",            // default exchange
		GenerateQueue, // routing key
		false, false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("rabbitmq: publish task: %w", err)
	}
	return nil
}

// Close releases the channel and connection.
func (p *RabbitPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}

type rabbitDelivery struct {
	d amqp.Delivery
}

func (r rabbitDelivery) Payload() []byte { return r.d.Body }
func (r rabbitDelivery) Ack() error      { return r.d.Ack(false) }
func (r rabbitDelivery) Nack() error     { return r.d.Nack(false, true) }

// RabbitReceiver consumes task messages one at a time.
type RabbitReceiver struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	deliveries chan Delivery
	done       chan struct{}
	closeOnce  sync.Once
	logger     zerolog.Logger
}

// NewRabbitReceiver connects and starts consuming from the generate queue.
func NewRabbitReceiver(url string, logger zerolog.Logger) (*RabbitReceiver, error) {
	conn, err := dialWithRetry(url, logger)
	if err != nil {
		return nil, err
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("rabbitmq: open channel: %w", err)
	}
	if err := channel.Qos(1, 0, false); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("rabbitmq: set qos: %w", err)
	}
	if _, err := channel.QueueDeclare(GenerateQueue, true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("rabbitmq: declare queue %s: %w", GenerateQueue, err)
	}
	msgs, err := channel.Consume(GenerateQueue, "", false, false, false, false, nil)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("rabbitmq: consume: %w", err)
	}

	r := &RabbitReceiver{
		conn:       conn,
		channel:    channel,
		deliveries: make(chan Delivery),
		done:       make(chan struct{}),
		logger:     logger,
	}
	go r.forward(msgs)
	return r, nil
}

func (r *RabbitReceiver) forward(msgs <-chan amqp.Delivery) {
	defer close(r.deliveries)
	for {
		select {
		case <-r.done:
			return
		case d, ok := <-msgs:
			if !ok {
				r.logger.Warn().Msg("rabbitmq: delivery channel closed")
				return
			}
			select {
			case r.deliveries <- rabbitDelivery{d: d}:
			case <-r.done:
				return
			}
		}
	}
}

// Deliveries returns the stream of incoming messages.
func (r *RabbitReceiver) Deliveries() <-chan Delivery { return r.deliveries }

// Close stops consuming and tears down the connection.
func (r *RabbitReceiver) Close() {
	r.closeOnce.Do(func() {
		close(r.done)
		if r.channel != nil {
			r.channel.Close()
		}
		if r.conn != nil {
			r.conn.Close()
		}
	})
}

var (
	_ Publisher = (*RabbitPublisher)(nil)
	_ Receiver  = (*RabbitReceiver)(nil)
)

package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"studentmedia/internal/config"
)

const publishTimeout = 5 * time.Second

// RabbitClient publishes verification messages to a durable queue and
// consumes them in worker mode.
type RabbitClient struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   amqp.Queue
	logger  *zap.Logger

	mu       sync.Mutex
	closed   bool
	inflight sync.WaitGroup
}

func NewRabbitClient(cfg config.RabbitMQ, logger *zap.Logger) (*RabbitClient, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	q, err := ch.QueueDeclare(
		cfg.QueueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", cfg.QueueName, err)
	}

	logger.Info("RabbitMQ queue declared",
		zap.String("queue", q.Name),
		zap.Int("messages", q.Messages),
	)

	return &RabbitClient{conn: conn, channel: ch, queue: q, logger: logger}, nil
}

// Dispatch publishes in the background so the caller is never held up by the broker.
func (c *RabbitClient) Dispatch(_ context.Context, msg VerificationMessage) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.logger.Warn("publisher closed, dropping verification message", zap.String("email", msg.Email))
		return
	}
	c.inflight.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.inflight.Done()

		if err := c.Publish(context.Background(), msg); err != nil {
			c.logger.Error("failed to publish verification message",
				zap.String("email", msg.Email),
				zap.Error(err),
			)
		}
	}()
}

func (c *RabbitClient) Publish(ctx context.Context, msg VerificationMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	// amqp channels are not safe for concurrent publishing
	c.mu.Lock()
	defer c.mu.Unlock()

	err = c.channel.PublishWithContext(publishCtx,
		"",           // exchange
		c.queue.Name, // routing key
		false,        // mandatory
		false,        // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish a message: %w", err)
	}

	return nil
}

type deliveryAction int

const (
	actionAck deliveryAction = iota
	actionRequeue
	actionDrop
)

// handleDelivery decodes one message body and runs handler on it.
// A failed send is retried once. Codes that have already expired are never sent.
func handleDelivery(
	ctx context.Context,
	body []byte,
	redelivered bool,
	now time.Time,
	handler func(context.Context, VerificationMessage) error,
) (deliveryAction, error) {
	var msg VerificationMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return actionDrop, fmt.Errorf("malformed message: %w", err)
	}
	if msg.Email == "" || msg.Code == "" {
		return actionDrop, fmt.Errorf("message without email or code")
	}
	if !msg.ExpiresAt.IsZero() && !now.Before(msg.ExpiresAt) {
		return actionDrop, fmt.Errorf("verification code for %s expired at %s", msg.Email, msg.ExpiresAt.UTC().Format(time.RFC3339))
	}

	if err := handler(ctx, msg); err != nil {
		if redelivered {
			return actionDrop, fmt.Errorf("giving up after retry: %w", err)
		}
		return actionRequeue, err
	}
	return actionAck, nil
}

// Consume registers a consumer and processes messages until ctx is cancelled
// or the channel closes. It blocks.
func (c *RabbitClient) Consume(ctx context.Context, handler func(context.Context, VerificationMessage) error) error {
	msgs, err := c.channel.Consume(
		c.queue.Name,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register a consumer: %w", err)
	}

	c.logger.Info("consumer registered", zap.String("queue", c.queue.Name))

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("context cancelled, stopping consumer")
			return nil
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}

			action, err := handleDelivery(ctx, d.Body, d.Redelivered, time.Now(), handler)
			switch action {
			case actionAck:
				if err := d.Ack(false); err != nil {
					c.logger.Error("failed to ack message", zap.Error(err))
				}
			case actionRequeue:
				c.logger.Error("failed to process message, requeueing", zap.Error(err))
				if err := d.Nack(false, true); err != nil {
					c.logger.Error("failed to nack message", zap.Error(err))
				}
			case actionDrop:
				c.logger.Warn("dropping message", zap.Error(err), zap.ByteString("body", d.Body))
				if err := d.Nack(false, false); err != nil {
					c.logger.Error("failed to nack message", zap.Error(err))
				}
			}
		}
	}
}

// Close stops accepting messages, waits for in-flight publishes and then
// closes the channel and connection.
func (c *RabbitClient) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.inflight.Wait()

	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			c.logger.Warn("error closing RabbitMQ channel", zap.Error(err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			c.logger.Warn("error closing RabbitMQ connection", zap.Error(err))
		}
	}
}

package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const consumerTag = "notify-engine-intake"

// RabbitMQConsumer drains the intake queue and hands validated event
// messages to a handler. The worker runs exactly one of these.
type RabbitMQConsumer struct {
	client   *RabbitMQ
	prefetch int
	logger   *zap.Logger
}

func NewRabbitMQConsumer(client *RabbitMQ, prefetch int, logger *zap.Logger) *RabbitMQConsumer {
	if prefetch < 1 {
		prefetch = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RabbitMQConsumer{
		client:   client,
		prefetch: prefetch,
		logger:   logger,
	}
}

// Consume blocks on the intake queue until ctx is canceled, reconnecting
// with exponential backoff after broker faults.
func (c *RabbitMQConsumer) Consume(ctx context.Context, handler MessageHandler) error {
	if c == nil || c.client == nil {
		return fmt.Errorf("consumer is not initialized")
	}
	if handler == nil {
		return fmt.Errorf("message handler is required")
	}

	backoff := reconnectBackoff
	for {
		err := c.drain(ctx, handler)
		if ctx.Err() != nil {
			return nil
		}
		if err == nil {
			backoff = reconnectBackoff
			continue
		}

		c.logger.Warn("intake consume interrupted, reconnecting",
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// drain consumes deliveries over one channel until the channel dies or ctx
// is canceled.
func (c *RabbitMQConsumer) drain(ctx context.Context, handler MessageHandler) error {
	ch, err := c.client.channel(ctx)
	if err != nil {
		return err
	}
	defer ch.Close() //nolint:errcheck // best-effort channel close

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set qos: %w", err)
	}

	deliveries, err := ch.Consume(IntakeQueueName, consumerTag, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to consume queue %q: %w", IntakeQueueName, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			if err := c.dispatch(ctx, d, handler); err != nil {
				return err
			}
		}
	}
}

// dispatch settles a single delivery: malformed messages are rejected to the
// DLQ, handler failures are requeued, successes acked. The returned error is
// only ever a broker acknowledgment fault.
func (c *RabbitMQConsumer) dispatch(ctx context.Context, d amqp.Delivery, handler MessageHandler) error {
	msg, err := decodeEventMessage(d.Body)
	if err != nil {
		c.logger.Warn("rejecting intake message",
			zap.String("messageId", d.MessageId),
			zap.Error(err),
		)
		if rejectErr := d.Reject(false); rejectErr != nil {
			return fmt.Errorf("failed to reject invalid message: %w", rejectErr)
		}
		return nil
	}

	if err := handler(ctx, msg); err != nil {
		c.logger.Warn("intake handler failed, requeueing",
			zap.String("eventType", msg.EventType),
			zap.Error(err),
		)
		if nackErr := d.Nack(false, true); nackErr != nil {
			return fmt.Errorf("handler failed and nack failed: %w", nackErr)
		}
		return nil
	}

	if err := d.Ack(false); err != nil {
		return fmt.Errorf("failed to ack delivery: %w", err)
	}

	return nil
}

func decodeEventMessage(body []byte) (EventMessage, error) {
	var msg EventMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return EventMessage{}, fmt.Errorf("invalid JSON: %w", err)
	}
	if err := msg.Validate(); err != nil {
		return EventMessage{}, err
	}
	return msg, nil
}

func (c *RabbitMQConsumer) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

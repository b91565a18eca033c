package queue

import (
	"context"

	"github.com/stsphera/notify-engine/internal/domain"
)

// Publisher publishes event messages to the intake queue.
type Publisher interface {
	Publish(ctx context.Context, msg EventMessage) error
	Close() error
}

// MessageHandler handles a consumed intake message.
type MessageHandler func(ctx context.Context, msg EventMessage) error

// Consumer consumes event messages from the intake queue.
type Consumer interface {
	Consume(ctx context.Context, handler MessageHandler) error
	Close() error
}

const (
	// IntakeQueueName is the work queue producers publish events to.
	IntakeQueueName = "notify.events"

	// IntakeDLQName collects malformed intake messages.
	IntakeDLQName = "dlq.notify.events"

	// queueMaxPriority is the RabbitMQ x-max-priority value for the intake
	// queue, matching the four entry priorities.
	queueMaxPriority int32 = 4
)

// PriorityValue maps entry priority to RabbitMQ message priority.
func PriorityValue(priority domain.Priority) uint8 {
	switch priority {
	case domain.PriorityCritical:
		return 4
	case domain.PriorityHigh:
		return 3
	case domain.PriorityNormal:
		return 2
	case domain.PriorityLow:
		return 1
	default:
		return 0
	}
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stsphera/notify-engine/internal/domain"
	"github.com/stsphera/notify-engine/internal/repository"
	"go.uber.org/zap"
)

// EnqueueRequest is the producer contract for submitting a notification.
type EnqueueRequest struct {
	EventType     string         `json:"eventType"`
	ProjectID     *string        `json:"projectId,omitempty"`
	Payload       domain.Payload `json:"payload,omitempty"`
	TargetRoles   []string       `json:"targetRoles,omitempty"`
	TargetChatIDs []string       `json:"targetChatIds,omitempty"`
	Priority      string         `json:"priority,omitempty"`
	ScheduledAt   *time.Time     `json:"scheduledAt,omitempty"`
}

// EnqueueService accepts producer events and persists them as pending queue
// entries. Delivery happens later, when a dispatch invocation claims them.
type EnqueueService struct {
	queue       repository.QueueRepository
	maxAttempts int
	logger      *zap.Logger
	now         func() time.Time
}

func NewEnqueueService(queue repository.QueueRepository, maxAttempts int, logger *zap.Logger) (*EnqueueService, error) {
	if queue == nil {
		return nil, fmt.Errorf("queue repository is required")
	}
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &EnqueueService{
		queue:       queue,
		maxAttempts: maxAttempts,
		logger:      logger,
		now:         time.Now,
	}, nil
}

// Enqueue validates the request, fills defaults, and inserts the entry.
func (s *EnqueueService) Enqueue(ctx context.Context, req EnqueueRequest) (*domain.QueueEntry, error) {
	if req.EventType == "" {
		return nil, fmt.Errorf("%w: eventType is required", domain.ErrValidation)
	}

	priority := domain.PriorityNormal
	if req.Priority != "" {
		parsed, err := domain.ParsePriorityFromString(req.Priority)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
		}
		priority = parsed
	}

	now := s.now().UTC()
	scheduledAt := now
	if req.ScheduledAt != nil && req.ScheduledAt.After(now) {
		scheduledAt = req.ScheduledAt.UTC()
	}

	payload := req.Payload
	if payload == nil {
		payload = domain.Payload{}
	}

	entry := &domain.QueueEntry{
		ID:            uuid.NewString(),
		EventType:     req.EventType,
		ProjectID:     req.ProjectID,
		Payload:       payload,
		TargetRoles:   req.TargetRoles,
		TargetChatIDs: req.TargetChatIDs,
		Priority:      priority,
		Status:        domain.StatusPending,
		ScheduledAt:   scheduledAt,
		Attempts:      0,
		MaxAttempts:   s.maxAttempts,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	if err := s.queue.Insert(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to insert queue entry: %w", err)
	}

	s.logger.Info("entry enqueued",
		zap.String("entryId", entry.ID),
		zap.String("eventType", entry.EventType),
		zap.String("priority", string(entry.Priority)),
		zap.Time("scheduledAt", entry.ScheduledAt),
	)

	return entry, nil
}

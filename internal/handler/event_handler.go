package handler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stsphera/notify-engine/internal/domain"
	"github.com/stsphera/notify-engine/internal/service"
)

type EventService interface {
	Enqueue(ctx context.Context, req service.EnqueueRequest) (*domain.QueueEntry, error)
}

type EventHandler struct {
	service EventService
}

func NewEventHandler(service EventService) (*EventHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("event service is required")
	}
	return &EventHandler{service: service}, nil
}

func RegisterEventRoutes(router fiber.Router, service EventService) error {
	h, err := NewEventHandler(service)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/events", h.CreateEvent)

	return nil
}

type createEventRequest struct {
	EventType     string         `json:"eventType"`
	ProjectID     *string        `json:"projectId"`
	Payload       domain.Payload `json:"payload"`
	TargetRoles   []string       `json:"targetRoles"`
	TargetChatIDs []string       `json:"targetChatIds"`
	Priority      string         `json:"priority"`
	ScheduledAt   *time.Time     `json:"scheduledAt"`
}

type entryResponse struct {
	ID          string     `json:"id"`
	EventType   string     `json:"eventType"`
	ProjectID   *string    `json:"projectId,omitempty"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	ScheduledAt time.Time  `json:"scheduledAt"`
	Attempts    int        `json:"attempts"`
	MaxAttempts int        `json:"maxAttempts"`
	SentAt      *time.Time `json:"sentAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func (h *EventHandler) CreateEvent(c *fiber.Ctx) error {
	var req createEventRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	entry, err := h.service.Enqueue(c.Context(), service.EnqueueRequest{
		EventType:     req.EventType,
		ProjectID:     req.ProjectID,
		Payload:       req.Payload,
		TargetRoles:   req.TargetRoles,
		TargetChatIDs: req.TargetChatIDs,
		Priority:      req.Priority,
		ScheduledAt:   req.ScheduledAt,
	})
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusAccepted).JSON(toEntryResponse(entry))
}

func toEntryResponse(entry *domain.QueueEntry) entryResponse {
	if entry == nil {
		return entryResponse{}
	}

	return entryResponse{
		ID:          entry.ID,
		EventType:   entry.EventType,
		ProjectID:   entry.ProjectID,
		Priority:    string(entry.Priority),
		Status:      string(entry.Status),
		ScheduledAt: entry.ScheduledAt,
		Attempts:    entry.Attempts,
		MaxAttempts: entry.MaxAttempts,
		SentAt:      entry.SentAt,
		CreatedAt:   entry.CreatedAt,
	}
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		return err
	}
}

package handler

import (
	"context"
	"crypto/subtle"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/stsphera/notify-engine/internal/domain"
	"github.com/stsphera/notify-engine/internal/service"
)

// HeaderDispatchSecret authenticates manual dispatch triggers.
const HeaderDispatchSecret = "X-Dispatch-Secret"

type DispatchRunner interface {
	RunOnce(ctx context.Context) (service.Summary, error)
}

type DispatchHandler struct {
	runner DispatchRunner
	secret string
}

// NewDispatchHandler guards the trigger endpoint with a shared secret. An
// empty secret disables the check, for deployments fronted by their own auth.
func NewDispatchHandler(runner DispatchRunner, secret string) (*DispatchHandler, error) {
	if runner == nil {
		return nil, fmt.Errorf("dispatch runner is required")
	}
	return &DispatchHandler{runner: runner, secret: secret}, nil
}

func RegisterDispatchRoutes(router fiber.Router, runner DispatchRunner, secret string) error {
	h, err := NewDispatchHandler(runner, secret)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/dispatch/run", h.Run)

	return nil
}

func (h *DispatchHandler) Run(c *fiber.Ctx) error {
	if h.secret != "" {
		provided := c.Get(HeaderDispatchSecret)
		if subtle.ConstantTimeCompare([]byte(provided), []byte(h.secret)) != 1 {
			return toHTTPError(fmt.Errorf("%w: invalid dispatch secret", domain.ErrUnauthorized))
		}
	}

	summary, err := h.runner.RunOnce(c.Context())
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(summary)
}

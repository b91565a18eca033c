package queue

import (
	"fmt"
	"strings"
	"time"

	"github.com/stsphera/notify-engine/internal/domain"
)

// EventMessage is the broker payload producers publish for intake. It mirrors
// the HTTP enqueue contract so both entry points feed the same queue table.
type EventMessage struct {
	EventType     string          `json:"eventType"`
	ProjectID     *string         `json:"projectId,omitempty"`
	Payload       domain.Payload  `json:"payload,omitempty"`
	TargetRoles   []string        `json:"targetRoles,omitempty"`
	TargetChatIDs []string        `json:"targetChatIds,omitempty"`
	Priority      domain.Priority `json:"priority,omitempty"`
	ScheduledAt   *time.Time      `json:"scheduledAt,omitempty"`
}

func (m EventMessage) Validate() error {
	if strings.TrimSpace(m.EventType) == "" {
		return fmt.Errorf("eventType is required")
	}
	hasRoles := len(m.TargetRoles) > 0
	hasChatIDs := len(m.TargetChatIDs) > 0
	if hasRoles == hasChatIDs {
		return fmt.Errorf("exactly one of targetRoles or targetChatIds must be set")
	}
	if m.Priority != "" && !m.Priority.IsValid() {
		return fmt.Errorf("invalid priority %q", m.Priority)
	}
	return nil
}

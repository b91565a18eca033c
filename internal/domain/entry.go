package domain

import (
	"fmt"
	"strings"
	"time"
)

// Status represents the lifecycle state of a queue entry.
type Status string

const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

func (s Status) String() string { return string(s) }

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusSent, StatusSkipped, StatusFailed:
		return true
	}
	return false
}

// IsTerminal reports whether no further processing will occur for the entry.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusSent, StatusSkipped, StatusFailed:
		return true
	}
	return false
}

// TerminalStatuses lists every terminal state, used by retention cleanup.
func TerminalStatuses() []Status {
	return []Status{StatusSent, StatusSkipped, StatusFailed}
}

func ParseStatusFromString(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: invalid status %q", ErrValidation, s)
	}
	return st, nil
}

// Priority governs claim order, not delivery guarantee.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityNormal   Priority = "normal"
	PriorityLow      Priority = "low"
)

func (p Priority) String() string { return string(p) }

func (p Priority) IsValid() bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityNormal, PriorityLow:
		return true
	}
	return false
}

// Rank maps priority to a sortable weight; higher is claimed first.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 4
	case PriorityHigh:
		return 3
	case PriorityNormal:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

func ParsePriorityFromString(s string) (Priority, error) {
	pr := Priority(strings.ToLower(strings.TrimSpace(s)))
	if !pr.IsValid() {
		return "", fmt.Errorf("%w: invalid priority %q", ErrValidation, s)
	}
	return pr, nil
}

// Event types the formatter understands. Producers may enqueue other types;
// they terminate as skipped on first claim.
const (
	EventAlertCreated    = "alert.created"
	EventAlertOverdue    = "alert.overdue"
	EventReportMissing   = "report.missing"
	EventReportSubmitted = "report.submitted"
	EventSupplyDeficit   = "supply.deficit"
	EventDirectorDigest  = "director.digest"
	EventTaskOverdue     = "task.overdue"
	EventXPLevelUp       = "xp.level_up"
	EventProjectSummary  = "project.summary"
)

// Payload is the open key-value document attached to a queue entry. Only the
// formatter interprets its shape; everything else passes it through opaquely.
type Payload map[string]any

// QueueEntry is one unit of outbound notification work.
type QueueEntry struct {
	ID            string
	EventType     string
	ProjectID     *string
	Payload       Payload
	TargetRoles   []string
	TargetChatIDs []string
	Priority      Priority
	Status        Status
	ScheduledAt   time.Time
	Attempts      int
	MaxAttempts   int
	LastError     *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	SentAt        *time.Time
}

// Validate checks the producer contract: exactly one of the target sets must
// be non-empty, and enum fields must parse.
func (e *QueueEntry) Validate() error {
	if strings.TrimSpace(e.EventType) == "" {
		return fmt.Errorf("%w: event type is required", ErrValidation)
	}
	hasRoles := len(e.TargetRoles) > 0
	hasChatIDs := len(e.TargetChatIDs) > 0
	if hasRoles == hasChatIDs {
		return fmt.Errorf("%w: exactly one of target roles or target chat ids must be set", ErrValidation)
	}
	if !e.Priority.IsValid() {
		return fmt.Errorf("%w: invalid priority %q", ErrValidation, e.Priority)
	}
	if !e.Status.IsValid() {
		return fmt.Errorf("%w: invalid status %q", ErrValidation, e.Status)
	}
	return nil
}

package repository

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/stsphera/notify-engine/internal/domain"
)

// JSONBMap stores an open key-value document in a jsonb column.
type JSONBMap map[string]any

func (m JSONBMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *JSONBMap) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("unsupported jsonb source type %T", value)
	}
}

// JSONBStrings stores a string list in a jsonb column.
type JSONBStrings []string

func (s JSONBStrings) Value() (driver.Value, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s)
}

func (s *JSONBStrings) Scan(value any) error {
	if value == nil {
		*s = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("unsupported jsonb source type %T", value)
	}
}

// QueueEntryModel is the persistence model for the notification_queue table.
type QueueEntryModel struct {
	ID            string          `gorm:"type:uuid;primaryKey"`
	EventType     string          `gorm:"type:varchar(64);not null"`
	ProjectID     *string         `gorm:"type:uuid"`
	Payload       JSONBMap        `gorm:"type:jsonb;not null;default:'{}'"`
	TargetRoles   JSONBStrings    `gorm:"type:jsonb;not null;default:'[]'"`
	TargetChatIDs JSONBStrings    `gorm:"type:jsonb;not null;default:'[]'"`
	Priority      domain.Priority `gorm:"type:varchar(10);not null"`
	Status        domain.Status   `gorm:"type:varchar(10);not null"`
	ScheduledAt   time.Time       `gorm:"type:timestamptz;not null"`
	Attempts      int             `gorm:"not null;default:0"`
	MaxAttempts   int             `gorm:"not null;default:3"`
	LastError     *string         `gorm:"type:text"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
	SentAt        *time.Time `gorm:"type:timestamptz"`
}

func (QueueEntryModel) TableName() string {
	return "notification_queue"
}

// ProfileModel is the persistence model for recipient profiles.
type ProfileModel struct {
	UserID            string   `gorm:"type:uuid;primaryKey"`
	DisplayName       string   `gorm:"type:varchar(255);not null"`
	TelegramChatID    *string  `gorm:"type:varchar(32)"`
	NotificationPrefs JSONBMap `gorm:"type:jsonb;not null;default:'{}'"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (ProfileModel) TableName() string {
	return "profiles"
}

// UserRoleModel maps users to role tags.
type UserRoleModel struct {
	UserID string `gorm:"type:uuid;primaryKey"`
	Role   string `gorm:"type:varchar(32);primaryKey"`
}

func (UserRoleModel) TableName() string {
	return "user_roles"
}

// ProjectModel carries the project fields the dispatcher needs for payload
// enrichment; the full projects table is owned by the site-management app.
type ProjectModel struct {
	ID   string `gorm:"type:uuid;primaryKey"`
	Name string `gorm:"type:varchar(255);not null"`
}

func (ProjectModel) TableName() string {
	return "projects"
}

func entryModelFromDomain(e *domain.QueueEntry) *QueueEntryModel {
	if e == nil {
		return nil
	}

	return &QueueEntryModel{
		ID:            e.ID,
		EventType:     e.EventType,
		ProjectID:     e.ProjectID,
		Payload:       JSONBMap(e.Payload),
		TargetRoles:   JSONBStrings(e.TargetRoles),
		TargetChatIDs: JSONBStrings(e.TargetChatIDs),
		Priority:      e.Priority,
		Status:        e.Status,
		ScheduledAt:   e.ScheduledAt,
		Attempts:      e.Attempts,
		MaxAttempts:   e.MaxAttempts,
		LastError:     e.LastError,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
		SentAt:        e.SentAt,
	}
}

func entryModelToDomain(m *QueueEntryModel) *domain.QueueEntry {
	if m == nil {
		return nil
	}

	return &domain.QueueEntry{
		ID:            m.ID,
		EventType:     m.EventType,
		ProjectID:     m.ProjectID,
		Payload:       domain.Payload(m.Payload),
		TargetRoles:   []string(m.TargetRoles),
		TargetChatIDs: []string(m.TargetChatIDs),
		Priority:      m.Priority,
		Status:        m.Status,
		ScheduledAt:   m.ScheduledAt,
		Attempts:      m.Attempts,
		MaxAttempts:   m.MaxAttempts,
		LastError:     m.LastError,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
		SentAt:        m.SentAt,
	}
}

func profileModelToEndpoint(m *ProfileModel) *domain.RecipientEndpoint {
	if m == nil || m.TelegramChatID == nil || *m.TelegramChatID == "" {
		return nil
	}

	prefs := domain.DefaultPreferences()
	if from, ok := m.NotificationPrefs["do_not_disturb_from"].(string); ok {
		prefs.QuietFrom = domain.ParseHour(from, domain.DefaultQuietFrom)
	}
	if to, ok := m.NotificationPrefs["do_not_disturb_to"].(string); ok {
		prefs.QuietTo = domain.ParseHour(to, domain.DefaultQuietTo)
	}

	return &domain.RecipientEndpoint{
		ChatID:      *m.TelegramChatID,
		Preferences: prefs,
	}
}

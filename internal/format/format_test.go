package format

import (
	"strings"
	"testing"

	"github.com/stsphera/notify-engine/internal/domain"
)

func TestMessageUnknownEventType(t *testing.T) {
	t.Parallel()

	text, ok := Message("totally.unknown", domain.Payload{"message": "hi"})
	if ok {
		t.Fatalf("Message() ok = true for unknown event, text = %q", text)
	}
}

func TestMessageAlertCreated(t *testing.T) {
	t.Parallel()

	text, ok := Message(domain.EventAlertCreated, domain.Payload{
		"priority":     "critical",
		"title":        "Crane outage",
		"project_name": "Tower A",
		"created_by":   "I. Petrov",
	})
	if !ok {
		t.Fatal("Message() ok = false, want true")
	}

	for _, want := range []string{"🔴", "Crane outage", "Tower A", "I. Petrov"} {
		if !strings.Contains(text, want) {
			t.Fatalf("message %q missing %q", text, want)
		}
	}
}

func TestMessageAlertCreatedUnknownPriorityFallsBack(t *testing.T) {
	t.Parallel()

	text, ok := Message(domain.EventAlertCreated, domain.Payload{"title": "X"})
	if !ok {
		t.Fatal("Message() ok = false, want true")
	}
	if !strings.Contains(text, "⚠️") {
		t.Fatalf("message %q should fall back to the generic alert emoji", text)
	}
}

func TestMessageMissingOptionalFieldsRenderBlank(t *testing.T) {
	t.Parallel()

	// Only the title is present; the other segments must render empty
	// rather than fail.
	text, ok := Message(domain.EventAlertOverdue, domain.Payload{"title": "Leaking roof"})
	if !ok {
		t.Fatal("Message() ok = false, want true")
	}
	if !strings.Contains(text, "Leaking roof") {
		t.Fatalf("message %q missing title", text)
	}
	if !strings.Contains(text, "Site: \n") && !strings.HasSuffix(text, "Site: ") {
		t.Fatalf("message %q should contain an empty site segment", text)
	}
}

func TestMessageSupplyDeficitListsItems(t *testing.T) {
	t.Parallel()

	text, ok := Message(domain.EventSupplyDeficit, domain.Payload{
		"project_name": "Tower A",
		"items":        []string{"Cement: -50 bags", "Rebar 12mm: -200 kg"},
	})
	if !ok {
		t.Fatal("Message() ok = false, want true")
	}

	if !strings.Contains(text, "• Cement: -50 bags") {
		t.Fatalf("message %q missing first item", text)
	}
	if !strings.Contains(text, "• Rebar 12mm: -200 kg") {
		t.Fatalf("message %q missing second item", text)
	}
}

func TestMessageReportSubmittedProgressBar(t *testing.T) {
	t.Parallel()

	text, ok := Message(domain.EventReportSubmitted, domain.Payload{
		"reporter_name": "A. Sidorov",
		"facade_name":   "North",
		"floor_number":  float64(4),
		"value":         float64(12),
		"total_fact":    float64(70),
		"total_plan":    float64(100),
	})
	if !ok {
		t.Fatal("Message() ok = false, want true")
	}

	if !strings.Contains(text, "███████░░░ 70%") {
		t.Fatalf("message %q missing 70%% progress bar", text)
	}
	if !strings.Contains(text, "(70/100)") {
		t.Fatalf("message %q missing fact/plan ratio", text)
	}
}

func TestMessageReportSubmittedZeroPlan(t *testing.T) {
	t.Parallel()

	text, ok := Message(domain.EventReportSubmitted, domain.Payload{
		"reporter_name": "A. Sidorov",
	})
	if !ok {
		t.Fatal("Message() ok = false, want true")
	}
	if !strings.Contains(text, "░░░░░░░░░░ 0%") {
		t.Fatalf("message %q should render an empty bar when plan is zero", text)
	}
}

func TestMessageTaskOverdueListsTasks(t *testing.T) {
	t.Parallel()

	text, ok := Message(domain.EventTaskOverdue, domain.Payload{
		"tasks": []map[string]any{
			{"title": "Pour foundation", "deadline": "2026-08-20"},
			{"title": "Install windows", "deadline": "2026-08-25"},
		},
	})
	if !ok {
		t.Fatal("Message() ok = false, want true")
	}

	if !strings.Contains(text, "Pour foundation — deadline 2026-08-20") {
		t.Fatalf("message %q missing first task", text)
	}
	if !strings.Contains(text, "Install windows — deadline 2026-08-25") {
		t.Fatalf("message %q missing second task", text)
	}
}

func TestMessageDirectorDigestOmitsZeroSections(t *testing.T) {
	t.Parallel()

	text, ok := Message(domain.EventDirectorDigest, domain.Payload{
		"avg_progress": float64(42),
	})
	if !ok {
		t.Fatal("Message() ok = false, want true")
	}

	if strings.Contains(text, "Open alerts") {
		t.Fatalf("message %q should omit the alerts section when zero", text)
	}
	if strings.Contains(text, "Deficit") {
		t.Fatalf("message %q should omit the deficit section when zero", text)
	}
	if !strings.Contains(text, "42%") {
		t.Fatalf("message %q missing average progress", text)
	}
}

func TestMessageAllKnownEventTypes(t *testing.T) {
	t.Parallel()

	known := []string{
		domain.EventAlertCreated,
		domain.EventAlertOverdue,
		domain.EventReportMissing,
		domain.EventReportSubmitted,
		domain.EventSupplyDeficit,
		domain.EventDirectorDigest,
		domain.EventTaskOverdue,
		domain.EventXPLevelUp,
		domain.EventProjectSummary,
	}

	for _, eventType := range known {
		text, ok := Message(eventType, domain.Payload{})
		if !ok {
			t.Fatalf("Message(%s) ok = false, want true", eventType)
		}
		if text == "" {
			t.Fatalf("Message(%s) produced empty text", eventType)
		}
	}
}

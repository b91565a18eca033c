// Package format maps queue events to outbound Telegram HTML text. It is a
// pure mapping: unknown event types yield no message, and missing optional
// payload fields render as empty segments rather than failing.
package format

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/stsphera/notify-engine/internal/domain"
)

const separator = "─────────────────────────────"

var priorityEmoji = map[string]string{
	"critical": "🔴",
	"high":     "🟠",
	"normal":   "🟡",
	"low":      "⚪",
}

// Message renders the template for eventType over payload. The second return
// is false when the event type is unknown and there is nothing useful to send.
func Message(eventType string, payload domain.Payload) (string, bool) {
	switch eventType {
	case domain.EventAlertCreated:
		return alertCreated(payload), true
	case domain.EventAlertOverdue:
		return alertOverdue(payload), true
	case domain.EventReportMissing:
		return reportMissing(payload), true
	case domain.EventReportSubmitted:
		return reportSubmitted(payload), true
	case domain.EventSupplyDeficit:
		return supplyDeficit(payload), true
	case domain.EventDirectorDigest:
		return directorDigest(payload), true
	case domain.EventTaskOverdue:
		return taskOverdue(payload), true
	case domain.EventXPLevelUp:
		return xpLevelUp(payload), true
	case domain.EventProjectSummary:
		return projectSummary(payload), true
	default:
		return "", false
	}
}

type alertCreatedPayload struct {
	Priority    string `json:"priority"`
	Title       string `json:"title"`
	ProjectName string `json:"project_name"`
	CreatedBy   string `json:"created_by"`
}

func alertCreated(payload domain.Payload) string {
	var p alertCreatedPayload
	decode(payload, &p)

	emoji := priorityEmoji[p.Priority]
	if emoji == "" {
		emoji = "⚠️"
	}

	return fmt.Sprintf("%s <b>New alert</b>\n%s\n«%s»\nSite: %s\nRaised by: %s",
		emoji, separator, p.Title, p.ProjectName, p.CreatedBy)
}

type alertOverduePayload struct {
	Title       string  `json:"title"`
	DaysOverdue float64 `json:"days_overdue"`
	ProjectName string  `json:"project_name"`
}

func alertOverdue(payload domain.Payload) string {
	var p alertOverduePayload
	decode(payload, &p)

	return fmt.Sprintf("🔴 <b>Overdue alert</b>\n%s\n«%s»\nOverdue by <b>%s days</b>\nSite: %s",
		separator, p.Title, formatNumber(p.DaysOverdue), p.ProjectName)
}

type reportMissingPayload struct {
	ProjectName string `json:"project_name"`
	Date        string `json:"date"`
}

func reportMissing(payload domain.Payload) string {
	var p reportMissingPayload
	decode(payload, &p)

	return fmt.Sprintf("⏰ <b>No daily report</b>\n%s\nSite: %s\n📅 %s\n\nPlease submit today's report.",
		separator, p.ProjectName, p.Date)
}

type reportSubmittedPayload struct {
	ReporterName string  `json:"reporter_name"`
	FacadeName   string  `json:"facade_name"`
	FloorNumber  float64 `json:"floor_number"`
	Value        float64 `json:"value"`
	TotalFact    float64 `json:"total_fact"`
	TotalPlan    float64 `json:"total_plan"`
}

func reportSubmitted(payload domain.Payload) string {
	var p reportSubmittedPayload
	decode(payload, &p)

	pct := 0
	if p.TotalPlan > 0 {
		pct = int(math.Round(p.TotalFact / p.TotalPlan * 100))
	}

	return fmt.Sprintf("📋 <b>Report submitted</b>\n%s\n👷 %s\n🏗️ Facade: %s · Floor %s\n+<b>%s</b> modules today\n%s %d%% (%s/%s)",
		separator, p.ReporterName, p.FacadeName, formatNumber(p.FloorNumber),
		formatNumber(p.Value), progressBar(pct), pct,
		formatNumber(p.TotalFact), formatNumber(p.TotalPlan))
}

type supplyDeficitPayload struct {
	ProjectName string   `json:"project_name"`
	Items       []string `json:"items"`
}

func supplyDeficit(payload domain.Payload) string {
	var p supplyDeficitPayload
	decode(payload, &p)

	var b strings.Builder
	fmt.Fprintf(&b, "📦 <b>Material deficit</b>\n%s\n%s\n", separator, p.ProjectName)
	for _, item := range p.Items {
		fmt.Fprintf(&b, "• %s\n", item)
	}
	return strings.TrimRight(b.String(), "\n")
}

type directorDigestPayload struct {
	AvgProgress    float64 `json:"avg_progress"`
	OpenAlerts     float64 `json:"open_alerts"`
	CriticalAlerts float64 `json:"critical_alerts"`
	DeficitCount   float64 `json:"deficit_count"`
}

func directorDigest(payload domain.Payload) string {
	var p directorDigestPayload
	decode(payload, &p)

	avg := int(math.Round(p.AvgProgress))

	var b strings.Builder
	fmt.Fprintf(&b, "📊 <b>Morning digest</b>\n%s\n%s Average progress: <b>%d%%</b>\n",
		separator, progressBar(avg), avg)
	if p.OpenAlerts > 0 {
		fmt.Fprintf(&b, "🔔 Open alerts: <b>%s</b>\n", formatNumber(p.OpenAlerts))
		if p.CriticalAlerts > 0 {
			fmt.Fprintf(&b, "🔴 Critical: <b>%s</b>\n", formatNumber(p.CriticalAlerts))
		}
	}
	if p.DeficitCount > 0 {
		fmt.Fprintf(&b, "📦 Deficit: <b>%s</b> items\n", formatNumber(p.DeficitCount))
	}
	return strings.TrimRight(b.String(), "\n")
}

type overdueTask struct {
	Title    string `json:"title"`
	Deadline string `json:"deadline"`
}

type taskOverduePayload struct {
	Tasks []overdueTask `json:"tasks"`
}

func taskOverdue(payload domain.Payload) string {
	var p taskOverduePayload
	decode(payload, &p)

	var b strings.Builder
	fmt.Fprintf(&b, "🔴 <b>Overdue tasks</b>\n%s\n", separator)
	for _, task := range p.Tasks {
		fmt.Fprintf(&b, "• %s — deadline %s\n", task.Title, task.Deadline)
	}
	return strings.TrimRight(b.String(), "\n")
}

type xpLevelUpPayload struct {
	Level   float64 `json:"level"`
	TotalXP float64 `json:"total_xp"`
}

func xpLevelUp(payload domain.Payload) string {
	var p xpLevelUpPayload
	decode(payload, &p)

	return fmt.Sprintf("🏆 <b>Level up!</b>\n%s\nYou reached level <b>%s</b>\nXP: %s",
		separator, formatNumber(p.Level), formatNumber(p.TotalXP))
}

type projectSummaryPayload struct {
	ProjectName string  `json:"project_name"`
	Progress    float64 `json:"progress"`
	OpenAlerts  float64 `json:"open_alerts"`
	DaysLeft    float64 `json:"days_left"`
}

func projectSummary(payload domain.Payload) string {
	var p projectSummaryPayload
	decode(payload, &p)

	return fmt.Sprintf("📊 <b>Weekly summary</b>\n%s\n%s\nProgress: <b>%s%%</b>\nOpen alerts: <b>%s</b>\nDays to handover: <b>%s</b>",
		separator, p.ProjectName, formatNumber(p.Progress),
		formatNumber(p.OpenAlerts), formatNumber(p.DaysLeft))
}

// decode projects the open payload document onto a typed variant. Fields the
// variant does not declare are ignored; fields the payload lacks stay zero.
func decode(payload domain.Payload, out any) {
	if len(payload) == 0 {
		return
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return
	}
	// Type mismatches on individual fields are dropped, not fatal.
	_ = json.Unmarshal(raw, out)
}

// progressBar renders a 10-cell bar for a 0-100 percentage.
func progressBar(pct int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := int(math.Round(float64(pct) / 10))
	return strings.Repeat("█", filled) + strings.Repeat("░", 10-filled)
}

// formatNumber prints whole numbers without a decimal point and keeps one
// decimal otherwise; zero renders as "0" so missing fields stay unobtrusive.
func formatNumber(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.1f", v)
}

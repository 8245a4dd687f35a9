package boardroom

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/models"
)

const (
	fallbackSummary = "Meeting report generation encountered an issue. Please try again."
	emptySummary    = "No summary available."
)

// reportBody is the part of a report the model is asked to produce.
type reportBody struct {
	Summary            string
	AgentContributions []models.AgentContribution
	ActionItems        []models.ActionItem
	Metrics            []models.MetricUpdate
}

// stripCodeFence removes a surrounding Markdown ``` fence, if any.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:] // drop the language tag line
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// parseReport turns raw model output into a fully populated report body.
// It never fails: output that is not a JSON object yields the fallback body.
func parseReport(content string, now time.Time) reportBody {
	content = stripCodeFence(content)
	if content == "" {
		content = "{}"
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(content), &raw); err != nil || raw == nil {
		return reportBody{
			Summary:            fallbackSummary,
			AgentContributions: []models.AgentContribution{},
			ActionItems:        []models.ActionItem{},
			Metrics:            []models.MetricUpdate{},
		}
	}

	body := reportBody{
		Summary:            str(raw["summary"], emptySummary),
		AgentContributions: []models.AgentContribution{},
		ActionItems:        []models.ActionItem{},
		Metrics:            []models.MetricUpdate{},
	}

	for _, item := range list(raw["agentContributions"]) {
		c := object(item)
		body.AgentContributions = append(body.AgentContributions, models.AgentContribution{
			AgentID:   str(c["agentId"], "unknown"),
			AgentName: str(c["agentName"], "Unknown Agent"),
			Role:      str(c["role"], "Unknown Role"),
			Insight:   str(c["insight"], "No insight provided."),
			Priority:  priority(c["priority"]),
		})
	}

	for i, item := range list(raw["actionItems"]) {
		a := object(item)
		body.ActionItems = append(body.ActionItems, models.ActionItem{
			ID:         fmt.Sprintf("action-%d-%d", i, now.UnixMilli()),
			Title:      str(a["title"], "Untitled action"),
			AssignedTo: str(a["assignedTo"], "Unassigned"),
			Priority:   priority(a["priority"]),
			Status:     actionStatus(a["status"]),
			DueDate:    str(a["dueDate"], ""),
		})
	}

	for _, item := range list(raw["metrics"]) {
		m := object(item)
		body.Metrics = append(body.Metrics, models.MetricUpdate{
			Name:   str(m["name"], "Unnamed metric"),
			Value:  scalar(m["value"], "n/a"),
			Change: number(m["change"]),
			Trend:  trend(m["trend"]),
		})
	}

	return body
}

func list(v any) []any {
	if l, ok := v.([]any); ok {
		return l
	}
	return nil
}

func object(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

func str(v any, def string) string {
	if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
		return s
	}
	return def
}

// scalar renders strings and numbers as text.
func scalar(v any, def string) string {
	switch x := v.(type) {
	case string:
		if strings.TrimSpace(x) != "" {
			return x
		}
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	return def
}

// number reads a float from a JSON number or numeric string. NaN and
// infinities become 0 since reports must stay encodable.
func number(v any) float64 {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(x), "%"), 64)
		if err != nil {
			return 0
		}
		f = parsed
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func priority(v any) models.Priority {
	switch p := models.Priority(str(v, "")); p {
	case models.PriorityHigh, models.PriorityMedium, models.PriorityLow:
		return p
	}
	return models.PriorityMedium
}

func actionStatus(v any) models.ActionStatus {
	switch s := models.ActionStatus(str(v, "")); s {
	case models.ActionPending, models.ActionInProgress, models.ActionCompleted:
		return s
	}
	return models.ActionPending
}

func trend(v any) models.Trend {
	switch t := models.Trend(str(v, "")); t {
	case models.TrendUp, models.TrendDown, models.TrendStable:
		return t
	}
	return models.TrendStable
}

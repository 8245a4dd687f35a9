package models

import "time"

// MeetingType is the cadence a report is generated for. It keys the report cache.
type MeetingType string

const (
	MeetingDaily     MeetingType = "daily"
	MeetingWeekly    MeetingType = "weekly"
	MeetingMonthly   MeetingType = "monthly"
	MeetingQuarterly MeetingType = "quarterly"
	MeetingAnnually  MeetingType = "annually"
	MeetingOnCall    MeetingType = "oncall"
)

var meetingTypes = []MeetingType{
	MeetingDaily,
	MeetingWeekly,
	MeetingMonthly,
	MeetingQuarterly,
	MeetingAnnually,
	MeetingOnCall,
}

// MeetingTypes returns the valid meeting types in display order.
func MeetingTypes() []MeetingType {
	out := make([]MeetingType, len(meetingTypes))
	copy(out, meetingTypes)
	return out
}

// ParseMeetingType validates a raw meeting type.
func ParseMeetingType(s string) (MeetingType, bool) {
	for _, t := range meetingTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// MeetingTypeInfo describes a meeting type for the UI tabs.
type MeetingTypeInfo struct {
	ID          MeetingType `json:"id"`
	Label       string      `json:"label"`
	Description string      `json:"description"`
}

// Priority is shared by contributions and action items.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// ActionStatus is the progress state of an action item.
type ActionStatus string

const (
	ActionPending    ActionStatus = "pending"
	ActionInProgress ActionStatus = "in_progress"
	ActionCompleted  ActionStatus = "completed"
)

// Trend is the direction of a metric.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// MeetingReport is the generated output of one boardroom meeting.
type MeetingReport struct {
	ID                 string              `json:"id"`
	Type               MeetingType         `json:"type"`
	Timestamp          time.Time           `json:"timestamp"`
	Summary            string              `json:"summary"`
	AgentContributions []AgentContribution `json:"agentContributions"`
	ActionItems        []ActionItem        `json:"actionItems"`
	Metrics            []MetricUpdate      `json:"metrics,omitempty"`
}

// AgentContribution is one agent's insight within a report.
type AgentContribution struct {
	AgentID   string   `json:"agentId"`
	AgentName string   `json:"agentName"`
	Role      string   `json:"role"`
	Insight   string   `json:"insight"`
	Priority  Priority `json:"priority"`
}

// ActionItem is a follow-up assigned to an agent.
type ActionItem struct {
	ID         string       `json:"id"`
	Title      string       `json:"title"`
	AssignedTo string       `json:"assignedTo"`
	Priority   Priority     `json:"priority"`
	Status     ActionStatus `json:"status"`
	DueDate    string       `json:"dueDate,omitempty"`
}

// MetricUpdate is a KPI reported in a meeting.
type MetricUpdate struct {
	Name   string  `json:"name"`
	Value  string  `json:"value"`
	Change float64 `json:"change"`
	Trend  Trend   `json:"trend"`
}

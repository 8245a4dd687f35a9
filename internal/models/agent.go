package models

// AgentStatus is the cosmetic activity state shown next to an agent.
type AgentStatus string

const (
	AgentActive     AgentStatus = "active"
	AgentIdle       AgentStatus = "idle"
	AgentProcessing AgentStatus = "processing"
)

// NanoAgent represents one of the boardroom personas.
type NanoAgent struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Role        string      `json:"role"`
	Description string      `json:"description"`
	Icon        string      `json:"icon"`
	Color       string      `json:"color"`
	Status      AgentStatus `json:"status"`
}

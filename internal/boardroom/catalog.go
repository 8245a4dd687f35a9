// Package boardroom runs the Prime Brain: a fixed catalog of twelve nano
// agents, meeting report generation, agent chat and security audits.
package boardroom

import "github.com/timeismoneyinc2019-crypto/UnityLedger/internal/models"

var catalog = []models.NanoAgent{
	{ID: "athena", Name: "Athena", Role: "Strategy & Vision", Description: "Oversees long-term strategic planning and vision alignment", Icon: "Brain", Color: "#7A1DFF", Status: models.AgentActive},
	{ID: "helios", Name: "Helios", Role: "Quantum-Security", Description: "Manages quantum-resistant encryption and security protocols", Icon: "Shield", Color: "#FFD700", Status: models.AgentActive},
	{ID: "solara", Name: "Solara", Role: "Crypto Analysis", Description: "Analyzes cryptocurrency markets and trading patterns", Icon: "TrendingUp", Color: "#00C8FF", Status: models.AgentActive},
	{ID: "nexus", Name: "Nexus", Role: "Multi-Chain Orchestration", Description: "Coordinates cross-chain transactions and bridges", Icon: "Network", Color: "#4A00D9", Status: models.AgentActive},
	{ID: "artemis", Name: "Artemis", Role: "UX & Design", Description: "Optimizes user experience and interface design", Icon: "Palette", Color: "#FF6B9D", Status: models.AgentActive},
	{ID: "morpheus", Name: "Morpheus", Role: "Behavior & Risk", Description: "Analyzes user behavior and assesses risk patterns", Icon: "Eye", Color: "#9B59B6", Status: models.AgentActive},
	{ID: "gaia", Name: "Gaia", Role: "Ecosystem Growth", Description: "Drives ecosystem expansion and partnership development", Icon: "Globe", Color: "#2ECC71", Status: models.AgentActive},
	{ID: "orion", Name: "Orion", Role: "Compliance", Description: "Ensures regulatory compliance and legal adherence", Icon: "Scale", Color: "#E74C3C", Status: models.AgentActive},
	{ID: "chronos", Name: "Chronos", Role: "Time-Based Operations", Description: "Manages scheduled tasks and time-sensitive operations", Icon: "Clock", Color: "#F39C12", Status: models.AgentActive},
	{ID: "phoenix", Name: "Phoenix", Role: "Recovery & Resilience", Description: "Handles disaster recovery and system resilience", Icon: "Flame", Color: "#E67E22", Status: models.AgentActive},
	{ID: "aurora", Name: "Aurora", Role: "Innovation & R&D", Description: "Explores emerging technologies and innovations", Icon: "Lightbulb", Color: "#1ABC9C", Status: models.AgentActive},
	{ID: "sentinel", Name: "Sentinel", Role: "Monitoring & Alerts", Description: "24/7 system monitoring and anomaly detection", Icon: "Bell", Color: "#3498DB", Status: models.AgentActive},
}

// Catalog returns a copy of the twelve nano agents.
func Catalog() []models.NanoAgent {
	out := make([]models.NanoAgent, len(catalog))
	copy(out, catalog)
	return out
}

// AgentCount is the size of the catalog.
func AgentCount() int { return len(catalog) }

// FindAgent looks an agent up by id.
func FindAgent(id string) (models.NanoAgent, bool) {
	for _, a := range catalog {
		if a.ID == id {
			return a, true
		}
	}
	return models.NanoAgent{}, false
}

var meetingInfo = map[models.MeetingType]models.MeetingTypeInfo{
	models.MeetingDaily:     {ID: models.MeetingDaily, Label: "Daily", Description: "Daily standup and priorities"},
	models.MeetingWeekly:    {ID: models.MeetingWeekly, Label: "Weekly", Description: "Weekly progress and planning"},
	models.MeetingMonthly:   {ID: models.MeetingMonthly, Label: "Monthly", Description: "Monthly review and metrics"},
	models.MeetingQuarterly: {ID: models.MeetingQuarterly, Label: "Quarterly", Description: "Quarterly strategy alignment"},
	models.MeetingAnnually:  {ID: models.MeetingAnnually, Label: "Annually", Description: "Annual planning and roadmap"},
	models.MeetingOnCall:    {ID: models.MeetingOnCall, Label: "On-Call", Description: "Emergency response meeting"},
}

// MeetingTypeInfos lists the meeting types in display order.
func MeetingTypeInfos() []models.MeetingTypeInfo {
	types := models.MeetingTypes()
	out := make([]models.MeetingTypeInfo, 0, len(types))
	for _, t := range types {
		out = append(out, meetingInfo[t])
	}
	return out
}

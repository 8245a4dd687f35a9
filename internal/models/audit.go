package models

import "time"

// AuditLog is a stored security audit report.
type AuditLog struct {
	ID        string    `json:"id"`
	Report    string    `json:"report"`
	Severity  string    `json:"severity"`
	CreatedAt time.Time `json:"createdAt"`
}

// Audit severities.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

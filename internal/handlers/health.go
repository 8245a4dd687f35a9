package handlers

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/boardroom"
)

const (
	version     = "0.1.0"
	serviceName = "UnityPay 2045 Prime Brain"
)

// Check represents the status of a health check.
type Check struct {
	Status  string `json:"status"`            // "pass" or "fail"
	Latency string `json:"latency,omitempty"` // e.g., "2ms"
	Message string `json:"message,omitempty"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status           string           `json:"status"` // "ok" or "degraded"
	Service          string           `json:"service"`
	Version          string           `json:"version"`
	Timestamp        string           `json:"timestamp"`
	Agents           int              `json:"agents"`
	ConnectedClients int              `json:"connectedClients"`
	Region           string           `json:"region,omitempty"`
	Checks           map[string]Check `json:"checks"`
}

type pinger interface {
	Ping(ctx context.Context) error
}

func runCheck(ctx context.Context, p pinger) Check {
	start := time.Now()
	if err := p.Ping(ctx); err != nil {
		return Check{Status: "fail", Message: "connection failed"}
	}
	return Check{Status: "pass", Latency: time.Since(start).String()}
}

// Health handles the health check endpoint.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]Check{"store": runCheck(ctx, h.store)}
	if h.redis != nil {
		checks["redis"] = runCheck(ctx, h.redis)
	}
	if h.ledger != nil {
		if err := h.ledger.CheckInvariants(); err != nil {
			checks["ledger"] = Check{Status: "fail", Message: err.Error()}
		} else {
			checks["ledger"] = Check{Status: "pass"}
		}
	}

	status, code := "ok", http.StatusOK
	for _, c := range checks {
		if c.Status != "pass" {
			status, code = "degraded", http.StatusServiceUnavailable
		}
	}

	h.JSON(w, code, HealthResponse{
		Status:           status,
		Service:          serviceName,
		Version:          version,
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
		Agents:           boardroom.AgentCount(),
		ConnectedClients: h.hub.Count(),
		Region:           os.Getenv("FLY_REGION"),
		Checks:           checks,
	})
}

// RootResponse represents the API info response.
type RootResponse struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Symbol  string `json:"symbol"`
}

// Root handles the API info endpoint.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	h.JSON(w, http.StatusOK, RootResponse{Name: serviceName, Version: version, Symbol: "UPX"})
}

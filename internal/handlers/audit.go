package handlers

import (
	"net/http"

	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/models"
)

// RunAudit runs and stores a security audit.
func (h *Handler) RunAudit(w http.ResponseWriter, r *http.Request) {
	result, err := h.boardroom.RunAudit(r.Context())
	if err != nil {
		h.fail(w, r, err, "Failed to run audit")
		return
	}
	h.JSON(w, http.StatusOK, result)
}

// AuditLogs lists stored audits, newest first.
func (h *Handler) AuditLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := h.boardroom.AuditLogs(r.Context(), queryLimit(r, 50))
	if err != nil {
		h.fail(w, r, err, "Failed to fetch audit logs")
		return
	}
	if logs == nil {
		logs = []models.AuditLog{}
	}
	h.JSON(w, http.StatusOK, logs)
}

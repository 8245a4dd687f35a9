package store

import (
	"context"
	"errors"
	"time"

	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/metrics"
	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/models"
)

// ErrDuplicate is returned when a unique key (username, id) already exists.
var ErrDuplicate = errors.New("duplicate record")

// DataStore defines the interface for persistent storage.
// MemoryStore, SQLiteStore and PostgresStore implement this interface.
// Lookups that find nothing return (nil, nil).
type DataStore interface {
	// Connection management
	Close()
	Ping(ctx context.Context) error

	// User operations
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	// Meeting reports: one row per generation, history retained
	SaveMeetingReport(ctx context.Context, r *models.MeetingReport) error
	LatestMeetingReport(ctx context.Context, t models.MeetingType) (*models.MeetingReport, error)
	ListMeetingReports(ctx context.Context, limit int) ([]models.MeetingReport, error)

	// Chat: append-only, trimmed to models.ChatHistoryLimit oldest-first
	AddChatMessage(ctx context.Context, msg *models.ChatMessage) error
	ChatHistory(ctx context.Context) ([]models.ChatMessage, error)
	ClearChat(ctx context.Context) error

	// Audit logs
	SaveAuditLog(ctx context.Context, log *models.AuditLog) error
	ListAuditLogs(ctx context.Context, limit int) ([]models.AuditLog, error)

	// Transactions
	CreateTransaction(ctx context.Context, tx *models.Transaction) error
	GetTransaction(ctx context.Context, id string) (*models.Transaction, error)
	ListTransactions(ctx context.Context, filter models.TransactionFilter) ([]models.Transaction, error)
	UpdateTransactionStatus(ctx context.Context, id, status string) (*models.Transaction, error)
}

const defaultListLimit = 50

func listLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	return limit
}

// observe records the latency of one store call.
func observe(backend, op string) func() {
	start := time.Now()
	return func() {
		metrics.StoreLatency.WithLabelValues(backend, op).Observe(time.Since(start).Seconds())
	}
}

package store

import (
	"context"
	"sort"
	"sync"

	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/models"
)

// MemoryStore keeps everything in process memory. It is the fallback when
// no database is configured; contents are lost on restart.
type MemoryStore struct {
	mu           sync.RWMutex
	users        map[string]*models.User
	reports      []models.MeetingReport
	chat         []models.ChatMessage
	audits       []models.AuditLog
	transactions []models.Transaction
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]*models.User)}
}

// Close is a no-op.
func (s *MemoryStore) Close() {}

// Ping always succeeds.
func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

// CreateUser stores a user. Usernames are unique.
func (s *MemoryStore) CreateUser(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[u.ID]; ok {
		return ErrDuplicate
	}
	for _, existing := range s.users {
		if existing.Username == u.Username {
			return ErrDuplicate
		}
	}
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

// GetUser retrieves a user by ID.
func (s *MemoryStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if u, ok := s.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

// GetUserByUsername retrieves a user by username.
func (s *MemoryStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// SaveMeetingReport appends a report.
func (s *MemoryStore) SaveMeetingReport(ctx context.Context, r *models.MeetingReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, *r)
	return nil
}

// LatestMeetingReport returns the most recently saved report of type t.
func (s *MemoryStore) LatestMeetingReport(ctx context.Context, t models.MeetingType) (*models.MeetingReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.reports) - 1; i >= 0; i-- {
		if s.reports[i].Type == t {
			r := s.reports[i]
			return &r, nil
		}
	}
	return nil, nil
}

// ListMeetingReports returns reports across all types, newest first.
func (s *MemoryStore) ListMeetingReports(ctx context.Context, limit int) ([]models.MeetingReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit = listLimit(limit)
	out := make([]models.MeetingReport, 0, min(limit, len(s.reports)))
	for i := len(s.reports) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.reports[i])
	}
	return out, nil
}

// AddChatMessage appends a message, evicting the oldest past the limit.
func (s *MemoryStore) AddChatMessage(ctx context.Context, msg *models.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.chat = append(s.chat, *msg)
	if over := len(s.chat) - models.ChatHistoryLimit; over > 0 {
		s.chat = append([]models.ChatMessage(nil), s.chat[over:]...)
	}
	return nil
}

// ChatHistory returns the stored chat, oldest first.
func (s *MemoryStore) ChatHistory(ctx context.Context) ([]models.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.ChatMessage, len(s.chat))
	copy(out, s.chat)
	return out, nil
}

// ClearChat removes every chat message.
func (s *MemoryStore) ClearChat(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chat = nil
	return nil
}

// SaveAuditLog appends an audit log.
func (s *MemoryStore) SaveAuditLog(ctx context.Context, log *models.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audits = append(s.audits, *log)
	return nil
}

// ListAuditLogs returns audits newest first.
func (s *MemoryStore) ListAuditLogs(ctx context.Context, limit int) ([]models.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit = listLimit(limit)
	out := make([]models.AuditLog, 0, min(limit, len(s.audits)))
	for i := len(s.audits) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.audits[i])
	}
	return out, nil
}

// CreateTransaction stores a transaction. IDs are unique.
func (s *MemoryStore) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.transactions {
		if existing.ID == tx.ID {
			return ErrDuplicate
		}
	}
	s.transactions = append(s.transactions, *tx)
	return nil
}

// GetTransaction retrieves a transaction by ID.
func (s *MemoryStore) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, tx := range s.transactions {
		if tx.ID == id {
			cp := tx
			return &cp, nil
		}
	}
	return nil, nil
}

// ListTransactions returns transactions matching filter.
func (s *MemoryStore) ListTransactions(ctx context.Context, filter models.TransactionFilter) ([]models.Transaction, error) {
	s.mu.RLock()
	var out []models.Transaction
	for _, tx := range s.transactions {
		if filter.UserID != "" && (tx.UserID == nil || *tx.UserID != filter.UserID) {
			continue
		}
		if filter.Chain != "" && tx.Chain != filter.Chain {
			continue
		}
		out = append(out, tx)
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			if filter.Ascending {
				return out[i].ID < out[j].ID
			}
			return out[i].ID > out[j].ID
		}
		if filter.Ascending {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	if out == nil {
		out = []models.Transaction{}
	}
	return out, nil
}

// UpdateTransactionStatus sets the status of a transaction.
func (s *MemoryStore) UpdateTransactionStatus(ctx context.Context, id, status string) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.transactions {
		if s.transactions[i].ID == id {
			s.transactions[i].Status = status
			cp := s.transactions[i]
			return &cp, nil
		}
	}
	return nil, nil
}

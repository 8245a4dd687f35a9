package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/models"
)

const pgUniqueViolation = "23505"

// PostgresStore handles PostgreSQL database operations.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL store with a connection pool.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func pgDuplicate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return ErrDuplicate
	}
	return err
}

// CreateUser creates a new user record.
func (s *PostgresStore) CreateUser(ctx context.Context, u *models.User) error {
	defer observe("postgres", "create_user")()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, username, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
	`, u.ID, u.Username, u.PasswordHash, u.CreatedAt)
	return pgDuplicate(err)
}

func (s *PostgresStore) getUser(ctx context.Context, where string, arg string) (*models.User, error) {
	u := &models.User{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, username, password_hash, created_at
		FROM users WHERE `+where+` = $1
	`, arg).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

// GetUser retrieves a user by ID.
func (s *PostgresStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	defer observe("postgres", "get_user")()
	return s.getUser(ctx, "id", id)
}

// GetUserByUsername retrieves a user by username.
func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	defer observe("postgres", "get_user")()
	return s.getUser(ctx, "username", username)
}

// SaveMeetingReport inserts a report row.
func (s *PostgresStore) SaveMeetingReport(ctx context.Context, r *models.MeetingReport) error {
	defer observe("postgres", "save_report")()

	contributions, items, mets, err := encodeReport(r)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO meeting_reports (id, type, summary, agent_contributions, action_items, metrics, created_at)
		VALUES ($1, $2, $3, $4::jsonb, $5::jsonb, $6::jsonb, $7)
	`, r.ID, string(r.Type), r.Summary, contributions, items, mets, r.Timestamp)
	return pgDuplicate(err)
}

const pgReportColumns = `id, type, summary, agent_contributions, action_items, metrics, created_at`

func scanReport(row pgx.Row) (*models.MeetingReport, error) {
	r := &models.MeetingReport{}
	var typ string
	var contributions, items, mets []byte
	if err := row.Scan(&r.ID, &typ, &r.Summary, &contributions, &items, &mets, &r.Timestamp); err != nil {
		return nil, err
	}
	r.Type = models.MeetingType(typ)
	if err := decodeReport(r, contributions, items, mets); err != nil {
		return nil, err
	}
	return r, nil
}

// LatestMeetingReport returns the newest report of type t.
func (s *PostgresStore) LatestMeetingReport(ctx context.Context, t models.MeetingType) (*models.MeetingReport, error) {
	defer observe("postgres", "latest_report")()

	r, err := scanReport(s.pool.QueryRow(ctx, `
		SELECT `+pgReportColumns+`
		FROM meeting_reports WHERE type = $1
		ORDER BY created_at DESC LIMIT 1
	`, string(t)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return r, nil
}

// ListMeetingReports returns reports across all types, newest first.
func (s *PostgresStore) ListMeetingReports(ctx context.Context, limit int) ([]models.MeetingReport, error) {
	defer observe("postgres", "list_reports")()

	rows, err := s.pool.Query(ctx, `
		SELECT `+pgReportColumns+`
		FROM meeting_reports ORDER BY created_at DESC LIMIT $1
	`, listLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reports := []models.MeetingReport{}
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *r)
	}
	return reports, rows.Err()
}

// AddChatMessage appends a message and trims history in one transaction.
func (s *PostgresStore) AddChatMessage(ctx context.Context, msg *models.ChatMessage) error {
	defer observe("postgres", "add_chat")()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		INSERT INTO chat_messages (id, role, content, agent_id, agent_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, msg.ID, string(msg.Role), msg.Content, msg.AgentID, msg.AgentName, msg.Timestamp); err != nil {
		return pgDuplicate(err)
	}

	if _, err := tx.Exec(ctx, `
		DELETE FROM chat_messages
		WHERE seq NOT IN (SELECT seq FROM chat_messages ORDER BY seq DESC LIMIT $1)
	`, models.ChatHistoryLimit); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// ChatHistory returns the stored chat, oldest first.
func (s *PostgresStore) ChatHistory(ctx context.Context) ([]models.ChatMessage, error) {
	defer observe("postgres", "chat_history")()

	rows, err := s.pool.Query(ctx, `
		SELECT id, role, content, agent_id, agent_name, created_at
		FROM chat_messages ORDER BY seq ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := []models.ChatMessage{}
	for rows.Next() {
		var m models.ChatMessage
		var role string
		if err := rows.Scan(&m.ID, &role, &m.Content, &m.AgentID, &m.AgentName, &m.Timestamp); err != nil {
			return nil, err
		}
		m.Role = models.ChatRole(role)
		history = append(history, m)
	}
	return history, rows.Err()
}

// ClearChat removes every chat message.
func (s *PostgresStore) ClearChat(ctx context.Context) error {
	defer observe("postgres", "clear_chat")()
	_, err := s.pool.Exec(ctx, `DELETE FROM chat_messages`)
	return err
}

// SaveAuditLog inserts an audit log.
func (s *PostgresStore) SaveAuditLog(ctx context.Context, log *models.AuditLog) error {
	defer observe("postgres", "save_audit")()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO audit_logs (id, report, severity, created_at)
		VALUES ($1, $2, $3, $4)
	`, log.ID, log.Report, log.Severity, log.CreatedAt)
	return pgDuplicate(err)
}

// ListAuditLogs returns audits newest first.
func (s *PostgresStore) ListAuditLogs(ctx context.Context, limit int) ([]models.AuditLog, error) {
	defer observe("postgres", "list_audits")()

	rows, err := s.pool.Query(ctx, `
		SELECT id, report, severity, created_at
		FROM audit_logs ORDER BY created_at DESC LIMIT $1
	`, listLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []models.AuditLog{}
	for rows.Next() {
		var l models.AuditLog
		if err := rows.Scan(&l.ID, &l.Report, &l.Severity, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

const pgTxColumns = `id, user_id, type, from_address, to_address, operator, amount, currency, status, tx_hash, chain, created_at`

func scanTransaction(row pgx.Row) (*models.Transaction, error) {
	tx := &models.Transaction{}
	err := row.Scan(&tx.ID, &tx.UserID, &tx.Type, &tx.From, &tx.To, &tx.Operator,
		&tx.Amount, &tx.Currency, &tx.Status, &tx.TxHash, &tx.Chain, &tx.CreatedAt)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// CreateTransaction inserts a transaction.
func (s *PostgresStore) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	defer observe("postgres", "create_tx")()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO transactions (`+pgTxColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, tx.ID, tx.UserID, tx.Type, tx.From, tx.To, tx.Operator,
		tx.Amount, tx.Currency, tx.Status, tx.TxHash, tx.Chain, tx.CreatedAt)
	return pgDuplicate(err)
}

// GetTransaction retrieves a transaction by ID.
func (s *PostgresStore) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	defer observe("postgres", "get_tx")()

	tx, err := scanTransaction(s.pool.QueryRow(ctx, `
		SELECT `+pgTxColumns+` FROM transactions WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return tx, nil
}

// ListTransactions returns transactions matching filter.
func (s *PostgresStore) ListTransactions(ctx context.Context, filter models.TransactionFilter) ([]models.Transaction, error) {
	defer observe("postgres", "list_tx")()

	var where []string
	var args []any
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		where = append(where, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if filter.Chain != "" {
		args = append(args, filter.Chain)
		where = append(where, fmt.Sprintf("chain = $%d", len(args)))
	}

	var q strings.Builder
	q.WriteString(`SELECT ` + pgTxColumns + ` FROM transactions`)
	if len(where) > 0 {
		q.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	if filter.Ascending {
		q.WriteString(" ORDER BY created_at ASC, id ASC")
	} else {
		q.WriteString(" ORDER BY created_at DESC, id DESC")
	}
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		fmt.Fprintf(&q, " LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, q.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txs := []models.Transaction{}
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, *tx)
	}
	return txs, rows.Err()
}

// UpdateTransactionStatus sets the status of a transaction.
func (s *PostgresStore) UpdateTransactionStatus(ctx context.Context, id, status string) (*models.Transaction, error) {
	defer observe("postgres", "update_tx")()

	tx, err := scanTransaction(s.pool.QueryRow(ctx, `
		UPDATE transactions SET status = $2 WHERE id = $1
		RETURNING `+pgTxColumns+`
	`, id, status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return tx, nil
}

func encodeReport(r *models.MeetingReport) (contributions, items, mets string, err error) {
	enc := func(v any) (string, error) {
		b, err := json.Marshal(v)
		return string(b), err
	}
	if contributions, err = enc(nonNil(r.AgentContributions)); err != nil {
		return
	}
	if items, err = enc(nonNil(r.ActionItems)); err != nil {
		return
	}
	mets, err = enc(nonNil(r.Metrics))
	return
}

func decodeReport(r *models.MeetingReport, contributions, items, mets []byte) error {
	r.AgentContributions = []models.AgentContribution{}
	r.ActionItems = []models.ActionItem{}
	if len(contributions) > 0 {
		if err := json.Unmarshal(contributions, &r.AgentContributions); err != nil {
			return fmt.Errorf("decode contributions: %w", err)
		}
	}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &r.ActionItems); err != nil {
			return fmt.Errorf("decode action items: %w", err)
		}
	}
	if len(mets) > 0 {
		if err := json.Unmarshal(mets, &r.Metrics); err != nil {
			return fmt.Errorf("decode metrics: %w", err)
		}
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

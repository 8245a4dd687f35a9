package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/models"
)

// SQLiteStore handles SQLite database operations.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
// If dbPath is empty, defaults to "./data/unitypay.db"
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = "./data/unitypay.db"
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	// one writer; avoids SQLITE_BUSY under concurrent handlers
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	store := &SQLiteStore{db: db}

	// Initialize schema
	if err := store.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// initSchema creates tables if they don't exist.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS meeting_reports (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		summary TEXT NOT NULL,
		agent_contributions TEXT NOT NULL DEFAULT '[]',
		action_items TEXT NOT NULL DEFAULT '[]',
		metrics TEXT NOT NULL DEFAULT '[]',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS chat_messages (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT UNIQUE NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		agent_id TEXT NOT NULL DEFAULT '',
		agent_name TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS audit_logs (
		id TEXT PRIMARY KEY,
		report TEXT NOT NULL,
		severity TEXT NOT NULL DEFAULT 'info',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		user_id TEXT REFERENCES users(id),
		type TEXT NOT NULL,
		from_address TEXT NOT NULL DEFAULT '',
		to_address TEXT NOT NULL DEFAULT '',
		operator TEXT NOT NULL DEFAULT '',
		amount TEXT NOT NULL,
		currency TEXT NOT NULL DEFAULT 'UPX',
		status TEXT NOT NULL DEFAULT 'pending',
		tx_hash TEXT NOT NULL DEFAULT '',
		chain TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_meeting_reports_type_created ON meeting_reports(type, created_at);
	CREATE INDEX IF NOT EXISTS idx_audit_logs_created ON audit_logs(created_at);
	CREATE INDEX IF NOT EXISTS idx_transactions_user ON transactions(user_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_transactions_chain ON transactions(chain, created_at);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() {
	s.db.Close()
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func sqliteDuplicate(err error) error {
	var sqlErr sqlite3.Error
	if errors.As(err, &sqlErr) &&
		(sqlErr.ExtendedCode == sqlite3.ErrConstraintUnique || sqlErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey) {
		return ErrDuplicate
	}
	return err
}

// CreateUser creates a new user record.
func (s *SQLiteStore) CreateUser(ctx context.Context, u *models.User) error {
	defer observe("sqlite", "create_user")()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, password_hash, created_at)
		VALUES (?, ?, ?, ?)
	`, u.ID, u.Username, u.PasswordHash, u.CreatedAt)
	return sqliteDuplicate(err)
}

func (s *SQLiteStore) getUser(ctx context.Context, where, arg string) (*models.User, error) {
	u := &models.User{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, created_at
		FROM users WHERE `+where+` = ?
	`, arg).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

// GetUser retrieves a user by ID.
func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	defer observe("sqlite", "get_user")()
	return s.getUser(ctx, "id", id)
}

// GetUserByUsername retrieves a user by username.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	defer observe("sqlite", "get_user")()
	return s.getUser(ctx, "username", username)
}

// SaveMeetingReport inserts a report row.
func (s *SQLiteStore) SaveMeetingReport(ctx context.Context, r *models.MeetingReport) error {
	defer observe("sqlite", "save_report")()

	contributions, items, mets, err := encodeReport(r)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO meeting_reports (id, type, summary, agent_contributions, action_items, metrics, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, r.ID, string(r.Type), r.Summary, contributions, items, mets, r.Timestamp)
	return sqliteDuplicate(err)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteReport(row rowScanner) (*models.MeetingReport, error) {
	r := &models.MeetingReport{}
	var typ, contributions, items, mets string
	if err := row.Scan(&r.ID, &typ, &r.Summary, &contributions, &items, &mets, &r.Timestamp); err != nil {
		return nil, err
	}
	r.Type = models.MeetingType(typ)
	if err := decodeReport(r, []byte(contributions), []byte(items), []byte(mets)); err != nil {
		return nil, err
	}
	return r, nil
}

// LatestMeetingReport returns the newest report of type t.
func (s *SQLiteStore) LatestMeetingReport(ctx context.Context, t models.MeetingType) (*models.MeetingReport, error) {
	defer observe("sqlite", "latest_report")()

	r, err := scanSQLiteReport(s.db.QueryRowContext(ctx, `
		SELECT `+pgReportColumns+`
		FROM meeting_reports WHERE type = ?
		ORDER BY created_at DESC, rowid DESC LIMIT 1
	`, string(t)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return r, nil
}

// ListMeetingReports returns reports across all types, newest first.
func (s *SQLiteStore) ListMeetingReports(ctx context.Context, limit int) ([]models.MeetingReport, error) {
	defer observe("sqlite", "list_reports")()

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+pgReportColumns+`
		FROM meeting_reports ORDER BY created_at DESC, rowid DESC LIMIT ?
	`, listLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reports := []models.MeetingReport{}
	for rows.Next() {
		r, err := scanSQLiteReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *r)
	}
	return reports, rows.Err()
}

// AddChatMessage appends a message and trims history in one transaction.
func (s *SQLiteStore) AddChatMessage(ctx context.Context, msg *models.ChatMessage) error {
	defer observe("sqlite", "add_chat")()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO chat_messages (id, role, content, agent_id, agent_name, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, msg.ID, string(msg.Role), msg.Content, msg.AgentID, msg.AgentName, msg.Timestamp); err != nil {
		return sqliteDuplicate(err)
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM chat_messages
		WHERE seq NOT IN (SELECT seq FROM chat_messages ORDER BY seq DESC LIMIT ?)
	`, models.ChatHistoryLimit); err != nil {
		return err
	}

	return tx.Commit()
}

// ChatHistory returns the stored chat, oldest first.
func (s *SQLiteStore) ChatHistory(ctx context.Context) ([]models.ChatMessage, error) {
	defer observe("sqlite", "chat_history")()

	rows, err := s.db.QueryContext(ctx, `
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
func (s *SQLiteStore) ClearChat(ctx context.Context) error {
	defer observe("sqlite", "clear_chat")()
	_, err := s.db.ExecContext(ctx, `DELETE FROM chat_messages`)
	return err
}

// SaveAuditLog inserts an audit log.
func (s *SQLiteStore) SaveAuditLog(ctx context.Context, log *models.AuditLog) error {
	defer observe("sqlite", "save_audit")()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, report, severity, created_at)
		VALUES (?, ?, ?, ?)
	`, log.ID, log.Report, log.Severity, log.CreatedAt)
	return sqliteDuplicate(err)
}

// ListAuditLogs returns audits newest first.
func (s *SQLiteStore) ListAuditLogs(ctx context.Context, limit int) ([]models.AuditLog, error) {
	defer observe("sqlite", "list_audits")()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, report, severity, created_at
		FROM audit_logs ORDER BY created_at DESC, rowid DESC LIMIT ?
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

func scanSQLiteTransaction(row rowScanner) (*models.Transaction, error) {
	tx := &models.Transaction{}
	var userID sql.NullString
	err := row.Scan(&tx.ID, &userID, &tx.Type, &tx.From, &tx.To, &tx.Operator,
		&tx.Amount, &tx.Currency, &tx.Status, &tx.TxHash, &tx.Chain, &tx.CreatedAt)
	if err != nil {
		return nil, err
	}
	if userID.Valid {
		tx.UserID = &userID.String
	}
	return tx, nil
}

// CreateTransaction inserts a transaction.
func (s *SQLiteStore) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	defer observe("sqlite", "create_tx")()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (`+pgTxColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, tx.ID, tx.UserID, tx.Type, tx.From, tx.To, tx.Operator,
		tx.Amount, tx.Currency, tx.Status, tx.TxHash, tx.Chain, tx.CreatedAt)
	return sqliteDuplicate(err)
}

// GetTransaction retrieves a transaction by ID.
func (s *SQLiteStore) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	defer observe("sqlite", "get_tx")()

	tx, err := scanSQLiteTransaction(s.db.QueryRowContext(ctx, `
		SELECT `+pgTxColumns+` FROM transactions WHERE id = ?
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return tx, nil
}

// ListTransactions returns transactions matching filter.
func (s *SQLiteStore) ListTransactions(ctx context.Context, filter models.TransactionFilter) ([]models.Transaction, error) {
	defer observe("sqlite", "list_tx")()

	var where []string
	var args []any
	if filter.UserID != "" {
		where = append(where, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.Chain != "" {
		where = append(where, "chain = ?")
		args = append(args, filter.Chain)
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
		q.WriteString(" LIMIT ?")
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, q.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txs := []models.Transaction{}
	for rows.Next() {
		tx, err := scanSQLiteTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, *tx)
	}
	return txs, rows.Err()
}

// UpdateTransactionStatus sets the status of a transaction.
func (s *SQLiteStore) UpdateTransactionStatus(ctx context.Context, id, status string) (*models.Transaction, error) {
	defer observe("sqlite", "update_tx")()

	res, err := s.db.ExecContext(ctx, `UPDATE transactions SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}
	return s.GetTransaction(ctx, id)
}

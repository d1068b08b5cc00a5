package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Joint-Venture-AI/MIX-MASTER-API/internal/domain"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore creates a new SQLite store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	memory := dsn == ":memory:" || strings.Contains(dsn, "mode=memory")

	db, err := sql.Open("sqlite3", withPragmas(dsn, memory))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection to avoid schema/data disappearing across goroutines.
	if memory {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	store := &SQLiteStore{db: db, now: time.Now}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// withPragmas appends connection options that every pooled connection needs.
// Options set through PRAGMA statements would only reach one connection.
func withPragmas(dsn string, memory bool) string {
	opts := []string{"_foreign_keys=on", "_busy_timeout=5000"}
	if !memory {
		opts = append(opts, "_journal_mode=WAL", "_txlock=immediate")
	}

	var missing []string
	for _, opt := range opts {
		key := opt[:strings.Index(opt, "=")+1]
		if !strings.Contains(dsn, key) {
			missing = append(missing, opt)
		}
	}
	if len(missing) == 0 {
		return dsn
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(missing, "&")
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			created_at DATETIME NOT NULL,
			last_activity DATETIME NOT NULL,
			message_count INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_last_activity ON sessions(last_activity)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			role TEXT NOT NULL CHECK (role IN ('user', 'assistant')),
			content TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (session_id) REFERENCES sessions(session_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, created_at, id)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// EnsureSession creates the session if it does not exist and returns it.
func (s *SQLiteStore) EnsureSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	now := s.now().UTC()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (session_id, created_at, last_activity, message_count) VALUES (?, ?, ?, 0)
		 ON CONFLICT(session_id) DO NOTHING`,
		sessionID, now, now); err != nil {
		return nil, fmt.Errorf("%w: ensure session: %w", domain.ErrStorage, err)
	}

	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: ensure session: %w", domain.ErrStorage, err)
	}
	if session == nil {
		return nil, fmt.Errorf("%w: ensure session: session %s vanished", domain.ErrStorage, sessionID)
	}
	return session, nil
}

func (s *SQLiteStore) getSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	var session domain.Session
	err := s.db.QueryRowContext(ctx,
		`SELECT session_id, created_at, last_activity, message_count FROM sessions WHERE session_id = ?`,
		sessionID).Scan(&session.SessionID, &session.CreatedAt, &session.LastActivity, &session.MessageCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// AppendMessage stores a message and bumps the session counters in one transaction.
func (s *SQLiteStore) AppendMessage(ctx context.Context, sessionID string, role domain.Role, content string) (*domain.Message, error) {
	now := s.now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: append message: %w", domain.ErrStorage, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (session_id, created_at, last_activity, message_count) VALUES (?, ?, ?, 1)
		 ON CONFLICT(session_id) DO UPDATE SET
			message_count = message_count + 1,
			last_activity = excluded.last_activity`,
		sessionID, now, now); err != nil {
		return nil, fmt.Errorf("%w: append message: %w", domain.ErrStorage, err)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO messages (session_id, role, content, created_at) VALUES (?, ?, ?, ?)`,
		sessionID, string(role), content, now)
	if err != nil {
		return nil, fmt.Errorf("%w: append message: %w", domain.ErrStorage, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("%w: append message: %w", domain.ErrStorage, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: append message: %w", domain.ErrStorage, err)
	}

	return &domain.Message{
		ID:        id,
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Timestamp: now,
	}, nil
}

// GetHistory returns up to limit most recent messages, oldest first.
func (s *SQLiteStore) GetHistory(ctx context.Context, sessionID string, limit int) ([]domain.Message, error) {
	messages := []domain.Message{}
	if limit <= 0 {
		return messages, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, role, content, created_at FROM (
			SELECT id, session_id, role, content, created_at FROM messages
			WHERE session_id = ?
			ORDER BY created_at DESC, id DESC
			LIMIT ?
		) ORDER BY created_at ASC, id ASC`,
		sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: get history: %w", domain.ErrStorage, err)
	}
	defer rows.Close()

	for rows.Next() {
		var msg domain.Message
		var role string
		if err := rows.Scan(&msg.ID, &msg.SessionID, &role, &msg.Content, &msg.Timestamp); err != nil {
			return nil, fmt.Errorf("%w: get history: %w", domain.ErrStorage, err)
		}
		msg.Role = domain.Role(role)
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: get history: %w", domain.ErrStorage, err)
	}
	return messages, nil
}

// ClearSession deletes a session and all of its messages. Unknown ids are a no-op.
func (s *SQLiteStore) ClearSession(ctx context.Context, sessionID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: clear session: %w", domain.ErrStorage, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("%w: clear session: %w", domain.ErrStorage, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("%w: clear session: %w", domain.ErrStorage, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: clear session: %w", domain.ErrStorage, err)
	}
	return nil
}

// GetAnalytics computes usage statistics across all sessions.
func (s *SQLiteStore) GetAnalytics(ctx context.Context) (*domain.Analytics, error) {
	out := &domain.Analytics{MessagesByType: map[string]int{}}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&out.TotalSessions); err != nil {
		return nil, fmt.Errorf("%w: analytics: %w", domain.ErrStorage, err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages`).Scan(&out.TotalMessages); err != nil {
		return nil, fmt.Errorf("%w: analytics: %w", domain.ErrStorage, err)
	}

	byRole, err := s.countByRole(ctx, `SELECT role, COUNT(*) FROM messages GROUP BY role`)
	if err != nil {
		return nil, fmt.Errorf("%w: analytics: %w", domain.ErrStorage, err)
	}
	out.MessagesByType = byRole

	since := s.now().UTC().Add(-ActiveWindow)
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sessions WHERE last_activity >= ?`, since).Scan(&out.ActiveSessions24h); err != nil {
		return nil, fmt.Errorf("%w: analytics: %w", domain.ErrStorage, err)
	}

	out.AvgMessagesPerSession = averagePerSession(out.TotalMessages, out.TotalSessions)
	return out, nil
}

// GetSessionStats returns the message breakdown for a session, or nil if it does not exist.
func (s *SQLiteStore) GetSessionStats(ctx context.Context, sessionID string) (*domain.SessionStats, error) {
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: session stats: %w", domain.ErrStorage, err)
	}
	if session == nil {
		return nil, nil
	}

	breakdown, err := s.countByRole(ctx,
		`SELECT role, COUNT(*) FROM messages WHERE session_id = ? GROUP BY role`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: session stats: %w", domain.ErrStorage, err)
	}

	return &domain.SessionStats{
		SessionID:        session.SessionID,
		CreatedAt:        session.CreatedAt,
		LastActivity:     session.LastActivity,
		TotalMessages:    session.MessageCount,
		MessageBreakdown: breakdown,
	}, nil
}

func (s *SQLiteStore) countByRole(ctx context.Context, query string, args ...interface{}) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var role string
		var n int
		if err := rows.Scan(&role, &n); err != nil {
			return nil, err
		}
		counts[role] = n
	}
	return counts, rows.Err()
}

// Ensure SQLiteStore implements Store at compile time.
var _ Store = (*SQLiteStore)(nil)

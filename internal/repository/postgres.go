package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Joint-Venture-AI/MIX-MASTER-API/internal/domain"
)

const createSchemaSQL = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id    TEXT PRIMARY KEY,
	created_at    TIMESTAMPTZ NOT NULL,
	last_activity TIMESTAMPTZ NOT NULL,
	message_count INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_sessions_last_activity ON sessions(last_activity);
CREATE TABLE IF NOT EXISTS messages (
	id         BIGSERIAL PRIMARY KEY,
	session_id TEXT NOT NULL REFERENCES sessions(session_id),
	role       TEXT NOT NULL CHECK (role IN ('user', 'assistant')),
	content    TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, created_at, id);`

// PGStore implements Store using a PostgreSQL connection pool.
type PGStore struct {
	db  *pgxpool.Pool
	now func() time.Time
}

// NewPostgresStore connects to databaseURL and creates the schema if needed.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PGStore, error) {
	db, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	s := &PGStore{db: db, now: time.Now}
	if _, err := db.Exec(ctx, createSchemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close releases every pooled connection.
func (s *PGStore) Close() error {
	s.db.Close()
	return nil
}

// EnsureSession creates the session if it does not exist and returns it.
func (s *PGStore) EnsureSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	now := s.now().UTC()
	if _, err := s.db.Exec(ctx,
		`INSERT INTO sessions (session_id, created_at, last_activity, message_count)
		 VALUES ($1, $2, $2, 0)
		 ON CONFLICT (session_id) DO NOTHING`,
		sessionID, now); err != nil {
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

func (s *PGStore) getSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	var session domain.Session
	err := s.db.QueryRow(ctx,
		`SELECT session_id, created_at, last_activity, message_count FROM sessions WHERE session_id = $1`,
		sessionID,
	).Scan(&session.SessionID, &session.CreatedAt, &session.LastActivity, &session.MessageCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	session.CreatedAt = session.CreatedAt.UTC()
	session.LastActivity = session.LastActivity.UTC()
	return &session, nil
}

// AppendMessage stores a message and bumps the session counters in one transaction.
func (s *PGStore) AppendMessage(ctx context.Context, sessionID string, role domain.Role, content string) (*domain.Message, error) {
	now := s.now().UTC()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: append message: %w", domain.ErrStorage, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO sessions (session_id, created_at, last_activity, message_count)
		 VALUES ($1, $2, $2, 1)
		 ON CONFLICT (session_id) DO UPDATE SET
			message_count = sessions.message_count + 1,
			last_activity = EXCLUDED.last_activity`,
		sessionID, now); err != nil {
		return nil, fmt.Errorf("%w: append message: %w", domain.ErrStorage, err)
	}

	msg := &domain.Message{SessionID: sessionID, Role: role, Content: content, Timestamp: now}
	if err := tx.QueryRow(ctx,
		`INSERT INTO messages (session_id, role, content, created_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		sessionID, string(role), content, now,
	).Scan(&msg.ID); err != nil {
		return nil, fmt.Errorf("%w: append message: %w", domain.ErrStorage, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%w: append message: %w", domain.ErrStorage, err)
	}
	return msg, nil
}

// GetHistory returns up to limit most recent messages, oldest first.
func (s *PGStore) GetHistory(ctx context.Context, sessionID string, limit int) ([]domain.Message, error) {
	messages := []domain.Message{}
	if limit <= 0 {
		return messages, nil
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, session_id, role, content, created_at FROM (
			SELECT id, session_id, role, content, created_at FROM messages
			WHERE session_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		) recent ORDER BY created_at ASC, id ASC`,
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
		msg.Timestamp = msg.Timestamp.UTC()
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: get history: %w", domain.ErrStorage, err)
	}
	return messages, nil
}

// ClearSession deletes a session and all of its messages. Unknown ids are a no-op.
func (s *PGStore) ClearSession(ctx context.Context, sessionID string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: clear session: %w", domain.ErrStorage, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM messages WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("%w: clear session: %w", domain.ErrStorage, err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM sessions WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("%w: clear session: %w", domain.ErrStorage, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: clear session: %w", domain.ErrStorage, err)
	}
	return nil
}

// GetAnalytics computes usage statistics across all sessions.
func (s *PGStore) GetAnalytics(ctx context.Context) (*domain.Analytics, error) {
	out := &domain.Analytics{}
	since := s.now().UTC().Add(-ActiveWindow)

	err := s.db.QueryRow(ctx,
		`SELECT
			(SELECT COUNT(*) FROM sessions),
			(SELECT COUNT(*) FROM messages),
			(SELECT COUNT(*) FROM sessions WHERE last_activity >= $1)`,
		since,
	).Scan(&out.TotalSessions, &out.TotalMessages, &out.ActiveSessions24h)
	if err != nil {
		return nil, fmt.Errorf("%w: analytics: %w", domain.ErrStorage, err)
	}

	out.MessagesByType, err = s.countByRole(ctx, `SELECT role, COUNT(*) FROM messages GROUP BY role`)
	if err != nil {
		return nil, fmt.Errorf("%w: analytics: %w", domain.ErrStorage, err)
	}

	out.AvgMessagesPerSession = averagePerSession(out.TotalMessages, out.TotalSessions)
	return out, nil
}

// GetSessionStats returns the message breakdown for a session, or nil if it does not exist.
func (s *PGStore) GetSessionStats(ctx context.Context, sessionID string) (*domain.SessionStats, error) {
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: session stats: %w", domain.ErrStorage, err)
	}
	if session == nil {
		return nil, nil
	}

	breakdown, err := s.countByRole(ctx,
		`SELECT role, COUNT(*) FROM messages WHERE session_id = $1 GROUP BY role`, sessionID)
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

func (s *PGStore) countByRole(ctx context.Context, query string, args ...any) (map[string]int, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var role string
		var n int64
		if err := rows.Scan(&role, &n); err != nil {
			return nil, err
		}
		counts[role] = int(n)
	}
	return counts, rows.Err()
}

var _ Store = (*PGStore)(nil)

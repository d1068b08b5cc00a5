package domain

import "time"

// Session represents a conversation session.
type Session struct {
	SessionID    string    `json:"session_id"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
	MessageCount int       `json:"message_count"`
}

// Message represents a single stored message in a session.
type Message struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Analytics is the usage summary across all sessions.
type Analytics struct {
	TotalSessions         int            `json:"total_sessions"`
	TotalMessages         int            `json:"total_messages"`
	MessagesByType        map[string]int `json:"messages_by_type"`
	ActiveSessions24h     int            `json:"active_sessions_24h"`
	AvgMessagesPerSession float64        `json:"avg_messages_per_session"`
}

// SessionStats is the per-session message breakdown.
type SessionStats struct {
	SessionID        string         `json:"session_id"`
	CreatedAt        time.Time      `json:"created_at"`
	LastActivity     time.Time      `json:"last_activity"`
	TotalMessages    int            `json:"total_messages"`
	MessageBreakdown map[string]int `json:"message_breakdown"`
}

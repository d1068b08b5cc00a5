// Package store defines the session storage contract and its implementations.
package store

import (
	"context"
	"math"
	"time"

	"github.com/Joint-Venture-AI/MIX-MASTER-API/internal/domain"
)

// ActiveWindow is how recent last_activity must be for a session to count as active.
const ActiveWindow = 24 * time.Hour

// Store defines the interface for session persistence.
type Store interface {
	// Session operations
	EnsureSession(ctx context.Context, sessionID string) (*domain.Session, error)
	ClearSession(ctx context.Context, sessionID string) error

	// Message operations
	AppendMessage(ctx context.Context, sessionID string, role domain.Role, content string) (*domain.Message, error)
	GetHistory(ctx context.Context, sessionID string, limit int) ([]domain.Message, error)

	// Aggregates
	GetAnalytics(ctx context.Context) (*domain.Analytics, error)
	GetSessionStats(ctx context.Context, sessionID string) (*domain.SessionStats, error)

	// Lifecycle
	Close() error
}

// averagePerSession returns messages/sessions rounded to two decimals, or 0.
func averagePerSession(messages, sessions int) float64 {
	if sessions <= 0 {
		return 0
	}
	return math.Round(float64(messages)/float64(sessions)*100) / 100
}

package service

import (
	"context"

	"github.com/Joint-Venture-AI/MIX-MASTER-API/internal/domain"
)

// Analytics computes usage statistics on demand.
func (s *Service) Analytics(ctx context.Context) (*domain.Analytics, error) {
	return s.store.GetAnalytics(ctx)
}

// SessionStats returns per-session statistics, or nil when the session is unknown.
func (s *Service) SessionStats(ctx context.Context, sessionID string) (*domain.SessionStats, error) {
	return s.store.GetSessionStats(ctx, sessionID)
}

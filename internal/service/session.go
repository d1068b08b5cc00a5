package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Joint-Venture-AI/MIX-MASTER-API/internal/domain"
	"github.com/Joint-Venture-AI/MIX-MASTER-API/internal/observability"
)

// DefaultHistoryLimit caps history listings when the caller gives no limit.
const DefaultHistoryLimit = 50

// ClearSession removes a session and its history. Unknown ids succeed.
func (s *Service) ClearSession(ctx context.Context, sessionID string) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return fmt.Errorf("%w: session_id required", domain.ErrMissingInput)
	}
	if err := s.store.ClearSession(ctx, sessionID); err != nil {
		return err
	}
	observability.LoggerFromContext(ctx).Info("session cleared", "session_id", sessionID)
	return nil
}

// History returns the most recent messages of a session, oldest first.
func (s *Service) History(ctx context.Context, sessionID string, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return s.store.GetHistory(ctx, sessionID, limit)
}

package service

import (
	"context"
	"time"

	"github.com/Joint-Venture-AI/MIX-MASTER-API/internal/observability"
)

// RunUploadSweeper removes abandoned upload files until ctx is done.
func (s *Service) RunUploadSweeper(ctx context.Context) {
	interval := s.config.UploadSweepInterval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepStaleUploads()
		}
	}
}

func (s *Service) sweepStaleUploads() {
	if s.config.UploadMaxAge <= 0 {
		return
	}
	removed, err := s.stager.SweepStale(s.config.UploadMaxAge)
	if err != nil {
		observability.Logger().Warn("upload sweep failed", "error", err)
		return
	}
	if removed > 0 {
		observability.Logger().Info("removed stale uploads", "count", removed)
	}
}

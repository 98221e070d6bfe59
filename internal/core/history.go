package core

import (
	"context"

	"github.com/JonMunkholm/bookfund/internal/domain"
	"github.com/JonMunkholm/bookfund/internal/logging"
)

// DefaultHistoryLimit caps History when no limit is given.
const DefaultHistoryLimit = 100

// recordRun persists run. Failing to save history never fails the import.
func (s *Service) recordRun(ctx context.Context, run domain.ImportRun) {
	if err := s.store.SaveImportRun(context.WithoutCancel(ctx), run); err != nil {
		logging.FromContext(ctx).Error("failed to record import run", "error", err)
	}
}

// History returns the most recent import runs, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]domain.ImportRun, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	runs, err := s.store.ListImportRuns(ctx, limit)
	if err != nil {
		return nil, err
	}
	if runs == nil {
		runs = []domain.ImportRun{}
	}
	return runs, nil
}

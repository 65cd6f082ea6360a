package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dmarchuk/legalintel/internal/core/domain"
	"github.com/dmarchuk/legalintel/internal/core/ports"
)

// DashboardUseCase serves the aggregate counts behind the dashboard header,
// cache-aside over the repository aggregates. Writers invalidate the cache
// whenever a document changes state.
type DashboardUseCase struct {
	repo   ports.DocumentRepository
	cache  ports.StatsCache
	logger *slog.Logger
}

func NewDashboardUseCase(repo ports.DocumentRepository, cache ports.StatsCache, logger *slog.Logger) *DashboardUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardUseCase{repo: repo, cache: cache, logger: logger}
}

func (uc *DashboardUseCase) DashboardStats(ctx context.Context, userID int64) (*domain.DashboardStats, error) {
	if stats, ok, err := uc.cache.Get(ctx, userID); err != nil {
		uc.logger.Warn("stats cache read failed", "user_id", userID, "error", err)
	} else if ok {
		return stats, nil
	}

	stats, err := uc.repo.AggregateStats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("aggregate dashboard stats: %w", err)
	}

	if err := uc.cache.Set(ctx, userID, stats); err != nil {
		uc.logger.Warn("stats cache write failed", "user_id", userID, "error", err)
	}
	return stats, nil
}

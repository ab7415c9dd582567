package ports

import (
	"context"

	"github.com/alejandrodnm/backsim/internal/domain"
)

// Notifier reports tick results to the operator.
type Notifier interface {
	// NotifyTick reports one committed snapshot.
	NotifyTick(ctx context.Context, sessionID string, snap domain.Snapshot) error

	// NotifyLeaderboard reports best-ever per-actor performance.
	NotifyLeaderboard(ctx context.Context, records []domain.PerformanceRecord) error
}

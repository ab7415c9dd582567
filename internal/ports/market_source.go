package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/backsim/internal/domain"
)

// MarketSource is the upstream market data provider. All three calls are
// potentially slow and rate-limited; callers cache aggressively.
type MarketSource interface {
	// Quote fetches the current real-time quote for one symbol.
	Quote(ctx context.Context, symbol string) (domain.Quote, error)

	// History fetches the OHLCV-derived quote and indicator series for a
	// symbol over [start, end], in chronological order.
	History(ctx context.Context, symbol string, start, end time.Time) ([]domain.Quote, []domain.Indicators, error)

	// Analysis fetches the static analytical summaries (technical levels,
	// fundamentals, sentiment) for a symbol.
	Analysis(ctx context.Context, symbol string) (domain.Analysis, error)
}

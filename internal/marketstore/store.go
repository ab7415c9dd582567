package marketstore

// store.go — time-indexed market data store. Per-symbol series are
// append-only and effectively read-only once loaded, so tick-time
// lookups from many actors share a read lock and never contend.

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alejandrodnm/backsim/internal/domain"
	"github.com/alejandrodnm/backsim/internal/ports"
)

const (
	// seriesTTL bounds how long a persisted series is reused across runs.
	seriesTTL = time.Hour
	// analysisTTL is deliberately long: analyses are "current state" with
	// no time dimension and change slowly.
	analysisTTL = 7 * 24 * time.Hour
)

// Store answers nearest-timestamp queries over preloaded per-symbol
// series, and caches static analyses independently of the series.
type Store struct {
	source ports.MarketSource
	kv     ports.KVStore // nil disables cross-run persistence

	mu         sync.RWMutex
	quotes     map[string][]domain.Quote
	indicators map[string][]domain.Indicators
	analyses   map[string]domain.Analysis
}

// New creates a Store backed by the given upstream source. kv may be nil
// for purely in-memory operation (tests, dry runs).
func New(source ports.MarketSource, kv ports.KVStore) *Store {
	return &Store{
		source:     source,
		kv:         kv,
		quotes:     make(map[string][]domain.Quote),
		indicators: make(map[string][]domain.Indicators),
		analyses:   make(map[string]domain.Analysis),
	}
}

// persistedSeries is the KV encoding of one symbol's loaded series.
type persistedSeries struct {
	Quotes     []domain.Quote      `json:"quotes"`
	Indicators []domain.Indicators `json:"indicators"`
}

// Load bulk-populates the series for each symbol over [start, end].
// Already-loaded symbols are skipped before any fetch happens, so
// concurrent or repeated Load calls never duplicate upstream work. One
// symbol's fetch failure does not affect the others; it is logged and
// that symbol stays unloaded.
func (s *Store) Load(ctx context.Context, symbols []string, start, end time.Time) error {
	symbols = domain.NormalizeSymbols(symbols)

	s.mu.Lock()
	var missing []string
	for _, sym := range symbols {
		if _, ok := s.quotes[sym]; !ok {
			missing = append(missing, sym)
		}
	}
	s.mu.Unlock()

	if len(missing) == 0 {
		return nil
	}

	var wg sync.WaitGroup
	for _, sym := range missing {
		wg.Add(1)
		go func(sym string) {
			defer wg.Done()
			quotes, inds, err := s.fetchSeries(ctx, sym, start, end)
			if err != nil {
				slog.Warn("marketstore: series load failed", "symbol", sym, "err", err)
				return
			}
			s.mu.Lock()
			// Re-check under lock: a concurrent Load may have won the race.
			if _, ok := s.quotes[sym]; !ok {
				s.quotes[sym] = quotes
				s.indicators[sym] = inds
			}
			s.mu.Unlock()
		}(sym)
	}
	wg.Wait()

	s.mu.RLock()
	loaded := len(s.quotes)
	s.mu.RUnlock()
	slog.Info("marketstore: load complete", "requested", len(symbols), "loaded", loaded)
	return nil
}

// fetchSeries reads one symbol's series from the KV cache, falling back
// to the upstream source and writing the cache back.
func (s *Store) fetchSeries(ctx context.Context, sym string, start, end time.Time) ([]domain.Quote, []domain.Indicators, error) {
	key := seriesKey(sym, start, end)
	if s.kv != nil {
		if raw, found, err := s.kv.Get(ctx, key); err == nil && found {
			var p persistedSeries
			if json.Unmarshal(raw, &p) == nil && len(p.Quotes) > 0 {
				return p.Quotes, p.Indicators, nil
			}
		}
	}

	quotes, inds, err := s.source.History(ctx, sym, start, end)
	if err != nil {
		return nil, nil, err
	}
	if len(quotes) == 0 {
		return nil, nil, fmt.Errorf("marketstore.fetchSeries %s: empty series: %w", sym, domain.ErrDataUnavailable)
	}

	if s.kv != nil {
		if raw, err := json.Marshal(persistedSeries{Quotes: quotes, Indicators: inds}); err == nil {
			if err := s.kv.Set(ctx, key, raw, seriesTTL); err != nil {
				slog.Warn("marketstore: cache write failed", "symbol", sym, "err", err)
			}
		}
	}
	return quotes, inds, nil
}

// IsLoaded reports whether every given symbol has a loaded series.
// Callers use this to decide between time-indexed lookups and the live
// fallback path.
func (s *Store) IsLoaded(symbols []string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sym := range domain.NormalizeSymbols(symbols) {
		if _, ok := s.quotes[sym]; !ok {
			return false
		}
	}
	return true
}

// QuoteAt returns the stored quote nearest to t, or nil if the symbol's
// series is empty. On an exact distance tie the earlier record wins —
// the scan keeps the first minimum it encounters and stored order is
// chronological.
func (s *Store) QuoteAt(symbol string, t time.Time) *domain.Quote {
	s.mu.RLock()
	defer s.mu.RUnlock()

	series := s.quotes[symbol]
	if len(series) == 0 {
		return nil
	}

	best := 0
	bestDist := absDuration(series[0].Timestamp.Sub(t))
	for i := 1; i < len(series); i++ {
		if d := absDuration(series[i].Timestamp.Sub(t)); d < bestDist {
			best, bestDist = i, d
		}
	}
	q := series[best]
	return &q
}

// IndicatorsAt is the nearest-match contract of QuoteAt over the
// indicator series.
func (s *Store) IndicatorsAt(symbol string, t time.Time) *domain.Indicators {
	s.mu.RLock()
	defer s.mu.RUnlock()

	series := s.indicators[symbol]
	if len(series) == 0 {
		return nil
	}

	best := 0
	bestDist := absDuration(series[0].Timestamp.Sub(t))
	for i := 1; i < len(series); i++ {
		if d := absDuration(series[i].Timestamp.Sub(t)); d < bestDist {
			best, bestDist = i, d
		}
	}
	ind := series[best]
	return &ind
}

// BatchQuotesAt fans the single-symbol lookup out concurrently. The
// result has one entry per symbol that had data, no ordering guarantee.
func (s *Store) BatchQuotesAt(ctx context.Context, symbols []string, t time.Time) map[string]domain.Quote {
	out := make(map[string]domain.Quote, len(symbols))
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, sym := range symbols {
		wg.Add(1)
		go func(sym string) {
			defer wg.Done()
			if q := s.QuoteAt(sym, t); q != nil {
				mu.Lock()
				out[sym] = *q
				mu.Unlock()
			}
		}(sym)
	}
	wg.Wait()
	return out
}

// BatchIndicatorsAt is the batch variant of IndicatorsAt.
func (s *Store) BatchIndicatorsAt(ctx context.Context, symbols []string, t time.Time) map[string]domain.Indicators {
	out := make(map[string]domain.Indicators, len(symbols))
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, sym := range symbols {
		wg.Add(1)
		go func(sym string) {
			defer wg.Done()
			if ind := s.IndicatorsAt(sym, t); ind != nil {
				mu.Lock()
				out[sym] = *ind
				mu.Unlock()
			}
		}(sym)
	}
	wg.Wait()
	return out
}

// LiveQuotes fetches one real-time quote per symbol directly from the
// upstream source — the fallback path when no historical preload
// happened. Failures are isolated per symbol.
func (s *Store) LiveQuotes(ctx context.Context, symbols []string) map[string]domain.Quote {
	out := make(map[string]domain.Quote, len(symbols))
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, sym := range domain.NormalizeSymbols(symbols) {
		wg.Add(1)
		go func(sym string) {
			defer wg.Done()
			q, err := s.source.Quote(ctx, sym)
			if err != nil {
				slog.Warn("marketstore: live quote failed", "symbol", sym, "err", err)
				return
			}
			mu.Lock()
			out[sym] = q
			mu.Unlock()
		}(sym)
	}
	wg.Wait()
	return out
}

func seriesKey(sym string, start, end time.Time) string {
	return fmt.Sprintf("series:%s:%d:%d", sym, start.Unix(), end.Unix())
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

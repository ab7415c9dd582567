package marketstore

// analysis.go — per-symbol static analysis cache. Analyses have no time
// dimension: they are refreshed on a long TTL, independently of the
// quote/indicator series, and merged upstream into one record per symbol.

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/alejandrodnm/backsim/internal/domain"
)

// AnalysisFor returns the comprehensive analysis for a symbol, serving
// from memory, then the KV cache, then the upstream source. A fetch
// failure returns nil — the signal engine treats a missing analysis as
// "no fundamental/sentiment signals this tick".
func (s *Store) AnalysisFor(ctx context.Context, symbol string) *domain.Analysis {
	s.mu.RLock()
	an, ok := s.analyses[symbol]
	s.mu.RUnlock()
	if ok && time.Since(an.FetchedAt) < analysisTTL {
		return &an
	}

	if s.kv != nil {
		if raw, found, err := s.kv.Get(ctx, "analysis:"+symbol); err == nil && found {
			var cached domain.Analysis
			if json.Unmarshal(raw, &cached) == nil {
				s.mu.Lock()
				s.analyses[symbol] = cached
				s.mu.Unlock()
				return &cached
			}
		}
	}

	fetched, err := s.source.Analysis(ctx, symbol)
	if err != nil {
		slog.Warn("marketstore: analysis fetch failed", "symbol", symbol, "err", err)
		return nil
	}

	s.mu.Lock()
	s.analyses[symbol] = fetched
	s.mu.Unlock()

	if s.kv != nil {
		if raw, err := json.Marshal(fetched); err == nil {
			if err := s.kv.Set(ctx, "analysis:"+symbol, raw, analysisTTL); err != nil {
				slog.Warn("marketstore: analysis cache write failed", "symbol", symbol, "err", err)
			}
		}
	}
	return &fetched
}

// BatchAnalyses fetches analyses for all symbols concurrently. Symbols
// whose analysis is unavailable are absent from the result.
func (s *Store) BatchAnalyses(ctx context.Context, symbols []string) map[string]domain.Analysis {
	out := make(map[string]domain.Analysis, len(symbols))
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, sym := range symbols {
		wg.Add(1)
		go func(sym string) {
			defer wg.Done()
			if an := s.AnalysisFor(ctx, sym); an != nil {
				mu.Lock()
				out[sym] = *an
				mu.Unlock()
			}
		}(sym)
	}
	wg.Wait()
	return out
}

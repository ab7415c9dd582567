package marketstore_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/backsim/internal/domain"
	"github.com/alejandrodnm/backsim/internal/marketstore"
)

// fakeSource is an in-memory ports.MarketSource.
type fakeSource struct {
	quotes       map[string][]domain.Quote
	indicators   map[string][]domain.Indicators
	analyses     map[string]domain.Analysis
	failSymbols  map[string]bool
	historyCalls atomic.Int64
	quoteCalls   atomic.Int64
}

func (f *fakeSource) Quote(_ context.Context, symbol string) (domain.Quote, error) {
	f.quoteCalls.Add(1)
	series := f.quotes[symbol]
	if len(series) == 0 {
		return domain.Quote{}, domain.ErrUpstreamFetch
	}
	return series[len(series)-1], nil
}

func (f *fakeSource) History(_ context.Context, symbol string, _, _ time.Time) ([]domain.Quote, []domain.Indicators, error) {
	f.historyCalls.Add(1)
	if f.failSymbols[symbol] {
		return nil, nil, errors.New("boom")
	}
	return f.quotes[symbol], f.indicators[symbol], nil
}

func (f *fakeSource) Analysis(_ context.Context, symbol string) (domain.Analysis, error) {
	an, ok := f.analyses[symbol]
	if !ok {
		return domain.Analysis{}, domain.ErrUpstreamFetch
	}
	return an, nil
}

func quoteAt(sym string, ts int64, price float64) domain.Quote {
	return domain.Quote{Symbol: sym, Price: price, Timestamp: time.Unix(ts, 0)}
}

func newLoadedStore(t *testing.T, src *fakeSource, symbols ...string) *marketstore.Store {
	t.Helper()
	store := marketstore.New(src, nil)
	require.NoError(t, store.Load(context.Background(), symbols, time.Unix(0, 0), time.Unix(1000, 0)))
	return store
}

func TestQuoteAt_NearestTimestamp(t *testing.T) {
	src := &fakeSource{quotes: map[string][]domain.Quote{
		"AAPL": {quoteAt("AAPL", 100, 1), quoteAt("AAPL", 200, 2), quoteAt("AAPL", 300, 3)},
	}}
	store := newLoadedStore(t, src, "AAPL")

	q := store.QuoteAt("AAPL", time.Unix(190, 0))
	require.NotNil(t, q)
	assert.Equal(t, float64(2), q.Price)

	// Exact distance tie: the earlier record wins.
	q = store.QuoteAt("AAPL", time.Unix(250, 0))
	require.NotNil(t, q)
	assert.Equal(t, int64(200), q.Timestamp.Unix())

	// Target far past the series clamps to the last record.
	q = store.QuoteAt("AAPL", time.Unix(9000, 0))
	require.NotNil(t, q)
	assert.Equal(t, int64(300), q.Timestamp.Unix())
}

func TestQuoteAt_EmptySeries(t *testing.T) {
	store := marketstore.New(&fakeSource{quotes: map[string][]domain.Quote{}}, nil)
	assert.Nil(t, store.QuoteAt("MSFT", time.Unix(100, 0)))
}

func TestQuoteAt_Idempotent(t *testing.T) {
	src := &fakeSource{quotes: map[string][]domain.Quote{
		"AAPL": {quoteAt("AAPL", 100, 1), quoteAt("AAPL", 200, 2)},
	}}
	store := newLoadedStore(t, src, "AAPL")

	first := store.QuoteAt("AAPL", time.Unix(150, 0))
	second := store.QuoteAt("AAPL", time.Unix(150, 0))
	require.NotNil(t, first)
	assert.Equal(t, *first, *second)
}

func TestLoad_SkipsAlreadyLoaded(t *testing.T) {
	src := &fakeSource{quotes: map[string][]domain.Quote{
		"AAPL": {quoteAt("AAPL", 100, 1)},
	}}
	store := newLoadedStore(t, src, "AAPL")
	require.Equal(t, int64(1), src.historyCalls.Load())

	// A second load for the same symbol set must not refetch.
	require.NoError(t, store.Load(context.Background(), []string{"AAPL"}, time.Unix(0, 0), time.Unix(1000, 0)))
	assert.Equal(t, int64(1), src.historyCalls.Load())
}

func TestLoad_PerSymbolFailureIsolation(t *testing.T) {
	src := &fakeSource{
		quotes: map[string][]domain.Quote{
			"AAPL": {quoteAt("AAPL", 100, 1)},
			"MSFT": {quoteAt("MSFT", 100, 2)},
		},
		failSymbols: map[string]bool{"MSFT": true},
	}
	store := marketstore.New(src, nil)
	require.NoError(t, store.Load(context.Background(), []string{"AAPL", "MSFT"}, time.Unix(0, 0), time.Unix(1000, 0)))

	assert.True(t, store.IsLoaded([]string{"AAPL"}))
	assert.False(t, store.IsLoaded([]string{"MSFT"}))
	assert.NotNil(t, store.QuoteAt("AAPL", time.Unix(100, 0)))
	assert.Nil(t, store.QuoteAt("MSFT", time.Unix(100, 0)))
}

func TestBatchQuotesAt(t *testing.T) {
	src := &fakeSource{quotes: map[string][]domain.Quote{
		"AAPL": {quoteAt("AAPL", 100, 1)},
		"MSFT": {quoteAt("MSFT", 100, 2)},
	}}
	store := newLoadedStore(t, src, "AAPL", "MSFT")

	got := store.BatchQuotesAt(context.Background(), []string{"AAPL", "MSFT", "NVDA"}, time.Unix(100, 0))
	require.Len(t, got, 2)
	assert.Equal(t, float64(1), got["AAPL"].Price)
	assert.Equal(t, float64(2), got["MSFT"].Price)
}

func TestLiveQuotes_FallbackPath(t *testing.T) {
	src := &fakeSource{quotes: map[string][]domain.Quote{
		"AAPL": {quoteAt("AAPL", 100, 42)},
	}}
	store := marketstore.New(src, nil)

	require.False(t, store.IsLoaded([]string{"AAPL"}))
	got := store.LiveQuotes(context.Background(), []string{"AAPL", "MISSING"})
	require.Len(t, got, 1)
	assert.Equal(t, float64(42), got["AAPL"].Price)
	assert.Equal(t, int64(2), src.quoteCalls.Load())
}

func TestAnalysisFor_CachedInMemory(t *testing.T) {
	src := &fakeSource{
		quotes: map[string][]domain.Quote{"AAPL": {quoteAt("AAPL", 100, 1)}},
		analyses: map[string]domain.Analysis{
			"AAPL": {
				Symbol:    "AAPL",
				Technical: &domain.TechnicalLevels{Symbol: "AAPL", Support: 90, Resistance: 110},
				FetchedAt: time.Now(),
			},
		},
	}
	store := marketstore.New(src, nil)

	an := store.AnalysisFor(context.Background(), "AAPL")
	require.NotNil(t, an)
	require.NotNil(t, an.Technical)
	assert.Equal(t, float64(90), an.Technical.Support)

	// Missing analysis degrades to nil, not an error.
	assert.Nil(t, store.AnalysisFor(context.Background(), "MSFT"))
}

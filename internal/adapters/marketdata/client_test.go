package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/backsim/internal/domain"
)

func TestClient_Quote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/quote", r.URL.Path)
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		w.Write([]byte(`{"price": 187.5, "change": 2.5, "change_percent": 1.35,
			"volume": 1000000, "day_high": 189, "day_low": 184,
			"open": 185, "previous_close": 185, "ts": 1780000000}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 100, 100, 100)
	q, err := c.Quote(context.Background(), "AAPL")
	require.NoError(t, err)

	assert.Equal(t, "AAPL", q.Symbol)
	assert.Equal(t, 187.5, q.Price)
	assert.Equal(t, 1.35, q.ChangePercent)
	assert.Equal(t, int64(1000000), q.Volume)
	assert.Equal(t, time.Unix(1780000000, 0), q.Timestamp)
}

func TestClient_History(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/history", r.URL.Path)
		assert.Equal(t, "1h", r.URL.Query().Get("interval"))
		w.Write([]byte(`{"candles": [
			{"o": 100, "h": 102, "l": 99, "c": 100, "v": 500, "t": 1780000000},
			{"o": 100, "h": 106, "l": 100, "c": 104, "v": 600, "t": 1780003600}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 100, 100, 100)
	quotes, inds, err := c.History(context.Background(), "MSFT",
		time.Unix(1780000000, 0), time.Unix(1780003600, 0))
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	require.Len(t, inds, 2)

	// The first bar has no predecessor, so no change fields.
	assert.Equal(t, 0.0, quotes[0].Change)
	assert.Equal(t, 104.0, quotes[1].Price)
	assert.Equal(t, 4.0, quotes[1].Change)
	assert.InDelta(t, 4.0, quotes[1].ChangePercent, 1e-9)
	assert.Equal(t, 100.0, quotes[1].PreviousClose)
}

func TestClient_Analysis(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"technical": {"support": 180, "resistance": 195, "trend": "up"},
			"fundamentals": {"roe": 0.21, "debt_to_equity": 45, "pe_ratio": 28, "analyst_rating": "BUY"}
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 100, 100, 100)
	an, err := c.Analysis(context.Background(), "AAPL")
	require.NoError(t, err)

	require.NotNil(t, an.Technical)
	assert.Equal(t, 180.0, an.Technical.Support)
	require.NotNil(t, an.Fundamentals)
	assert.Equal(t, domain.RatingBuy, an.Fundamentals.AnalystRating)
	assert.Nil(t, an.Sentiment)
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"price": 50, "ts": 1780000000}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 100, 100, 100)
	q, err := c.Quote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 50.0, q.Price)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "no such symbol", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 100, 100, 100)
	_, err := c.Quote(context.Background(), "NOPE")
	require.ErrorIs(t, err, domain.ErrUpstreamFetch)
	assert.Equal(t, int32(1), calls.Load())
}

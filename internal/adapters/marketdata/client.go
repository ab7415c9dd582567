package marketdata

// client.go — HTTP client for the upstream market data source, with
// per-endpoint rate limiting and retries. The upstream is treated as
// slow and rate-limited; the market store in front of this client is
// what makes the engine usable.

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/alejandrodnm/backsim/internal/domain"
)

const (
	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// Client implements ports.MarketSource over the upstream HTTP API.
type Client struct {
	http            *http.Client
	base            string
	quoteLimiter    *rate.Limiter
	historyLimiter  *rate.Limiter
	analysisLimiter *rate.Limiter
}

// NewClient creates a Client for the given base URL. Rates are requests
// per second per endpoint family; zero or negative picks conservative
// defaults.
func NewClient(base string, quoteRPS, historyRPS, analysisRPS int) *Client {
	if quoteRPS <= 0 {
		quoteRPS = 10
	}
	if historyRPS <= 0 {
		historyRPS = 2
	}
	if analysisRPS <= 0 {
		analysisRPS = 2
	}
	return &Client{
		http:            &http.Client{Timeout: 10 * time.Second},
		base:            base,
		quoteLimiter:    rate.NewLimiter(rate.Limit(quoteRPS), quoteRPS),
		historyLimiter:  rate.NewLimiter(rate.Limit(historyRPS), 2),
		analysisLimiter: rate.NewLimiter(rate.Limit(analysisRPS), 2),
	}
}

// Quote fetches the current real-time quote for one symbol.
func (c *Client) Quote(ctx context.Context, symbol string) (domain.Quote, error) {
	var dto quoteDTO
	u := fmt.Sprintf("%s/v1/quote?symbol=%s", c.base, url.QueryEscape(symbol))
	if err := c.get(ctx, c.quoteLimiter, u, &dto); err != nil {
		return domain.Quote{}, fmt.Errorf("marketdata.Quote %s: %w: %v", symbol, domain.ErrUpstreamFetch, err)
	}
	return dto.toDomain(symbol), nil
}

// History fetches the hourly OHLCV series for [start, end] and derives
// the quote and indicator series from it, in chronological order.
func (c *Client) History(ctx context.Context, symbol string, start, end time.Time) ([]domain.Quote, []domain.Indicators, error) {
	var dto historyDTO
	u := fmt.Sprintf("%s/v1/history?symbol=%s&start=%d&end=%d&interval=1h",
		c.base, url.QueryEscape(symbol), start.Unix(), end.Unix())
	if err := c.get(ctx, c.historyLimiter, u, &dto); err != nil {
		return nil, nil, fmt.Errorf("marketdata.History %s: %w: %v", symbol, domain.ErrUpstreamFetch, err)
	}

	quotes := dto.toDomain(symbol)
	return quotes, DeriveIndicators(symbol, quotes), nil
}

// Analysis fetches the static analytical summaries for a symbol. Missing
// parts come back nil rather than failing the whole call.
func (c *Client) Analysis(ctx context.Context, symbol string) (domain.Analysis, error) {
	var dto analysisDTO
	u := fmt.Sprintf("%s/v1/analysis?symbol=%s", c.base, url.QueryEscape(symbol))
	if err := c.get(ctx, c.analysisLimiter, u, &dto); err != nil {
		return domain.Analysis{}, fmt.Errorf("marketdata.Analysis %s: %w: %v", symbol, domain.ErrUpstreamFetch, err)
	}
	return dto.toDomain(symbol), nil
}

// get performs a GET with rate limiting and retries.
func (c *Client) get(ctx context.Context, limiter *rate.Limiter, u string, out any) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			if attempt == maxRetries {
				return fmt.Errorf("request failed after %d retries: %w", maxRetries, err)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt == maxRetries {
				return fmt.Errorf("status %d after %d retries", resp.StatusCode, maxRetries)
			}
			slog.Warn("upstream retryable error", "status", resp.StatusCode, "attempt", attempt+1)
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			return fmt.Errorf("status %d: %s", resp.StatusCode, body)
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
	return nil
}

// sleep waits with exponential backoff and jitter, honoring cancellation.
func (c *Client) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(float64(baseRetryWait) * math.Pow(2, float64(attempt)))
	wait += time.Duration(rand.Int63n(int64(wait / 2)))
	select {
	case <-ctx.Done():
	case <-time.After(wait):
	}
}

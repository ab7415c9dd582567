package notify

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/backsim/internal/domain"
)

func sampleSnapshot() domain.Snapshot {
	return domain.Snapshot{
		Timestamp: time.Date(2026, 6, 1, 9, 30, 0, 0, time.UTC),
		ActorStates: []domain.ActorState{
			{
				ID: "a1", Name: "momentum", Cash: 4995, TotalAssets: 9995,
				TotalReturn: -5, TotalReturnPercent: -0.05, IsActive: true,
				Portfolio: []domain.Position{{Symbol: "AAPL", Quantity: 100, CostPrice: 50.05}},
			},
		},
		Trades: []domain.Trade{{
			ID: "a1-1780000000-AAPL", ActorID: "a1", Symbol: "AAPL",
			Kind: domain.TradeBuy, Quantity: 100, Price: 50, Amount: 5005,
		}},
		Decisions:  []domain.Decision{{ActorID: "a1", Symbol: "AAPL", Action: domain.ActionBuy}},
		MarketData: []domain.Quote{{Symbol: "AAPL", Price: 50}},
	}
}

func TestNotifyTick_Compact(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, false)

	require.NoError(t, c.NotifyTick(context.Background(), "sess-1", sampleSnapshot()))

	out := buf.String()
	assert.Contains(t, out, "[2026-06-01 09:30]")
	assert.Contains(t, out, "1 symbols, 1 decisions, 1 trades")
	assert.Contains(t, out, "momentum $9995.00 (-0.05%)")
}

func TestNotifyTick_Table(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, true)

	require.NoError(t, c.NotifyTick(context.Background(), "sess-1", sampleSnapshot()))

	out := buf.String()
	assert.Contains(t, out, "session sess-1")
	assert.Contains(t, out, "momentum")
	assert.Contains(t, out, "AAPL×100@50.05")
	assert.Contains(t, out, "a1 BUY 100 × AAPL @ $50.00 = $5005.00")
}

func TestNotifyLeaderboard(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, false)

	records := []domain.PerformanceRecord{
		{
			ActorName: "momentum", SessionID: "0ab9b0ff-1234-5678", ReturnPercent: 12.5,
			TotalAssets: 112500, TradeCount: 9, Duration: 5*time.Hour + 30*time.Minute,
		},
	}
	require.NoError(t, c.NotifyLeaderboard(context.Background(), records))

	out := buf.String()
	assert.Contains(t, out, "momentum")
	assert.Contains(t, out, "+12.50%")
	assert.Contains(t, out, "0ab9b0ff")
	assert.NotContains(t, out, "0ab9b0ff-1234")
}

func TestNotifyLeaderboard_Empty(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, false)

	require.NoError(t, c.NotifyLeaderboard(context.Background(), nil))
	assert.Contains(t, buf.String(), "no recorded performances")
}

package portfolio_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/backsim/internal/domain"
	"github.com/alejandrodnm/backsim/internal/portfolio"
)

func buyTrade(symbol string, qty int64, price float64) domain.Trade {
	return domain.Trade{
		ID:        "t1",
		ActorID:   "a1",
		Kind:      domain.TradeBuy,
		Symbol:    symbol,
		Price:     price,
		Quantity:  qty,
		Timestamp: time.Now(),
	}
}

func sellTrade(symbol string, qty int64, price float64) domain.Trade {
	tr := buyTrade(symbol, qty, price)
	tr.Kind = domain.TradeSell
	return tr
}

func TestApply_BuyCreatesPosition(t *testing.T) {
	actor := domain.ActorState{ID: "a1"}
	actor = portfolio.Apply(actor, buyTrade("AAPL", 50, 100), "AAPL")

	require.Len(t, actor.Portfolio, 1)
	assert.Equal(t, int64(50), actor.Portfolio[0].Quantity)
	assert.Equal(t, 100.0, actor.Portfolio[0].CostPrice)
}

func TestApply_BuyAveragesCostBasis(t *testing.T) {
	// 50 @ 100 then 50 @ 120 → 100 @ 110.00
	actor := domain.ActorState{ID: "a1"}
	actor = portfolio.Apply(actor, buyTrade("AAPL", 50, 100), "AAPL")
	actor = portfolio.Apply(actor, buyTrade("AAPL", 50, 120), "AAPL")

	require.Len(t, actor.Portfolio, 1)
	assert.Equal(t, int64(100), actor.Portfolio[0].Quantity)
	assert.Equal(t, 110.00, actor.Portfolio[0].CostPrice)
}

func TestApply_FullSellRemovesPosition(t *testing.T) {
	actor := domain.ActorState{ID: "a1"}
	actor = portfolio.Apply(actor, buyTrade("AAPL", 100, 50), "AAPL")
	actor = portfolio.Apply(actor, sellTrade("AAPL", 100, 60), "AAPL")

	assert.Empty(t, actor.Portfolio)
}

func TestApply_PartialSellKeepsCostBasis(t *testing.T) {
	// Partial reduction only happens on replayed input; basis must not move.
	actor := domain.ActorState{ID: "a1"}
	actor = portfolio.Apply(actor, buyTrade("AAPL", 100, 50), "AAPL")
	actor = portfolio.Apply(actor, sellTrade("AAPL", 40, 60), "AAPL")

	require.Len(t, actor.Portfolio, 1)
	assert.Equal(t, int64(60), actor.Portfolio[0].Quantity)
	assert.Equal(t, 50.0, actor.Portfolio[0].CostPrice)
}

func TestRevalue_TotalAssetsInvariant(t *testing.T) {
	actor := domain.ActorState{ID: "a1", Cash: 5000}
	actor = portfolio.Apply(actor, buyTrade("AAPL", 10, 100), "AAPL")
	actor = portfolio.Apply(actor, buyTrade("MSFT", 20, 200), "MSFT")

	quotes := map[string]domain.Quote{
		"AAPL": {Symbol: "AAPL", Price: 110},
		"MSFT": {Symbol: "MSFT", Price: 190},
	}
	actor = portfolio.Revalue(actor, quotes, 100000)

	holdings := 10*110.0 + 20*190.0
	assert.InDelta(t, actor.Cash+holdings, actor.TotalAssets, 0.01)
	assert.Equal(t, domain.Round2(actor.TotalAssets-100000), actor.TotalReturn)
	assert.Equal(t, domain.Round2(actor.TotalReturn/100000*100), actor.TotalReturnPercent)
}

func TestRevalue_FallsBackToCostPrice(t *testing.T) {
	actor := domain.ActorState{ID: "a1", Cash: 0}
	actor = portfolio.Apply(actor, buyTrade("AAPL", 10, 100), "AAPL")
	actor.Portfolio[0].CurrentPrice = 0

	actor = portfolio.Revalue(actor, map[string]domain.Quote{}, 100000)
	assert.Equal(t, 100.0, actor.Portfolio[0].CurrentPrice)
	assert.Equal(t, 1000.00, actor.TotalAssets)
}

func TestRevalue_KeepsLastMarkThroughDataGap(t *testing.T) {
	actor := domain.ActorState{ID: "a1", Cash: 0}
	actor = portfolio.Apply(actor, buyTrade("AAPL", 10, 100), "AAPL")
	actor = portfolio.Revalue(actor, map[string]domain.Quote{
		"AAPL": {Symbol: "AAPL", Price: 120},
	}, 1000)

	// No quote this tick: the position stays at its last marked price
	// rather than snapping back to cost.
	actor = portfolio.Revalue(actor, map[string]domain.Quote{}, 1000)
	assert.Equal(t, 120.0, actor.Portfolio[0].CurrentPrice)
	assert.Equal(t, 1200.00, actor.TotalAssets)
}

func TestRevalue_ProfitLossPerPosition(t *testing.T) {
	actor := domain.ActorState{ID: "a1", Cash: 0}
	actor = portfolio.Apply(actor, buyTrade("AAPL", 10, 100), "AAPL")

	actor = portfolio.Revalue(actor, map[string]domain.Quote{
		"AAPL": {Symbol: "AAPL", Price: 120},
	}, 1000)

	pos := actor.Portfolio[0]
	assert.Equal(t, 200.00, pos.ProfitLoss)
	assert.Equal(t, 20.00, pos.ProfitLossPercent)
}

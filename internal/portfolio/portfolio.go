package portfolio

// portfolio.go — average-cost accounting and mark-to-market valuation.
// The executor has already validated solvency and quantities, so this
// package only moves positions; it never rejects a trade.

import (
	"github.com/alejandrodnm/backsim/internal/domain"
)

// Apply folds one trade into the actor's portfolio. Buys merge into the
// weighted-average cost basis; sells reduce quantity and remove the
// position when it reaches zero. Cash is not touched here — the
// executor already moved it.
func Apply(actor domain.ActorState, trade domain.Trade, stockName string) domain.ActorState {
	switch trade.Kind {
	case domain.TradeBuy:
		return applyBuy(actor, trade, stockName)
	case domain.TradeSell:
		return applySell(actor, trade)
	default:
		return actor
	}
}

func applyBuy(actor domain.ActorState, trade domain.Trade, stockName string) domain.ActorState {
	if pos := actor.PositionFor(trade.Symbol); pos != nil {
		newQty := pos.Quantity + trade.Quantity
		pos.CostPrice = domain.Round2(
			(pos.CostPrice*float64(pos.Quantity) + trade.Price*float64(trade.Quantity)) / float64(newQty))
		pos.Quantity = newQty
		pos.CurrentPrice = trade.Price
		recalcPL(pos)
		return actor
	}

	actor.Portfolio = append(actor.Portfolio, domain.Position{
		Symbol:       trade.Symbol,
		StockName:    stockName,
		Quantity:     trade.Quantity,
		CostPrice:    domain.Round2(trade.Price),
		CurrentPrice: trade.Price,
	})
	recalcPL(&actor.Portfolio[len(actor.Portfolio)-1])
	return actor
}

func applySell(actor domain.ActorState, trade domain.Trade) domain.ActorState {
	for i := range actor.Portfolio {
		pos := &actor.Portfolio[i]
		if pos.Symbol != trade.Symbol {
			continue
		}
		pos.Quantity -= trade.Quantity
		if pos.Quantity <= 0 {
			// Quantity never goes negative: the position is destroyed.
			actor.Portfolio = append(actor.Portfolio[:i], actor.Portfolio[i+1:]...)
			return actor
		}
		// Partial reduction (replayed input only): cost basis unchanged.
		pos.CurrentPrice = trade.Price
		recalcPL(pos)
		return actor
	}
	return actor
}

// Revalue marks every position to the quote for its symbol and recomputes
// the actor's aggregate figures against its initial capital. A position
// whose symbol has no quote this tick keeps its last marked price; cost
// price applies only when no market price was ever recorded. Runs every
// tick whether or not the actor traded.
func Revalue(actor domain.ActorState, quotes map[string]domain.Quote, initialCapital float64) domain.ActorState {
	holdings := 0.0
	for i := range actor.Portfolio {
		pos := &actor.Portfolio[i]
		if q, ok := quotes[pos.Symbol]; ok && q.Price > 0 {
			pos.CurrentPrice = q.Price
		} else if pos.CurrentPrice <= 0 {
			pos.CurrentPrice = pos.CostPrice
		}
		recalcPL(pos)
		holdings += float64(pos.Quantity) * pos.CurrentPrice
	}

	actor.TotalAssets = domain.Round2(actor.Cash + holdings)
	actor.TotalReturn = domain.Round2(actor.TotalAssets - initialCapital)
	if initialCapital > 0 {
		actor.TotalReturnPercent = domain.Round2(actor.TotalReturn / initialCapital * 100)
	}
	return actor
}

func recalcPL(pos *domain.Position) {
	pos.ProfitLoss = domain.Round2(float64(pos.Quantity) * (pos.CurrentPrice - pos.CostPrice))
	if pos.CostPrice > 0 {
		pos.ProfitLossPercent = domain.Round2((pos.CurrentPrice - pos.CostPrice) / pos.CostPrice * 100)
	}
}

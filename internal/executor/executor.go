package executor

// executor.go — turns decisions into trades. Pure function of (actor,
// decision, quote): solvency and lot constraints are enforced here, so
// the accountant downstream never sees an unaffordable buy or an
// oversell. A decision that fails its precondition degrades to no trade.

import (
	"math"

	"github.com/alejandrodnm/backsim/internal/domain"
)

const (
	// FeeRate is the proportional transaction cost on both sides.
	FeeRate = 0.001
	// MaxSharesPerTrade is the hard per-trade lot cap.
	MaxSharesPerTrade = 100
)

// Execute converts a decision into at most one trade and returns the
// actor state with cash adjusted. Hold decisions, unaffordable buys, and
// sells without a position produce a nil trade and leave the state
// untouched. Position changes are the accountant's job, not done here.
func Execute(actor domain.ActorState, dec domain.Decision, quote domain.Quote) (*domain.Trade, domain.ActorState) {
	switch dec.Action {
	case domain.ActionBuy:
		return executeBuy(actor, dec, quote)
	case domain.ActionSell:
		return executeSell(actor, dec, quote)
	default:
		return nil, actor
	}
}

func executeBuy(actor domain.ActorState, dec domain.Decision, quote domain.Quote) (*domain.Trade, domain.ActorState) {
	// One position per symbol: buys only open, never add to, a holding.
	// Averaging into an existing position happens only via replayed
	// trades, which the accountant handles.
	if actor.PositionFor(dec.Symbol) != nil {
		return nil, actor
	}

	price := quote.Price
	if price <= 0 {
		return nil, actor
	}

	affordable := int64(math.Floor(actor.Cash / (price * (1 + FeeRate))))
	if affordable <= 0 {
		return nil, actor
	}

	qty := affordable
	cap := int64(MaxSharesPerTrade)
	if actor.Strategy.MaxSharesPerTrade > 0 && int64(actor.Strategy.MaxSharesPerTrade) < cap {
		cap = int64(actor.Strategy.MaxSharesPerTrade)
	}
	if qty > cap {
		qty = cap
	}

	amount := domain.Round2(float64(qty) * price * (1 + FeeRate))
	trade := domain.Trade{
		ID:         domain.TradeID(actor.ID, dec.Timestamp, dec.Symbol),
		ActorID:    actor.ID,
		Kind:       domain.TradeBuy,
		Symbol:     dec.Symbol,
		Price:      price,
		Quantity:   qty,
		Amount:     amount,
		Timestamp:  dec.Timestamp,
		DecisionID: dec.ID,
	}

	actor.Cash = domain.Round2(actor.Cash - amount)
	return &trade, actor
}

func executeSell(actor domain.ActorState, dec domain.Decision, quote domain.Quote) (*domain.Trade, domain.ActorState) {
	pos := actor.PositionFor(dec.Symbol)
	if pos == nil || pos.Quantity <= 0 {
		return nil, actor
	}

	price := quote.Price
	if price <= 0 {
		return nil, actor
	}

	// Sells always liquidate the entire position; partial sells are not
	// a supported input.
	qty := pos.Quantity
	amount := domain.Round2(float64(qty) * price * (1 - FeeRate))
	trade := domain.Trade{
		ID:         domain.TradeID(actor.ID, dec.Timestamp, dec.Symbol),
		ActorID:    actor.ID,
		Kind:       domain.TradeSell,
		Symbol:     dec.Symbol,
		Price:      price,
		Quantity:   qty,
		Amount:     amount,
		Timestamp:  dec.Timestamp,
		DecisionID: dec.ID,
	}

	actor.Cash = domain.Round2(actor.Cash + amount)
	return &trade, actor
}

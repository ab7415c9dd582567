package domain

import "time"

// DefaultInitialCapital is the cash an actor starts with when its session
// has no prior snapshot recording a different figure.
const DefaultInitialCapital = 100000.0

// StrategyConfig is an actor's trading strategy, fixed at creation time.
// Changing strategy means re-creating the actor.
type StrategyConfig struct {
	SymbolPool           []string `yaml:"symbol_pool"`
	BuyThreshold         float64  `yaml:"buy_threshold"`       // min buy-signal ratio, default 0.4
	SellThreshold        float64  `yaml:"sell_threshold"`      // min sell-signal ratio, default 0.4
	PositionSizeFraction float64  `yaml:"position_size"`       // fraction of cash per buy
	MaxSharesPerTrade    int      `yaml:"max_shares_per_trade"`
	SignalSensitivity    float64  `yaml:"signal_sensitivity"`
	RSIBuyThreshold      float64  `yaml:"rsi_buy_threshold"`   // default 30
	RSISellThreshold     float64  `yaml:"rsi_sell_threshold"`  // default 70
	RandomMode           bool     `yaml:"random_mode"`         // probabilistic control strategy
	BuyProbability       float64  `yaml:"buy_probability"`     // random mode only
	SellProbability      float64  `yaml:"sell_probability"`    // random mode only
}

// Normalized returns a copy with defaults applied and the symbol pool
// cleaned up (trimmed, uppercased, empty entries dropped). Pool order is
// preserved: it is the order symbols are evaluated within a tick.
func (c StrategyConfig) Normalized() StrategyConfig {
	out := c
	if out.BuyThreshold <= 0 {
		out.BuyThreshold = 0.4
	}
	if out.SellThreshold <= 0 {
		out.SellThreshold = 0.4
	}
	if out.RSIBuyThreshold <= 0 {
		out.RSIBuyThreshold = 30
	}
	if out.RSISellThreshold <= 0 {
		out.RSISellThreshold = 70
	}
	if out.MaxSharesPerTrade <= 0 {
		out.MaxSharesPerTrade = 100
	}
	out.SymbolPool = NormalizeSymbols(c.SymbolPool)
	return out
}

// Position is one holding in an actor's portfolio, carried at weighted
// average cost. A position with quantity 0 never exists — it is removed.
type Position struct {
	Symbol            string
	StockName         string
	Quantity          int64
	CostPrice         float64 // weighted average purchase price
	CurrentPrice      float64
	ProfitLoss        float64
	ProfitLossPercent float64
}

// ActorState is the full state of one strategy participant. It is owned
// by the tick orchestrator: no two ticks mutate the same actor
// concurrently, and actors never touch each other's state.
type ActorState struct {
	ID                 string
	Name               string
	Strategy           StrategyConfig
	Cash               float64
	Portfolio          []Position
	TotalAssets        float64
	TotalReturn        float64
	TotalReturnPercent float64
	IsActive           bool
	LastUpdateTime     time.Time
}

// Clone returns a copy whose Portfolio has its own backing array.
// Working states derived from a committed snapshot must be cloned, or
// in-place position updates would rewrite the snapshot they came from.
func (a ActorState) Clone() ActorState {
	out := a
	if len(a.Portfolio) > 0 {
		out.Portfolio = make([]Position, len(a.Portfolio))
		copy(out.Portfolio, a.Portfolio)
	}
	return out
}

// PositionFor returns the actor's position in symbol, or nil.
func (a *ActorState) PositionFor(symbol string) *Position {
	for i := range a.Portfolio {
		if a.Portfolio[i].Symbol == symbol {
			return &a.Portfolio[i]
		}
	}
	return nil
}

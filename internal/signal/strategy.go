package signal

import (
	"math/rand"
	"time"

	"github.com/alejandrodnm/backsim/internal/domain"
)

// Input is everything a strategy may consult for one (actor, symbol, tick).
// Indicators and Analysis are nil when unavailable; strategies must
// degrade to the signals they can still evaluate.
type Input struct {
	Quote      domain.Quote
	Indicators *domain.Indicators
	Analysis   *domain.Analysis
	Actor      domain.ActorState
	Timestamp  time.Time
}

// Strategy scores one symbol for one actor at one tick. Implementations
// are pure CPU-bound functions: no I/O, no shared state mutation.
type Strategy interface {
	Name() string
	Evaluate(in Input) domain.Decision
}

// New returns the strategy for the given config: the probabilistic
// control variant when RandomMode is set, otherwise the weighted-signal
// default. Both produce the same Decision shape.
func New(cfg domain.StrategyConfig) Strategy {
	cfg = cfg.Normalized()
	if cfg.RandomMode {
		return NewProbabilistic(cfg, rand.New(rand.NewSource(time.Now().UnixNano())))
	}
	return NewWeighted(cfg)
}

// decisionID derives the deterministic ID shared by a decision and the
// trade it may produce.
func decisionID(actorID string, ts time.Time, symbol string) string {
	return "dec-" + domain.TradeID(actorID, ts, symbol)
}

// sentimentFor derives the coarse market mood from the day's change.
func sentimentFor(changePercent float64) domain.MarketSentiment {
	switch {
	case changePercent > 2:
		return domain.SentimentBullish
	case changePercent < -2:
		return domain.SentimentBearish
	default:
		return domain.SentimentNeutral
	}
}

// riskFor classifies volatility from the magnitude of the day's change.
func riskFor(changePercent float64) domain.RiskLevel {
	abs := changePercent
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs > 5:
		return domain.RiskHigh
	case abs > 2:
		return domain.RiskMedium
	default:
		return domain.RiskLow
	}
}

// expectedReturnFor is the rough projected move attached to a decision.
func expectedReturnFor(action domain.Action, changePercent float64) float64 {
	abs := changePercent
	if abs < 0 {
		abs = -abs
	}
	switch action {
	case domain.ActionBuy:
		if v := changePercent * 0.5; v > 2 {
			return v
		}
		return 2
	case domain.ActionSell:
		return -(abs * 0.3)
	default:
		return 0
	}
}

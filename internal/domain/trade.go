package domain

import (
	"fmt"
	"time"
)

// TradeKind is the side of an executed trade.
type TradeKind string

const (
	TradeBuy  TradeKind = "buy"
	TradeSell TradeKind = "sell"
)

// Trade is one executed buy or sell. Created once by the executor, never
// mutated. Amount includes the transaction fee.
type Trade struct {
	ID         string
	ActorID    string
	Kind       TradeKind
	Symbol     string
	Price      float64
	Quantity   int64
	Amount     float64
	Timestamp  time.Time
	DecisionID string
}

// TradeID derives a trade's ID from the tuple that makes it unique within
// a session. Deterministic so that replaying a tick produces the same ID
// and duplicates are detectable.
func TradeID(actorID string, ts time.Time, symbol string) string {
	return fmt.Sprintf("%s-%d-%s", actorID, ts.Unix(), symbol)
}

// Action is the signal engine's verdict for one (actor, symbol, tick).
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
	ActionHold Action = "hold"
)

// RiskLevel classifies how volatile a symbol looked when a decision was made.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// MarketSentiment is the coarse mood attached to a decision.
type MarketSentiment string

const (
	SentimentBullish MarketSentiment = "bullish"
	SentimentBearish MarketSentiment = "bearish"
	SentimentNeutral MarketSentiment = "neutral"
)

// SignalBreakdown records how many of the evaluated signals voted each way.
// Audit metadata only — execution never reads it back.
type SignalBreakdown struct {
	BuySignals  int
	SellSignals int
	Total       int
}

// Decision is the signal engine's structured output, recorded whether or
// not it leads to a trade. One per (actor, symbol, tick), immutable.
type Decision struct {
	ID              string
	Timestamp       time.Time
	ActorID         string
	Symbol          string
	Action          Action
	Confidence      float64 // 0–100
	Rationale       string
	SignalBreakdown SignalBreakdown
	MarketSentiment MarketSentiment
	RiskLevel       RiskLevel
	ExpectedReturn  float64 // percent
}

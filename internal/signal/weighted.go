package signal

// weighted.go — the default scoring strategy. Up to 8 independent
// boolean signals vote buy or sell; the vote ratios drive a three-way
// decision with derived confidence. Deterministic for a given input.

import (
	"fmt"

	"github.com/alejandrodnm/backsim/internal/domain"
)

const (
	signalSlots = 8

	momentumBuyPct  = 3.0
	momentumSellPct = -3.0
	levelBandPct    = 0.02 // within 2% of support/resistance
	roeBuyMin       = 0.15
	debtSellMin     = 100.0

	minBuyCash = 100 // buys require cash > price × 100
)

// Weighted is the default multi-signal strategy.
type Weighted struct {
	cfg domain.StrategyConfig
}

// NewWeighted creates the weighted strategy for a normalized config.
func NewWeighted(cfg domain.StrategyConfig) *Weighted {
	return &Weighted{cfg: cfg}
}

func (w *Weighted) Name() string { return "weighted" }

// Evaluate tallies the signals and applies the decision rule. Rule order
// matters: buy is checked first, then sell, then hold.
func (w *Weighted) Evaluate(in Input) domain.Decision {
	q := in.Quote
	buys, sells := w.tally(in)

	buyRatio := float64(buys) / signalSlots
	sellRatio := float64(sells) / signalSlots

	held := in.Actor.PositionFor(q.Symbol) != nil

	action := domain.ActionHold
	confidence := 50.0
	switch {
	case buyRatio >= w.cfg.BuyThreshold && !held && in.Actor.Cash > q.Price*minBuyCash:
		action = domain.ActionBuy
		confidence = min(90, 60+buyRatio*30)
	case sellRatio >= w.cfg.SellThreshold && held:
		action = domain.ActionSell
		confidence = min(85, 55+sellRatio*30)
	}

	return domain.Decision{
		ID:         decisionID(in.Actor.ID, in.Timestamp, q.Symbol),
		Timestamp:  in.Timestamp,
		ActorID:    in.Actor.ID,
		Symbol:     q.Symbol,
		Action:     action,
		Confidence: confidence,
		Rationale:  w.rationale(in, buys, sells),
		SignalBreakdown: domain.SignalBreakdown{
			BuySignals:  buys,
			SellSignals: sells,
			Total:       signalSlots,
		},
		MarketSentiment: sentimentFor(q.ChangePercent),
		RiskLevel:       riskFor(q.ChangePercent),
		ExpectedReturn:  expectedReturnFor(action, q.ChangePercent),
	}
}

// tally evaluates the boolean signals. Signals whose inputs are missing
// (no RSI yet, no analysis) simply do not vote.
func (w *Weighted) tally(in Input) (buys, sells int) {
	q := in.Quote

	if in.Indicators != nil && in.Indicators.RSI != nil {
		switch rsi := *in.Indicators.RSI; {
		case rsi < w.cfg.RSIBuyThreshold:
			buys++
		case rsi > w.cfg.RSISellThreshold:
			sells++
		}
	}

	switch {
	case q.ChangePercent > momentumBuyPct:
		buys++
	case q.ChangePercent < momentumSellPct:
		sells++
	}

	if in.Analysis != nil && in.Analysis.Technical != nil {
		tech := in.Analysis.Technical
		if tech.Support > 0 && q.Price >= tech.Support && q.Price <= tech.Support*(1+levelBandPct) {
			buys++
		}
		if tech.Resistance > 0 && q.Price <= tech.Resistance && q.Price >= tech.Resistance*(1-levelBandPct) {
			sells++
		}
	}

	if in.Analysis != nil && in.Analysis.Fundamentals != nil {
		fund := in.Analysis.Fundamentals
		if fund.ROE > roeBuyMin {
			buys++
		}
		if fund.DebtToEquity > debtSellMin {
			sells++
		}
		switch fund.AnalystRating {
		case domain.RatingBuy:
			buys++
		case domain.RatingSell:
			sells++
		}
	}

	return buys, sells
}

// rationale formats the audit string recorded with every decision. It is
// descriptive metadata only — nothing downstream parses it.
func (w *Weighted) rationale(in Input, buys, sells int) string {
	rsi := "n/a"
	if in.Indicators != nil && in.Indicators.RSI != nil {
		rsi = fmt.Sprintf("%.1f", *in.Indicators.RSI)
	}
	support, resistance := "n/a", "n/a"
	if in.Analysis != nil && in.Analysis.Technical != nil {
		support = fmt.Sprintf("%.2f", in.Analysis.Technical.Support)
		resistance = fmt.Sprintf("%.2f", in.Analysis.Technical.Resistance)
	}
	return fmt.Sprintf("signals %d buy / %d sell of %d; RSI %s; support %s; resistance %s; change %.2f%%",
		buys, sells, signalSlots, rsi, support, resistance, in.Quote.ChangePercent)
}

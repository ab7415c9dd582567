package signal

// probabilistic.go — baseline/control strategy. Ignores every signal and
// draws buy/sell independently against configured probabilities; exists
// so weighted results can be compared against noise.

import (
	"fmt"
	"math/rand"

	"github.com/alejandrodnm/backsim/internal/domain"
)

// Probabilistic draws actions at random with the configured
// probabilities. Same preconditions as the weighted strategy: buys need
// cash and no open position, sells need a position.
type Probabilistic struct {
	cfg domain.StrategyConfig
	rng *rand.Rand
}

// NewProbabilistic creates the control strategy. Tests pass a seeded rng
// for reproducibility.
func NewProbabilistic(cfg domain.StrategyConfig, rng *rand.Rand) *Probabilistic {
	if cfg.BuyProbability <= 0 {
		cfg.BuyProbability = 0.1
	}
	if cfg.SellProbability <= 0 {
		cfg.SellProbability = 0.1
	}
	return &Probabilistic{cfg: cfg, rng: rng}
}

func (p *Probabilistic) Name() string { return "probabilistic" }

func (p *Probabilistic) Evaluate(in Input) domain.Decision {
	q := in.Quote
	held := in.Actor.PositionFor(q.Symbol) != nil

	action := domain.ActionHold
	switch {
	case !held && in.Actor.Cash > q.Price*minBuyCash && p.rng.Float64() < p.cfg.BuyProbability:
		action = domain.ActionBuy
	case held && p.rng.Float64() < p.cfg.SellProbability:
		action = domain.ActionSell
	}

	return domain.Decision{
		ID:              decisionID(in.Actor.ID, in.Timestamp, q.Symbol),
		Timestamp:       in.Timestamp,
		ActorID:         in.Actor.ID,
		Symbol:          q.Symbol,
		Action:          action,
		Confidence:      50,
		Rationale:       fmt.Sprintf("random draw (buy p=%.2f, sell p=%.2f)", p.cfg.BuyProbability, p.cfg.SellProbability),
		SignalBreakdown: domain.SignalBreakdown{Total: signalSlots},
		MarketSentiment: sentimentFor(q.ChangePercent),
		RiskLevel:       riskFor(q.ChangePercent),
		ExpectedReturn:  expectedReturnFor(action, q.ChangePercent),
	}
}

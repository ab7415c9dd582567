package engine

// run.go — the outer tick loop and session replay. The loop may stop at
// any tick boundary (ctx cancellation, tick budget) and leave a valid,
// resumable session: ticks are never sub-divided into observable
// partial states.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/backsim/internal/domain"
	"github.com/alejandrodnm/backsim/internal/portfolio"
	"github.com/alejandrodnm/backsim/internal/ports"
)

// Run drives a session from its current position until it completes, the
// context is cancelled, or maxTicks is spent. Each committed tick is
// reported through the notifier.
func (e *Engine) Run(ctx context.Context, sess *domain.Session, notifier ports.Notifier, maxTicks int) error {
	ts := resumePoint(sess, e.tickStep)

	for i := 0; maxTicks <= 0 || i < maxTicks; i++ {
		if err := ctx.Err(); err != nil {
			slog.Info("run stopped at tick boundary", "session", sess.ID, "ticks", i)
			return nil
		}

		resp, err := e.Tick(ctx, TickRequest{Timestamp: ts, SessionID: sess.ID})
		if err != nil {
			if errors.Is(err, domain.ErrSessionCompleted) {
				return nil
			}
			return fmt.Errorf("engine.Run %s: %w", sess.ID, err)
		}
		sess.Status = resp.SessionStatus

		if notifier != nil {
			snap := domain.Snapshot{
				Timestamp:   resp.Timestamp,
				ActorStates: resp.ActorStates,
				Trades:      resp.Trades,
				Decisions:   resp.Decisions,
				MarketData:  resp.MarketData,
			}
			if err := notifier.NotifyTick(ctx, sess.ID, snap); err != nil {
				slog.Warn("notifier error", "err", err)
			}
		}

		if resp.SessionStatus == domain.SessionCompleted {
			slog.Info("session completed", "session", sess.ID, "snapshots", resp.SnapshotCount)
			return nil
		}

		next, ok := NextTradingTime(resp.Timestamp, e.tickStep)
		if !ok {
			return fmt.Errorf("engine.Run %s: calendar exhausted after %s", sess.ID, resp.Timestamp)
		}
		ts = next
	}
	return nil
}

// resumePoint picks where the loop should (re)start: after the last
// snapshot for a resumed session, at the range start for a fresh
// historical run, or now for live mode.
func resumePoint(sess *domain.Session, step time.Duration) time.Time {
	if last := sess.LastSnapshot(); last != nil {
		if next, ok := NextTradingTime(last.Timestamp, step); ok {
			return next
		}
	}
	if !sess.RangeStart.IsZero() {
		return sess.RangeStart
	}
	return time.Now()
}

// Replay re-derives every actor's final state by folding the session's
// snapshots in order — the chain is a complete record, so the result
// must equal the last snapshot's stored states exactly. Returns the
// re-derived states; callers compare against sess.LastSnapshot().
func Replay(sess *domain.Session) ([]domain.ActorState, error) {
	if len(sess.Snapshots) == 0 {
		return nil, fmt.Errorf("engine.Replay %s: no snapshots", sess.ID)
	}

	actors := make([]domain.ActorState, len(sess.InitialConfigs))
	for i, a := range sess.InitialConfigs {
		actors[i] = a.Clone()
	}

	byID := make(map[string]int, len(actors))
	for i, a := range actors {
		byID[a.ID] = i
	}

	for _, snap := range sess.Snapshots {
		quotes := make(map[string]domain.Quote, len(snap.MarketData))
		for _, q := range snap.MarketData {
			quotes[q.Symbol] = q
		}

		for _, trade := range snap.Trades {
			i, ok := byID[trade.ActorID]
			if !ok {
				return nil, fmt.Errorf("engine.Replay %s: trade %s for unknown actor %s: %w",
					sess.ID, trade.ID, trade.ActorID, domain.ErrStateInvariant)
			}
			switch trade.Kind {
			case domain.TradeBuy:
				actors[i].Cash = domain.Round2(actors[i].Cash - trade.Amount)
			case domain.TradeSell:
				actors[i].Cash = domain.Round2(actors[i].Cash + trade.Amount)
			}
			if actors[i].Cash < 0 {
				return nil, fmt.Errorf("engine.Replay %s: actor %s cash negative after %s: %w",
					sess.ID, trade.ActorID, trade.ID, domain.ErrStateInvariant)
			}
			actors[i] = portfolio.Apply(actors[i], trade, trade.Symbol)
		}

		for i := range actors {
			actors[i] = portfolio.Revalue(actors[i], quotes, sess.InitialCapitalFor(actors[i].ID))
			actors[i].LastUpdateTime = snap.Timestamp
		}
	}
	return actors, nil
}

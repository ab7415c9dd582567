package engine

// tick.go — advances the simulation by one unit of time and commits
// exactly one snapshot. Actors run as parallel tasks (their state is
// self-contained); within one actor the symbol loop is a sequential
// fold, in pool order, so a sell earlier in the tick can fund a buy
// later in the same tick.

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/alejandrodnm/backsim/internal/domain"
	"github.com/alejandrodnm/backsim/internal/executor"
	"github.com/alejandrodnm/backsim/internal/marketstore"
	"github.com/alejandrodnm/backsim/internal/portfolio"
	"github.com/alejandrodnm/backsim/internal/session"
	"github.com/alejandrodnm/backsim/internal/signal"
)

// TickRequest asks the engine to advance one session by one tick.
type TickRequest struct {
	Timestamp  time.Time
	SessionID  string
	RangeStart time.Time // optional: historical window to preload
	RangeEnd   time.Time
}

// TickResponse is the committed result of one tick.
type TickResponse struct {
	Timestamp     time.Time
	ActorStates   []domain.ActorState
	Trades        []domain.Trade
	Decisions     []domain.Decision
	MarketData    []domain.Quote
	SnapshotCount int
	SessionStatus domain.SessionStatus
}

// Engine drives backtest sessions tick by tick.
type Engine struct {
	market   *marketstore.Store
	sessions *session.Store
	tickStep time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex // per-session tick serialization
}

// New creates an Engine. tickStep is the simulated time advanced per
// tick before snapping into the trading calendar; zero means one hour.
func New(market *marketstore.Store, sessions *session.Store, tickStep time.Duration) *Engine {
	if tickStep <= 0 {
		tickStep = time.Hour
	}
	return &Engine{market: market, sessions: sessions, tickStep: tickStep}
}

// Tick runs one simulation step. All effects become visible atomically
// with the snapshot commit: a failed tick leaves the session exactly as
// it was, and a run cancelled between ticks is a valid, resumable state.
func (e *Engine) Tick(ctx context.Context, req TickRequest) (*TickResponse, error) {
	if req.Timestamp.IsZero() {
		return nil, fmt.Errorf("engine.Tick: missing timestamp: %w", domain.ErrConfiguration)
	}
	if req.SessionID == "" {
		return nil, fmt.Errorf("engine.Tick: missing session id: %w", domain.ErrConfiguration)
	}

	// One tick at a time per session: the load→append→save cycle below
	// would otherwise let a concurrent tick's snapshot be silently lost.
	lock := e.sessionLock(req.SessionID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := e.sessions.Get(ctx, req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("engine.Tick: %w", err)
	}
	if sess.Status == domain.SessionCompleted {
		return nil, fmt.Errorf("engine.Tick %s: %w", sess.ID, domain.ErrSessionCompleted)
	}

	ts, ok := SnapToTradingWindow(req.Timestamp)
	if !ok {
		return nil, fmt.Errorf("engine.Tick %s: no trading window near %s: %w",
			sess.ID, req.Timestamp, domain.ErrConfiguration)
	}
	// Respect snapshot ordering: a request at or before the last tick's
	// time resumes from the next window after it.
	if last := sess.LastSnapshot(); last != nil && !ts.After(last.Timestamp) {
		ts, ok = NextTradingTime(last.Timestamp, e.tickStep)
		if !ok {
			return nil, fmt.Errorf("engine.Tick %s: no trading window after %s: %w",
				sess.ID, last.Timestamp, domain.ErrConfiguration)
		}
	}

	actors := currentStates(sess)
	symbols := activeSymbolUnion(actors)
	if len(symbols) == 0 {
		return nil, fmt.Errorf("engine.Tick %s: no active actor has symbols: %w", sess.ID, domain.ErrConfiguration)
	}

	rangeStart, rangeEnd := effectiveRange(sess, req)
	data := e.fetchTickData(ctx, symbols, ts, rangeStart, rangeEnd)
	if len(data.quotes) == 0 {
		return nil, fmt.Errorf("engine.Tick %s: no market data at %s: %w", sess.ID, ts, domain.ErrDataUnavailable)
	}

	// Parallel per-actor tasks writing to disjoint indices: no locks.
	results := make([]actorResult, len(actors))
	var wg sync.WaitGroup
	for i := range actors {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = e.runActor(actors[i], sess.InitialCapitalFor(actors[i].ID), ts, data)
		}(i)
	}
	wg.Wait()

	snap := domain.Snapshot{Timestamp: ts, MarketData: sortedQuotes(data.quotes)}
	for _, res := range results {
		snap.ActorStates = append(snap.ActorStates, res.state)
		snap.Trades = append(snap.Trades, res.trades...)
		snap.Decisions = append(snap.Decisions, res.decisions...)
	}

	if err := e.sessions.AppendSnapshot(ctx, sess, snap); err != nil {
		return nil, fmt.Errorf("engine.Tick %s: %w", sess.ID, err)
	}

	// The session completes when the calendar has no next timestamp
	// inside its range. Sessions without a range run until stopped.
	if !rangeEnd.IsZero() {
		if next, ok := NextTradingTime(ts, e.tickStep); !ok || next.After(rangeEnd) {
			if err := e.sessions.Complete(ctx, sess); err != nil {
				return nil, fmt.Errorf("engine.Tick %s: complete: %w", sess.ID, err)
			}
		}
	}

	slog.Info("tick committed",
		"session", sess.ID,
		"ts", ts,
		"actors", len(snap.ActorStates),
		"trades", len(snap.Trades),
		"status", sess.Status,
	)

	return &TickResponse{
		Timestamp:     ts,
		ActorStates:   snap.ActorStates,
		Trades:        snap.Trades,
		Decisions:     snap.Decisions,
		MarketData:    snap.MarketData,
		SnapshotCount: len(sess.Snapshots),
		SessionStatus: sess.Status,
	}, nil
}

func (e *Engine) sessionLock(id string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.locks == nil {
		e.locks = make(map[string]*sync.Mutex)
	}
	if _, ok := e.locks[id]; !ok {
		e.locks[id] = &sync.Mutex{}
	}
	return e.locks[id]
}

// tickData is everything fetched for one tick, shared read-only by all
// actor tasks.
type tickData struct {
	quotes     map[string]domain.Quote
	indicators map[string]domain.Indicators
	analyses   map[string]domain.Analysis
}

// fetchTickData resolves market data for the tick: time-indexed lookups
// when the store is (or can be) loaded for the range, live single quotes
// otherwise.
func (e *Engine) fetchTickData(ctx context.Context, symbols []string, ts time.Time, rangeStart, rangeEnd time.Time) tickData {
	if !rangeStart.IsZero() && !rangeEnd.IsZero() && !e.market.IsLoaded(symbols) {
		if err := e.market.Load(ctx, symbols, rangeStart, rangeEnd); err != nil {
			slog.Warn("engine: preload failed", "err", err)
		}
	}

	data := tickData{analyses: e.market.BatchAnalyses(ctx, symbols)}
	if e.market.IsLoaded(symbols) {
		data.quotes = e.market.BatchQuotesAt(ctx, symbols, ts)
		data.indicators = e.market.BatchIndicatorsAt(ctx, symbols, ts)
		return data
	}

	data.quotes = e.market.LiveQuotes(ctx, symbols)
	data.indicators = make(map[string]domain.Indicators)
	return data
}

type actorResult struct {
	state     domain.ActorState
	trades    []domain.Trade
	decisions []domain.Decision
}

// runActor processes one actor's tick: a sequential fold over its
// symbol pool, threading state trade-by-trade, then a mark-to-market
// revaluation. Inactive actors are revalued and passed through.
func (e *Engine) runActor(actor domain.ActorState, initialCapital float64, ts time.Time, data tickData) actorResult {
	res := actorResult{}

	if actor.IsActive {
		strat := signal.New(actor.Strategy)
		for _, sym := range actor.Strategy.Normalized().SymbolPool {
			quote, ok := data.quotes[sym]
			if !ok {
				// Data gap: this symbol contributes no decision this tick.
				continue
			}

			var ind *domain.Indicators
			if v, ok := data.indicators[sym]; ok {
				ind = &v
			}
			var an *domain.Analysis
			if v, ok := data.analyses[sym]; ok {
				an = &v
			}

			dec := strat.Evaluate(signal.Input{
				Quote:      quote,
				Indicators: ind,
				Analysis:   an,
				Actor:      actor,
				Timestamp:  ts,
			})
			res.decisions = append(res.decisions, dec)

			trade, next := executor.Execute(actor, dec, quote)
			actor = next
			if trade != nil {
				actor = portfolio.Apply(actor, *trade, sym)
				res.trades = append(res.trades, *trade)
			}
		}
	}

	actor = portfolio.Revalue(actor, data.quotes, initialCapital)
	actor.LastUpdateTime = ts
	res.state = actor
	return res
}

// currentStates returns the actors as of the last snapshot, or the
// initial configs for a fresh session. States are cloned: the committed
// snapshot must stay untouched while this tick mutates its working copy.
func currentStates(sess *domain.Session) []domain.ActorState {
	base := sess.InitialConfigs
	if last := sess.LastSnapshot(); last != nil {
		base = last.ActorStates
	}
	out := make([]domain.ActorState, len(base))
	for i, a := range base {
		out[i] = a.Clone()
	}
	return out
}

// activeSymbolUnion is the normalized union of all active actors'
// symbol pools, in first-seen order.
func activeSymbolUnion(actors []domain.ActorState) []string {
	var all []string
	for _, a := range actors {
		if !a.IsActive {
			continue
		}
		all = append(all, a.Strategy.SymbolPool...)
	}
	return domain.NormalizeSymbols(all)
}

func effectiveRange(sess *domain.Session, req TickRequest) (time.Time, time.Time) {
	start, end := sess.RangeStart, sess.RangeEnd
	if !req.RangeStart.IsZero() {
		start = req.RangeStart
	}
	if !req.RangeEnd.IsZero() {
		end = req.RangeEnd
	}
	return start, end
}

func sortedQuotes(quotes map[string]domain.Quote) []domain.Quote {
	out := make([]domain.Quote, 0, len(quotes))
	for _, q := range quotes {
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

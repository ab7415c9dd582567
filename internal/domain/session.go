package domain

import "time"

// SessionStatus is the lifecycle of a backtest session. Transitions are
// monotonic: pending → running → completed, never backwards.
type SessionStatus string

const (
	SessionPending   SessionStatus = "pending"
	SessionRunning   SessionStatus = "running"
	SessionCompleted SessionStatus = "completed"
)

// Snapshot is the full system state recorded at one tick: every actor,
// every trade, every decision, and the market data they saw. Snapshots
// are append-only; once written to a session they are never edited.
type Snapshot struct {
	Timestamp   time.Time
	ActorStates []ActorState
	Trades      []Trade
	Decisions   []Decision
	MarketData  []Quote
}

// Session is one complete backtest run: an ordered snapshot chain plus
// the actor configuration it started from. The snapshot chain alone is
// sufficient to reconstruct any actor's state at any recorded timestamp.
type Session struct {
	ID             string
	Name           string
	StartTime      time.Time
	EndTime        time.Time
	Status         SessionStatus
	Snapshots      []Snapshot
	InitialConfigs []ActorState // actor states as configured at creation
	RangeStart     time.Time    // historical data window, zero if live
	RangeEnd       time.Time
}

// LastSnapshot returns the most recent snapshot, or nil for a fresh session.
func (s *Session) LastSnapshot() *Snapshot {
	if len(s.Snapshots) == 0 {
		return nil
	}
	return &s.Snapshots[len(s.Snapshots)-1]
}

// InitialCapitalFor returns the capital baseline for return computation:
// the actor's configured starting assets. The baseline is fixed for the
// whole session — it must not drift once snapshots accumulate, or the
// same state would report different returns depending on when it is
// revalued. Sessions recorded without configs fall back to the first
// snapshot, then to DefaultInitialCapital.
func (s *Session) InitialCapitalFor(actorID string) float64 {
	for _, st := range s.InitialConfigs {
		if st.ID == actorID && st.TotalAssets > 0 {
			return st.TotalAssets
		}
	}
	if len(s.Snapshots) > 0 {
		for _, st := range s.Snapshots[0].ActorStates {
			if st.ID == actorID {
				return st.TotalAssets
			}
		}
	}
	return DefaultInitialCapital
}

// PerformanceRecord is the compact per-actor result appended to the
// leaderboard history on every session save. Bounded per actor so that
// best-ever lookups never rescan full session histories.
type PerformanceRecord struct {
	ActorID       string
	ActorName     string
	SessionID     string
	ReturnPercent float64
	TotalAssets   float64
	TradeCount    int
	Duration      time.Duration
	RecordedAt    time.Time
}

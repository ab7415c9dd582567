package session

// leaderboard.go — bounded per-actor performance history. Appended on
// every session save so best-ever lookups read one small list instead of
// rescanning full snapshot chains.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alejandrodnm/backsim/internal/domain"
)

// historyCap bounds each actor's stored performance records.
const historyCap = 50

// recordPerformance appends one record per actor present in the
// session's latest snapshot, replacing that actor's previous record for
// the same session and trimming to the cap.
func (s *Store) recordPerformance(ctx context.Context, sess *domain.Session) error {
	last := sess.LastSnapshot()
	if last == nil {
		return nil
	}

	tradeCounts := make(map[string]int)
	for _, snap := range sess.Snapshots {
		for _, tr := range snap.Trades {
			tradeCounts[tr.ActorID]++
		}
	}

	for _, actor := range last.ActorStates {
		rec := domain.PerformanceRecord{
			ActorID:       actor.ID,
			ActorName:     actor.Name,
			SessionID:     sess.ID,
			ReturnPercent: actor.TotalReturnPercent,
			TotalAssets:   actor.TotalAssets,
			TradeCount:    tradeCounts[actor.ID],
			Duration:      last.Timestamp.Sub(sess.StartTime),
			RecordedAt:    time.Now().UTC(),
		}
		if err := s.appendHistory(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) appendHistory(ctx context.Context, rec domain.PerformanceRecord) error {
	history, err := s.History(ctx, rec.ActorID)
	if err != nil {
		return err
	}

	// One record per (actor, session): an in-progress session updates
	// its record in place rather than flooding the history.
	replaced := false
	for i := range history {
		if history[i].SessionID == rec.SessionID {
			history[i] = rec
			replaced = true
			break
		}
	}
	if !replaced {
		history = append(history, rec)
	}
	if len(history) > historyCap {
		history = history[len(history)-historyCap:]
	}

	raw, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("session.appendHistory %s: encode: %w", rec.ActorID, err)
	}
	return s.kv.Set(ctx, historyPrefix+rec.ActorID, raw, historyTTL)
}

// History returns the actor's recorded performances, oldest first.
func (s *Store) History(ctx context.Context, actorID string) ([]domain.PerformanceRecord, error) {
	raw, found, err := s.kv.Get(ctx, historyPrefix+actorID)
	if err != nil {
		return nil, fmt.Errorf("session.History %s: %w", actorID, err)
	}
	if !found {
		return nil, nil
	}
	var history []domain.PerformanceRecord
	if err := json.Unmarshal(raw, &history); err != nil {
		return nil, fmt.Errorf("session.History %s: decode: %w", actorID, err)
	}
	return history, nil
}

// BestPerformance returns the actor's best recorded run by return
// percentage, or nil when the actor has no history.
func (s *Store) BestPerformance(ctx context.Context, actorID string) (*domain.PerformanceRecord, error) {
	history, err := s.History(ctx, actorID)
	if err != nil || len(history) == 0 {
		return nil, err
	}
	best := history[0]
	for _, rec := range history[1:] {
		if rec.ReturnPercent > best.ReturnPercent {
			best = rec
		}
	}
	return &best, nil
}

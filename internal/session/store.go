package session

// store.go — durable session record. A session is one backtest run:
// an append-only snapshot chain plus the actor configs it started from.
// Snapshot append is the single-writer critical section per session;
// sessions are independent of each other and may run concurrently.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/backsim/internal/domain"
	"github.com/alejandrodnm/backsim/internal/ports"
)

const (
	sessionTTL = 30 * 24 * time.Hour
	historyTTL = 30 * 24 * time.Hour

	sessionPrefix = "session:"
	historyPrefix = "history:"
)

// Store persists sessions and the per-actor leaderboard history in the
// KV collaborator. Each key namespace has exactly one writer.
type Store struct {
	kv ports.KVStore
}

// NewStore creates a session store over the given KV.
func NewStore(kv ports.KVStore) *Store {
	return &Store{kv: kv}
}

// Create registers a new pending session. Actors may still be configured
// while pending; the first committed snapshot moves it to running.
func (s *Store) Create(ctx context.Context, name string, actors []domain.ActorState, rangeStart, rangeEnd time.Time) (*domain.Session, error) {
	sess := &domain.Session{
		ID:             uuid.New().String(),
		Name:           name,
		StartTime:      time.Now().UTC(),
		Status:         domain.SessionPending,
		InitialConfigs: actors,
		RangeStart:     rangeStart,
		RangeEnd:       rangeEnd,
	}
	if err := s.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("session.Create: %w", err)
	}
	return sess, nil
}

// Get loads a session by ID.
func (s *Store) Get(ctx context.Context, id string) (*domain.Session, error) {
	raw, found, err := s.kv.Get(ctx, sessionPrefix+id)
	if err != nil {
		return nil, fmt.Errorf("session.Get %s: %w", id, err)
	}
	if !found {
		return nil, fmt.Errorf("session.Get %s: %w", id, domain.ErrSessionNotFound)
	}
	var sess domain.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("session.Get %s: decode: %w", id, err)
	}
	return &sess, nil
}

// List returns all stored sessions. The session: key prefix is the
// session index — no separate index record to keep consistent.
func (s *Store) List(ctx context.Context) ([]domain.Session, error) {
	entries, err := s.kv.ScanPrefix(ctx, sessionPrefix)
	if err != nil {
		return nil, fmt.Errorf("session.List: %w", err)
	}
	out := make([]domain.Session, 0, len(entries))
	for key, raw := range entries {
		var sess domain.Session
		if err := json.Unmarshal(raw, &sess); err != nil {
			return nil, fmt.Errorf("session.List: decode %s: %w", key, err)
		}
		out = append(out, sess)
	}
	return out, nil
}

// Delete removes a session record. Leaderboard history is kept — it is
// the durable best-ever record across sessions.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.kv.Delete(ctx, sessionPrefix+id); err != nil {
		return fmt.Errorf("session.Delete %s: %w", id, err)
	}
	return nil
}

// Save persists the session and appends the compact per-actor
// performance records to the leaderboard history.
func (s *Store) Save(ctx context.Context, sess *domain.Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session.Save %s: encode: %w", sess.ID, err)
	}
	if err := s.kv.Set(ctx, sessionPrefix+sess.ID, raw, sessionTTL); err != nil {
		return fmt.Errorf("session.Save %s: %w", sess.ID, err)
	}
	if err := s.recordPerformance(ctx, sess); err != nil {
		return fmt.Errorf("session.Save %s: %w", sess.ID, err)
	}
	return nil
}

// AppendSnapshot commits one tick's snapshot: validates ordering,
// appends, advances the status machine, and persists. On a persistence
// failure the in-memory append is rolled back, so a failed tick leaves
// no trace — all-or-nothing.
func (s *Store) AppendSnapshot(ctx context.Context, sess *domain.Session, snap domain.Snapshot) error {
	if sess.Status == domain.SessionCompleted {
		return fmt.Errorf("session.AppendSnapshot %s: %w", sess.ID, domain.ErrSessionCompleted)
	}
	if last := sess.LastSnapshot(); last != nil && !snap.Timestamp.After(last.Timestamp) {
		return fmt.Errorf("session.AppendSnapshot %s: snapshot at %s not after %s: %w",
			sess.ID, snap.Timestamp, last.Timestamp, domain.ErrStateInvariant)
	}

	prevStatus := sess.Status
	sess.Snapshots = append(sess.Snapshots, snap)
	if sess.Status == domain.SessionPending {
		sess.Status = domain.SessionRunning
	}
	sess.EndTime = snap.Timestamp

	if err := s.Save(ctx, sess); err != nil {
		sess.Snapshots = sess.Snapshots[:len(sess.Snapshots)-1]
		sess.Status = prevStatus
		return err
	}
	return nil
}

// Complete marks the session terminal. Monotonic: completing twice is a
// no-op, and a completed session never runs again.
func (s *Store) Complete(ctx context.Context, sess *domain.Session) error {
	if sess.Status == domain.SessionCompleted {
		return nil
	}
	sess.Status = domain.SessionCompleted
	return s.Save(ctx, sess)
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/alejandrodnm/backsim/config"
	"github.com/alejandrodnm/backsim/internal/adapters/marketdata"
	"github.com/alejandrodnm/backsim/internal/adapters/notify"
	"github.com/alejandrodnm/backsim/internal/adapters/storage"
	"github.com/alejandrodnm/backsim/internal/domain"
	"github.com/alejandrodnm/backsim/internal/engine"
	"github.com/alejandrodnm/backsim/internal/marketstore"
	"github.com/alejandrodnm/backsim/internal/session"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print full per-tick tables (default: compact 1-line)")
	run := flag.Bool("run", false, "create a session from config and drive it to completion")
	replayID := flag.String("replay", "", "verify a stored session by replaying its snapshots")
	leaderboard := flag.Bool("leaderboard", false, "print best-ever per-actor performance")
	sessions := flag.Bool("sessions", false, "list stored sessions")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	kv, err := storage.NewSQLiteKV(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer kv.Close()

	source := marketdata.NewClient(cfg.Market.BaseURL,
		cfg.Market.QuoteRatePS, cfg.Market.HistoryRatePS, cfg.Market.AnalysisRatePS)
	market := marketstore.New(source, kv)
	sessStore := session.NewStore(kv)
	eng := engine.New(market, sessStore, cfg.Engine.TickStep())
	notifier := notify.NewConsole(*table)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch {
	case *replayID != "":
		exitOn(runReplay(ctx, sessStore, *replayID))
	case *leaderboard:
		exitOn(runLeaderboard(ctx, sessStore, notifier))
	case *sessions:
		exitOn(listSessions(ctx, sessStore))
	case *run:
		exitOn(runSession(ctx, cfg, sessStore, eng, notifier))
	default:
		flag.Usage()
		os.Exit(2)
	}
}

// runSession creates a session from the configured actors and drives it
// until completion or cancellation.
func runSession(ctx context.Context, cfg *config.Config, store *session.Store, eng *engine.Engine, notifier *notify.Console) error {
	rangeStart, rangeEnd, hasRange, err := cfg.Range()
	if err != nil {
		return err
	}

	actors := make([]domain.ActorState, 0, len(cfg.Engine.Actors))
	for i, a := range cfg.Engine.Actors {
		actors = append(actors, domain.ActorState{
			ID:          fmt.Sprintf("actor-%d", i+1),
			Name:        a.Name,
			Strategy:    a.Strategy.Normalized(),
			Cash:        a.Cash,
			TotalAssets: a.Cash,
			IsActive:    true,
		})
	}

	sess, err := store.Create(ctx, cfg.Engine.SessionName, actors, rangeStart, rangeEnd)
	if err != nil {
		return err
	}
	slog.Info("session created",
		"id", sess.ID,
		"name", sess.Name,
		"actors", len(actors),
		"historical", hasRange,
	)

	if err := eng.Run(ctx, sess, notifier, cfg.Engine.MaxTicks); err != nil {
		return err
	}
	slog.Info("run finished", "session", sess.ID, "status", sess.Status)
	return nil
}

// runReplay re-derives a session's final actor states from its snapshot
// chain and checks them against the stored last snapshot.
func runReplay(ctx context.Context, store *session.Store, id string) error {
	sess, err := store.Get(ctx, id)
	if err != nil {
		return err
	}

	derived, err := engine.Replay(sess)
	if err != nil {
		return err
	}

	last := sess.LastSnapshot()
	for _, d := range derived {
		for _, stored := range last.ActorStates {
			if stored.ID != d.ID {
				continue
			}
			if stored.TotalAssets != d.TotalAssets || stored.Cash != d.Cash {
				return fmt.Errorf("replay mismatch for %s: derived assets %.2f cash %.2f, stored %.2f %.2f",
					d.ID, d.TotalAssets, d.Cash, stored.TotalAssets, stored.Cash)
			}
		}
	}
	slog.Info("replay verified", "session", id, "snapshots", len(sess.Snapshots), "actors", len(derived))
	return nil
}

func runLeaderboard(ctx context.Context, store *session.Store, notifier *notify.Console) error {
	sessions, err := store.List(ctx)
	if err != nil {
		return err
	}

	seen := make(map[string]bool)
	var best []domain.PerformanceRecord
	for _, sess := range sessions {
		for _, actor := range sess.InitialConfigs {
			if seen[actor.ID] {
				continue
			}
			seen[actor.ID] = true
			rec, err := store.BestPerformance(ctx, actor.ID)
			if err != nil {
				return err
			}
			if rec != nil {
				best = append(best, *rec)
			}
		}
	}
	sort.Slice(best, func(i, j int) bool { return best[i].ReturnPercent > best[j].ReturnPercent })
	return notifier.NotifyLeaderboard(ctx, best)
}

func listSessions(ctx context.Context, store *session.Store) error {
	sessions, err := store.List(ctx)
	if err != nil {
		return err
	}
	for _, sess := range sessions {
		fmt.Printf("%s  %-20s %-10s snapshots=%d  %s → %s\n",
			sess.ID, sess.Name, sess.Status, len(sess.Snapshots),
			sess.StartTime.Format("2006-01-02 15:04"), sess.EndTime.Format("2006-01-02 15:04"))
	}
	return nil
}

func exitOn(err error) {
	if err != nil {
		slog.Error("command failed", "err", err)
		os.Exit(1)
	}
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/quote-keeper/internal/domain"
	"github.com/jsamuelsen/quote-keeper/internal/platform/logging"
	"github.com/jsamuelsen/quote-keeper/internal/ports"
)

const (
	// DefaultSyncInterval is how often Run starts a round when no interval
	// is configured.
	DefaultSyncInterval = 30 * time.Second

	// MsgSynced is shown after remote quotes were merged into the local
	// collection.
	MsgSynced = "Quotes synced from server."

	// MsgSyncFailed is shown when a round could not reach the remote.
	MsgSyncFailed = "Failed to sync with server."

	syncedDisplay     = 3 * time.Second
	syncFailedDisplay = 5 * time.Second

	syncTracerName = "github.com/jsamuelsen/quote-keeper/app/sync"
)

// SyncOutcome names what a round did.
type SyncOutcome string

const (
	// SyncMerged means remote quotes were merged and local was replaced.
	SyncMerged SyncOutcome = "merged"

	// SyncPushed means nothing new came from remote, so local was pushed.
	SyncPushed SyncOutcome = "pushed"

	// SyncFailed means the remote could not be read or written.
	SyncFailed SyncOutcome = "failed"
)

// SyncResult describes one completed round.
type SyncResult struct {
	Outcome     SyncOutcome   `json:"outcome"`
	Added       int           `json:"added"`
	LocalCount  int           `json:"local_count"`
	RemoteCount int           `json:"remote_count"`
	Duration    time.Duration `json:"duration"`
}

// SyncEngine reconciles the local collection with the remote mirror.
//
// A round fetches remote, merges it into local by text, and compares
// lengths. A longer merge replaces local and notifies; an equal length
// pushes local to remote instead. Same-count divergence and category-only
// edits on the remote are therefore invisible to a round.
type SyncEngine struct {
	store    *QuoteStore
	mirror   ports.RemoteMirror
	notifier ports.Notifier
	recorder ports.SyncRecorder
	interval time.Duration
	onStart  bool
	logger   *slog.Logger
	tracer   trace.Tracer
	now      func() time.Time

	// roundMu serializes rounds so a manual trigger never overlaps a tick.
	roundMu sync.Mutex
}

// SyncEngineConfig contains configuration for the sync engine.
type SyncEngineConfig struct {
	// Store is the local collection. Required.
	Store *QuoteStore

	// Mirror is the remote replica. Required.
	Mirror ports.RemoteMirror

	// Notifier surfaces round results to the user. Optional.
	Notifier ports.Notifier

	// Recorder receives round metrics. Optional.
	Recorder ports.SyncRecorder

	// Interval is the period between rounds in Run. Defaults to
	// DefaultSyncInterval when zero or negative.
	Interval time.Duration

	// OnStart makes Run start a round immediately instead of waiting for
	// the first tick.
	OnStart bool

	// Logger is the structured logger. Defaults to slog.Default() if nil.
	Logger *slog.Logger
}

// NewSyncEngine creates a sync engine.
func NewSyncEngine(cfg SyncEngineConfig) *SyncEngine {
	if cfg.Store == nil {
		panic("app.NewSyncEngine: Store is required")
	}

	if cfg.Mirror == nil {
		panic("app.NewSyncEngine: Mirror is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultSyncInterval
	}

	return &SyncEngine{
		store:    cfg.Store,
		mirror:   cfg.Mirror,
		notifier: cfg.Notifier,
		recorder: cfg.Recorder,
		interval: interval,
		onStart:  cfg.OnStart,
		logger:   logger.With(slog.String("component", "sync-engine")),
		tracer:   otel.Tracer(syncTracerName),
		now:      time.Now,
	}
}

// Interval returns the period Run waits between rounds.
func (e *SyncEngine) Interval() time.Duration {
	return e.interval
}

// SyncNow runs one round and waits for it. A failed round never changes the
// local collection.
func (e *SyncEngine) SyncNow(ctx context.Context) (SyncResult, error) {
	e.roundMu.Lock()
	defer e.roundMu.Unlock()

	ctx, span := e.tracer.Start(ctx, "sync.round")
	defer span.End()

	ctx, logger := logging.Scope(ctx, e.logger, logging.TraceIDs(ctx))

	start := time.Now()

	res, err := e.round(ctx)
	res.Duration = time.Since(start)

	span.SetAttributes(
		attribute.String("sync.outcome", string(res.Outcome)),
		attribute.Int("sync.added", res.Added),
		attribute.Int("sync.local_count", res.LocalCount),
	)

	e.record(res)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		logger.WarnContext(ctx, "sync round failed",
			slog.String("error", err.Error()),
			slog.Duration("duration", res.Duration),
		)
		e.notify(ctx, ports.NotificationError, MsgSyncFailed, syncFailedDisplay)

		return res, fmt.Errorf("syncing quotes: %w", err)
	}

	logger.InfoContext(ctx, "sync round completed",
		slog.String("outcome", string(res.Outcome)),
		slog.Int("added", res.Added),
		slog.Int("local_count", res.LocalCount),
		slog.Int("remote_count", res.RemoteCount),
		slog.Duration("duration", res.Duration),
	)

	if res.Outcome == SyncMerged && res.Added > 0 {
		e.notify(ctx, ports.NotificationInfo, MsgSynced, syncedDisplay)
	}

	return res, nil
}

func (e *SyncEngine) round(ctx context.Context) (SyncResult, error) {
	res := SyncResult{Outcome: SyncFailed}

	// Fetch happens outside the store lock so adds are not held up by a
	// slow remote.
	remote, err := e.mirror.Fetch(ctx)
	if err != nil {
		res.LocalCount = e.store.Len()
		return res, fmt.Errorf("fetching remote: %w", err)
	}

	res.RemoteCount = len(remote)

	var local []domain.Quote

	err = e.store.Update(ctx, func(current []domain.Quote) ([]domain.Quote, bool, error) {
		local = current

		merged := domain.Merge(current, remote)
		if !merged.Changed() {
			return nil, false, nil
		}

		res.Outcome = SyncMerged
		res.Added = merged.Added
		res.LocalCount = len(merged.Quotes)

		return merged.Quotes, true, nil
	})
	if err != nil {
		res.Outcome = SyncFailed
		res.LocalCount = len(local)

		return res, fmt.Errorf("replacing local quotes: %w", err)
	}

	if res.Outcome == SyncMerged {
		return res, nil
	}

	res.LocalCount = len(local)

	if err := e.mirror.Push(ctx, local); err != nil {
		return res, fmt.Errorf("pushing local quotes: %w", err)
	}

	res.Outcome = SyncPushed
	res.RemoteCount = len(local)

	return res, nil
}

// Run starts a round every interval until ctx is cancelled. Rounds are
// independent: a failure is logged and notified, and the next tick tries
// again with no backoff. Run returns ctx.Err() when it stops.
func (e *SyncEngine) Run(ctx context.Context) error {
	e.logger.InfoContext(ctx, "sync loop started",
		slog.Duration("interval", e.interval),
		slog.Bool("on_start", e.onStart),
	)

	if e.onStart {
		_, _ = e.SyncNow(ctx)
	}

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.InfoContext(ctx, "sync loop stopped")
			return ctx.Err()
		case <-ticker.C:
			_, _ = e.SyncNow(ctx)
		}
	}
}

func (e *SyncEngine) record(res SyncResult) {
	if e.recorder == nil {
		return
	}

	e.recorder.RecordRound(string(res.Outcome), res.Duration)
	e.recorder.SetQuoteCount(e.store.Len())
}

func (e *SyncEngine) notify(ctx context.Context, level ports.NotificationLevel, msg string, d time.Duration) {
	if e.notifier == nil {
		return
	}

	e.notifier.Notify(ctx, ports.Notification{
		Level:    level,
		Message:  msg,
		Duration: d,
		At:       e.now(),
	})
}

// Package bootstrap assembles the quote keeper from configuration. The
// service and the CLI share it so both operate on the same store the same way.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jsamuelsen/quote-keeper/internal/adapters/clients"
	"github.com/jsamuelsen/quote-keeper/internal/adapters/clients/acl"
	"github.com/jsamuelsen/quote-keeper/internal/adapters/notify"
	"github.com/jsamuelsen/quote-keeper/internal/adapters/storage/memory"
	"github.com/jsamuelsen/quote-keeper/internal/adapters/storage/sqlite"
	"github.com/jsamuelsen/quote-keeper/internal/app"
	"github.com/jsamuelsen/quote-keeper/internal/platform/config"
	"github.com/jsamuelsen/quote-keeper/internal/platform/telemetry"
	"github.com/jsamuelsen/quote-keeper/internal/ports"
)

// Options tune how the components are assembled.
type Options struct {
	// Registerer receives the sync metrics. Nil disables them.
	Registerer prometheus.Registerer

	// UserAgent is sent to the remote mirror in http mode.
	UserAgent string

	// Notifier is added to the configured notifiers. Optional.
	Notifier ports.Notifier
}

// Components is the assembled application.
type Components struct {
	Store   *sqlite.Store
	Session *memory.Store
	Mirror  ports.RemoteMirror
	Feed    *notify.Feed
	Engine  *app.SyncEngine
	Service *app.QuoteService
	Health  *ports.DefaultHealthRegistry
}

// Build opens the durable store and wires the application around it. The
// caller owns the result and must Close it.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (*Components, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	if logger == nil {
		logger = slog.Default()
	}

	store, err := sqlite.Open(ctx, sqlite.Config{Path: cfg.Storage.Path, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	c := &Components{
		Store:   store,
		Session: memory.New(),
		Feed:    notify.NewFeed(cfg.Notify.History),
		Health:  ports.NewHealthRegistry(),
	}

	if err := c.wire(ctx, cfg, logger, opts); err != nil {
		_ = store.Close()
		return nil, err
	}

	return c, nil
}

func (c *Components) wire(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) error {
	if err := c.Health.Register(c.Store); err != nil {
		return fmt.Errorf("registering store health check: %w", err)
	}

	mirror, err := newMirror(cfg, c.Store, logger, opts.UserAgent)
	if err != nil {
		return err
	}

	c.Mirror = mirror

	if checker, ok := mirror.(ports.HealthChecker); ok {
		if err := c.Health.Register(checker); err != nil {
			return fmt.Errorf("registering mirror health check: %w", err)
		}
	}

	notifiers := notify.Multi{c.Feed, notify.NewLog(logger)}
	if cfg.Notify.Desktop {
		notifiers = append(notifiers, notify.NewDesktop(cfg.App.Name, logger))
	}

	if opts.Notifier != nil {
		notifiers = append(notifiers, opts.Notifier)
	}

	var recorder ports.SyncRecorder

	if opts.Registerer != nil {
		metrics, err := telemetry.NewSyncMetrics(opts.Registerer)
		if err != nil {
			return err
		}

		recorder = metrics
	}

	store := app.NewQuoteStore(app.QuoteStoreConfig{Storage: c.Store, Logger: logger})
	store.Load(ctx)

	if recorder != nil {
		recorder.SetQuoteCount(store.Len())
	}

	c.Engine = app.NewSyncEngine(app.SyncEngineConfig{
		Store:    store,
		Mirror:   mirror,
		Notifier: notifiers,
		Recorder: recorder,
		Interval: cfg.Sync.Interval,
		OnStart:  cfg.Sync.OnStart,
		Logger:   logger,
	})

	c.Service = app.NewQuoteService(app.QuoteServiceConfig{
		Store:       store,
		Filter:      app.NewFilterState(c.Store, logger),
		Transfer:    app.NewTransfer(app.TransferConfig{Store: store, Logger: logger}),
		Engine:      c.Engine,
		Session:     c.Session,
		SyncOnWrite: cfg.Sync.OnWrite,
		Logger:      logger,
	})

	return nil
}

// newMirror picks the remote replica: the simulated mirror persisted next to
// the local collection, or the todo API behind the instrumented client.
func newMirror(cfg *config.Config, kv ports.KeyValueStore, logger *slog.Logger, userAgent string) (ports.RemoteMirror, error) {
	switch cfg.Remote.Mode {
	case config.RemoteModeHTTP:
		client, err := clients.New(&clients.Config{
			BaseURL:     cfg.Remote.BaseURL,
			ServiceName: cfg.Remote.Name,
			Timeout:     cfg.Client.Timeout,
			Retry:       cfg.Client.Retry,
			Circuit:     cfg.Client.CircuitBreaker,
			Transport:   cfg.Client.Transport,
			UserAgent:   userAgent,
			Logger:      logger,
		})
		if err != nil {
			return nil, fmt.Errorf("creating remote client: %w", err)
		}

		return acl.NewTodoMirror(acl.TodoMirrorConfig{
			Client:    client,
			Name:      cfg.Remote.Name,
			FetchPath: cfg.Remote.FetchPath,
			PushPath:  cfg.Remote.PushPath,
			Logger:    logger,
		}), nil

	case config.RemoteModeLocal, "":
		return app.NewStoredMirror(kv, logger), nil

	default:
		return nil, fmt.Errorf("unknown remote mode %q", cfg.Remote.Mode)
	}
}

// Close releases the durable store.
func (c *Components) Close() error {
	if c == nil || c.Store == nil {
		return nil
	}

	return c.Store.Close()
}

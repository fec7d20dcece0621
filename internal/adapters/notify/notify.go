// Package notify implements ports.Notifier for the places a notification can
// surface: an in-memory feed served over HTTP, the desktop, and the log.
package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/gen2brain/beeep"

	"github.com/jsamuelsen/quote-keeper/internal/ports"
)

// DefaultHistory is the number of notifications a Feed keeps when no size is
// configured.
const DefaultHistory = 50

// Feed keeps the most recent notifications in a bounded ring.
type Feed struct {
	mu    sync.RWMutex
	items []ports.Notification
	next  int
	full  bool
}

// NewFeed creates a feed holding up to size notifications.
// A size below one falls back to DefaultHistory.
func NewFeed(size int) *Feed {
	if size < 1 {
		size = DefaultHistory
	}

	return &Feed{items: make([]ports.Notification, size)}
}

// Notify implements ports.Notifier.
func (f *Feed) Notify(_ context.Context, n ports.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.items[f.next] = n
	f.next = (f.next + 1) % len(f.items)

	if f.next == 0 {
		f.full = true
	}
}

// Recent returns the retained notifications, oldest first.
func (f *Feed) Recent() []ports.Notification {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if !f.full {
		out := make([]ports.Notification, f.next)
		copy(out, f.items[:f.next])

		return out
	}

	out := make([]ports.Notification, 0, len(f.items))
	out = append(out, f.items[f.next:]...)
	out = append(out, f.items[:f.next]...)

	return out
}

// Desktop shows notifications as desktop alerts.
type Desktop struct {
	title  string
	logger *slog.Logger
	notify func(title, message string) error
	alert  func(title, message string) error
}

// NewDesktop creates a desktop notifier; title heads every alert.
func NewDesktop(title string, logger *slog.Logger) *Desktop {
	if logger == nil {
		logger = slog.Default()
	}

	return &Desktop{
		title:  title,
		logger: logger.With(slog.String("component", "desktop-notifier")),
		notify: func(title, message string) error { return beeep.Notify(title, message, "") },
		alert:  func(title, message string) error { return beeep.Alert(title, message, "") },
	}
}

// Notify implements ports.Notifier. Errors are raised as alerts, which also
// play a sound.
func (d *Desktop) Notify(ctx context.Context, n ports.Notification) {
	send := d.notify
	if n.Level == ports.NotificationError {
		send = d.alert
	}

	if err := send(d.title, n.Message); err != nil {
		d.logger.WarnContext(ctx, "desktop notification failed", slog.String("error", err.Error()))
	}
}

// Log writes each notification to a logger.
type Log struct {
	logger *slog.Logger
}

// NewLog creates a notifier that only logs.
func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}

	return &Log{logger: logger.With(slog.String("component", "notifier"))}
}

// Notify implements ports.Notifier.
func (l *Log) Notify(ctx context.Context, n ports.Notification) {
	level := slog.LevelInfo
	if n.Level == ports.NotificationError {
		level = slog.LevelWarn
	}

	l.logger.Log(ctx, level, n.Message,
		slog.String("level_hint", string(n.Level)),
		slog.Duration("display_for", n.Duration),
	)
}

// Multi fans a notification out to several notifiers in order.
type Multi []ports.Notifier

// Notify implements ports.Notifier.
func (m Multi) Notify(ctx context.Context, n ports.Notification) {
	for _, notifier := range m {
		if notifier != nil {
			notifier.Notify(ctx, n)
		}
	}
}

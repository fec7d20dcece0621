package notify

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-keeper/internal/ports"
)

var (
	_ ports.Notifier = (*Feed)(nil)
	_ ports.Notifier = (*Desktop)(nil)
	_ ports.Notifier = (*Log)(nil)
	_ ports.Notifier = Multi(nil)
)

func note(msg string) ports.Notification {
	return ports.Notification{Level: ports.NotificationInfo, Message: msg, Duration: 3 * time.Second}
}

func messages(ns []ports.Notification) []string {
	out := make([]string, len(ns))
	for i, n := range ns {
		out[i] = n.Message
	}

	return out
}

func TestFeed(t *testing.T) {
	tests := []struct {
		name   string
		size   int
		send   []string
		expect []string
	}{
		{name: "empty", size: 3, expect: []string{}},
		{name: "partial", size: 3, send: []string{"a", "b"}, expect: []string{"a", "b"}},
		{name: "exactly full", size: 3, send: []string{"a", "b", "c"}, expect: []string{"a", "b", "c"}},
		{name: "wraps dropping oldest", size: 3, send: []string{"a", "b", "c", "d", "e"}, expect: []string{"c", "d", "e"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFeed(tt.size)

			for _, m := range tt.send {
				f.Notify(context.Background(), note(m))
			}

			assert.Equal(t, tt.expect, messages(f.Recent()))
		})
	}
}

func TestNewFeed_DefaultSize(t *testing.T) {
	f := NewFeed(0)
	assert.Len(t, f.items, DefaultHistory)
}

func TestDesktop_PicksAlertForErrors(t *testing.T) {
	var notified, alerted []string

	d := NewDesktop("Quotes", slog.New(slog.NewTextHandler(io.Discard, nil)))
	d.notify = func(_, message string) error {
		notified = append(notified, message)
		return nil
	}
	d.alert = func(_, message string) error {
		alerted = append(alerted, message)
		return nil
	}

	d.Notify(context.Background(), note("Quotes synced from server."))
	d.Notify(context.Background(), ports.Notification{Level: ports.NotificationError, Message: "Failed to sync with server."})

	assert.Equal(t, []string{"Quotes synced from server."}, notified)
	assert.Equal(t, []string{"Failed to sync with server."}, alerted)
}

func TestDesktop_LogsDeliveryFailure(t *testing.T) {
	var buf bytes.Buffer

	d := NewDesktop("Quotes", slog.New(slog.NewTextHandler(&buf, nil)))
	d.notify = func(_, _ string) error { return errors.New("no dbus") }

	d.Notify(context.Background(), note("hello"))

	assert.Contains(t, buf.String(), "desktop notification failed")
	assert.Contains(t, buf.String(), "no dbus")
}

func TestLog_Notify(t *testing.T) {
	var buf bytes.Buffer

	l := NewLog(slog.New(slog.NewTextHandler(&buf, nil)))
	l.Notify(context.Background(), ports.Notification{Level: ports.NotificationError, Message: "Failed to sync with server."})

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "Failed to sync with server.")
}

func TestMulti_FansOut(t *testing.T) {
	a, b := NewFeed(2), NewFeed(2)

	Multi{a, nil, b}.Notify(context.Background(), note("x"))

	require.Len(t, a.Recent(), 1)
	require.Len(t, b.Recent(), 1)
}

// Package ports defines interfaces for external dependencies.
// Ports are contracts that adapters implement, allowing the application layer
// to depend on abstractions rather than concrete implementations.
//
// Port Design Principles:
//   - Context as first parameter for anything that may block
//   - Return domain types, never external DTOs or infrastructure types
//   - Error returns use domain error types (ErrNotFound, ErrUnavailable, etc.)
//   - Keep interfaces small and focused
package ports

import (
	"context"
	"time"

	"github.com/jsamuelsen/quote-keeper/internal/domain"
)

// KeyValueStore is a string-keyed, string-valued store.
// The durable implementation survives restarts; the session implementation
// lives only as long as the process.
type KeyValueStore interface {
	// Get returns the value stored under key.
	// Returns domain.ErrNotFound if the key is absent.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// RemoteMirror is the remote replica the sync engine reconciles against.
type RemoteMirror interface {
	// Fetch returns the remote collection.
	// Returns domain.ErrUnavailable if the remote cannot be read.
	Fetch(ctx context.Context) ([]domain.Quote, error)

	// Push overwrites the remote collection with quotes.
	// Returns domain.ErrUnavailable if the remote cannot be written.
	Push(ctx context.Context, quotes []domain.Quote) error
}

// NotificationLevel classifies a notification.
type NotificationLevel string

const (
	// NotificationInfo reports something that went well.
	NotificationInfo NotificationLevel = "info"

	// NotificationError reports a failure the user should know about.
	NotificationError NotificationLevel = "error"
)

// Notification is a transient, user-facing message.
type Notification struct {
	Level    NotificationLevel `json:"level"`
	Message  string            `json:"message"`
	Duration time.Duration     `json:"duration"`
	At       time.Time         `json:"at"`
}

// Notifier delivers notifications to the user.
// Delivery is best effort; implementations log their own failures.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// SyncRecorder receives sync round measurements.
type SyncRecorder interface {
	// RecordRound records the outcome and duration of one sync round.
	RecordRound(outcome string, d time.Duration)

	// SetQuoteCount records the size of the local collection.
	SetQuoteCount(n int)
}

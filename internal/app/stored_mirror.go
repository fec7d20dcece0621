package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jsamuelsen/quote-keeper/internal/domain"
	"github.com/jsamuelsen/quote-keeper/internal/ports"
)

// ServerQuotesKey is the storage key holding the simulated remote collection.
const ServerQuotesKey = "serverQuotes"

const storedMirrorName = "stored-mirror"

// StoredMirror simulates the remote replica with a collection persisted next
// to the local one.
type StoredMirror struct {
	mu     sync.Mutex
	kv     ports.KeyValueStore
	logger *slog.Logger
}

// NewStoredMirror creates a mirror persisted in kv.
func NewStoredMirror(kv ports.KeyValueStore, logger *slog.Logger) *StoredMirror {
	if kv == nil {
		panic("app.NewStoredMirror: store is required")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &StoredMirror{kv: kv, logger: logger.With(slog.String("component", storedMirrorName))}
}

// Fetch returns the remote collection. The first fetch seeds and persists
// two "Server" quotes; later fetches only read. Content that cannot be
// parsed is reported as unavailable rather than reseeded.
func (m *StoredMirror) Fetch(ctx context.Context) ([]domain.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, err := m.kv.Get(ctx, ServerQuotesKey)
	if domain.IsNotFound(err) {
		seed := domain.ServerSeedQuotes()
		if err := m.writeLocked(ctx, seed); err != nil {
			return nil, err
		}

		m.logger.InfoContext(ctx, "seeded remote mirror", slog.Int("count", len(seed)))

		return seed, nil
	}

	if err != nil {
		return nil, domain.NewUnavailableError(storedMirrorName, err.Error())
	}

	quotes, err := DecodeQuotes([]byte(raw))
	if err != nil {
		return nil, domain.NewUnavailableError(storedMirrorName, err.Error())
	}

	return quotes, nil
}

// Push overwrites the remote collection.
func (m *StoredMirror) Push(ctx context.Context, quotes []domain.Quote) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.writeLocked(ctx, quotes)
}

func (m *StoredMirror) writeLocked(ctx context.Context, quotes []domain.Quote) error {
	data, err := EncodeQuotes(quotes)
	if err != nil {
		return err
	}

	if err := m.kv.Set(ctx, ServerQuotesKey, string(data)); err != nil {
		return domain.NewUnavailableError(storedMirrorName, fmt.Sprintf("writing: %v", err))
	}

	return nil
}

package app

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-keeper/internal/adapters/storage/memory"
	"github.com/jsamuelsen/quote-keeper/internal/domain"
	"github.com/jsamuelsen/quote-keeper/internal/ports"
)

// discardLogger returns a logger that discards all output.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newLoadedStore returns a quote store over a fresh memory KV holding quotes.
func newLoadedStore(t *testing.T, quotes ...domain.Quote) (*QuoteStore, *memory.Store) {
	t.Helper()

	kv := memory.New()
	store := NewQuoteStore(QuoteStoreConfig{Storage: kv, Logger: discardLogger()})
	store.Load(context.Background())

	if quotes == nil {
		quotes = []domain.Quote{}
	}

	require.NoError(t, store.Save(context.Background(), quotes))

	return store, kv
}

func q(text, category string) domain.Quote {
	return domain.Quote{Text: text, Category: category}
}

// recordingNotifier keeps every notification it receives.
type recordingNotifier struct {
	got []string
}

func (r *recordingNotifier) Notify(_ context.Context, n ports.Notification) {
	r.got = append(r.got, n.Message)
}

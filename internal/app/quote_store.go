package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jsamuelsen/quote-keeper/internal/domain"
	"github.com/jsamuelsen/quote-keeper/internal/ports"
)

// QuotesKey is the durable storage key holding the local collection.
const QuotesKey = "quotes"

// QuoteStore owns the canonical, ordered quote collection and its category
// index. Every mutation persists the full collection and rebuilds the index
// from scratch.
type QuoteStore struct {
	mu         sync.RWMutex
	kv         ports.KeyValueStore
	quotes     []domain.Quote
	categories []string
	logger     *slog.Logger
}

// QuoteStoreConfig contains configuration for the quote store.
type QuoteStoreConfig struct {
	// Storage is the durable key-value store. Required.
	Storage ports.KeyValueStore

	// Logger is the structured logger. Defaults to slog.Default() if nil.
	Logger *slog.Logger
}

// NewQuoteStore creates an empty store. Call Load before use.
func NewQuoteStore(cfg QuoteStoreConfig) *QuoteStore {
	if cfg.Storage == nil {
		panic("app.NewQuoteStore: Storage is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &QuoteStore{
		kv:     cfg.Storage,
		quotes: []domain.Quote{},
		logger: logger.With(slog.String("component", "quote-store")),
	}
}

// Load reads the persisted collection. An absent value, or one that cannot
// be parsed as a quote array, yields the seed collection instead; Load
// never fails. Corrupt content is logged and left in storage until the next
// save overwrites it.
func (s *QuoteStore) Load(ctx context.Context) []domain.Quote {
	quotes := s.read(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.setLocked(quotes)

	return domain.Clone(s.quotes)
}

func (s *QuoteStore) read(ctx context.Context) []domain.Quote {
	raw, err := s.kv.Get(ctx, QuotesKey)
	if err != nil {
		if !domain.IsNotFound(err) {
			s.logger.WarnContext(ctx, "reading stored quotes failed, using seed",
				slog.String("error", err.Error()),
			)
		}

		return domain.SeedQuotes()
	}

	quotes, err := DecodeQuotes([]byte(raw))
	if err != nil {
		s.logger.WarnContext(ctx, "stored quotes are corrupt, using seed",
			slog.String("error", err.Error()),
		)

		return domain.SeedQuotes()
	}

	return quotes
}

// Save persists quotes as the whole collection.
func (s *QuoteStore) Save(ctx context.Context, quotes []domain.Quote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.saveLocked(ctx, quotes)
}

// Replace overwrites the collection. It is Save under the name sync uses.
func (s *QuoteStore) Replace(ctx context.Context, quotes []domain.Quote) error {
	return s.Save(ctx, quotes)
}

// Append validates and adds one quote at the end of the collection.
// A validation failure leaves the collection unchanged.
func (s *QuoteStore) Append(ctx context.Context, text, category string) (domain.Quote, error) {
	q, err := domain.NewQuote(text, category)
	if err != nil {
		return domain.Quote{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := append(domain.Clone(s.quotes), q)
	if err := s.saveLocked(ctx, next); err != nil {
		return domain.Quote{}, err
	}

	return q, nil
}

// AppendAll adds quotes at the end of the collection without dedup.
func (s *QuoteStore) AppendAll(ctx context.Context, quotes []domain.Quote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := append(domain.Clone(s.quotes), quotes...)

	return s.saveLocked(ctx, next)
}

// UpdateFunc computes the next collection from a snapshot of the current
// one. Returning changed=false leaves the collection and storage untouched.
type UpdateFunc func(current []domain.Quote) (next []domain.Quote, changed bool, err error)

// Update runs fn while holding the store lock, so no other mutation can
// interleave between reading the snapshot and writing the result.
func (s *QuoteStore) Update(ctx context.Context, fn UpdateFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, changed, err := fn(domain.Clone(s.quotes))
	if err != nil {
		return err
	}

	if !changed {
		return nil
	}

	return s.saveLocked(ctx, next)
}

// Quotes returns a copy of the collection.
func (s *QuoteStore) Quotes() []domain.Quote {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return domain.Clone(s.quotes)
}

// Categories returns the category index in first-seen order.
func (s *QuoteStore) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, len(s.categories))
	copy(out, s.categories)

	return out
}

// Len returns the number of quotes.
func (s *QuoteStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.quotes)
}

func (s *QuoteStore) saveLocked(ctx context.Context, quotes []domain.Quote) error {
	data, err := EncodeQuotes(quotes)
	if err != nil {
		return err
	}

	if err := s.kv.Set(ctx, QuotesKey, string(data)); err != nil {
		return fmt.Errorf("saving quotes: %w", err)
	}

	s.setLocked(quotes)

	return nil
}

func (s *QuoteStore) setLocked(quotes []domain.Quote) {
	s.quotes = domain.Clone(quotes)
	s.categories = domain.Categories(s.quotes)
}

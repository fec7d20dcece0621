// Package app contains application services that orchestrate use cases.
// It coordinates domain logic and infrastructure through ports; HTTP and CLI
// presentation lives in adapters and cmd.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"

	"github.com/jsamuelsen/quote-keeper/internal/domain"
	"github.com/jsamuelsen/quote-keeper/internal/platform/logging"
	"github.com/jsamuelsen/quote-keeper/internal/ports"
)

// LastQuoteKey is the session storage key holding the last displayed quote.
const LastQuoteKey = "lastQuote"

// MsgNoQuotes is shown when the current filter matches nothing.
const MsgNoQuotes = "No quotes available for this category. Add some!"

// ErrNoQuotes is returned by ShowRandom when the current filter matches
// nothing. It wraps domain.ErrNotFound.
var ErrNoQuotes error = noQuotesError{}

type noQuotesError struct{}

func (noQuotesError) Error() string { return MsgNoQuotes }

func (noQuotesError) Unwrap() error { return domain.ErrNotFound }

// QuoteService is the facade presentation layers call. Each method maps to
// one user-facing control.
type QuoteService struct {
	store    *QuoteStore
	filter   *FilterState
	transfer *Transfer
	engine   *SyncEngine
	session  ports.KeyValueStore
	syncOn   bool
	logger   *slog.Logger
	intn     func(n int) int
}

// QuoteServiceConfig contains configuration for the quote service.
type QuoteServiceConfig struct {
	Store    *QuoteStore
	Filter   *FilterState
	Transfer *Transfer
	Engine   *SyncEngine

	// Session holds values that live only as long as the process.
	Session ports.KeyValueStore

	// SyncOnWrite runs a sync round after every successful add or import.
	SyncOnWrite bool

	Logger *slog.Logger
}

// NewQuoteService wires the use cases together. Every collaborator except
// Logger is required.
func NewQuoteService(cfg QuoteServiceConfig) *QuoteService {
	switch {
	case cfg.Store == nil:
		panic("app.NewQuoteService: Store is required")
	case cfg.Filter == nil:
		panic("app.NewQuoteService: Filter is required")
	case cfg.Transfer == nil:
		panic("app.NewQuoteService: Transfer is required")
	case cfg.Engine == nil:
		panic("app.NewQuoteService: Engine is required")
	case cfg.Session == nil:
		panic("app.NewQuoteService: Session is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &QuoteService{
		store:    cfg.Store,
		filter:   cfg.Filter,
		transfer: cfg.Transfer,
		engine:   cfg.Engine,
		session:  cfg.Session,
		syncOn:   cfg.SyncOnWrite,
		logger:   logger.With(slog.String("component", "quote-service")),
		intn:     rand.IntN,
	}
}

func (s *QuoteService) log(ctx context.Context) *slog.Logger {
	if logger, ok := logging.Lookup(ctx); ok {
		return logger
	}

	return s.logger
}

// AddQuote validates and appends a quote, then optionally syncs.
func (s *QuoteService) AddQuote(ctx context.Context, text, category string) (domain.Quote, error) {
	q, err := s.store.Append(ctx, text, category)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("adding quote: %w", err)
	}

	s.log(ctx).InfoContext(ctx, "quote added", slog.String("category", q.Category))
	s.followUpSync(ctx)

	return q, nil
}

// Quotes returns the quotes in category; CategoryAll returns everything.
func (s *QuoteService) Quotes(category string) []domain.Quote {
	return s.filter.Apply(s.store.Quotes(), category)
}

// Categories returns the category index without the CategoryAll sentinel.
func (s *QuoteService) Categories() []string {
	return s.store.Categories()
}

// SelectCategory persists the filter selection.
func (s *QuoteService) SelectCategory(ctx context.Context, category string) error {
	return s.filter.Select(ctx, category)
}

// CurrentCategory returns the persisted filter selection.
func (s *QuoteService) CurrentCategory(ctx context.Context) string {
	return s.filter.Current(ctx)
}

// FilteredQuotes applies the current selection to the collection.
func (s *QuoteService) FilteredQuotes(ctx context.Context) []domain.Quote {
	return s.Quotes(s.filter.Current(ctx))
}

// ShowRandom picks a random quote under the current filter and remembers
// its rendered form for the rest of the session.
func (s *QuoteService) ShowRandom(ctx context.Context) (domain.Quote, error) {
	candidates := s.FilteredQuotes(ctx)
	if len(candidates) == 0 {
		return domain.Quote{}, ErrNoQuotes
	}

	q := candidates[s.intn(len(candidates))]

	if err := s.session.Set(ctx, LastQuoteKey, q.Display()); err != nil {
		s.log(ctx).WarnContext(ctx, "remembering last quote failed", slog.String("error", err.Error()))
	}

	return q, nil
}

// LastQuote returns the rendered text of the last quote shown this session.
func (s *QuoteService) LastQuote(ctx context.Context) (string, error) {
	v, err := s.session.Get(ctx, LastQuoteKey)
	if err != nil {
		return "", fmt.Errorf("reading last quote: %w", err)
	}

	return v, nil
}

// Export writes the whole collection as an indented JSON array.
func (s *QuoteService) Export(ctx context.Context, w io.Writer) error {
	return s.transfer.Export(ctx, w)
}

// Import appends every quote in the document read from r, then optionally
// syncs. A malformed document changes nothing.
func (s *QuoteService) Import(ctx context.Context, r io.Reader) (int, error) {
	n, err := s.transfer.Import(ctx, r)
	if err != nil {
		return 0, err
	}

	s.log(ctx).InfoContext(ctx, "quotes imported", slog.Int("count", n))
	s.followUpSync(ctx)

	return n, nil
}

// Sync runs one round now.
func (s *QuoteService) Sync(ctx context.Context) (SyncResult, error) {
	return s.engine.SyncNow(ctx)
}

// Len returns the size of the collection.
func (s *QuoteService) Len() int {
	return s.store.Len()
}

// followUpSync runs a round after a write. Its failure is already logged and
// notified by the engine and never fails the write.
func (s *QuoteService) followUpSync(ctx context.Context) {
	if !s.syncOn {
		return
	}

	if _, err := s.engine.SyncNow(ctx); err != nil && !errors.Is(err, context.Canceled) {
		s.log(ctx).DebugContext(ctx, "follow-up sync failed", slog.String("error", err.Error()))
	}
}

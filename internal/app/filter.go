package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jsamuelsen/quote-keeper/internal/domain"
	"github.com/jsamuelsen/quote-keeper/internal/ports"
)

// SelectedCategoryKey is the durable storage key holding the filter selection.
const SelectedCategoryKey = "selectedCategory"

// FilterState persists the selected category. The selection is stored
// verbatim and is never checked against the category index, so a category
// that no longer exists simply filters to nothing.
type FilterState struct {
	kv     ports.KeyValueStore
	logger *slog.Logger
}

// NewFilterState creates a filter over the given durable store.
func NewFilterState(kv ports.KeyValueStore, logger *slog.Logger) *FilterState {
	if kv == nil {
		panic("app.NewFilterState: store is required")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &FilterState{kv: kv, logger: logger.With(slog.String("component", "filter"))}
}

// Select persists category, overwriting the previous selection.
// An empty category selects everything.
func (f *FilterState) Select(ctx context.Context, category string) error {
	if category == "" {
		category = domain.CategoryAll
	}

	if err := f.kv.Set(ctx, SelectedCategoryKey, category); err != nil {
		return fmt.Errorf("saving filter selection: %w", err)
	}

	return nil
}

// Current returns the persisted selection, or CategoryAll if none is stored.
func (f *FilterState) Current(ctx context.Context) string {
	v, err := f.kv.Get(ctx, SelectedCategoryKey)
	if err != nil {
		if !domain.IsNotFound(err) {
			f.logger.WarnContext(ctx, "reading filter selection failed", slog.String("error", err.Error()))
		}

		return domain.CategoryAll
	}

	if v == "" {
		return domain.CategoryAll
	}

	return v
}

// Apply returns the quotes matching category without modifying quotes.
func (f *FilterState) Apply(quotes []domain.Quote, category string) []domain.Quote {
	return domain.Filter(quotes, category)
}

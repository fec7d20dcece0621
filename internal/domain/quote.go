package domain

import "strings"

// CategoryAll is the filter sentinel that selects every quote.
const CategoryAll = "all"

// Quote is a piece of text filed under a category.
// Quotes carry no identity: two quotes are the same quote when their
// text matches exactly, regardless of category.
type Quote struct {
	// Text is the quotation itself.
	Text string `json:"text"`

	// Category groups quotes for filtering.
	Category string `json:"category"`
}

// NewQuote builds a quote from user input.
// Both fields are trimmed and must be non-empty afterwards.
func NewQuote(text, category string) (Quote, error) {
	text = strings.TrimSpace(text)
	category = strings.TrimSpace(category)

	if text == "" {
		return Quote{}, NewValidationError("text", "must not be empty")
	}

	if category == "" {
		return Quote{}, NewValidationError("category", "must not be empty")
	}

	return Quote{Text: text, Category: category}, nil
}

// Display renders the quote the way it is shown to the user.
func (q Quote) Display() string {
	return q.Text + " - " + q.Category
}

// SeedQuotes returns the collection used when nothing usable is persisted.
func SeedQuotes() []Quote {
	return []Quote{
		{Text: "The only way to do great work is to love what you do.", Category: "Inspiration"},
		{Text: "Life is what happens when you're busy making other plans.", Category: "Life"},
	}
}

// ServerSeedQuotes returns the collection a fresh remote mirror starts with.
func ServerSeedQuotes() []Quote {
	return []Quote{
		{Text: "Simplicity is prerequisite for reliability.", Category: "Server"},
		{Text: "Make it work, make it right, make it fast.", Category: "Server"},
	}
}

// Clone returns an independent copy of quotes. A nil input yields an empty,
// non-nil slice so callers can serialize it as an empty JSON array.
func Clone(quotes []Quote) []Quote {
	out := make([]Quote, len(quotes))
	copy(out, quotes)

	return out
}

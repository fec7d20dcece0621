package dto

import (
	"github.com/jsamuelsen/quote-keeper/internal/domain"
)

// CreateQuoteRequest is the body of POST /api/v1/quotes.
type CreateQuoteRequest struct {
	Text     string `json:"text"     validate:"notblank"`
	Category string `json:"category" validate:"notblank"`
}

// SelectFilterRequest is the body of PUT /api/v1/filter.
type SelectFilterRequest struct {
	Category string `json:"category" validate:"notblank"`
}

// QuoteResponse is a quote as returned by the API.
type QuoteResponse struct {
	Text     string `json:"text"`
	Category string `json:"category"`
	Display  string `json:"display"`
}

// NewQuoteResponse converts a domain quote.
func NewQuoteResponse(q domain.Quote) QuoteResponse {
	return QuoteResponse{
		Text:     q.Text,
		Category: q.Category,
		Display:  q.Display(),
	}
}

// NewQuoteListResponse converts a slice of quotes. The result is never nil.
func NewQuoteListResponse(quotes []domain.Quote) []QuoteResponse {
	out := make([]QuoteResponse, len(quotes))
	for i, q := range quotes {
		out[i] = NewQuoteResponse(q)
	}

	return out
}

// QuoteListResponse is the body of GET /api/v1/quotes.
type QuoteListResponse struct {
	Category string          `json:"category"`
	Quotes   []QuoteResponse `json:"quotes"`
	Count    int             `json:"count"`
}

// LastQuoteResponse is the body of GET /api/v1/quotes/last.
type LastQuoteResponse struct {
	Display string `json:"display"`
}

// FilterResponse is the body of the filter endpoints.
type FilterResponse struct {
	Category string `json:"category"`
}

// ImportResponse is the body of POST /api/v1/import.
type ImportResponse struct {
	Imported int `json:"imported"`
}

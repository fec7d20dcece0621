package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jsamuelsen/quote-keeper/internal/domain"
)

// ExportFilename is the name offered when a collection is downloaded.
const ExportFilename = "quotes.json"

// quoteRecord is the wire shape of one quote in a document.
// Pointers distinguish a missing field from an empty one.
type quoteRecord struct {
	Text     *string `json:"text"     validate:"required,notblank"`
	Category *string `json:"category" validate:"required,notblank"`
}

var recordValidator = newRecordValidator()

func newRecordValidator() *validator.Validate {
	v := validator.New()

	// notblank rejects strings that are empty after trimming.
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	return v
}

// DecodeQuotes parses a JSON document holding an array of quote objects.
// Any other shape returns a *domain.FormatError. Values are kept verbatim.
func DecodeQuotes(data []byte) ([]domain.Quote, error) {
	records, err := decodeRecords(data)
	if err != nil {
		return nil, err
	}

	return checkRecords(records)
}

// decodeRecords checks the document shape: an array of objects whose text
// and category, when present, are strings.
func decodeRecords(data []byte) ([]quoteRecord, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, domain.NewFormatError("must contain an array of quotes")
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, domain.NewFormatError("parsing JSON: " + err.Error())
	}

	records := make([]quoteRecord, 0, len(raw))

	for i, item := range raw {
		item = bytes.TrimSpace(item)
		if len(item) == 0 || item[0] != '{' {
			return nil, domain.NewRecordFormatError(i, "must be an object")
		}

		var rec quoteRecord
		if err := json.Unmarshal(item, &rec); err != nil {
			return nil, domain.NewRecordFormatError(i, describeDecodeError(err))
		}

		records = append(records, rec)
	}

	return records, nil
}

// checkRecords requires both fields on every record and converts them.
func checkRecords(records []quoteRecord) ([]domain.Quote, error) {
	quotes := make([]domain.Quote, 0, len(records))

	for i, rec := range records {
		if err := recordValidator.Struct(rec); err != nil {
			return nil, domain.NewRecordFormatError(i, describeRecordError(err))
		}

		quotes = append(quotes, domain.Quote{Text: *rec.Text, Category: *rec.Category})
	}

	return quotes, nil
}

func describeDecodeError(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return typeErr.Field + " must be a string"
	}

	return err.Error()
}

func describeRecordError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())

		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		default:
			msgs = append(msgs, field+" must not be blank")
		}
	}

	return strings.Join(msgs, ", ")
}

// EncodeQuotes renders quotes as an indented JSON array.
func EncodeQuotes(quotes []domain.Quote) ([]byte, error) {
	data, err := json.MarshalIndent(domain.Clone(quotes), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding quotes: %w", err)
	}

	return data, nil
}

// Transfer moves whole collections in and out of the quote store.
type Transfer struct {
	store    *QuoteStore
	executor *Executor
	logger   *slog.Logger
}

// TransferConfig contains configuration for Transfer.
type TransferConfig struct {
	Store  *QuoteStore
	Logger *slog.Logger
}

// NewTransfer creates an import/export adapter over store.
func NewTransfer(cfg TransferConfig) *Transfer {
	if cfg.Store == nil {
		panic("app.NewTransfer: Store is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger = logger.With(slog.String("component", "transfer"))

	return &Transfer{
		store:    cfg.Store,
		executor: NewExecutor(logger),
		logger:   logger,
	}
}

// ExportAll serializes the full collection in order, without filtering.
func (t *Transfer) ExportAll() ([]byte, error) {
	return EncodeQuotes(t.store.Quotes())
}

// Export writes the full collection to w.
func (t *Transfer) Export(ctx context.Context, w io.Writer) error {
	data, err := t.ExportAll()
	if err != nil {
		return err
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}

	t.logger.DebugContext(ctx, "exported quotes", slog.Int("bytes", len(data)))

	return nil
}

// importOperation parses the document in Perform, checks every record in
// Verify and appends in Archive. Respond reports how many were appended.
func (t *Transfer) importOperation() Operation[[]byte, []quoteRecord, []domain.Quote, int] {
	return Operation[[]byte, []quoteRecord, []domain.Quote, int]{
		Name: "import",
		Validate: func(_ context.Context, doc []byte) error {
			if len(bytes.TrimSpace(doc)) == 0 {
				return domain.NewFormatError("document is empty")
			}

			return nil
		},
		Perform: func(_ context.Context, doc []byte) ([]quoteRecord, error) {
			return decodeRecords(doc)
		},
		Verify: func(_ context.Context, _ []byte, records []quoteRecord) ([]domain.Quote, error) {
			return checkRecords(records)
		},
		Archive: func(ctx context.Context, _ []byte, quotes []domain.Quote) error {
			return t.store.AppendAll(ctx, quotes)
		},
		Respond: func(_ context.Context, _ []byte, quotes []domain.Quote) (int, error) {
			return len(quotes), nil
		},
	}
}

// Import reads a document from r and appends every quote in it, without
// dedup. A malformed document leaves the collection untouched and returns an
// error wrapping domain.ErrFormat.
func (t *Transfer) Import(ctx context.Context, r io.Reader) (int, error) {
	doc, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("reading import: %w", err)
	}

	n, err := Execute(ctx, t.executor, t.importOperation(), doc)
	if err != nil {
		return 0, fmt.Errorf("importing quotes: %w", err)
	}

	return n, nil
}

package acl

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jsamuelsen/quote-keeper/internal/adapters/clients"
	"github.com/jsamuelsen/quote-keeper/internal/domain"
	"github.com/jsamuelsen/quote-keeper/internal/platform/logging"
)

// Categories assigned to translated todo records.
const (
	CategoryCompleted  = "Completed"
	CategoryIncomplete = "Incomplete"
)

// TodoMirrorConfig contains configuration for the todo mirror.
type TodoMirrorConfig struct {
	// Client is the HTTP client to use for requests.
	// The client's BaseURL should point at the remote API.
	Client *clients.Client

	// Name identifies the remote in errors, logs and health checks.
	// Defaults to the client's service name.
	Name string

	// FetchPath is the path listing the remote records.
	FetchPath string

	// PushPath is the path the collection is posted to.
	PushPath string

	// Logger is the structured logger.
	Logger *slog.Logger
}

// TodoMirror implements ports.RemoteMirror over a JSON todo API. Each todo
// becomes a quote: the title is the text and the completion flag picks the
// category.
type TodoMirror struct {
	BaseAdapter

	fetchPath string
	pushPath  string
	logger    *slog.Logger
}

// NewTodoMirror creates a new todo mirror adapter.
// Panics if Client is nil. Defaults logger to slog.Default() if nil.
func NewTodoMirror(cfg TodoMirrorConfig) *TodoMirror {
	if cfg.Client == nil {
		panic("TodoMirror: Client is required")
	}

	name := cfg.Name
	if name == "" {
		name = cfg.Client.ServiceName()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &TodoMirror{
		BaseAdapter: NewBaseAdapter(cfg.Client, name),
		fetchPath:   cfg.FetchPath,
		pushPath:    cfg.PushPath,
		logger:      logger.With(slog.String("component", "acl.TodoMirror")),
	}
}

// todoRecord is the external DTO served by the remote.
// This is an internal type - never exposed outside the ACL.
type todoRecord struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// pushRecord is the wire shape of one posted quote.
type pushRecord struct {
	Text     string `json:"text"`
	Category string `json:"category"`
}

// Fetch lists the remote todos and translates them into quotes. Records
// with a blank title are dropped.
// Implements ports.RemoteMirror.
func (m *TodoMirror) Fetch(ctx context.Context) ([]domain.Quote, error) {
	m.logger.Log(ctx, logging.LevelTrace, "starting request", slog.String("path", m.fetchPath))

	body, err := m.Get(ctx, m.fetchPath, "fetch")
	if err != nil {
		return nil, err
	}

	records, err := DecodeResponse[[]todoRecord](body)
	if err != nil {
		return nil, domain.NewUnavailableError(m.ServiceName(), err.Error())
	}

	quotes := TranslateSlice(*records, translateTodo)

	m.logger.DebugContext(ctx, "fetched remote collection",
		slog.Int("records", len(*records)),
		slog.Int("quotes", len(quotes)),
	)

	return quotes, nil
}

// Push posts the collection as a JSON array. Any 2xx response is success.
// Implements ports.RemoteMirror.
func (m *TodoMirror) Push(ctx context.Context, quotes []domain.Quote) error {
	records := make([]pushRecord, len(quotes))
	for i, q := range quotes {
		records[i] = pushRecord{Text: q.Text, Category: q.Category}
	}

	m.logger.Log(ctx, logging.LevelTrace, "starting request",
		slog.String("path", m.pushPath),
		slog.Int("quotes", len(records)),
	)

	body, err := m.PostJSON(ctx, m.pushPath, records, "push")
	if err != nil {
		return err
	}

	_ = body.Close()

	m.logger.DebugContext(ctx, "pushed collection", slog.Int("quotes", len(records)))

	return nil
}

// translateTodo isolates the domain from the todo representation.
func translateTodo(ext *todoRecord) (domain.Quote, bool) {
	if strings.TrimSpace(ext.Title) == "" {
		return domain.Quote{}, false
	}

	category := CategoryIncomplete
	if ext.Completed {
		category = CategoryCompleted
	}

	return domain.Quote{Text: ext.Title, Category: category}, true
}

// Name returns the health check name for this mirror.
// Implements ports.HealthChecker.
func (m *TodoMirror) Name() string {
	return m.ServiceName()
}

// Check verifies the fetch path answers with a 2xx status.
// Implements ports.HealthChecker.
func (m *TodoMirror) Check(ctx context.Context) error {
	body, err := m.Get(ctx, m.fetchPath, "health check")
	if err != nil {
		return fmt.Errorf("checking %s: %w", m.ServiceName(), err)
	}

	return body.Close()
}

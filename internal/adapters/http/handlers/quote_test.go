package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-keeper/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-keeper/internal/adapters/storage/memory"
	"github.com/jsamuelsen/quote-keeper/internal/app"
	"github.com/jsamuelsen/quote-keeper/internal/domain"
	"github.com/jsamuelsen/quote-keeper/internal/mocks"
	"github.com/jsamuelsen/quote-keeper/internal/ports"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// setupQuoteHandler creates a QuoteHandler over memory stores holding quotes.
// A nil mirror uses the stored mirror on the same store.
func setupQuoteHandler(t testing.TB, mirror ports.RemoteMirror, quotes ...domain.Quote) (*gin.Engine, *app.QuoteService) {
	t.Helper()

	ctx := context.Background()
	kv := memory.New()

	store := app.NewQuoteStore(app.QuoteStoreConfig{Storage: kv, Logger: discardLogger()})
	store.Load(ctx)

	if quotes == nil {
		quotes = []domain.Quote{}
	}
	require.NoError(t, store.Save(ctx, quotes))

	if mirror == nil {
		mirror = app.NewStoredMirror(kv, discardLogger())
	}

	service := app.NewQuoteService(app.QuoteServiceConfig{
		Store:    store,
		Filter:   app.NewFilterState(kv, discardLogger()),
		Transfer: app.NewTransfer(app.TransferConfig{Store: store, Logger: discardLogger()}),
		Engine: app.NewSyncEngine(app.SyncEngineConfig{
			Store:  store,
			Mirror: mirror,
			Logger: discardLogger(),
		}),
		Session: memory.New(),
		Logger:  discardLogger(),
	})

	router := gin.New()
	NewQuoteHandler(service).RegisterQuoteRoutes(router.Group("/api/v1"))

	return router, service
}

func serve(router *gin.Engine, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, body)

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	router.ServeHTTP(w, req)

	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())

	return v
}

func sample() []domain.Quote {
	return []domain.Quote{
		{Text: "Stay hungry.", Category: "Life"},
		{Text: "Ship it.", Category: "Work"},
		{Text: "Breathe.", Category: "Life"},
	}
}

func TestNewQuoteHandler_PanicsWithoutService(t *testing.T) {
	assert.Panics(t, func() {
		NewQuoteHandler(nil)
	})
}

func TestQuoteHandler_ListQuotes(t *testing.T) {
	router, service := setupQuoteHandler(t, nil, sample()...)

	t.Run("defaults to all", func(t *testing.T) {
		w := serve(router, http.MethodGet, "/api/v1/quotes", nil, "")

		require.Equal(t, http.StatusOK, w.Code)

		resp := decode[dto.QuoteListResponse](t, w)
		assert.Equal(t, domain.CategoryAll, resp.Category)
		assert.Equal(t, 3, resp.Count)
		assert.Equal(t, "Stay hungry. - Life", resp.Quotes[0].Display)
	})

	t.Run("explicit category", func(t *testing.T) {
		w := serve(router, http.MethodGet, "/api/v1/quotes?category=Life", nil, "")

		resp := decode[dto.QuoteListResponse](t, w)
		assert.Equal(t, 2, resp.Count)
		assert.Equal(t, "Breathe.", resp.Quotes[1].Text)
	})

	t.Run("follows the persisted selection", func(t *testing.T) {
		require.NoError(t, service.SelectCategory(context.Background(), "Work"))

		w := serve(router, http.MethodGet, "/api/v1/quotes", nil, "")

		resp := decode[dto.QuoteListResponse](t, w)
		assert.Equal(t, "Work", resp.Category)
		assert.Equal(t, 1, resp.Count)
	})

	t.Run("unknown category is an empty list", func(t *testing.T) {
		w := serve(router, http.MethodGet, "/api/v1/quotes?category=Nope", nil, "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"category":"Nope","quotes":[],"count":0}`, w.Body.String())
	})
}

func TestQuoteHandler_CreateQuote(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{
			name:       "valid quote is trimmed",
			body:       `{"text":"  Keep going.  ","category":" Life "}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "missing text",
			body:       `{"category":"Life"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   dto.ErrorCodeValidation,
		},
		{
			name:       "whitespace category",
			body:       `{"text":"Keep going.","category":"   "}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   dto.ErrorCodeValidation,
		},
		{
			name:       "malformed JSON",
			body:       `{"text":`,
			wantStatus: http.StatusBadRequest,
			wantCode:   dto.ErrorCodeBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, service := setupQuoteHandler(t, nil)

			w := serve(router, http.MethodPost, "/api/v1/quotes", strings.NewReader(tt.body), "application/json")

			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			if tt.wantCode != "" {
				resp := decode[dto.ErrorResponse](t, w)
				assert.Equal(t, tt.wantCode, resp.Error.Code)
				assert.Zero(t, service.Len())

				return
			}

			resp := decode[dto.QuoteResponse](t, w)
			assert.Equal(t, "Keep going.", resp.Text)
			assert.Equal(t, "Life", resp.Category)
			assert.Equal(t, "Keep going. - Life", resp.Display)
			assert.Equal(t, 1, service.Len())
		})
	}
}

func TestQuoteHandler_RandomAndLast(t *testing.T) {
	router, _ := setupQuoteHandler(t, nil, domain.Quote{Text: "Only one.", Category: "Solo"})

	w := serve(router, http.MethodGet, "/api/v1/quotes/last", nil, "")
	require.Equal(t, http.StatusNotFound, w.Code)

	w = serve(router, http.MethodGet, "/api/v1/quotes/random", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Only one. - Solo", decode[dto.QuoteResponse](t, w).Display)

	w = serve(router, http.MethodGet, "/api/v1/quotes/last", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Only one. - Solo", decode[dto.LastQuoteResponse](t, w).Display)
}

func TestQuoteHandler_RandomQuote_EmptySelection(t *testing.T) {
	router, service := setupQuoteHandler(t, nil, sample()...)
	require.NoError(t, service.SelectCategory(context.Background(), "Missing"))

	w := serve(router, http.MethodGet, "/api/v1/quotes/random", nil, "")

	require.Equal(t, http.StatusNotFound, w.Code)

	resp := decode[dto.ErrorResponse](t, w)
	assert.Equal(t, dto.ErrorCodeNotFound, resp.Error.Code)
	assert.Equal(t, app.MsgNoQuotes, resp.Error.Message)
}

func TestQuoteHandler_Categories(t *testing.T) {
	router, _ := setupQuoteHandler(t, nil, sample()...)

	w := serve(router, http.MethodGet, "/api/v1/categories", nil, "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"all", "Life", "Work"}, decode[[]string](t, w))
}

func TestQuoteHandler_Filter(t *testing.T) {
	router, service := setupQuoteHandler(t, nil, sample()...)

	w := serve(router, http.MethodGet, "/api/v1/filter", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.CategoryAll, decode[dto.FilterResponse](t, w).Category)

	w = serve(router, http.MethodPut, "/api/v1/filter", strings.NewReader(`{"category":"Work"}`), "application/json")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Work", service.CurrentCategory(context.Background()))

	w = serve(router, http.MethodPut, "/api/v1/filter", strings.NewReader(`{"category":""}`), "application/json")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Work", service.CurrentCategory(context.Background()))
}

func TestQuoteHandler_Export(t *testing.T) {
	router, _ := setupQuoteHandler(t, nil, sample()...)

	w := serve(router, http.MethodGet, "/api/v1/export", nil, "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="quotes.json"`, w.Header().Get("Content-Disposition"))
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

	got, err := app.DecodeQuotes(w.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, sample(), got)
	assert.Contains(t, w.Body.String(), "\n  {", "export is indented")
}

func TestQuoteHandler_Import(t *testing.T) {
	doc := `[{"text":"Imported one.","category":"New"},{"text":"Stay hungry.","category":"Life"}]`

	t.Run("raw body appends without dedup", func(t *testing.T) {
		router, service := setupQuoteHandler(t, nil, sample()...)

		w := serve(router, http.MethodPost, "/api/v1/import", strings.NewReader(doc), "application/json")

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, 2, decode[dto.ImportResponse](t, w).Imported)
		assert.Equal(t, 5, service.Len())
	})

	t.Run("multipart upload", func(t *testing.T) {
		router, service := setupQuoteHandler(t, nil)

		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreateFormFile("file", "quotes.json")
		require.NoError(t, err)
		_, err = part.Write([]byte(doc))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		w := serve(router, http.MethodPost, "/api/v1/import", &buf, mw.FormDataContentType())

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, 2, service.Len())
	})

	t.Run("multipart without file field", func(t *testing.T) {
		router, _ := setupQuoteHandler(t, nil)

		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		require.NoError(t, mw.WriteField("other", "x"))
		require.NoError(t, mw.Close())

		w := serve(router, http.MethodPost, "/api/v1/import", &buf, mw.FormDataContentType())

		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrorCodeBadRequest, decode[dto.ErrorResponse](t, w).Error.Code)
	})

	for name, body := range map[string]string{
		"object instead of array": `{"text":"x","category":"y"}`,
		"blank text":              `[{"text":"  ","category":"y"}]`,
		"number text":             `[{"text":1,"category":"y"}]`,
		"empty document":          ``,
	} {
		t.Run(name, func(t *testing.T) {
			router, service := setupQuoteHandler(t, nil, sample()...)

			w := serve(router, http.MethodPost, "/api/v1/import", strings.NewReader(body), "application/json")

			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Equal(t, dto.ErrorCodeFormat, decode[dto.ErrorResponse](t, w).Error.Code)
			assert.Equal(t, 3, service.Len(), "a rejected import changes nothing")
		})
	}
}

func TestQuoteHandler_Sync(t *testing.T) {
	t.Run("first round merges then second pushes", func(t *testing.T) {
		router, service := setupQuoteHandler(t, nil, sample()...)

		w := serve(router, http.MethodPost, "/api/v1/sync", nil, "")

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		resp := decode[map[string]any](t, w)
		assert.Equal(t, string(app.SyncMerged), resp["outcome"])
		assert.EqualValues(t, 2, resp["added"])
		assert.Equal(t, 5, service.Len())

		w = serve(router, http.MethodPost, "/api/v1/sync", nil, "")

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, string(app.SyncPushed), decode[map[string]any](t, w)["outcome"])
	})

	t.Run("unreachable remote is 503", func(t *testing.T) {
		mirror := mocks.NewMockRemoteMirror(t)
		mirror.EXPECT().Fetch(mock.Anything).
			Return(nil, domain.NewUnavailableError("quote-mirror", "connection refused"))

		router, service := setupQuoteHandler(t, mirror, sample()...)

		w := serve(router, http.MethodPost, "/api/v1/sync", nil, "")

		require.Equal(t, http.StatusServiceUnavailable, w.Code)

		resp := decode[dto.ErrorResponse](t, w)
		assert.Equal(t, dto.ErrorCodeUnavailable, resp.Error.Code)
		assert.Equal(t, app.MsgSyncFailed, resp.Error.Message)
		assert.Equal(t, 3, service.Len())
	})
}

func TestQuoteHandler_RegisterQuoteRoutes(t *testing.T) {
	router, _ := setupQuoteHandler(t, nil)

	routeMap := make(map[string]bool)
	for _, r := range router.Routes() {
		routeMap[r.Method+" "+r.Path] = true
	}

	for _, expected := range []string{
		"GET /api/v1/quotes",
		"POST /api/v1/quotes",
		"GET /api/v1/quotes/random",
		"GET /api/v1/quotes/last",
		"GET /api/v1/categories",
		"GET /api/v1/filter",
		"PUT /api/v1/filter",
		"GET /api/v1/export",
		"POST /api/v1/import",
		"POST /api/v1/sync",
	} {
		assert.True(t, routeMap[expected], "missing route: %s", expected)
	}
}

package handlers

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-keeper/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-keeper/internal/app"
	"github.com/jsamuelsen/quote-keeper/internal/domain"
	"github.com/jsamuelsen/quote-keeper/internal/platform/logging"
)

// ExportFilename is the download name of the exported collection.
const ExportFilename = "quotes.json"

// importFormField is the multipart field carrying an uploaded document.
const importFormField = "file"

// QuoteHandler handles quote-related HTTP endpoints.
type QuoteHandler struct {
	service *app.QuoteService
}

// NewQuoteHandler creates a new quote handler.
func NewQuoteHandler(service *app.QuoteService) *QuoteHandler {
	if service == nil {
		panic("handlers.NewQuoteHandler: service is required")
	}

	return &QuoteHandler{
		service: service,
	}
}

// ListQuotes handles GET /api/v1/quotes
// Returns the quotes in ?category=, or in the current selection when the
// parameter is absent.
func (h *QuoteHandler) ListQuotes(c *gin.Context) {
	ctx := c.Request.Context()

	category, ok := c.GetQuery("category")
	if !ok || strings.TrimSpace(category) == "" {
		category = h.service.CurrentCategory(ctx)
	}

	quotes := h.service.Quotes(category)

	c.JSON(http.StatusOK, dto.QuoteListResponse{
		Category: category,
		Quotes:   dto.NewQuoteListResponse(quotes),
		Count:    len(quotes),
	})
}

// CreateQuote handles POST /api/v1/quotes
// Adds a quote and returns it with 201.
func (h *QuoteHandler) CreateQuote(c *gin.Context) {
	var req dto.CreateQuoteRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	q, err := h.service.AddQuote(c.Request.Context(), req.Text, req.Category)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewQuoteResponse(q))
}

// RandomQuote handles GET /api/v1/quotes/random
// Returns a random quote from the current selection, 404 when it is empty.
func (h *QuoteHandler) RandomQuote(c *gin.Context) {
	q, err := h.service.ShowRandom(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuoteResponse(q))
}

// LastQuote handles GET /api/v1/quotes/last
// Returns the last quote shown in this process, 404 before the first.
func (h *QuoteHandler) LastQuote(c *gin.Context) {
	display, err := h.service.LastQuote(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.LastQuoteResponse{Display: display})
}

// Categories handles GET /api/v1/categories
// Returns the filter options: "all" followed by every category in first-seen order.
func (h *QuoteHandler) Categories(c *gin.Context) {
	categories := h.service.Categories()

	options := make([]string, 0, len(categories)+1)
	options = append(options, domain.CategoryAll)
	options = append(options, categories...)

	c.JSON(http.StatusOK, options)
}

// GetFilter handles GET /api/v1/filter
func (h *QuoteHandler) GetFilter(c *gin.Context) {
	c.JSON(http.StatusOK, dto.FilterResponse{Category: h.service.CurrentCategory(c.Request.Context())})
}

// SelectFilter handles PUT /api/v1/filter
// Persists the selection. Unknown categories are accepted and simply match nothing.
func (h *QuoteHandler) SelectFilter(c *gin.Context) {
	var req dto.SelectFilterRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	if err := h.service.SelectCategory(c.Request.Context(), req.Category); err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FilterResponse{Category: req.Category})
}

// Export handles GET /api/v1/export
// Streams the whole collection as an indented JSON attachment.
func (h *QuoteHandler) Export(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.service.Export(c.Request.Context(), &buf); err != nil {
		dto.HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+ExportFilename+`"`)
	c.Data(http.StatusOK, "application/json", buf.Bytes())
}

// Import handles POST /api/v1/import
// Accepts the document as the raw body or as the multipart field "file".
// A document of the wrong shape yields 400 FORMAT_ERROR and changes nothing.
func (h *QuoteHandler) Import(c *gin.Context) {
	body, closeBody, err := importBody(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest,
			dto.NewErrorResponse(dto.ErrorCodeBadRequest, err.Error()).WithTraceID(dto.GetTraceID(c)))
		return
	}
	defer closeBody()

	n, err := h.service.Import(c.Request.Context(), body)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ImportResponse{Imported: n})
}

func importBody(c *gin.Context) (io.Reader, func(), error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return c.Request.Body, func() {}, nil
	}

	header, err := c.FormFile(importFormField)
	if err != nil {
		return nil, nil, err
	}

	f, err := header.Open()
	if err != nil {
		return nil, nil, err
	}

	return f, func() { _ = f.Close() }, nil
}

// Sync handles POST /api/v1/sync
// Runs one round now. A failed round answers 503 whatever the cause.
func (h *QuoteHandler) Sync(c *gin.Context) {
	res, err := h.service.Sync(c.Request.Context())
	if err != nil {
		logging.FromContext(c.Request.Context()).Warn("manual sync failed", slog.String("error", err.Error()))

		c.AbortWithStatusJSON(http.StatusServiceUnavailable,
			dto.NewErrorResponse(dto.ErrorCodeUnavailable, app.MsgSyncFailed).WithTraceID(dto.GetTraceID(c)))
		return
	}

	c.JSON(http.StatusOK, res)
}

// RegisterQuoteRoutes registers quote routes on the given router group.
func (h *QuoteHandler) RegisterQuoteRoutes(rg *gin.RouterGroup) {
	quotes := rg.Group("/quotes")
	quotes.GET("", h.ListQuotes)
	quotes.POST("", h.CreateQuote)
	quotes.GET("/random", h.RandomQuote)
	quotes.GET("/last", h.LastQuote)

	rg.GET("/categories", h.Categories)
	rg.GET("/filter", h.GetFilter)
	rg.PUT("/filter", h.SelectFilter)
	rg.GET("/export", h.Export)
	rg.POST("/import", h.Import)
	rg.POST("/sync", h.Sync)
}

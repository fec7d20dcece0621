package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/jsamuelsen/quote-keeper/internal/platform/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestConfigFrom(t *testing.T) {
	cfg := &config.Config{
		App: config.AppConfig{Name: "quote-keeper", Version: "1.2.3", Environment: "test"},
		Telemetry: config.TelemetryConfig{
			Enabled:      true,
			Endpoint:     "http://collector:4317",
			SamplingRate: 0.5,
		},
	}

	got := ConfigFrom(cfg)

	assert.Equal(t, &Config{
		Enabled:      true,
		Endpoint:     "http://collector:4317",
		ServiceName:  "quote-keeper",
		Version:      "1.2.3",
		Environment:  "test",
		SamplingRate: 0.5,
	}, got)

	cfg.Telemetry.ServiceName = "quotes-api"
	assert.Equal(t, "quotes-api", ConfigFrom(cfg).ServiceName)
}

func TestNew_Disabled(t *testing.T) {
	p, err := New(context.Background(), &Config{Enabled: false})
	require.NoError(t, err)

	assert.False(t, p.Enabled())
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestMiddleware_PassesThrough(t *testing.T) {
	router := gin.New()
	router.Use(Middleware("quote-keeper")...)
	router.GET("/api/v1/quotes", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/quotes", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestMetricsMiddleware_RecordsRoute(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test")

	router := gin.New()
	router.Use(metricsMiddleware(meter))
	router.GET("/api/v1/quotes/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for range 3 {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/quotes/7", nil))
	}

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	byName := map[string]metricdata.Metrics{}
	for _, m := range rm.ScopeMetrics[0].Metrics {
		byName[m.Name] = m
	}

	total, ok := byName["http.server.request.total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, total.DataPoints, 1)
	assert.Equal(t, int64(3), total.DataPoints[0].Value)

	route, ok := total.DataPoints[0].Attributes.Value("http.route")
	require.True(t, ok)
	assert.Equal(t, "/api/v1/quotes/:id", route.AsString())

	assert.Contains(t, byName, "http.server.request.duration")
	assert.Contains(t, byName, "http.server.active_requests")
}

func TestMetricsMiddleware_EchoesTraceID(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	router := gin.New()
	router.Use(func(c *gin.Context) {
		ctx, span := tp.Tracer("test").Start(c.Request.Context(), "request")
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})
	router.Use(metricsMiddleware(sdkmetric.NewMeterProvider().Meter("test")))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Len(t, w.Header().Get(HeaderTraceID), 32)
}

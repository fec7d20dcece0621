package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/quote-keeper/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quote-keeper/internal/platform/config"
	"github.com/jsamuelsen/quote-keeper/internal/platform/logging"
)

const instrumentationName = "github.com/jsamuelsen/quote-keeper/internal/adapters/clients"

// Fallbacks for zero-valued Config fields.
const (
	defaultTimeout      = 10 * time.Second
	defaultMaxAttempts  = 1
	defaultMultiplier   = 2.0
	defaultInitialDelay = 100 * time.Millisecond
	defaultMaxDelay     = 5 * time.Second

	defaultMaxIdleConns        = 100
	defaultMaxIdleConnsPerHost = 10
	defaultIdleConnTimeout     = 90 * time.Second
)

// Config configures a Client.
type Config struct {
	// BaseURL prefixes every request path, e.g. "https://jsonplaceholder.typicode.com".
	BaseURL string

	// ServiceName names the remote in logs, spans and metrics.
	ServiceName string

	// Timeout bounds a single attempt. Retries and backoff come on top.
	Timeout time.Duration

	Retry     config.RetryConfig
	Circuit   config.CircuitBreakerConfig
	Transport config.TransportConfig

	// UserAgent is sent on every request when set.
	UserAgent string

	Logger *slog.Logger
}

func (cfg *Config) fillDefaults() {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	r := &cfg.Retry
	if r.MaxAttempts <= 0 {
		r.MaxAttempts = defaultMaxAttempts
	}

	if r.InitialInterval <= 0 {
		r.InitialInterval = defaultInitialDelay
	}

	if r.MaxInterval <= 0 {
		r.MaxInterval = defaultMaxDelay
	}

	if r.Multiplier <= 1 {
		r.Multiplier = defaultMultiplier
	}

	tr := &cfg.Transport
	if tr.MaxIdleConns <= 0 {
		tr.MaxIdleConns = defaultMaxIdleConns
	}

	if tr.MaxIdleConnsPerHost <= 0 {
		tr.MaxIdleConnsPerHost = defaultMaxIdleConnsPerHost
	}

	if tr.IdleConnTimeout <= 0 {
		tr.IdleConnTimeout = defaultIdleConnTimeout
	}
}

// Client talks to one remote mirror. Every request is guarded by a circuit
// breaker, retried with exponential backoff on transport errors and 5xx
// responses, traced, measured, and stamped with the caller's request and
// correlation IDs.
type Client struct {
	http      *http.Client
	baseURL   string
	remote    string
	userAgent string
	retry     config.RetryConfig
	breaker   *CircuitBreaker
	logger    *slog.Logger

	tracer   trace.Tracer
	duration metric.Float64Histogram
	requests metric.Int64Counter
}

// New builds a Client. cfg is updated in place with defaults.
func New(cfg *Config) (*Client, error) {
	switch {
	case cfg == nil:
		return nil, errors.New("config is required")
	case cfg.ServiceName == "":
		return nil, errors.New("service name is required")
	}

	cfg.fillDefaults()

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger = logger.With(
		slog.String("component", "clients.Client"),
		slog.String("remote", cfg.ServiceName),
	)

	c := &Client{
		http: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        cfg.Transport.MaxIdleConns,
				MaxIdleConnsPerHost: cfg.Transport.MaxIdleConnsPerHost,
				IdleConnTimeout:     cfg.Transport.IdleConnTimeout,
			},
		},
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		remote:    cfg.ServiceName,
		userAgent: cfg.UserAgent,
		retry:     cfg.Retry,
		logger:    logger,
		tracer:    otel.Tracer(instrumentationName),
		breaker: NewCircuitBreaker(CircuitBreakerConfig{
			MaxFailures:   cfg.Circuit.MaxFailures,
			Timeout:       cfg.Circuit.Timeout,
			HalfOpenLimit: cfg.Circuit.HalfOpenLimit,
		}),
	}

	c.breaker.OnStateChange(func(from, to State) {
		logger.Warn("circuit breaker state changed",
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
	})

	if err := c.initMetrics(otel.Meter(instrumentationName)); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Client) initMetrics(meter metric.Meter) error {
	var err error

	c.duration, err = meter.Float64Histogram(
		"http.client.request.duration",
		metric.WithDescription("Duration of requests to the remote mirror"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("creating duration metric: %w", err)
	}

	c.requests, err = meter.Int64Counter(
		"http.client.request.total",
		metric.WithDescription("Requests sent to the remote mirror"),
	)
	if err != nil {
		return fmt.Errorf("creating request counter: %w", err)
	}

	return nil
}

// Do sends req through the breaker and the retry loop.
//
// A retried request replays its body through req.GetBody, which
// http.NewRequest sets for in-memory bodies such as those Get, Post and
// PostJSON build. A streaming body without GetBody is sent once.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	start := time.Now()
	logger := logging.FromContext(ctx).With(
		slog.String("remote", c.remote),
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path),
	)

	if !c.breaker.Allow() {
		c.observe(ctx, req.Method, 0, time.Since(start), "circuit_open")
		logger.Warn("request blocked by circuit breaker")

		return nil, ErrCircuitOpen
	}

	c.stamp(ctx, req)

	ctx, span := c.tracer.Start(ctx, "HTTP "+req.Method+" "+c.remote,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("http.url", req.URL.String()),
			attribute.String("peer.service", c.remote),
		),
	)
	defer span.End()

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.send(ctx, req, logger)
	elapsed := time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		// The caller gave up; the remote is not to blame.
		if ctx.Err() != nil {
			c.breaker.Release()
			c.observe(ctx, req.Method, 0, elapsed, "context_canceled")

			return nil, err
		}

		c.breaker.RecordFailure()
		c.observe(ctx, req.Method, 0, elapsed, "error")
		logger.Error("request failed", slog.Duration("duration", elapsed), slog.Any("error", err))

		return nil, fmt.Errorf("%w: %w", ErrMaxRetriesExceeded, err)
	}

	c.breaker.RecordSuccess()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode >= http.StatusBadRequest {
		span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", resp.StatusCode))
	}

	c.observe(ctx, req.Method, resp.StatusCode, elapsed, fmt.Sprintf("%dxx", resp.StatusCode/100))
	logger.Debug("request completed",
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", elapsed),
	)

	return resp, nil
}

// send runs the retry loop. Only transport errors that look transient and
// 5xx responses are retried.
func (c *Client) send(ctx context.Context, req *http.Request, logger *slog.Logger) (*http.Response, error) {
	tries := uint(c.retry.MaxAttempts)
	if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
		tries = 1
	}

	attempt := 0
	try := func() (*http.Response, error) {
		attempt++

		if attempt > 1 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, backoff.Permanent(fmt.Errorf("rewinding request body: %w", err))
			}

			req.Body = body
		}

		resp, err := c.http.Do(req.WithContext(ctx))
		if err != nil {
			if !isRetryableError(err) {
				return nil, backoff.Permanent(err)
			}

			return nil, err
		}

		if resp.StatusCode >= http.StatusInternalServerError {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()

			return nil, fmt.Errorf("server error: %d", resp.StatusCode)
		}

		return resp, nil
	}

	return backoff.Retry(ctx, try,
		backoff.WithBackOff(c.newBackOff()),
		backoff.WithMaxTries(tries),
		backoff.WithNotify(func(err error, wait time.Duration) {
			logger.Debug("retrying request",
				slog.Int("attempt", attempt+1),
				slog.Duration("backoff", wait),
				slog.Any("error", err),
			)
		}),
	)
}

// newBackOff returns a fresh delay schedule for one request.
func (c *Client) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retry.InitialInterval
	b.MaxInterval = c.retry.MaxInterval
	b.Multiplier = c.retry.Multiplier
	b.RandomizationFactor = c.retry.JitterFactor
	b.Reset()

	return b
}

// Get sends a GET for path.
func (c *Client) Get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(path), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	return c.Do(ctx, req)
}

// Post sends body as JSON to path.
func (c *Client) Post(ctx context.Context, path string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(path), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	return c.Do(ctx, req)
}

// PostJSON encodes v and posts it to path.
func (c *Client) PostJSON(ctx context.Context, path string, v any) (*http.Response, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding request body: %w", err)
	}

	return c.Post(ctx, path, body)
}

// CircuitState reports the breaker's state.
func (c *Client) CircuitState() State {
	return c.breaker.State()
}

// ServiceName returns the remote's name.
func (c *Client) ServiceName() string {
	return c.remote
}

func (c *Client) stamp(ctx context.Context, req *http.Request) {
	if id := middleware.RequestIDFromContext(ctx); id != "" {
		req.Header.Set(middleware.HeaderRequestID, id)
	}

	if id := middleware.CorrelationIDFromContext(ctx); id != "" {
		req.Header.Set(middleware.HeaderCorrelationID, id)
	}

	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
}

func (c *Client) url(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return c.baseURL + path
}

func (c *Client) observe(ctx context.Context, method string, status int, elapsed time.Duration, result string) {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("peer.service", c.remote),
		attribute.String("result", result),
	}

	if status > 0 {
		attrs = append(attrs, attribute.Int("http.status_code", status))
	}

	set := metric.WithAttributes(attrs...)
	c.duration.Record(ctx, elapsed.Seconds(), set)
	c.requests.Add(ctx, 1, set)
}

// isRetryableError reports whether err is a transport failure worth another
// attempt. Cancellation never is.
func isRetryableError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var opErr *net.OpError

	return errors.As(err, &opErr)
}

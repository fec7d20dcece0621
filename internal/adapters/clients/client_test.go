package clients

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-keeper/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quote-keeper/internal/platform/config"
)

func testConfig(baseURL string) *Config {
	return &Config{
		BaseURL:     baseURL,
		ServiceName: "mirror",
		Timeout:     5 * time.Second,
		Retry: config.RetryConfig{
			MaxAttempts:     3,
			InitialInterval: time.Millisecond,
			MaxInterval:     10 * time.Millisecond,
			Multiplier:      2.0,
		},
		Circuit: config.CircuitBreakerConfig{
			MaxFailures:   5,
			Timeout:       time.Second,
			HalfOpenLimit: 2,
		},
	}
}

// remote is a scripted mirror. Each request gets the next status in the
// script; the last one repeats.
type remote struct {
	srv    *httptest.Server
	script []int
	delay  time.Duration

	mu     sync.Mutex
	calls  int
	bodies []string
	header http.Header
}

func newRemote(t *testing.T, script ...int) *remote {
	t.Helper()

	return newSlowRemote(t, 0, script...)
}

// newSlowRemote answers every request after delay, or not at all if the
// caller hangs up first.
func newSlowRemote(t *testing.T, delay time.Duration, script ...int) *remote {
	t.Helper()

	r := &remote{script: script, delay: delay}
	r.srv = httptest.NewServer(http.HandlerFunc(r.serve))
	t.Cleanup(r.srv.Close)

	return r
}

func (r *remote) serve(w http.ResponseWriter, req *http.Request) {
	body, _ := io.ReadAll(req.Body)

	r.mu.Lock()
	status := r.script[min(r.calls, len(r.script)-1)]
	r.calls++
	r.bodies = append(r.bodies, string(body))
	r.header = req.Header.Clone()
	r.mu.Unlock()

	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-req.Context().Done():
			return
		}
	}

	w.WriteHeader(status)
}

func (r *remote) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.calls
}

func (r *remote) Bodies() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.bodies...)
}

func (r *remote) Header() http.Header {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.header
}

func (r *remote) client(t *testing.T, tweak ...func(*Config)) *Client {
	t.Helper()

	cfg := testConfig(r.srv.URL)
	for _, fn := range tweak {
		fn(cfg)
	}

	c, err := New(cfg)
	require.NoError(t, err)

	return c
}

func drain(t *testing.T, resp *http.Response) {
	t.Helper()

	_, _ = io.Copy(io.Discard, resp.Body)
	assert.NoError(t, resp.Body.Close())
}

func TestNew_Rejects(t *testing.T) {
	_, err := New(nil)
	require.ErrorContains(t, err, "config is required")

	_, err = New(&Config{BaseURL: "http://localhost"})
	require.ErrorContains(t, err, "service name is required")
}

func TestNew_FillsDefaults(t *testing.T) {
	cfg := &Config{ServiceName: "mirror"}

	c, err := New(cfg)
	require.NoError(t, err)

	assert.Equal(t, defaultTimeout, c.http.Timeout)
	assert.Equal(t, defaultMaxAttempts, cfg.Retry.MaxAttempts)
	assert.Equal(t, defaultMultiplier, cfg.Retry.Multiplier)

	tr, ok := c.http.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, defaultMaxIdleConns, tr.MaxIdleConns)
	assert.Equal(t, defaultMaxIdleConnsPerHost, tr.MaxIdleConnsPerHost)
	assert.Equal(t, defaultIdleConnTimeout, tr.IdleConnTimeout)
}

func TestNew_KeepsTransportSettings(t *testing.T) {
	cfg := testConfig("http://localhost")
	cfg.Transport = config.TransportConfig{MaxIdleConns: 7, MaxIdleConnsPerHost: 3, IdleConnTimeout: time.Minute}

	c, err := New(cfg)
	require.NoError(t, err)

	tr := c.http.Transport.(*http.Transport)
	assert.Equal(t, 7, tr.MaxIdleConns)
	assert.Equal(t, 3, tr.MaxIdleConnsPerHost)
	assert.Equal(t, time.Minute, tr.IdleConnTimeout)
}

func TestClient_URL(t *testing.T) {
	for _, base := range []string{"https://mirror.example", "https://mirror.example/"} {
		c, err := New(testConfig(base))
		require.NoError(t, err)

		assert.Equal(t, "https://mirror.example/todos", c.url("/todos"), base)
		assert.Equal(t, "https://mirror.example/todos", c.url("todos"), base)
	}
}

func TestClient_Retries(t *testing.T) {
	tests := []struct {
		name      string
		script    []int
		attempts  int
		wantCalls int
		wantErr   bool
		status    int
	}{
		{"success first time", []int{200}, 3, 1, false, 200},
		{"recovers after 5xx", []int{500, 502, 200}, 3, 3, false, 200},
		{"4xx is returned as is", []int{404}, 3, 1, false, 404},
		{"gives up after every attempt", []int{503}, 3, 3, true, 0},
		{"single attempt", []int{500, 200}, 1, 1, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRemote(t, tt.script...)
			c := r.client(t, func(cfg *Config) { cfg.Retry.MaxAttempts = tt.attempts })

			resp, err := c.Get(context.Background(), "/todos")

			assert.Equal(t, tt.wantCalls, r.Calls())

			if tt.wantErr {
				require.ErrorIs(t, err, ErrMaxRetriesExceeded)
				assert.Nil(t, resp)

				return
			}

			require.NoError(t, err)
			defer drain(t, resp)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestClient_PostJSONReplaysBodyOnRetry(t *testing.T) {
	r := newRemote(t, http.StatusBadGateway, http.StatusCreated)
	c := r.client(t)

	resp, err := c.PostJSON(context.Background(), "/posts", []map[string]string{{"text": "a"}})
	require.NoError(t, err)
	defer drain(t, resp)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, []string{`[{"text":"a"}]`, `[{"text":"a"}]`}, r.Bodies())
	assert.Equal(t, "application/json", r.Header().Get("Content-Type"))
}

func TestClient_PostJSONEncodingError(t *testing.T) {
	c, err := New(testConfig("http://localhost"))
	require.NoError(t, err)

	_, err = c.PostJSON(context.Background(), "/posts", make(chan int))
	require.ErrorContains(t, err, "encoding request body")
}

func TestClient_StreamingBodyIsSentOnce(t *testing.T) {
	r := newRemote(t, http.StatusServiceUnavailable)
	c := r.client(t)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, r.srv.URL+"/posts",
		io.NopCloser(strings.NewReader("[]")))
	require.NoError(t, err)

	_, err = c.Do(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, 1, r.Calls())
}

func TestClient_Headers(t *testing.T) {
	r := newRemote(t, http.StatusOK)
	c := r.client(t, func(cfg *Config) { cfg.UserAgent = "quote-keeper/dev" })

	ctx := middleware.ContextWithRequestID(context.Background(), "req-1")
	ctx = middleware.ContextWithCorrelationID(ctx, "corr-1")

	resp, err := c.Get(ctx, "/todos")
	require.NoError(t, err)
	drain(t, resp)

	assert.Equal(t, "req-1", r.Header().Get(middleware.HeaderRequestID))
	assert.Equal(t, "corr-1", r.Header().Get(middleware.HeaderCorrelationID))
	assert.Equal(t, "quote-keeper/dev", r.Header().Get("User-Agent"))
	assert.Equal(t, "application/json", r.Header().Get("Accept"))
}

func TestClient_BreakerOpensAndShortCircuits(t *testing.T) {
	r := newRemote(t, http.StatusServiceUnavailable)
	c := r.client(t, func(cfg *Config) {
		cfg.Retry.MaxAttempts = 1
		cfg.Circuit.MaxFailures = 2
	})

	_, err := c.Get(context.Background(), "/todos")
	require.Error(t, err)
	assert.Equal(t, StateClosed, c.CircuitState())

	_, err = c.Get(context.Background(), "/todos")
	require.Error(t, err)
	assert.Equal(t, StateOpen, c.CircuitState())

	_, err = c.Get(context.Background(), "/todos")
	require.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 2, r.Calls(), "an open breaker must not reach the remote")
}

func TestClient_AttemptTimeoutCountsAgainstRemote(t *testing.T) {
	r := newSlowRemote(t, 500*time.Millisecond, http.StatusOK)
	c := r.client(t, func(cfg *Config) {
		cfg.Timeout = 20 * time.Millisecond
		cfg.Retry.MaxAttempts = 1
		cfg.Circuit.MaxFailures = 1
	})

	_, err := c.Get(context.Background(), "/todos")
	require.ErrorIs(t, err, ErrMaxRetriesExceeded)
	assert.Equal(t, StateOpen, c.CircuitState())
}

func TestClient_CancelledCallerDoesNotTripBreaker(t *testing.T) {
	r := newSlowRemote(t, 500*time.Millisecond, http.StatusOK)
	c := r.client(t, func(cfg *Config) {
		cfg.Retry.MaxAttempts = 1
		cfg.Circuit.MaxFailures = 1
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Get(ctx, "/todos")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMaxRetriesExceeded)
	assert.Equal(t, StateClosed, c.CircuitState())
}

func TestClient_BackOffSchedule(t *testing.T) {
	cfg := testConfig("http://localhost")
	cfg.Retry = config.RetryConfig{
		MaxAttempts:     3,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     time.Second,
		Multiplier:      2.0,
		JitterFactor:    0.25,
	}

	c, err := New(cfg)
	require.NoError(t, err)

	b := c.newBackOff()

	for _, want := range []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 400 * time.Millisecond} {
		assert.InDelta(t, want, b.NextBackOff(), float64(want)/4+1)
	}

	for range 10 {
		b.NextBackOff()
	}

	assert.LessOrEqual(t, b.NextBackOff(), time.Second+time.Second/4)
}

type fakeNetError struct{ timeout bool }

func (e fakeNetError) Error() string   { return "fake net error" }
func (e fakeNetError) Timeout() bool   { return e.timeout }
func (e fakeNetError) Temporary() bool { return false }

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, false},
		{"net timeout", fakeNetError{timeout: true}, true},
		{"net non-timeout", fakeNetError{}, false},
		{"connection refused", &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableError(tt.err))
		})
	}
}

func TestClient_ConcurrentRequests(t *testing.T) {
	r := newRemote(t, http.StatusOK)
	c := r.client(t)

	var ok atomic.Int32

	var wg sync.WaitGroup
	for range 20 {
		wg.Go(func() {
			resp, err := c.Get(context.Background(), "/todos")
			if err != nil {
				return
			}

			_ = resp.Body.Close()
			ok.Add(1)
		})
	}
	wg.Wait()

	assert.Equal(t, int32(20), ok.Load())
	assert.Equal(t, 20, r.Calls())
}

// Package remote is the HTTP client of the Riftbound persistence service.
//
// Every response is a {success, data|error} envelope. The HTTP status alone is
// never taken as success: a 200 with success:false is a rejection, and a
// non-2xx response carrying success:true is accepted.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/Naokyoo/Riftbound-manager/internal/metrics"
	"github.com/Naokyoo/Riftbound-manager/internal/riftbound/apperr"
)

const (
	// DefaultBaseURL is the service address used when none is configured.
	DefaultBaseURL = "http://localhost:5000/api"

	defaultTimeout           = 30 * time.Second
	defaultRequestsPerSecond = 10
	defaultRetryBackoff      = 500 * time.Millisecond
	maxRetryBackoff          = 8 * time.Second
	maxResponseBytes         = 8 << 20
)

// Options configures a Client.
type Options struct {
	BaseURL string
	Timeout time.Duration

	// RequestsPerSecond bounds outgoing calls. Zero uses the default.
	RequestsPerSecond float64

	// ReadRetries is how many extra attempts a GET gets after a transport
	// failure or a 429. Zero, the default, makes every call a single attempt.
	// Mutations are never retried.
	ReadRetries  int
	RetryBackoff time.Duration

	HTTPClient *http.Client
	Logger     *slog.Logger
	UserAgent  string

	// Metrics, when set, receives per-call counters and latencies.
	Metrics *metrics.ClientMetrics
}

// Client talks to the persistence service.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	rateLimiter  *rate.Limiter
	readRetries  int
	retryBackoff time.Duration
	userAgent    string
	logger       *slog.Logger
	metrics      *metrics.ClientMetrics
}

// NewClient creates a new service client.
func NewClient(opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = defaultRequestsPerSecond
	}

	backoff := opts.RetryBackoff
	if backoff <= 0 {
		backoff = defaultRetryBackoff
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = "Riftbound-Manager/1.0"
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:      baseURL,
		httpClient:   httpClient,
		rateLimiter:  rate.NewLimiter(rate.Limit(rps), 1),
		readRetries:  max(opts.ReadRetries, 0),
		retryBackoff: backoff,
		userAgent:    userAgent,
		logger:       logger,
		metrics:      opts.Metrics,
	}
}

// Metrics returns the collector passed in Options, or nil.
func (c *Client) Metrics() *metrics.ClientMetrics {
	return c.metrics
}

// BaseURL returns the service address the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// call describes a single logical request.
type call struct {
	op     string
	method string
	path   string
	token  string
	body   any
}

// do performs the call and returns the decoded envelope. Any failure is an
// *apperr.Error.
func (c *Client) do(ctx context.Context, cl call) (*envelope, error) {
	var payload []byte
	if cl.body != nil {
		var err error
		payload, err = json.Marshal(cl.body)
		if err != nil {
			return nil, apperr.Network(cl.op, fmt.Errorf("failed to encode request: %w", err))
		}
	}

	attempts := 1
	if cl.method == http.MethodGet {
		attempts += c.readRetries
	}
	backoff := c.retryBackoff

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, backoff); err != nil {
				return nil, apperr.Network(cl.op, err)
			}
			backoff = min(backoff*2, maxRetryBackoff)
			c.metrics.RecordRetry()
		}

		env, status, err := c.roundTrip(ctx, cl, payload)
		if err != nil {
			lastErr = apperr.Network(cl.op, err)
			if ctx.Err() != nil {
				break
			}
			c.logger.Debug("Remote call failed", "op", cl.op, "attempt", attempt+1, "error", err)
			continue
		}

		if status == http.StatusTooManyRequests && (env == nil || !env.Success) {
			lastErr = apperr.Rejection(cl.op, status, "Too many requests")
			continue
		}

		if env == nil || !env.Success {
			c.metrics.RecordRejection()
		}
		if env == nil {
			c.logger.Warn("Remote call rejected", "op", cl.op, "status", status)
			return nil, apperr.Rejection(cl.op, status, "")
		}
		if !env.Success {
			msg := env.Error
			if msg == "" {
				msg = env.Message
			}
			c.logger.Warn("Remote call rejected", "op", cl.op, "status", status, "error", msg)
			return env, apperr.Rejection(cl.op, status, msg)
		}
		return env, nil
	}

	c.logger.Warn("Remote call failed", "op", cl.op, "error", lastErr)
	c.metrics.RecordFailure()
	return nil, lastErr
}

// roundTrip executes one HTTP exchange. A nil envelope with a nil error means
// the service answered with a non-2xx status and a body that is not an
// envelope.
func (c *Client) roundTrip(ctx context.Context, cl call, payload []byte) (*envelope, int, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, 0, fmt.Errorf("rate limiter error: %w", err)
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cl.token != "" {
		req.Header.Set("Authorization", "Bearer "+cl.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.RecordRoundTrip(time.Since(start))
	if err != nil {
		return nil, 0, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}

	c.logger.Debug("Remote call",
		"op", cl.op,
		"method", cl.method,
		"path", cl.path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration", time.Since(start))

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, resp.StatusCode, nil
		}
		return nil, resp.StatusCode, fmt.Errorf("failed to parse JSON response: %w", err)
	}
	return &env, resp.StatusCode, nil
}

// decodeData unmarshals the envelope payload into out. An absent or null
// payload leaves out untouched and reports false.
func decodeData(op string, env *envelope, out any) (bool, error) {
	if env == nil || len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		return false, nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return false, apperr.Network(op, fmt.Errorf("failed to parse response data: %w", err))
	}
	return true, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// errNoData is returned when a call that must produce a record returned none.
var errNoData = errors.New("response carried no data")

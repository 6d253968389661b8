package httpclient

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// RequestIDHeader carries the per-request correlation ID.
const RequestIDHeader = "X-Request-Id"

// Config holds retry, pacing and timeout configuration.
type Config struct {
	MaxAttempts       int // total attempts, 1 = no retry
	BaseDelay         time.Duration
	MaxDelay          time.Duration
	Timeout           time.Duration
	RequestsPerSecond float64 // 0 = unlimited
}

// DefaultConfig returns a single attempt with no pacing.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 1,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    10 * time.Second,
		Timeout:     30 * time.Second,
	}
}

// Client sends catalog requests. Every request is stamped with an
// X-Request-Id, paced through an optional token bucket and retried on
// transient failures when more than one attempt is configured.
type Client struct {
	http    *http.Client
	config  Config
	limiter *rate.Limiter // nil = unlimited
	logger  *slog.Logger
}

// New creates a Client backed by an http.Client with cfg.Timeout.
func New(cfg Config, logger *slog.Logger) *Client {
	return NewWithHTTPClient(cfg, &http.Client{Timeout: cfg.Timeout}, logger)
}

// NewWithHTTPClient creates a Client around an existing http.Client.
func NewWithHTTPClient(cfg Config, httpClient *http.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.MaxAttempts = max(cfg.MaxAttempts, 1)

	c := &Client{http: httpClient, config: cfg, logger: logger}
	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return c
}

// Do sends req and returns the final response as-is, whatever its status.
// Transport errors are returned only once no attempt is left, or straight
// away for requests that are not safe to resend.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	id := stampRequestID(req)

	for attempt := 1; ; attempt++ {
		if err := c.pace(ctx); err != nil {
			return nil, err
		}
		c.logger.Debug("http request",
			slog.String("method", req.Method),
			slog.String("url", req.URL.String()),
			slog.String("request_id", id),
			slog.Int("attempt", attempt),
		)

		resp, err := c.http.Do(req)
		if err != nil && ctx.Err() != nil {
			return nil, ctx.Err()
		}

		final := attempt >= c.config.MaxAttempts
		if err != nil {
			if final || !idempotent(req.Method) {
				return nil, exhausted(attempt, err)
			}
		} else if final || !retryable(resp.StatusCode, req.Method) {
			return resp, nil
		}

		wait := c.config.pause(attempt, resp)
		if resp != nil {
			_ = resp.Body.Close()
		}
		c.logger.Debug("retrying request",
			slog.String("request_id", id),
			slog.Int("next_attempt", attempt+1),
			slog.Duration("wait", wait),
		)

		if err := sleep(ctx, wait); err != nil {
			return nil, err
		}
		if err := rewind(req); err != nil {
			return nil, err
		}
	}
}

// pace blocks until the limiter admits the next request.
func (c *Client) pace(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	return nil
}

func stampRequestID(req *http.Request) string {
	id := req.Header.Get(RequestIDHeader)
	if id == "" {
		id = uuid.NewString()
		req.Header.Set(RequestIDHeader, id)
	}
	return id
}

func exhausted(attempts int, err error) error {
	if attempts == 1 {
		return err
	}
	return fmt.Errorf("request failed after %d attempts: %w", attempts, err)
}

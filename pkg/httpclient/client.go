package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultTimeout          = 3 * time.Second
	defaultMaxRetries       = 3
	defaultRateLimitDelay   = 30 * time.Second
	rateLimitMultiplier     = 5
	defaultTimeoutIncrement = 5 * time.Second
)

// Response is the subset of the resty response surface the extractor reads.
type Response interface {
	StatusCode() int
	Body() []byte
	Header() http.Header
}

// Client issues GET requests with retry handling for rate limits and
// transient failures.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
}

// Options tune the retry behaviour of the resty client.
type Options struct {
	// Timeout bounds the first attempt; each retry after a transient
	// failure extends it by TimeoutIncrement.
	Timeout    time.Duration
	MaxRetries int
	// RateLimitDelay is slept before retrying a 429/502 response and grows
	// by a fixed multiplier on every such retry.
	RateLimitDelay   time.Duration
	TimeoutIncrement time.Duration
	UserAgent        string
}

type restyClient struct {
	rc   *resty.Client
	opts Options
}

// New builds a retrying Client. Zero option fields take defaults.
func New(opts Options) Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.RateLimitDelay <= 0 {
		opts.RateLimitDelay = defaultRateLimitDelay
	}
	if opts.TimeoutIncrement <= 0 {
		opts.TimeoutIncrement = defaultTimeoutIncrement
	}

	rc := resty.New()
	if opts.UserAgent != "" {
		rc.SetHeader("User-Agent", opts.UserAgent)
	}
	return &restyClient{rc: rc, opts: opts}
}

// NewRestyClient builds a Client with the given base timeout and defaults
// for everything else.
func NewRestyClient(timeout time.Duration) Client {
	return New(Options{Timeout: timeout})
}

// Get fetches the URL, retrying on 429/502 with exponential backoff and on
// transient errors with a linearly growing per-attempt timeout. Exhausting
// the retry budget returns the last error; callers treat that as "page
// unusable, skip".
func (c *restyClient) Get(ctx context.Context, url string, headers map[string]string) (Response, error) {
	var lastErr error
	delay := c.opts.RateLimitDelay
	timeout := c.opts.Timeout

	for attempt := 0; attempt < c.opts.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		resp, err := c.rc.R().
			SetContext(attemptCtx).
			SetHeaders(headers).
			Get(url)
		cancel()

		switch {
		case err != nil:
			lastErr = fmt.Errorf("get %s: %w", url, err)
			timeout += c.opts.TimeoutIncrement
		case resp.StatusCode() == http.StatusTooManyRequests || resp.StatusCode() == http.StatusBadGateway:
			lastErr = fmt.Errorf("get %s: status %d", url, resp.StatusCode())
			if err := sleepCtx(ctx, delay); err != nil {
				return nil, err
			}
			delay *= rateLimitMultiplier
		default:
			return resp, nil
		}
	}

	if lastErr == nil {
		lastErr = errors.New("retries exhausted")
	}
	return nil, fmt.Errorf("max retries reached for %s: %w", url, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

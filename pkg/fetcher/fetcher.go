// Package fetcher performs HTTP retrieval for both crawl phases: throttled
// and sequential during discovery, concurrent and bounded during content
// retrieval. One retry policy covers both.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mwexler/corpusmith/internal/models"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36"

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 8 << 20

// StatusError is returned for non-2xx responses once retries are exhausted
// or the status is not retryable.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
}

// Options configures a Client.
type Options struct {
	Timeout    time.Duration // per-request timeout, bounds worst-case latency
	MaxRetries int           // attempts for transient failures
	Delay      time.Duration // advisory spacing used by Pace
	UserAgent  string
	Logger     *zap.Logger
}

// Client retrieves URLs with bounded retries and exponential backoff.
// Transient failures (timeouts, connection errors, 5xx, 429) are retried;
// other 4xx are permanent. It is safe for concurrent use.
type Client struct {
	http       *http.Client
	maxRetries int
	delay      time.Duration
	userAgent  string
	logger     *zap.Logger
}

// New builds a Client.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Client{
		http: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        50,
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     30 * time.Second,
			},
		},
		maxRetries: opts.MaxRetries,
		delay:      opts.Delay,
		userAgent:  opts.UserAgent,
		logger:     opts.Logger,
	}
}

// HTTPClient exposes the underlying client for collaborators that fetch
// auxiliary resources such as robots.txt.
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

// Pace sleeps the advisory per-request delay, honoring cancellation. Callers
// in the concurrent phase invoke it before each fetch; it is spacing per
// logical request, not a global lock.
func (c *Client) Pace(ctx context.Context) error {
	if c.delay <= 0 {
		return nil
	}
	timer := time.NewTimer(c.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Fetch retrieves rawURL. Exhausting retries yields an error result rather
// than a panic; the caller decides whether to skip or abort.
func (c *Client) Fetch(ctx context.Context, rawURL string) (*models.FetchResult, error) {
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			// 1s, 2s, 4s, ...
			backoff := time.Duration(1<<(attempt-1)) * time.Second
			c.logger.Debug("retrying fetch",
				zap.String("url", rawURL),
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", backoff))
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}

		res, err := c.fetchOnce(ctx, rawURL)
		if err == nil {
			return res, nil
		}
		lastErr = err
		if !retryable(err) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("fetch %s: retries exhausted: %w", rawURL, lastErr)
}

func (c *Client) fetchOnce(ctx context.Context, rawURL string) (*models.FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes)) //nolint:errcheck
		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body of %s: %w", rawURL, err)
	}

	return &models.FetchResult{
		URL:        rawURL,
		StatusCode: resp.StatusCode,
		Body:       body,
		FetchedAt:  time.Now().UTC(),
	}, nil
}

// retryable classifies failures: 5xx and 429 are transient, other HTTP
// statuses are permanent, and everything else (timeouts, connection resets)
// is worth another attempt.
func retryable(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= 500 || statusErr.StatusCode == http.StatusTooManyRequests
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	return true
}

// Package tsetmc fetches market data from tsetmc.com, the official website
// for Tehran Stock Exchange market data.
package tsetmc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/uhyunpark/tseutils/pkg/metrics"
	"github.com/uhyunpark/tseutils/pkg/util"
)

const (
	DefaultDomain  = "cdn.tsetmc.com"
	DefaultTimeout = 3 * time.Second

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/89.0.4389.114 Safari/537.36"
)

// ScrapeError is returned when TSETMC answers with a non-200 status
type ScrapeError struct {
	StatusCode int
	URL        string
}

func (e *ScrapeError) Error() string {
	return fmt.Sprintf("tsetmc: bad response [%d] from %s", e.StatusCode, e.URL)
}

// Client is a TSETMC scraper. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client

	retries    int
	retryDelay time.Duration

	log     *zap.SugaredLogger
	metrics *metrics.Metrics
}

type Option func(*Client)

// WithBaseURL overrides the scheme and host, e.g. for an httptest server
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithRetries sets how many times a request is attempted when it times out
func WithRetries(n int, delay time.Duration) Option {
	return func(c *Client) {
		c.retries = n
		c.retryDelay = delay
	}
}

func WithLogger(l *zap.SugaredLogger) Option {
	return func(c *Client) { c.log = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient creates a client for domain (DefaultDomain if empty)
func NewClient(domain string, timeout time.Duration, opts ...Option) *Client {
	if domain == "" {
		domain = DefaultDomain
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		baseURL:    "http://" + domain,
		http:       &http.Client{Timeout: timeout},
		retries:    1,
		retryDelay: time.Second,
		log:        zap.NewNop().Sugar(),
		metrics:    metrics.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// get fetches path and decodes the JSON body into out.
// endpoint is a short label for logs and metrics.
func (c *Client) get(ctx context.Context, endpoint, path string, out any) error {
	url := c.baseURL + "/" + strings.TrimLeft(path, "/")
	attempt := 0

	return util.Retry(ctx, c.retries, util.NewBackoff(c.retryDelay, 8*c.retryDelay), isTimeout, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			c.metrics.ScrapeRetries.WithLabelValues(endpoint).Inc()
			c.log.Debugw("scrape_retry", "endpoint", endpoint, "attempt", attempt)
		}
		return c.do(ctx, endpoint, url, out)
	})
}

func (c *Client) do(ctx context.Context, endpoint, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")

	start := time.Now()
	resp, err := c.http.Do(req)
	c.metrics.ScrapeLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.ScrapeRequests.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("%s request: %w", endpoint, err)
	}
	defer resp.Body.Close()

	c.metrics.ScrapeRequests.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()
	if resp.StatusCode != http.StatusOK {
		c.log.Warnw("scrape_bad_status", "endpoint", endpoint, "status", resp.StatusCode)
		return &ScrapeError{StatusCode: resp.StatusCode, URL: url}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s read response: %w", endpoint, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s decode response: %w", endpoint, err)
	}
	return nil
}

// getRaw fetches path and returns the decoded JSON object
func (c *Client) getRaw(ctx context.Context, endpoint, path string) (map[string]any, error) {
	var raw map[string]any
	if err := c.get(ctx, endpoint, path, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

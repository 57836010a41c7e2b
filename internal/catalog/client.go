package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Client lists entities from a catalog service.
type Client interface {
	// EntitiesByKind returns all entities of the given kind.
	EntitiesByKind(ctx context.Context, kind string) ([]Entity, error)
}

// RetryConfig configures retry behavior for catalog requests.
type RetryConfig struct {
	MaxRetries int           // Maximum number of retry attempts (0 = no retries)
	RetryDelay time.Duration // Initial delay between retries
	MaxDelay   time.Duration // Maximum delay between retries (caps exponential backoff)
	Timeout    time.Duration // Per-request timeout
}

// DefaultRetryConfig returns a sensible default configuration.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries: 3,
		RetryDelay: 500 * time.Millisecond,
		MaxDelay:   10 * time.Second,
		Timeout:    30 * time.Second,
	}
}

// HTTPClient talks to a catalog REST endpoint.
type HTTPClient struct {
	baseURL  string
	token    string
	client   *http.Client
	pageSize int
	retry    *RetryConfig
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithToken sets a bearer token for catalog requests.
func WithToken(token string) Option {
	return func(c *HTTPClient) { c.token = token }
}

// WithPageSize overrides the listing page size.
func WithPageSize(n int) Option {
	return func(c *HTTPClient) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithRetry overrides the retry configuration.
func WithRetry(cfg *RetryConfig) Option {
	return func(c *HTTPClient) {
		if cfg != nil {
			c.retry = cfg
		}
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) {
		if hc != nil {
			c.client = hc
		}
	}
}

// NewHTTPClient creates a catalog client for the given base URL.
func NewHTTPClient(baseURL string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL:  baseURL,
		client:   &http.Client{},
		pageSize: 500,
		retry:    DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// statusError carries an HTTP status for retryability classification.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("catalog returned %d: %s", e.status, e.body)
}

// EntitiesByKind pages through the catalog listing endpoint until a short
// page signals the end of results.
func (c *HTTPClient) EntitiesByKind(ctx context.Context, kind string) ([]Entity, error) {
	var all []Entity
	offset := 0
	for {
		page, err := c.fetchPage(ctx, kind, offset, c.pageSize)
		if err != nil {
			return nil, fmt.Errorf("listing %s entities at offset %d: %w", kind, offset, err)
		}
		all = append(all, page...)
		if len(page) < c.pageSize {
			return all, nil
		}
		offset += len(page)
	}
}

// EntitiesByKinds fetches several kinds concurrently and returns the merged
// listing sorted by entity ref.
func (c *HTTPClient) EntitiesByKinds(ctx context.Context, kinds ...string) ([]Entity, error) {
	var (
		mu  sync.Mutex
		all []Entity
	)
	g, ctx := errgroup.WithContext(ctx)
	for _, kind := range kinds {
		kind := kind
		g.Go(func() error {
			ents, err := c.EntitiesByKind(ctx, kind)
			if err != nil {
				return err
			}
			mu.Lock()
			all = append(all, ents...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Ref() < all[j].Ref() })
	return all, nil
}

// fetchPage performs a single listing request with retries.
func (c *HTTPClient) fetchPage(ctx context.Context, kind string, offset, limit int) ([]Entity, error) {
	var lastErr error

	for attempt := 0; attempt <= c.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := c.backoff(attempt)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, c.retry.Timeout)
		page, err := c.doFetch(attemptCtx, kind, offset, limit)
		cancel()

		if err == nil {
			return page, nil
		}
		lastErr = err

		if !isRetryable(err) {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("max retries (%d) exceeded: %w", c.retry.MaxRetries, lastErr)
}

func (c *HTTPClient) doFetch(ctx context.Context, kind string, offset, limit int) ([]Entity, error) {
	u, err := url.Parse(c.baseURL + "/api/catalog/entities")
	if err != nil {
		return nil, fmt.Errorf("catalog url: %w", err)
	}
	q := u.Query()
	q.Set("filter", "kind="+kind)
	q.Set("offset", fmt.Sprintf("%d", offset))
	q.Set("limit", fmt.Sprintf("%d", limit))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &statusError{status: resp.StatusCode, body: string(body)}
	}

	var page []Entity
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decoding catalog response: %w", err)
	}
	return page, nil
}

// backoff returns the delay for the given attempt using exponential backoff.
func (c *HTTPClient) backoff(attempt int) time.Duration {
	delay := c.retry.RetryDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay > c.retry.MaxDelay {
			return c.retry.MaxDelay
		}
	}
	return delay
}

// isRetryable determines if an error should trigger a retry.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Caller cancelled; do not retry.
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	var se *statusError
	if errors.As(err, &se) {
		switch {
		case se.status == http.StatusTooManyRequests:
			return true
		case se.status >= 500:
			return true
		default:
			return false
		}
	}

	// Connection resets and other transport errors.
	return true
}

var _ Client = (*HTTPClient)(nil)

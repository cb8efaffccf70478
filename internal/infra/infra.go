// Package infra provides shared infrastructure components used across
// the application: resilient HTTP fetching, caching, and rate limiting.
package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// DefaultUserAgent identifies this client to EDGAR when no identity is
// configured. SEC requires identifiable, non-anonymous traffic with a
// contact address in the User-Agent.
const DefaultUserAgent = "edgarlens/1.0 (admin@edgarlens.dev)"

const (
	defaultMaxAttempts = 4
	defaultBaseDelay   = 200 * time.Millisecond
)

// UpstreamError reports an upstream call that failed after exhausting the
// retry budget, or returned a body the caller could not parse.
type UpstreamError struct {
	URL        string
	Attempts   int
	StatusCode int // last HTTP status, 0 on transport error
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("upstream %s: HTTP %d after %d attempts: %v", e.URL, e.StatusCode, e.Attempts, e.Err)
	}
	return fmt.Sprintf("upstream %s: failed after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Fetcher performs HTTP GETs with bounded exponential-backoff retry and
// token-bucket rate limiting. The zero value is not usable; use NewFetcher.
type Fetcher struct {
	client      *http.Client
	userAgent   string
	maxAttempts int
	baseDelay   time.Duration
	limiter     *RateLimiter
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithUserAgent sets the client identity header sent on every request.
func WithUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithBaseDelay sets the initial retry delay. The delay doubles after each
// failed attempt.
func WithBaseDelay(d time.Duration) FetcherOption {
	return func(f *Fetcher) { f.baseDelay = d }
}

// WithMaxAttempts sets the total attempt budget per call.
func WithMaxAttempts(n int) FetcherOption {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxAttempts = n
		}
	}
}

// WithRateLimit replaces the default rate limiter.
func WithRateLimit(requests int, window time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if requests > 0 {
			f.limiter = NewRateLimiter(requests, window)
		}
	}
}

// NewFetcher creates a fetcher with the default retry policy (4 attempts,
// 200ms initial delay, doubling) and the EDGAR-safe 10 req/s rate limit.
func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:      &http.Client{Timeout: 30 * time.Second},
		userAgent:   DefaultUserAgent,
		maxAttempts: defaultMaxAttempts,
		baseDelay:   defaultBaseDelay,
		limiter:     NewRateLimiter(10, time.Second),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch performs a GET against url, retrying transport errors and non-2xx
// statuses with exponential backoff until the attempt budget is exhausted.
// Extra headers override the defaults.
func (f *Fetcher) Fetch(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	var (
		lastErr    error
		lastStatus int
	)
	delay := f.baseDelay
	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		body, status, err := f.doGet(ctx, url, headers)
		if err == nil {
			return body, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
		lastStatus = status
	}
	return nil, &UpstreamError{URL: url, Attempts: f.maxAttempts, StatusCode: lastStatus, Err: lastErr}
}

// FetchJSON fetches url and decodes the response body into dest. A decode
// failure of a successful response is terminal and is not retried.
func (f *Fetcher) FetchJSON(ctx context.Context, url string, headers map[string]string, dest any) error {
	body, err := f.Fetch(ctx, url, headers)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return &UpstreamError{URL: url, Attempts: 1, Err: fmt.Errorf("parse response: %w", err)}
	}
	return nil
}

func (f *Fetcher) doGet(ctx context.Context, url string, headers map[string]string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/json, text/html, */*")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("HTTP GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, resp.StatusCode, fmt.Errorf("HTTP %s: %s", resp.Status, snippet)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

// --- Simple in-memory cache ---

// CacheEntry holds a cached value with expiration.
type CacheEntry struct {
	Value     any
	ExpiresAt time.Time
}

// Cache is a simple thread-safe in-memory cache with TTL.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]CacheEntry
	ttl     time.Duration
}

// NewCache creates a new cache with the given default TTL.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]CacheEntry),
		ttl:     ttl,
	}
}

// Get retrieves a value from the cache. Returns nil, false if not found or expired.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || time.Now().After(entry.ExpiresAt) {
		return nil, false
	}
	return entry.Value, true
}

// Set stores a value in the cache with the default TTL.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	c.entries[key] = CacheEntry{
		Value:     value,
		ExpiresAt: time.Now().Add(c.ttl),
	}
	c.mu.Unlock()
}

// SetWithTTL stores a value in the cache with a custom TTL.
func (c *Cache) SetWithTTL(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = CacheEntry{
		Value:     value,
		ExpiresAt: time.Now().Add(ttl),
	}
	c.mu.Unlock()
}

// Invalidate removes a key from the cache.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Flush removes all entries from the cache.
func (c *Cache) Flush() {
	c.mu.Lock()
	c.entries = make(map[string]CacheEntry)
	c.mu.Unlock()
}

// --- Rate limiter ---

// RateLimiter provides simple token-bucket rate limiting.
type RateLimiter struct {
	mu         sync.Mutex
	tokens     int
	maxTokens  int
	refillRate time.Duration
	lastRefill time.Time
}

// NewRateLimiter creates a rate limiter that allows maxTokens requests
// per refillRate duration.
func NewRateLimiter(maxTokens int, refillRate time.Duration) *RateLimiter {
	return &RateLimiter{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// Wait blocks until a token is available or context is cancelled.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	for {
		rl.mu.Lock()
		rl.refill()
		if rl.tokens > 0 {
			rl.tokens--
			rl.mu.Unlock()
			return nil
		}
		rl.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
			// Check again after a short sleep.
		}
	}
}

// refill adds tokens based on elapsed time. Must be called with mu held.
func (rl *RateLimiter) refill() {
	now := time.Now()
	elapsed := now.Sub(rl.lastRefill)
	if elapsed >= rl.refillRate {
		periods := int(elapsed / rl.refillRate)
		rl.tokens += periods
		if rl.tokens > rl.maxTokens {
			rl.tokens = rl.maxTokens
		}
		rl.lastRefill = rl.lastRefill.Add(time.Duration(periods) * rl.refillRate)
	}
}

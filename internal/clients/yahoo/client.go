// Package yahoo provides the price source adapter backed by the Yahoo
// Finance chart API.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/arjunmehra/folio/internal/cache"
	"github.com/arjunmehra/folio/internal/common"
	"github.com/arjunmehra/folio/internal/interfaces"
)

const (
	DefaultBaseURL   = "https://query1.finance.yahoo.com/v8/finance/chart"
	DefaultTimeout   = 10 * time.Second
	DefaultRateLimit = 10 // requests per second
	DefaultRetries   = 2
	DefaultBatchSize = 5

	// Yahoo rejects requests without a browser user agent.
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Client implements the PriceSource interface
type Client struct {
	baseURL     string
	httpClient  *http.Client
	logger      *common.Logger
	limiter     *rate.Limiter
	quotes      interfaces.QuoteCache
	symbolTTL   time.Duration
	retries     int
	batchSize   int
	backoffUnit time.Duration
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = &common.Logger{Logger: logger.With().Str("client", "yahoo").Logger()}
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithRetries sets how many times a failed request is retried before the
// symbol resolves to nil.
func WithRetries(retries int) ClientOption {
	return func(c *Client) {
		c.retries = retries
	}
}

// WithBatchSize bounds the fan-out width of FetchBatch.
func WithBatchSize(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// WithBackoffUnit sets the base retry delay (attempt n waits n × unit).
func WithBackoffUnit(d time.Duration) ClientOption {
	return func(c *Client) {
		c.backoffUnit = d
	}
}

// NewClient creates a new Yahoo Finance client. Fetched prices are written
// through to the quote cache so repeat batches within the TTL skip the
// network entirely.
func NewClient(quotes interfaces.QuoteCache, symbolTTL time.Duration, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter:     rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:      common.NewSilentLogger(),
		quotes:      quotes,
		symbolTTL:   symbolTTL,
		retries:     DefaultRetries,
		batchSize:   DefaultBatchSize,
		backoffUnit: 500 * time.Millisecond,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents a non-2xx response from the chart API
type APIError struct {
	StatusCode int
	Symbol     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("yahoo chart API error: status %d (symbol: %s)", e.StatusCode, e.Symbol)
}

// chartResponse is the subset of the v8 chart payload we read.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice *float64 `json:"regularMarketPrice"`
			} `json:"meta"`
		} `json:"result"`
		Error any `json:"error"`
	} `json:"chart"`
}

// FetchBatch resolves current market prices for all symbols. Cached symbols
// are served without network calls; the rest are fetched concurrently with
// a bounded fan-out. A symbol whose fetch fails after retries maps to nil.
func (c *Client) FetchBatch(ctx context.Context, symbols []string) map[string]*float64 {
	results := make(map[string]*float64, len(symbols))

	var uncached []string
	for _, sym := range symbols {
		if _, seen := results[sym]; seen {
			continue
		}
		if v, ok := c.quotes.Get(cache.PriceKey(sym)); ok {
			if price, ok := v.(float64); ok {
				p := price
				results[sym] = &p
				continue
			}
		}
		results[sym] = nil
		uncached = append(uncached, sym)
	}

	if len(uncached) == 0 {
		return results
	}

	sem := make(chan struct{}, c.batchSize)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, sym := range uncached {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		go func(sym string) {
			defer wg.Done()
			defer func() { <-sem }()

			price := c.fetchWithRetry(ctx, sym)
			if price != nil {
				c.quotes.Set(cache.PriceKey(sym), *price, c.symbolTTL)
			}

			mu.Lock()
			results[sym] = price
			mu.Unlock()
		}(sym)
	}

	wg.Wait()
	return results
}

// fetchWithRetry attempts the fetch up to retries+1 times with increasing
// backoff, abandoning to nil after the final failure.
func (c *Client) fetchWithRetry(ctx context.Context, symbol string) *float64 {
	var lastErr error

	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(attempt) * c.backoffUnit
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil
			}
		}

		price, err := c.fetchPrice(ctx, symbol)
		if err == nil {
			return price
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil
		}
	}

	c.logger.Warn().
		Str("symbol", symbol).
		Err(lastErr).
		Msg("Price fetch failed after retries")
	return nil
}

// fetchPrice performs one rate-limited chart request for a symbol.
func (c *Client) fetchPrice(ctx context.Context, symbol string) (*float64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL := fmt.Sprintf("%s/%s?interval=1d&range=1d", c.baseURL, symbol)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	c.logger.Debug().Str("symbol", symbol).Msg("Yahoo chart request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return nil, &APIError{StatusCode: resp.StatusCode, Symbol: symbol}
	}

	var parsed chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode chart response: %w", err)
	}

	if len(parsed.Chart.Result) == 0 || parsed.Chart.Result[0].Meta.RegularMarketPrice == nil {
		return nil, fmt.Errorf("no price in chart response for %s", symbol)
	}

	price := *parsed.Chart.Result[0].Meta.RegularMarketPrice
	return &price, nil
}

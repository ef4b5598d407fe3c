// Package googlefin provides the fundamentals source adapter backed by the
// Google Finance quote page. Google Finance has no public API; the P/E ratio
// is extracted from the stats rows of the quote page HTML.
package googlefin

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/time/rate"

	"github.com/arjunmehra/folio/internal/cache"
	"github.com/arjunmehra/folio/internal/common"
	"github.com/arjunmehra/folio/internal/interfaces"
	"github.com/arjunmehra/folio/internal/models"
)

const (
	DefaultBaseURL   = "https://www.google.com/finance"
	DefaultTimeout   = 10 * time.Second
	DefaultRateLimit = 5 // requests per second

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// Class names of the stats rows on the quote page: a row container
	// holding a label cell and a value cell.
	statRowClass   = "gyFHrc"
	statLabelClass = "mfs7Fc"
	statValueClass = "P6K39c"
)

// Client implements the FundamentalsSource interface
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
	quotes     interfaces.QuoteCache
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
		c.logger = &common.Logger{Logger: logger.With().Str("client", "googlefin").Logger()}
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

// NewClient creates a new Google Finance client. Results, including
// confirmed-absent P/E values, are cached per symbol with the cache's
// default TTL so they are reused across report generations.
func NewClient(quotes interfaces.QuoteCache, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
		quotes:  quotes,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// FetchOne fetches the P/E ratio for one symbol. This adapter is
// best-effort by contract: any transport or parse failure yields a
// Fundamental with a nil PERatio, never an error.
func (c *Client) FetchOne(ctx context.Context, symbol string) models.Fundamental {
	key := cache.FundamentalsKey(symbol)
	if v, ok := c.quotes.Get(key); ok {
		if f, ok := v.(models.Fundamental); ok {
			return f
		}
	}

	peRatio, err := c.scrapePERatio(ctx, symbol)
	if err != nil {
		c.logger.Warn().Str("symbol", symbol).Err(err).Msg("Fundamentals fetch failed")
		return models.Fundamental{}
	}

	result := models.Fundamental{PERatio: peRatio}
	c.quotes.Set(key, result, 0)
	return result
}

// scrapePERatio fetches the quote page and extracts the P/E ratio stat.
// A page without a P/E row returns (nil, nil): confirmed absent.
func (c *Client) scrapePERatio(ctx context.Context, symbol string) (*float64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL := fmt.Sprintf("%s/quote/%s", c.baseURL, symbol)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	c.logger.Debug().Str("symbol", symbol).Msg("Google Finance quote page request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("google finance returned status %d for %s", resp.StatusCode, symbol)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse quote page: %w", err)
	}

	return extractPERatio(doc), nil
}

// extractPERatio walks the document for a stats row whose label contains
// "p/e ratio" and parses its value cell. Returns nil when no such row
// exists or the value is malformed.
func extractPERatio(doc *html.Node) *float64 {
	var result *float64

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if result != nil {
			return
		}
		if n.Type == html.ElementNode && hasClass(n, statRowClass) {
			label := strings.ToLower(textOfClass(n, statLabelClass))
			if strings.Contains(label, "p/e ratio") {
				value := strings.ReplaceAll(textOfClass(n, statValueClass), ",", "")
				if parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
					result = &parsed
				}
				return
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	return result
}

// hasClass reports whether the element's class attribute contains name.
func hasClass(n *html.Node, name string) bool {
	for _, attr := range n.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(attr.Val) {
			if c == name {
				return true
			}
		}
	}
	return false
}

// textOfClass returns the concatenated text of the first descendant element
// carrying the given class.
func textOfClass(n *html.Node, name string) string {
	var target *html.Node

	var find func(n *html.Node)
	find = func(n *html.Node) {
		if target != nil {
			return
		}
		if n.Type == html.ElementNode && hasClass(n, name) {
			target = n
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			find(child)
		}
	}
	find(n)

	if target == nil {
		return ""
	}

	var sb strings.Builder
	var collect func(n *html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			collect(child)
		}
	}
	collect(target)

	return strings.TrimSpace(sb.String())
}

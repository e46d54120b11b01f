// Package quotes fetches current stock prices from the Yahoo Finance chart
// API. Results are cached so a dashboard refresh does not hammer the API.
package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"moneytrack/internal/cache"
)

const defaultBaseURL = "https://query1.finance.yahoo.com"

// maxConcurrentFetches bounds parallel quote requests during Prefetch.
const maxConcurrentFetches = 4

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Client fetches per-symbol market prices with an in-process TTL cache.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      *cache.TTLCache[decimal.Decimal]
}

type Option func(*Client)

// WithBaseURL overrides the API endpoint, mainly for tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func NewClient(cacheSize int, cacheTTL time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cache:      cache.New[decimal.Decimal](cacheSize, cacheTTL),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetPrice returns the current market price for symbol. The boolean is false
// when the quote is unavailable; callers render those positions as unpriced
// rather than failing the whole valuation.
func (c *Client) GetPrice(ctx context.Context, symbol string) (decimal.Decimal, bool) {
	if p, ok := c.cache.Get(symbol); ok {
		return p, true
	}

	p, err := c.fetch(ctx, symbol)
	if err != nil {
		slog.WarnContext(ctx, "Quote fetch failed", "symbol", symbol, "error", err)
		return decimal.Zero, false
	}
	c.cache.Set(symbol, p)
	return p, true
}

// Prefetch warms the cache for the given symbols in parallel. Individual
// failures are logged and skipped.
func (c *Client) Prefetch(ctx context.Context, symbols []string) {
	seen := make(map[string]bool, len(symbols))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	for _, sym := range symbols {
		if sym == "" || seen[sym] {
			continue
		}
		seen[sym] = true
		g.Go(func() error {
			c.GetPrice(ctx, sym)
			return nil
		})
	}
	_ = g.Wait()
}

func (c *Client) fetch(ctx context.Context, symbol string) (decimal.Decimal, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?range=1d&interval=1d", c.baseURL, url.PathEscape(symbol))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "moneytrack/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("fetch quote: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("quote api status %d", resp.StatusCode)
	}

	var body chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, fmt.Errorf("decode quote: %w", err)
	}
	if body.Chart.Error != nil {
		return decimal.Zero, fmt.Errorf("quote api error: %s", body.Chart.Error.Description)
	}
	if len(body.Chart.Result) == 0 {
		return decimal.Zero, fmt.Errorf("no quote data for %s", symbol)
	}

	price := body.Chart.Result[0].Meta.RegularMarketPrice
	if price <= 0 {
		return decimal.Zero, fmt.Errorf("non-positive quote for %s", symbol)
	}
	return decimal.NewFromFloat(price), nil
}

// Static is a fixed price table, used in tests and offline mode.
type Static map[string]decimal.Decimal

func (s Static) GetPrice(_ context.Context, symbol string) (decimal.Decimal, bool) {
	p, ok := s[symbol]
	return p, ok
}

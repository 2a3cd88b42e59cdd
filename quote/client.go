// Package quote fetches a spot USD price for the reference asset from a
// CoinGecko-compatible API. It is the fallback when the position page does
// not show a usable rate.
package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultBaseURL = "https://api.coingecko.com/api/v3"
	defaultAsset   = "ethereum"
	defaultTimeout = 5 * time.Second
)

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=quote_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a client for the simple-price endpoint.
type Client struct {
	// baseURL is the API root.
	baseURL string
	// asset is the quoted coin id.
	asset string
	// timeout bounds each request.
	timeout time.Duration
	// httpClient is the HTTP client.
	httpClient HTTPClient
	// header contains additional headers to be sent with each request.
	header http.Header
}

// Option is a configuration option for the quote client.
type Option func(*Client)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithAsset sets the quoted coin id.
func WithAsset(asset string) Option {
	return func(c *Client) {
		c.asset = asset
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithHTTPClient sets the HTTP client for the API.
func WithHTTPClient(httpClient HTTPClient) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithHeader sets additional headers to be sent with each request.
func WithHeader(header http.Header) Option {
	return func(c *Client) {
		for key, values := range header {
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

// WithAPIKey authenticates requests with a CoinGecko demo key.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		if key != "" {
			c.header.Set("x-cg-demo-api-key", key)
		}
	}
}

// New creates a quote client.
func New(options ...Option) *Client {
	var client = &Client{
		baseURL:    defaultBaseURL,
		asset:      defaultAsset,
		timeout:    defaultTimeout,
		httpClient: http.DefaultClient,
		header:     http.Header{},
	}
	client.header.Set("Accept", "application/json")
	for _, option := range options {
		option(client)
	}
	return client
}

// Price returns the asset's USD price. The second result is false when the
// service could not provide one; the reason is logged.
func (c *Client) Price(ctx context.Context) (float64, bool) {
	price, err := c.FetchPrice(ctx)
	if err != nil {
		slog.Warn("price quote unavailable", "asset", c.asset, "error", err)
		return 0, false
	}
	slog.Info("price quote received", "asset", c.asset, "usd", price)
	return price, true
}

// FetchPrice performs a single request and returns the asset's USD price.
func (c *Client) FetchPrice(ctx context.Context) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	query := url.Values{}
	query.Set("ids", c.asset)
	query.Set("vs_currencies", "usd")

	endpoint := fmt.Sprintf("%s/simple/price?%s", c.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header = c.header.Clone()

	res, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("performing request: %w", err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return 0, fmt.Errorf("unauthorized")
	case http.StatusTooManyRequests:
		return 0, fmt.Errorf("rate limited")
	default:
		return 0, fmt.Errorf("unexpected status code: %d", res.StatusCode)
	}

	// {"ethereum": {"usd": 2500.12}}
	var body map[string]map[string]float64
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("decoding price response: %w", err)
	}

	price, ok := body[c.asset]["usd"]
	if !ok {
		return 0, fmt.Errorf("no usd price for %q in response", c.asset)
	}
	if price <= 0 {
		return 0, fmt.Errorf("non-positive price %g for %q", price, c.asset)
	}
	return price, nil
}

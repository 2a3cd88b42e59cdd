package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/use-agent/lpcheck/extract"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Scraper   ScraperConfig
	Engine    EngineConfig
	Position  PositionConfig
	Extract   ExtractConfig
	Quote     QuoteConfig
	Webhook   WebhookConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// MaxPages is the page pool capacity (max concurrent tabs).
	MaxPages int // default: 4

	// DefaultProxy is the proxy URL for all requests.
	DefaultProxy string

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string
}

// ScraperConfig controls page rendering.
type ScraperConfig struct {
	// NavigationTimeout is the max time for page.Navigate alone.
	NavigationTimeout time.Duration // default: 30s

	// SettleWait is the fixed wait after navigation before the DOM is read.
	// Position figures are filled in by JavaScript after load.
	SettleWait time.Duration // default: 10s

	// BlockedResourceTypes lists resource types to block.
	// default: ["Image", "Stylesheet", "Font", "Media"]
	BlockedResourceTypes []string

	// BlockTrackers fails requests to known analytics and tracking hosts.
	BlockTrackers bool // default: true

	// UserAgent overrides the browser's user agent when set.
	UserAgent string

	// AcceptLanguage is sent with every page request. The position page
	// formats numbers for this locale.
	AcceptLanguage string // default: "en-US,en;q=0.9"
}

// EngineConfig selects how pages are rendered.
type EngineConfig struct {
	// Name is "browser", "http" or "file". default: "browser"
	Name string

	// ReplayPath is the saved page read by the "file" engine.
	ReplayPath string // default: "debug_page.html"

	// DebugDumpPath receives the latest rendered markup. Empty disables the dump.
	DebugDumpPath string // default: "debug_page.html"

	// ScopeSelector limits fragment collection for the "http" and "file"
	// engines to elements matching this CSS selector.
	ScopeSelector string
}

// PositionConfig identifies the liquidity position being tracked.
type PositionConfig struct {
	// BaseURL is the interface origin. default: "https://app.uniswap.org"
	BaseURL string

	// Chain is the network segment of the position URL. default: "unichain"
	Chain string

	// ID is the position token id. default: "59044"
	ID string

	// ETHInitial is the ETH amount originally deposited. default: 38.1
	ETHInitial float64
}

// URL builds the position page URL.
func (p PositionConfig) URL() string {
	return PositionURL(p.BaseURL, p.Chain, p.ID)
}

// PositionURL builds a v3 position page URL.
func PositionURL(baseURL, chain, id string) string {
	return fmt.Sprintf("%s/positions/v3/%s/%s", strings.TrimRight(baseURL, "/"), chain, id)
}

// ExtractConfig configures the extraction ladders.
type ExtractConfig struct {
	// RateMin and RateMax bound the plausible ETH/USD rate.
	RateMin float64 // default: 2000
	RateMax float64 // default: 2500

	// AmountFloor is the value a position amount must exceed. default: 1000
	AmountFloor float64
}

// Range returns the plausibility range for the reference rate.
func (e ExtractConfig) Range() extract.Range {
	return extract.Range{Min: e.RateMin, Max: e.RateMax}
}

// QuoteConfig controls the fallback price-quote service.
type QuoteConfig struct {
	// Enabled toggles the fallback. default: true
	Enabled bool

	// BaseURL is the CoinGecko-compatible API root.
	BaseURL string // default: "https://api.coingecko.com/api/v3"

	// Asset is the quoted asset id. default: "ethereum"
	Asset string

	// APIKey is sent as x-cg-demo-api-key when set.
	APIKey string

	// Timeout bounds the single quote request. default: 5s
	Timeout time.Duration
}

// WebhookConfig controls report event delivery.
type WebhookConfig struct {
	// URL receives report events. Empty disables delivery.
	URL string

	// Secret signs event bodies with HMAC-SHA256 when set.
	Secret string
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: true

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 0.2

	// Burst is the maximum burst size per API key.
	Burst int // default: 2
}

// CacheConfig controls the report response cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached responses.
	MaxEntries int // default: 100
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "text"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("LPCHECK_HOST", "0.0.0.0"),
			Port: envIntOr("LPCHECK_PORT", 8080),
			Mode: envOr("LPCHECK_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:     envBoolOr("LPCHECK_HEADLESS", true),
			MaxPages:     envIntOr("LPCHECK_MAX_PAGES", 4),
			DefaultProxy: os.Getenv("LPCHECK_PROXY"),
			NoSandbox:    envBoolOr("LPCHECK_NO_SANDBOX", false),
			BrowserBin:   os.Getenv("LPCHECK_BROWSER_BIN"),
		},
		Scraper: ScraperConfig{
			NavigationTimeout: envDurationOr("LPCHECK_NAV_TIMEOUT", 30*time.Second),
			SettleWait:        envDurationOr("LPCHECK_SETTLE_WAIT", 10*time.Second),
			BlockedResourceTypes: envSliceOr("LPCHECK_BLOCKED_RESOURCES", []string{
				"Image", "Stylesheet", "Font", "Media",
			}),
			BlockTrackers:  envBoolOr("LPCHECK_BLOCK_TRACKERS", true),
			UserAgent:      os.Getenv("LPCHECK_USER_AGENT"),
			AcceptLanguage: envOr("LPCHECK_ACCEPT_LANGUAGE", "en-US,en;q=0.9"),
		},
		Engine: EngineConfig{
			Name:          envOr("LPCHECK_ENGINE", "browser"),
			ReplayPath:    envOr("LPCHECK_REPLAY_PATH", "debug_page.html"),
			DebugDumpPath: envOr("LPCHECK_DEBUG_DUMP", "debug_page.html"),
			ScopeSelector: os.Getenv("LPCHECK_SCOPE_SELECTOR"),
		},
		Position: PositionConfig{
			BaseURL:    envOr("LPCHECK_BASE_URL", "https://app.uniswap.org"),
			Chain:      envOr("LPCHECK_CHAIN", "unichain"),
			ID:         envOr("LPCHECK_POSITION_ID", "59044"),
			ETHInitial: envFloatOr("LPCHECK_ETH_INITIAL", 38.1),
		},
		Extract: ExtractConfig{
			RateMin:     envFloatOr("LPCHECK_RATE_MIN", 2000),
			RateMax:     envFloatOr("LPCHECK_RATE_MAX", 2500),
			AmountFloor: envFloatOr("LPCHECK_AMOUNT_FLOOR", extract.DefaultAmountFloor),
		},
		Quote: QuoteConfig{
			Enabled: envBoolOr("LPCHECK_QUOTE_ENABLED", true),
			BaseURL: envOr("LPCHECK_QUOTE_URL", "https://api.coingecko.com/api/v3"),
			Asset:   envOr("LPCHECK_QUOTE_ASSET", "ethereum"),
			APIKey:  os.Getenv("LPCHECK_QUOTE_API_KEY"),
			Timeout: envDurationOr("LPCHECK_QUOTE_TIMEOUT", 5*time.Second),
		},
		Webhook: WebhookConfig{
			URL:    os.Getenv("LPCHECK_WEBHOOK_URL"),
			Secret: os.Getenv("LPCHECK_WEBHOOK_SECRET"),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("LPCHECK_AUTH_ENABLED", true),
			APIKeys: envSliceOr("LPCHECK_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("LPCHECK_RATE_RPS", 0.2),
			Burst:             envIntOr("LPCHECK_RATE_BURST", 2),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("LPCHECK_CACHE_MAX_ENTRIES", 100),
		},
		Log: LogConfig{
			Level:  envOr("LPCHECK_LOG_LEVEL", "info"),
			Format: envOr("LPCHECK_LOG_FORMAT", "text"),
		},
	}
}

// Validate checks values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	if err := c.Extract.Range().Validate(); err != nil {
		return err
	}
	if c.Extract.AmountFloor < 0 {
		return fmt.Errorf("config: amount floor must not be negative, got %g", c.Extract.AmountFloor)
	}
	switch c.Engine.Name {
	case "browser", "http", "file":
	default:
		return fmt.Errorf("config: unknown engine %q (want browser, http or file)", c.Engine.Name)
	}
	if c.Position.ID == "" {
		return fmt.Errorf("config: position id is required")
	}
	if c.Engine.Name == "browser" && c.Browser.MaxPages < 1 {
		return fmt.Errorf("config: max pages must be at least 1, got %d", c.Browser.MaxPages)
	}
	return nil
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}

package scraper

import (
	"log/slog"
	"sync/atomic"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/use-agent/lpcheck/config"
	"github.com/use-agent/lpcheck/models"
)

// Scraper owns one Chromium process and a pool of reusable tabs. Each Render
// borrows a tab for the whole settle wait, so the pool size caps how many
// position pages render at once: the CLI uses one tab, the server
// LPCHECK_MAX_PAGES.
type Scraper struct {
	browser     *rod.Browser
	pagePool    rod.Pool[rod.Page]
	maxPages    int
	scraperCfg  config.ScraperConfig
	activePages atomic.Int32
}

// renderFlags keep the position page's timers running while it settles in a
// headless tab.
var renderFlags = []flags.Flag{
	"disable-renderer-backgrounding",
	"disable-background-timer-throttling",
	"disable-backgrounding-occluded-windows",
	"disable-component-update",
	"disable-default-apps",
	"disable-dev-shm-usage",
	"disable-extensions",
	"no-first-run",
}

// NewScraper starts the browser. Failures are BROWSER_CRASH.
func NewScraper(browserCfg config.BrowserConfig, scraperCfg config.ScraperConfig) (*Scraper, error) {
	controlURL, err := launch(browserCfg)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to launch browser", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to connect to browser", err)
	}

	tabs := max(browserCfg.MaxPages, 1)
	slog.Info("browser ready", "controlURL", controlURL, "tabs", tabs, "headless", browserCfg.Headless)

	return &Scraper{
		browser:    browser,
		pagePool:   rod.NewPagePool(tabs),
		maxPages:   tabs,
		scraperCfg: scraperCfg,
	}, nil
}

func launch(cfg config.BrowserConfig) (string, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)
	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}
	if cfg.DefaultProxy != "" {
		l = l.Proxy(cfg.DefaultProxy)
	}
	for _, f := range renderFlags {
		l.Set(f)
	}
	return l.Launch()
}

// Stats reports tab usage for the health endpoint.
func (s *Scraper) Stats() models.PoolStats {
	return models.PoolStats{
		MaxPages:    s.maxPages,
		ActivePages: int(s.activePages.Load()),
	}
}

// Close closes every pooled tab, then the browser.
func (s *Scraper) Close() {
	s.pagePool.Cleanup(func(p *rod.Page) {
		_ = p.Close()
	})
	if err := s.browser.Close(); err != nil {
		slog.Warn("browser close failed", "error", err)
		return
	}
	slog.Debug("browser closed")
}

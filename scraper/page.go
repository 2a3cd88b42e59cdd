package scraper

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/use-agent/lpcheck/models"
	"github.com/ysmood/gson"
)

// readBudget is the time allowed after the settle wait for serializing the
// DOM and collecting fragments.
const readBudget = 15 * time.Second

// fragmentsJS returns the innerText of every element that directly holds
// non-blank text, in document order.
const fragmentsJS = `() => {
	const out = [];
	const snap = document.evaluate('//*[text()[normalize-space()]]', document, null,
		XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
	for (let i = 0; i < snap.snapshotLength; i++) {
		const el = snap.snapshotItem(i);
		const tag = el.tagName;
		if (tag === 'SCRIPT' || tag === 'STYLE' || tag === 'NOSCRIPT' || tag === 'TEMPLATE') continue;
		const text = (el.innerText || el.textContent || '').trim();
		if (text) out.push(text);
	}
	return out;
}`

// Render loads targetURL once, waits the configured settle time for
// client-side figures to appear, and returns the serialized page and its
// text fragments.
//
// Lifecycle:
//
//  1. Timeout guard   – navigation + settle wait + read budget
//  2. Acquire page    – borrow a tab from the pool (or create one)
//  3. DEFER: cleanup  – about:blank + return to pool
//  4. Headers         – locale and user agent, before navigation
//  5. Hijack mount    – block images/CSS/fonts/media/trackers, before navigation
//  6. Navigate        – bounded by the navigation timeout
//  7. Settle          – fixed wait; the page fills figures in after load
//  8. Extract         – page.HTML() + fragment texts
func (s *Scraper) Render(ctx context.Context, targetURL string) (*models.Snapshot, error) {
	// ── 1. Timeout guard ──────────────────────────────────────────────
	ctx, cancel := context.WithTimeout(ctx, s.scraperCfg.NavigationTimeout+s.scraperCfg.SettleWait+readBudget)
	defer cancel()

	// ── 2. Acquire page from pool ─────────────────────────────────────
	s.activePages.Add(1)
	defer s.activePages.Add(-1)

	page, acquireErr := s.pagePool.Get(func() (*rod.Page, error) {
		return s.browser.Page(proto.TargetCreateTarget{})
	})
	if acquireErr != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to acquire page from pool",
			acquireErr,
		)
	}

	// ── 3. Cleanup uses the original page reference so it still works
	// after the request context has expired.
	defer func() {
		if navErr := page.Navigate("about:blank"); navErr != nil {
			slog.Warn("cleanup: failed to navigate to about:blank",
				"error", navErr,
			)
		}
		s.pagePool.Put(page)
	}()

	// ── 4. Headers ────────────────────────────────────────────────────
	if s.scraperCfg.AcceptLanguage != "" {
		_ = proto.NetworkSetExtraHTTPHeaders{
			Headers: toHeadersMap(map[string]string{"Accept-Language": s.scraperCfg.AcceptLanguage}),
		}.Call(page)
	}
	if s.scraperCfg.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent:      s.scraperCfg.UserAgent,
			AcceptLanguage: s.scraperCfg.AcceptLanguage,
		}); err != nil {
			slog.Warn("user agent override failed", "error", err)
		}
	}

	// ── 5. Mount hijack router ────────────────────────────────────────
	router := setupHijack(page, s.scraperCfg.BlockedResourceTypes, s.scraperCfg.BlockTrackers)
	if router != nil {
		defer func() { _ = router.Stop() }()
	}

	p := page.Context(ctx)

	// ── 6. Navigate ───────────────────────────────────────────────────
	start := time.Now()
	if err := p.Timeout(s.scraperCfg.NavigationTimeout).Navigate(targetURL); err != nil {
		return nil, categorizeError(err, "navigation to position page failed")
	}
	if err := p.Timeout(s.scraperCfg.NavigationTimeout).WaitLoad(); err != nil {
		slog.Debug("load event not observed, continuing with settle wait",
			"url", targetURL,
			"error", err,
		)
	}
	slog.Debug("page loaded", "url", targetURL, "ms", time.Since(start).Milliseconds())

	// ── 7. Settle ─────────────────────────────────────────────────────
	if err := sleepCtx(ctx, s.scraperCfg.SettleWait); err != nil {
		return nil, categorizeError(err, "page did not settle before the deadline")
	}

	// ── 8. Extract ────────────────────────────────────────────────────
	rawHTML, htmlErr := p.HTML()
	if htmlErr != nil {
		return nil, categorizeError(htmlErr, "failed to extract page HTML")
	}

	res, evalErr := p.Eval(fragmentsJS)
	if evalErr != nil {
		return nil, categorizeError(evalErr, "failed to collect page text")
	}
	fragments := decodeFragments(res.Value)

	slog.Info("page rendered",
		"url", targetURL,
		"markupBytes", len(rawHTML),
		"fragments", len(fragments),
	)

	return &models.Snapshot{
		URL:       targetURL,
		Markup:    rawHTML,
		Fragments: fragments,
		Engine:    "browser",
		FetchedAt: time.Now(),
	}, nil
}

// decodeFragments converts the JS result array into strings, dropping
// anything that is not a non-empty string.
func decodeFragments(v gson.JSON) []string {
	items := v.Arr()
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item.Nil() {
			continue
		}
		if s := item.Str(); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// sleepCtx waits for d or until ctx is done, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// categorizeError wraps raw errors into typed ScrapeErrors so callers can
// map them to hints and HTTP status codes.
func categorizeError(err error, msg string) *models.ScrapeError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "request canceled", err)
	default:
		return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
	}
}

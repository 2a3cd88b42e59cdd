package engine

import (
	"fmt"
	"log/slog"

	"github.com/use-agent/lpcheck/config"
	"github.com/use-agent/lpcheck/scraper"
)

// FromConfig builds the configured engine, wrapped with the debug dump.
// The returned Scraper is non-nil only for the browser engine; the caller
// must Close it.
func FromConfig(cfg *config.Config) (Engine, *scraper.Scraper, error) {
	switch cfg.Engine.Name {
	case "browser":
		sc, err := scraper.NewScraper(cfg.Browser, cfg.Scraper)
		if err != nil {
			return nil, nil, err
		}
		return WithDump(NewRodEngine(sc.Render), cfg.Engine.DebugDumpPath), sc, nil

	case "http":
		e := NewHTTPEngine(cfg.Scraper.NavigationTimeout,
			WithScope(cfg.Engine.ScopeSelector),
			WithAcceptLanguage(cfg.Scraper.AcceptLanguage),
		)
		if cfg.Browser.DefaultProxy != "" {
			WithProxy(cfg.Browser.DefaultProxy)(e)
		}
		return WithDump(e, cfg.Engine.DebugDumpPath), nil, nil

	case "file":
		if cfg.Engine.ReplayPath == cfg.Engine.DebugDumpPath {
			slog.Debug("replaying the debug dump; dump disabled for this run", "path", cfg.Engine.ReplayPath)
			return NewFileEngine(cfg.Engine.ReplayPath, cfg.Engine.ScopeSelector), nil, nil
		}
		return WithDump(NewFileEngine(cfg.Engine.ReplayPath, cfg.Engine.ScopeSelector), cfg.Engine.DebugDumpPath), nil, nil
	}
	return nil, nil, fmt.Errorf("engine: unknown engine %q", cfg.Engine.Name)
}

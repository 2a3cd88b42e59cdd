package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/use-agent/lpcheck/api"
	"github.com/use-agent/lpcheck/api/handler"
	"github.com/use-agent/lpcheck/cache"
	"github.com/use-agent/lpcheck/config"
	"github.com/use-agent/lpcheck/engine"
	"github.com/use-agent/lpcheck/extract"
	"github.com/use-agent/lpcheck/quote"
	"github.com/use-agent/lpcheck/resolver"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: .env: %v\n", err)
	}

	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	slog.Info("lpcheck server starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"engine", cfg.Engine.Name,
		"maxPages", cfg.Browser.MaxPages,
	)

	// ── 3. Initialise renderer (launches browser for "browser") ─────
	eng, sc, err := engine.FromConfig(cfg)
	if err != nil {
		slog.Error("failed to initialise engine", "error", err)
		os.Exit(1)
	}
	var pool handler.PoolReporter
	if sc != nil {
		defer sc.Close()
		pool = sc
	}

	// ── 4. Default pipeline and quote fallback ──────────────────────
	pipeline, err := extract.New(extract.Options{
		AmountFloor: cfg.Extract.AmountFloor,
		RateRange:   cfg.Extract.Range(),
	})
	if err != nil {
		slog.Error("invalid extraction options", "error", err)
		os.Exit(1)
	}

	var quotes resolver.Quoter
	if cfg.Quote.Enabled {
		quotes = quote.New(
			quote.WithBaseURL(cfg.Quote.BaseURL),
			quote.WithAsset(cfg.Quote.Asset),
			quote.WithTimeout(cfg.Quote.Timeout),
			quote.WithAPIKey(cfg.Quote.APIKey),
		)
	}
	res := resolver.New(eng, pipeline, quotes)

	// ── 5. Cache and router ─────────────────────────────────────────
	cc := cache.New(cfg.Cache.MaxEntries)
	defer cc.Close()

	router := api.NewRouter(res, pool, cfg, cc, time.Now())

	// ── 6. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 7. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	// A report can spend the whole settle wait rendering; let in-flight
	// requests finish it.
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Scraper.SettleWait+5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	slog.Info("lpcheck server stopped")
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if cfg.Format == "text" {
		h = slog.NewTextHandler(os.Stdout, opts)
	} else {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(h))
}

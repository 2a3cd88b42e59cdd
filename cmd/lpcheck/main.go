package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/use-agent/lpcheck/config"
	"github.com/use-agent/lpcheck/engine"
	"github.com/use-agent/lpcheck/extract"
	"github.com/use-agent/lpcheck/models"
	"github.com/use-agent/lpcheck/quote"
	"github.com/use-agent/lpcheck/report"
	"github.com/use-agent/lpcheck/resolver"
	"github.com/use-agent/lpcheck/webhook"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: .env: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one report and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg := config.Load()

	fs := flag.NewFlagSet("lpcheck", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.Position.ID, "position", cfg.Position.ID, "position token id")
	fs.StringVar(&cfg.Position.Chain, "chain", cfg.Position.Chain, "network segment of the position URL")
	fs.Float64Var(&cfg.Extract.RateMin, "rate-min", cfg.Extract.RateMin, "lowest plausible ETH/USD rate")
	fs.Float64Var(&cfg.Extract.RateMax, "rate-max", cfg.Extract.RateMax, "highest plausible ETH/USD rate")
	fs.Float64Var(&cfg.Position.ETHInitial, "eth-initial", cfg.Position.ETHInitial, "ETH originally deposited")
	fs.StringVar(&cfg.Engine.Name, "engine", cfg.Engine.Name, "renderer: browser, http or file")
	replay := fs.String("replay", "", "replay a saved page instead of loading the position (implies -engine=file)")
	asJSON := fs.Bool("json", false, "print the report as JSON")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *replay != "" {
		cfg.Engine.Name = "file"
		cfg.Engine.ReplayPath = *replay
	}

	initLogger(cfg.Log, stderr)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "invalid configuration: %v\n", err)
		return 2
	}

	url := cfg.Position.URL()
	if !*asJSON {
		fmt.Fprintln(stdout, "Analyzing Uniswap position...")
		fmt.Fprintf(stdout, "URL: %s\n", url)
		fmt.Fprintf(stdout, "Initial ETH: %g\n", cfg.Position.ETHInitial)
		fmt.Fprintln(stdout, strings.Repeat("-", 50))
	}

	// A run renders exactly one page.
	cfg.Browser.MaxPages = 1
	eng, sc, err := engine.FromConfig(cfg)
	if err != nil {
		return fail(stdout, stderr, cfg, url, *asJSON, err)
	}
	if sc != nil {
		defer sc.Close()
	}

	pipeline, err := extract.New(extract.Options{
		AmountFloor: cfg.Extract.AmountFloor,
		RateRange:   cfg.Extract.Range(),
	})
	if err != nil {
		return fail(stdout, stderr, cfg, url, *asJSON, err)
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

	start := time.Now()
	v, err := resolver.New(eng, pipeline, quotes).Resolve(ctx, url)
	if err != nil {
		return fail(stdout, stderr, cfg, url, *asJSON, err)
	}

	rep := report.Compare(v.PositionUSD, v.Rate, cfg.Position.ETHInitial)
	rep.PositionRung = v.PositionRung
	rep.RateSource = v.RateSource

	resp := &models.ReportResponse{
		Success: true,
		URL:     url,
		Report:  rep.Model(),
		Timing: models.TimingInfo{
			TotalMs:   time.Since(start).Milliseconds(),
			RenderMs:  v.RenderDuration.Milliseconds(),
			ExtractMs: v.ExtractDuration.Milliseconds(),
		},
	}
	notify(ctx, cfg.Webhook, resp)

	if *asJSON {
		return writeJSON(stdout, stderr, resp, 0)
	}
	if err := report.Write(stdout, rep); err != nil {
		fmt.Fprintf(stderr, "writing report: %v\n", err)
		return 1
	}
	return 0
}

// fail reports err with its likely causes and returns exit code 1.
func fail(stdout, stderr io.Writer, cfg *config.Config, url string, asJSON bool, err error) int {
	se := models.AsScrapeError(err)
	resp := &models.ReportResponse{Success: false, URL: url, Error: se.ToDetail()}
	notify(context.Background(), cfg.Webhook, resp)

	if asJSON {
		return writeJSON(stdout, stderr, resp, 1)
	}

	fmt.Fprintln(stderr, "Could not extract the position data from the page.")
	fmt.Fprintf(stderr, "Error: %s\n", se.Message)
	if hints := models.Hints(se); len(hints) > 0 {
		fmt.Fprintln(stderr, "Possible causes:")
		for i, h := range hints {
			if h == models.HintDebugDump && cfg.Engine.DebugDumpPath != "" {
				h = fmt.Sprintf("%s (%s)", h, cfg.Engine.DebugDumpPath)
			}
			fmt.Fprintf(stderr, "%d. %s\n", i+1, h)
		}
	}
	return 1
}

func writeJSON(stdout, stderr io.Writer, resp *models.ReportResponse, code int) int {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		fmt.Fprintf(stderr, "encoding report: %v\n", err)
		return 1
	}
	return code
}

// notify delivers the run's outcome synchronously; a CLI run must not exit
// before the event is sent.
func notify(ctx context.Context, cfg config.WebhookConfig, resp *models.ReportResponse) {
	if cfg.URL == "" {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := webhook.Deliver(ctx, cfg.URL, cfg.Secret, webhook.NewReportEvent(resp)); err != nil {
		slog.Warn("webhook delivery failed", "url", cfg.URL, "error", err)
	}
}

// initLogger configures slog based on the LogConfig. The CLI logs to
// stderr so stdout carries only the report.
func initLogger(cfg config.LogConfig, w io.Writer) {
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

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	slog.SetDefault(slog.New(handler))
}

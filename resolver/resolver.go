// Package resolver turns a rendered position page into the two figures a
// report needs, falling back to a price quote for the rate.
package resolver

import (
	"context"
	"log/slog"
	"time"

	"github.com/use-agent/lpcheck/engine"
	"github.com/use-agent/lpcheck/extract"
	"github.com/use-agent/lpcheck/models"
)

// RateSourceQuote marks a rate that came from the quote service.
const RateSourceQuote = "quote"

// Quoter supplies a fallback USD price for the reference asset.
type Quoter interface {
	Price(ctx context.Context) (float64, bool)
}

// Values are the resolved figures of one run.
type Values struct {
	URL          string
	Engine       string
	PositionUSD  float64
	PositionRung string
	Rate         float64
	// RateSource is the rate rung name, or RateSourceQuote.
	RateSource string

	RenderDuration  time.Duration
	ExtractDuration time.Duration
}

// Resolver renders a page, runs the extraction ladders and fills in a
// missing rate from the quote service.
type Resolver struct {
	engine   engine.Engine
	pipeline *extract.Pipeline
	quotes   Quoter
}

// New creates a Resolver. quotes may be nil to disable the fallback.
func New(e engine.Engine, p *extract.Pipeline, quotes Quoter) *Resolver {
	return &Resolver{engine: e, pipeline: p, quotes: quotes}
}

// Resolve renders url once and resolves both figures. Renderer failures
// are returned unchanged. An unresolved position ends the run with
// POSITION_UNRESOLVED before any quote is requested; an unresolved rate
// with no quote ends it with RATE_UNRESOLVED.
func (r *Resolver) Resolve(ctx context.Context, url string) (*Values, error) {
	start := time.Now()
	snap, err := r.engine.Render(ctx, url)
	if err != nil {
		return nil, err
	}
	rendered := time.Now()

	dollars := extract.DollarFragments(snap.Fragments)
	slog.Info("page text collected",
		"engine", snap.Engine,
		"fragments", len(snap.Fragments),
		"dollarFragments", len(dollars),
	)
	for i, f := range dollars[:min(len(dollars), 5)] {
		slog.Debug("dollar fragment", "index", i+1, "text", f)
	}

	res := r.pipeline.Extract(extract.Input{Markup: snap.Markup, Fragments: snap.Fragments})

	if res.Position == nil {
		return nil, models.NewScrapeError(
			models.ErrCodePositionUnresolved,
			"could not find the position value on the page",
			nil,
		)
	}

	v := &Values{
		URL:          url,
		Engine:       snap.Engine,
		PositionUSD:  res.Position.Value,
		PositionRung: res.Position.Rung,
	}

	if res.Rate != nil {
		v.Rate = res.Rate.Value
		v.RateSource = res.Rate.Rung
	} else {
		price, ok := r.quote(ctx)
		if !ok {
			return nil, models.NewScrapeError(
				models.ErrCodeRateUnresolved,
				"could not find the ETH rate on the page and no quote was available",
				nil,
			)
		}
		v.Rate = price
		v.RateSource = RateSourceQuote
	}

	v.RenderDuration = rendered.Sub(start)
	v.ExtractDuration = time.Since(rendered)
	return v, nil
}

func (r *Resolver) quote(ctx context.Context) (float64, bool) {
	if r.quotes == nil {
		slog.Warn("rate unresolved and quote fallback disabled")
		return 0, false
	}
	slog.Info("rate unresolved on page, requesting quote")
	return r.quotes.Price(ctx)
}

// WithPipeline returns a copy of r that extracts with p.
func (r *Resolver) WithPipeline(p *extract.Pipeline) *Resolver {
	cp := *r
	cp.pipeline = p
	return &cp
}

// Engine returns the renderer name.
func (r *Resolver) Engine() string {
	return r.engine.Name()
}

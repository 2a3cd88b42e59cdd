package engine

import (
	"context"

	"github.com/use-agent/lpcheck/models"
)

// RenderFunc renders one page. FromConfig passes scraper.Scraper.Render.
type RenderFunc func(ctx context.Context, url string) (*models.Snapshot, error)

// RodEngine is the browser engine. It stamps the snapshot with its name and
// classifies render failures.
type RodEngine struct {
	render RenderFunc
}

// NewRodEngine creates a RodEngine.
func NewRodEngine(render RenderFunc) *RodEngine {
	return &RodEngine{render: render}
}

func (e *RodEngine) Name() string { return "browser" }

func (e *RodEngine) Render(ctx context.Context, url string) (*models.Snapshot, error) {
	if e.render == nil {
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "browser engine not configured", nil)
	}

	snap, err := e.render(ctx, url)
	if err != nil {
		return nil, classify(err, "browser render failed")
	}

	snap.Engine = e.Name()
	return snap, nil
}

package engine

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/use-agent/lpcheck/dom"
	"github.com/use-agent/lpcheck/models"
)

// FileEngine replays a saved page, typically a debug dump from an earlier
// browser run, through the same extraction path.
type FileEngine struct {
	path  string
	scope string
}

// NewFileEngine creates a FileEngine reading path. A non-empty scope limits
// fragment collection to elements matching that CSS selector.
func NewFileEngine(path, scope string) *FileEngine {
	return &FileEngine{path: path, scope: scope}
}

func (e *FileEngine) Name() string { return "file" }

func (e *FileEngine) Render(ctx context.Context, url string) (*models.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, classify(err, "replay canceled")
	}

	data, err := os.ReadFile(e.path)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput, "cannot read replay file "+e.path, err)
	}

	markup := string(data)
	fragments, err := dom.Fragments(markup, e.scope)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput, "collecting page text failed", err)
	}
	slog.Info("replaying saved page", "path", e.path, "fragments", len(fragments))

	return &models.Snapshot{
		URL:       url,
		Markup:    markup,
		Fragments: fragments,
		Engine:    e.Name(),
		FetchedAt: time.Now(),
	}, nil
}

package engine

import (
	"context"
	"log/slog"
	"os"

	"github.com/use-agent/lpcheck/models"
)

// dumpEngine writes every rendered page to a fixed path, overwriting the
// previous one.
type dumpEngine struct {
	Engine
	path string
}

// WithDump wraps e so each successful render also saves its markup to path.
// An empty path returns e unchanged. Write failures are logged and do not
// fail the render.
func WithDump(e Engine, path string) Engine {
	if path == "" {
		return e
	}
	return &dumpEngine{Engine: e, path: path}
}

func (d *dumpEngine) Render(ctx context.Context, url string) (*models.Snapshot, error) {
	snap, err := d.Engine.Render(ctx, url)
	if err != nil {
		return nil, err
	}
	if werr := os.WriteFile(d.path, []byte(snap.Markup), 0o644); werr != nil {
		slog.Warn("debug dump failed", "path", d.path, "error", werr)
	} else {
		slog.Debug("debug dump written", "path", d.path, "bytes", len(snap.Markup))
	}
	return snap, nil
}

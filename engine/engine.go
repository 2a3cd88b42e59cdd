// Package engine defines the page renderers that turn a position URL into a
// models.Snapshot.
package engine

import (
	"context"
	"errors"

	"github.com/use-agent/lpcheck/models"
)

// Engine is the interface that all renderers must implement.
type Engine interface {
	// Name returns the engine identifier ("browser", "http", "file").
	Name() string

	// Render loads the page once and returns its markup and text fragments.
	// Failures are *models.ScrapeError values and end the run.
	Render(ctx context.Context, url string) (*models.Snapshot, error)
}

// classify wraps err as a ScrapeError, keeping an existing code if err
// already carries one.
func classify(err error, msg string) *models.ScrapeError {
	var se *models.ScrapeError
	switch {
	case errors.As(err, &se):
		return se
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	default:
		return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
	}
}

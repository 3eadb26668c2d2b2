package repository

import (
	"context"

	"thumbio/internal/domain"
)

// CanvasRepository stores canvases in the SQL database.
type CanvasRepository interface {
	// FindByID returns ErrCanvasNotFound when no row matches.
	FindByID(ctx context.Context, id string) (*domain.Canvas, error)

	// Create inserts a new canvas. A clashing id yields ErrDuplicateEntry.
	Create(ctx context.Context, canvas *domain.Canvas) error

	// SaveIfNewer writes the canvas unless the stored row already has the
	// same or a higher version, inserting it when missing. It reports whether
	// the row was written.
	SaveIfNewer(ctx context.Context, canvas *domain.Canvas) (bool, error)

	// List returns the most recently updated canvases, newest first.
	List(ctx context.Context, limit int) ([]domain.Canvas, error)
}

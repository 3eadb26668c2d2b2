// Package canvas ties the tool state machine, selection, drawing, viewport and
// history together for one open canvas.
package canvas

import (
	"context"

	"thumbio/internal/domain"
	"thumbio/internal/geometry"
)

// ThumbnailStore is the state store that owns thumbnail items.
type ThumbnailStore interface {
	Thumbnails() []domain.Thumbnail
	SetPositions(positions map[string]geometry.Point)
	SetThumbnails(items []domain.Thumbnail)
}

// LabelStore is the state store that owns text labels.
type LabelStore interface {
	Labels() []domain.Label
	SetPositions(positions map[string]geometry.Point)
	SetLabels(items []domain.Label)
}

// QuotaGate approves or denies an external content fetch of the given cost.
type QuotaGate interface {
	Approve(ctx context.Context, units int64) (bool, error)
}

// CursorPublisher forwards the local cursor to the presence relay.
type CursorPublisher interface {
	SendCursor(x, y float64) error
	LeaveCursor() error
}

// MemoryThumbnails is an in-process ThumbnailStore.
type MemoryThumbnails struct {
	items []domain.Thumbnail
}

// NewMemoryThumbnails returns a store holding a copy of items.
func NewMemoryThumbnails(items ...domain.Thumbnail) *MemoryThumbnails {
	return &MemoryThumbnails{items: append([]domain.Thumbnail(nil), items...)}
}

func (m *MemoryThumbnails) Thumbnails() []domain.Thumbnail {
	return append([]domain.Thumbnail(nil), m.items...)
}

func (m *MemoryThumbnails) SetPositions(positions map[string]geometry.Point) {
	for i := range m.items {
		if p, ok := positions[m.items[i].ID]; ok {
			m.items[i].X, m.items[i].Y = p.X, p.Y
		}
	}
}

func (m *MemoryThumbnails) SetThumbnails(items []domain.Thumbnail) {
	m.items = append([]domain.Thumbnail(nil), items...)
}

// MemoryLabels is an in-process LabelStore.
type MemoryLabels struct {
	items []domain.Label
}

// NewMemoryLabels returns a store holding a copy of items.
func NewMemoryLabels(items ...domain.Label) *MemoryLabels {
	return &MemoryLabels{items: append([]domain.Label(nil), items...)}
}

func (m *MemoryLabels) Labels() []domain.Label {
	return append([]domain.Label(nil), m.items...)
}

func (m *MemoryLabels) SetPositions(positions map[string]geometry.Point) {
	for i := range m.items {
		if p, ok := positions[m.items[i].ID]; ok {
			m.items[i].X, m.items[i].Y = p.X, p.Y
		}
	}
}

func (m *MemoryLabels) SetLabels(items []domain.Label) {
	m.items = append([]domain.Label(nil), items...)
}

package repository

import (
	"context"
	"time"

	"thumbio/internal/domain"
)

// CanvasCache is the Redis read-through cache in front of CanvasRepository.
// It is the first store a save reaches, so it also arbitrates versions
// between concurrent writers.
type CanvasCache interface {
	// GetCanvas returns ErrCacheMiss when the canvas is not cached.
	GetCanvas(ctx context.Context, id string) (*domain.Canvas, error)

	// AddCanvas caches the canvas only when no entry exists yet and reports
	// whether it did. A zero ttl keeps it until evicted.
	AddCanvas(ctx context.Context, canvas *domain.Canvas, ttl time.Duration) (bool, error)

	// SwapCanvas replaces the cached entry only when it is absent or holds
	// version canvas.Version-1. false means another writer got there first.
	SwapCanvas(ctx context.Context, canvas *domain.Canvas, ttl time.Duration) (bool, error)

	DeleteCanvas(ctx context.Context, id string) error
}

// QuotaStore holds the per-day usage counter of the external fetch quota.
type QuotaStore interface {
	// Reserve atomically adds units to the counter of day unless that would
	// exceed limit. It returns whether the units were granted and the counter
	// value afterwards. The key expires at expireAt.
	Reserve(ctx context.Context, day string, units, limit int64, expireAt time.Time) (bool, int64, error)

	// Used returns the counter of day, zero when unset.
	Used(ctx context.Context, day string) (int64, error)
}

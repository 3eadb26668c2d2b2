// Package mocks holds testify mocks of the repository interfaces.
package mocks

import (
	"context"
	"time"

	"thumbio/internal/domain"

	"github.com/stretchr/testify/mock"
)

// CanvasRepository is a mock of repository.CanvasRepository.
type CanvasRepository struct {
	mock.Mock
}

func (m *CanvasRepository) FindByID(ctx context.Context, id string) (*domain.Canvas, error) {
	args := m.Called(ctx, id)
	var canvas *domain.Canvas
	if v := args.Get(0); v != nil {
		canvas = v.(*domain.Canvas)
	}
	return canvas, args.Error(1)
}

func (m *CanvasRepository) Create(ctx context.Context, canvas *domain.Canvas) error {
	return m.Called(ctx, canvas).Error(0)
}

func (m *CanvasRepository) SaveIfNewer(ctx context.Context, canvas *domain.Canvas) (bool, error) {
	args := m.Called(ctx, canvas)
	return args.Bool(0), args.Error(1)
}

func (m *CanvasRepository) List(ctx context.Context, limit int) ([]domain.Canvas, error) {
	args := m.Called(ctx, limit)
	var canvases []domain.Canvas
	if v := args.Get(0); v != nil {
		canvases = v.([]domain.Canvas)
	}
	return canvases, args.Error(1)
}

// CanvasCache is a mock of repository.CanvasCache.
type CanvasCache struct {
	mock.Mock
}

func (m *CanvasCache) GetCanvas(ctx context.Context, id string) (*domain.Canvas, error) {
	args := m.Called(ctx, id)
	var canvas *domain.Canvas
	if v := args.Get(0); v != nil {
		canvas = v.(*domain.Canvas)
	}
	return canvas, args.Error(1)
}

func (m *CanvasCache) AddCanvas(ctx context.Context, canvas *domain.Canvas, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, canvas, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *CanvasCache) SwapCanvas(ctx context.Context, canvas *domain.Canvas, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, canvas, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *CanvasCache) DeleteCanvas(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// QuotaStore is a mock of repository.QuotaStore.
type QuotaStore struct {
	mock.Mock
}

func (m *QuotaStore) Reserve(ctx context.Context, day string, units, limit int64, expireAt time.Time) (bool, int64, error) {
	args := m.Called(ctx, day, units, limit, expireAt)
	return args.Bool(0), args.Get(1).(int64), args.Error(2)
}

func (m *QuotaStore) Used(ctx context.Context, day string) (int64, error) {
	args := m.Called(ctx, day)
	return args.Get(0).(int64), args.Error(1)
}

package service_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"thumbio/internal/domain"
	"thumbio/internal/repository"
	"thumbio/internal/repository/mocks"
	"thumbio/internal/service"
	"thumbio/internal/tasks"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type queueMock struct {
	mock.Mock
}

func (m *queueMock) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	args := m.Called(ctx, task)
	var info *asynq.TaskInfo
	if v := args.Get(0); v != nil {
		info = v.(*asynq.TaskInfo)
	}
	return info, args.Error(1)
}

var fixedNow = time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC)

func newCanvasService(queue service.TaskEnqueuer) (*service.CanvasService, *mocks.CanvasRepository, *mocks.CanvasCache) {
	repo := new(mocks.CanvasRepository)
	cache := new(mocks.CanvasCache)
	svc := service.NewCanvasService(repo, cache, queue,
		service.WithCacheTTL(time.Hour),
		service.WithCanvasClock(func() time.Time { return fixedNow }))
	return svc, repo, cache
}

func storedCanvas(t *testing.T, version uint, doc domain.CanvasDocument) *domain.Canvas {
	t.Helper()
	c := &domain.Canvas{ID: "c-1", Name: "Board", Version: version}
	require.NoError(t, c.SetDocument(doc))
	return c
}

func TestCanvasService_Create(t *testing.T) {
	svc, repo, cache := newCanvasService(nil)
	ctx := context.Background()

	repo.On("Create", ctx, mock.MatchedBy(func(c *domain.Canvas) bool {
		return c.Name == "Spring launch" && c.ID != "" && c.Version == 0
	})).Return(nil).Once()
	cache.On("AddCanvas", ctx, mock.AnythingOfType("*domain.Canvas"), time.Hour).Return(true, nil).Once()

	canvas, err := svc.Create(ctx, "  Spring launch ")
	require.NoError(t, err)
	assert.Len(t, canvas.ID, 36)
	assert.True(t, canvas.CreatedAt.Equal(fixedNow))
	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestCanvasService_CreateDefaultsNameAndRejectsLong(t *testing.T) {
	svc, repo, cache := newCanvasService(nil)
	ctx := context.Background()
	repo.On("Create", ctx, mock.MatchedBy(func(c *domain.Canvas) bool {
		return c.Name == service.DefaultCanvasName
	})).Return(nil).Once()
	cache.On("AddCanvas", ctx, mock.Anything, time.Hour).Return(false, errors.New("redis down")).Once()

	_, err := svc.Create(ctx, "")
	require.NoError(t, err, "a cache failure does not fail the create")

	long := string(bytes.Repeat([]byte("x"), 192))
	_, err = svc.Create(ctx, long)
	assert.ErrorIs(t, err, service.ErrInvalidName)
	repo.AssertExpectations(t)
}

func TestCanvasService_GetCacheHit(t *testing.T) {
	svc, repo, cache := newCanvasService(nil)
	ctx := context.Background()
	cached := storedCanvas(t, 2, domain.CanvasDocument{Labels: []domain.Label{{ID: "l", Text: "cached"}}})
	cache.On("GetCanvas", ctx, "c-1").Return(cached, nil).Once()

	canvas, doc, err := svc.Get(ctx, "c-1")
	require.NoError(t, err)
	assert.Equal(t, uint(2), canvas.Version)
	assert.Equal(t, "cached", doc.Labels[0].Text)
	repo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestCanvasService_GetCacheMissBackfills(t *testing.T) {
	svc, repo, cache := newCanvasService(nil)
	ctx := context.Background()
	stored := storedCanvas(t, 5, domain.CanvasDocument{})
	cache.On("GetCanvas", ctx, "c-1").Return(nil, repository.ErrCacheMiss).Once()
	repo.On("FindByID", ctx, "c-1").Return(stored, nil).Once()
	cache.On("AddCanvas", ctx, stored, time.Hour).Return(true, nil).Once()

	canvas, _, err := svc.Get(ctx, "c-1")
	require.NoError(t, err)
	assert.Equal(t, uint(5), canvas.Version)
	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestCanvasService_GetNotFound(t *testing.T) {
	svc, repo, cache := newCanvasService(nil)
	ctx := context.Background()
	cache.On("GetCanvas", ctx, "nope").Return(nil, errors.New("connection refused")).Once()
	repo.On("FindByID", ctx, "nope").Return(nil, repository.ErrCanvasNotFound).Once()

	_, _, err := svc.Get(ctx, "nope")
	assert.ErrorIs(t, err, service.ErrCanvasNotFound)
}

func TestCanvasService_SaveQueuesPersistence(t *testing.T) {
	queue := new(queueMock)
	svc, repo, cache := newCanvasService(queue)
	ctx := context.Background()
	cache.On("GetCanvas", ctx, "c-1").Return(storedCanvas(t, 2, domain.CanvasDocument{}), nil).Once()
	cache.On("SwapCanvas", ctx, mock.MatchedBy(func(c *domain.Canvas) bool {
		return c.Version == 3 && c.Name == "Renamed"
	}), time.Hour).Return(true, nil).Once()
	queue.On("EnqueueContext", ctx, mock.MatchedBy(func(task *asynq.Task) bool {
		p, err := tasks.ParseCanvasPersistPayload(task.Payload())
		return err == nil && task.Type() == tasks.TypeCanvasPersist && p.Version == 3
	})).Return(&asynq.TaskInfo{ID: "task-1"}, nil).Once()

	doc := domain.CanvasDocument{Comments: []domain.Comment{{ID: "c", Text: "ok"}}}
	canvas, err := svc.Save(ctx, "c-1", "Renamed", doc)
	require.NoError(t, err)
	assert.Equal(t, uint(3), canvas.Version)
	assert.True(t, canvas.UpdatedAt.Equal(fixedNow))

	queue.AssertExpectations(t)
	cache.AssertExpectations(t)
	repo.AssertNotCalled(t, "SaveIfNewer", mock.Anything, mock.Anything)
}

func TestCanvasService_SaveFallsBackToDatabase(t *testing.T) {
	queue := new(queueMock)
	svc, repo, cache := newCanvasService(queue)
	ctx := context.Background()
	cache.On("GetCanvas", ctx, "c-1").Return(storedCanvas(t, 1, domain.CanvasDocument{}), nil).Once()
	cache.On("SwapCanvas", ctx, mock.Anything, time.Hour).Return(true, nil).Once()
	queue.On("EnqueueContext", ctx, mock.Anything).Return(nil, errors.New("queue unavailable")).Once()
	repo.On("SaveIfNewer", ctx, mock.MatchedBy(func(c *domain.Canvas) bool { return c.Version == 2 })).Return(true, nil).Once()

	_, err := svc.Save(ctx, "c-1", "", domain.CanvasDocument{})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestCanvasService_SaveRetriesAfterLosingVersion(t *testing.T) {
	queue := new(queueMock)
	svc, _, cache := newCanvasService(queue)
	ctx := context.Background()
	cache.On("GetCanvas", ctx, "c-1").Return(storedCanvas(t, 1, domain.CanvasDocument{}), nil).Once()
	cache.On("GetCanvas", ctx, "c-1").Return(storedCanvas(t, 2, domain.CanvasDocument{}), nil).Once()
	cache.On("SwapCanvas", ctx, mock.MatchedBy(func(c *domain.Canvas) bool { return c.Version == 2 }), time.Hour).Return(false, nil).Once()
	cache.On("SwapCanvas", ctx, mock.MatchedBy(func(c *domain.Canvas) bool { return c.Version == 3 }), time.Hour).Return(true, nil).Once()
	queue.On("EnqueueContext", ctx, mock.Anything).Return(&asynq.TaskInfo{ID: "task-2"}, nil).Once()

	canvas, err := svc.Save(ctx, "c-1", "", domain.CanvasDocument{})
	require.NoError(t, err)
	assert.Equal(t, uint(3), canvas.Version)
	cache.AssertExpectations(t)
	queue.AssertExpectations(t)
}

func TestCanvasService_SaveWithoutCacheInvalidatesAndUsesDatabase(t *testing.T) {
	svc, repo, cache := newCanvasService(nil)
	ctx := context.Background()
	redisDown := errors.New("connection refused")
	cache.On("GetCanvas", ctx, "c-1").Return(nil, redisDown).Twice()
	cache.On("AddCanvas", ctx, mock.Anything, time.Hour).Return(false, redisDown).Twice()
	cache.On("SwapCanvas", ctx, mock.Anything, time.Hour).Return(false, redisDown).Twice()
	cache.On("DeleteCanvas", ctx, "c-1").Return(redisDown).Twice()
	repo.On("FindByID", ctx, "c-1").Return(storedCanvas(t, 4, domain.CanvasDocument{}), nil).Once()
	repo.On("FindByID", ctx, "c-1").Return(storedCanvas(t, 5, domain.CanvasDocument{}), nil).Once()
	repo.On("SaveIfNewer", ctx, mock.MatchedBy(func(c *domain.Canvas) bool { return c.Version == 5 })).Return(false, nil).Once()
	repo.On("SaveIfNewer", ctx, mock.MatchedBy(func(c *domain.Canvas) bool { return c.Version == 6 })).Return(true, nil).Once()

	canvas, err := svc.Save(ctx, "c-1", "", domain.CanvasDocument{})
	require.NoError(t, err)
	assert.Equal(t, uint(6), canvas.Version)
	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestCanvasService_SaveGivesUpAfterRepeatedConflicts(t *testing.T) {
	svc, _, cache := newCanvasService(nil)
	ctx := context.Background()
	cache.On("GetCanvas", ctx, "c-1").Return(storedCanvas(t, 1, domain.CanvasDocument{}), nil)
	cache.On("SwapCanvas", ctx, mock.Anything, time.Hour).Return(false, nil)

	_, err := svc.Save(ctx, "c-1", "", domain.CanvasDocument{})
	assert.ErrorIs(t, err, service.ErrSaveConflict)
}

func TestCanvasService_SaveRejectsInvalidDocument(t *testing.T) {
	svc, repo, cache := newCanvasService(nil)
	doc := domain.CanvasDocument{Thumbnails: []domain.Thumbnail{{ID: "a"}, {ID: "a"}}}

	_, err := svc.Save(context.Background(), "c-1", "", doc)
	assert.ErrorIs(t, err, service.ErrInvalidDocument)
	cache.AssertNotCalled(t, "GetCanvas", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "SaveIfNewer", mock.Anything, mock.Anything)
}

func TestCanvasService_PersistSkipsStaleVersions(t *testing.T) {
	svc, repo, _ := newCanvasService(nil)
	ctx := context.Background()
	stale := &domain.Canvas{ID: "c-1", Version: 4}
	repo.On("SaveIfNewer", ctx, stale).Return(false, nil).Once()

	written, err := svc.Persist(ctx, stale)
	require.NoError(t, err)
	assert.False(t, written)

	newer := &domain.Canvas{ID: "c-1", Version: 5}
	repo.On("SaveIfNewer", ctx, newer).Return(true, nil).Once()
	written, err = svc.Persist(ctx, newer)
	require.NoError(t, err)
	assert.True(t, written)
	repo.AssertExpectations(t)
}

func TestCanvasService_Export(t *testing.T) {
	svc, _, cache := newCanvasService(nil)
	ctx := context.Background()
	cache.On("GetCanvas", ctx, "c-1").Return(storedCanvas(t, 1, domain.CanvasDocument{
		Labels: []domain.Label{{ID: "l", Text: "Title", X: 5, Y: 5}},
	}), nil).Once()

	var buf bytes.Buffer
	require.NoError(t, svc.Export(ctx, "c-1", &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

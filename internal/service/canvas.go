package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"thumbio/internal/domain"
	"thumbio/internal/export"
	"thumbio/internal/repository"
	"thumbio/internal/tasks"
)

const (
	DefaultCanvasName   = "Untitled canvas"
	maxCanvasNameLength = 191
	DefaultCacheTTL     = 24 * time.Hour

	// maxSaveAttempts bounds how often Save re-reads after losing a version
	// race to a concurrent writer.
	maxSaveAttempts = 10
)

// TaskEnqueuer is the part of *asynq.Client the service needs.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// CanvasService owns canvas documents. Reads go to Redis first and fall back
// to SQL; writes land in Redis immediately and reach SQL through the task
// queue.
type CanvasService struct {
	repo     repository.CanvasRepository
	cache    repository.CanvasCache
	queue    TaskEnqueuer
	cacheTTL time.Duration
	now      func() time.Time
}

// CanvasOption configures a CanvasService.
type CanvasOption func(*CanvasService)

// WithCacheTTL sets how long cached canvases live.
func WithCacheTTL(ttl time.Duration) CanvasOption {
	return func(s *CanvasService) { s.cacheTTL = ttl }
}

// WithCanvasClock overrides the time source.
func WithCanvasClock(now func() time.Time) CanvasOption {
	return func(s *CanvasService) { s.now = now }
}

// NewCanvasService creates a CanvasService. queue may be nil, in which case
// saves are written to SQL synchronously.
func NewCanvasService(repo repository.CanvasRepository, cache repository.CanvasCache, queue TaskEnqueuer, opts ...CanvasOption) *CanvasService {
	if repo == nil {
		panic("CanvasRepository cannot be nil for CanvasService")
	}
	if cache == nil {
		panic("CanvasCache cannot be nil for CanvasService")
	}
	s := &CanvasService{repo: repo, cache: cache, queue: queue, cacheTTL: DefaultCacheTTL, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores a new empty canvas.
func (s *CanvasService) Create(ctx context.Context, name string) (*domain.Canvas, error) {
	name, err := normalizeName(name)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	canvas := &domain.Canvas{ID: uuid.NewString(), Name: name, CreatedAt: now, UpdatedAt: now}
	if err := canvas.SetDocument(domain.CanvasDocument{}); err != nil {
		return nil, ErrInternalServer
	}
	logCtx := logrus.WithFields(logrus.Fields{"canvas_id": canvas.ID, "operation": "CreateCanvas"})

	if err := s.repo.Create(ctx, canvas); err != nil {
		logCtx.WithError(err).Error("CanvasService: failed to create canvas")
		return nil, ErrInternalServer
	}
	s.cacheAdd(ctx, logCtx, canvas)
	logCtx.Info("CanvasService: canvas created")
	return canvas, nil
}

// Get returns the canvas and its decoded document. A cache miss is served
// from SQL and backfills the cache.
func (s *CanvasService) Get(ctx context.Context, id string) (*domain.Canvas, domain.CanvasDocument, error) {
	logCtx := logrus.WithFields(logrus.Fields{"canvas_id": id, "operation": "GetCanvas"})

	cached, err := s.cache.GetCanvas(ctx, id)
	switch {
	case err == nil:
		doc, parseErr := cached.ParseDocument()
		if parseErr == nil {
			logCtx.Debug("CanvasService: cache hit")
			return cached, doc, nil
		}
		logCtx.WithError(parseErr).Warn("CanvasService: cached document corrupt, reading from database")
	case errors.Is(err, repository.ErrCacheMiss):
		logCtx.Debug("CanvasService: cache miss")
	default:
		logCtx.WithError(err).Warn("CanvasService: cache read failed, reading from database")
	}

	canvas, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCanvasNotFound) {
			return nil, domain.CanvasDocument{}, ErrCanvasNotFound
		}
		logCtx.WithError(err).Error("CanvasService: database read failed")
		return nil, domain.CanvasDocument{}, ErrInternalServer
	}
	doc, err := canvas.ParseDocument()
	if err != nil {
		logCtx.WithError(err).Error("CanvasService: stored document corrupt")
		return nil, domain.CanvasDocument{}, ErrInternalServer
	}
	s.cacheAdd(ctx, logCtx, canvas)
	return canvas, doc, nil
}

// Save replaces the document (last writer wins) and bumps the version. name
// is optional; empty keeps the current name.
//
// Every save gets its own version: the new version is claimed with a
// compare-and-swap on the cache, or on the SQL row when the cache is
// unavailable. A writer that loses the race re-reads and tries again.
func (s *CanvasService) Save(ctx context.Context, id, name string, doc domain.CanvasDocument) (*domain.Canvas, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) != "" {
		var err error
		if name, err = normalizeName(name); err != nil {
			return nil, err
		}
	}
	logCtx := logrus.WithFields(logrus.Fields{"canvas_id": id, "operation": "SaveCanvas"})

	for attempt := 1; attempt <= maxSaveAttempts; attempt++ {
		canvas, _, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if name != "" {
			canvas.Name = name
		}
		if err := canvas.SetDocument(doc); err != nil {
			logCtx.WithError(err).Error("CanvasService: failed to encode document")
			return nil, ErrInternalServer
		}
		canvas.Version++
		canvas.UpdatedAt = s.now().UTC()
		attemptLog := logCtx.WithFields(logrus.Fields{"version": canvas.Version, "attempt": attempt})

		saved, err := s.commit(ctx, attemptLog, canvas)
		if err != nil {
			return nil, err
		}
		if saved {
			return canvas, nil
		}
		attemptLog.Debug("CanvasService: version taken by a concurrent save, retrying")
	}
	logCtx.Warn("CanvasService: save kept losing version races")
	return nil, ErrSaveConflict
}

// commit claims canvas.Version and makes the save durable. false means
// another writer claimed the version first.
func (s *CanvasService) commit(ctx context.Context, logCtx *logrus.Entry, canvas *domain.Canvas) (bool, error) {
	swapped, err := s.cache.SwapCanvas(ctx, canvas, s.cacheTTL)
	if err == nil && !swapped {
		return false, nil
	}
	if err == nil {
		if s.enqueuePersist(ctx, logCtx, canvas) {
			logCtx.Info("CanvasService: canvas saved, persistence queued")
			return true, nil
		}
		// The cache already holds this version; write it through.
		if _, err := s.repo.SaveIfNewer(ctx, canvas); err != nil {
			logCtx.WithError(err).Error("CanvasService: synchronous save failed")
			return false, ErrInternalServer
		}
		logCtx.Info("CanvasService: canvas saved synchronously")
		return true, nil
	}

	// Without the cache the SQL row arbitrates. Any cached copy is now stale
	// and would shadow this save for readers.
	logCtx.WithError(err).Warn("CanvasService: cache write failed, saving to database")
	if delErr := s.cache.DeleteCanvas(ctx, canvas.ID); delErr != nil {
		logCtx.WithError(delErr).Warn("CanvasService: failed to invalidate cached canvas")
	}
	saved, err := s.repo.SaveIfNewer(ctx, canvas)
	if err != nil {
		logCtx.WithError(err).Error("CanvasService: synchronous save failed")
		return false, ErrInternalServer
	}
	if saved {
		logCtx.Info("CanvasService: canvas saved synchronously")
	}
	return saved, nil
}

// Persist writes a queued canvas to SQL unless a newer or equal version is
// already stored, so out-of-order task retries never roll a canvas back.
func (s *CanvasService) Persist(ctx context.Context, canvas *domain.Canvas) (bool, error) {
	logCtx := logrus.WithFields(logrus.Fields{"canvas_id": canvas.ID, "version": canvas.Version, "operation": "PersistCanvas"})
	written, err := s.repo.SaveIfNewer(ctx, canvas)
	if err != nil {
		return false, fmt.Errorf("save canvas: %w", err)
	}
	if !written {
		logCtx.Info("CanvasService: stale persist skipped")
		return false, nil
	}
	logCtx.Debug("CanvasService: canvas persisted")
	return true, nil
}

// List returns canvas metadata, most recently updated first.
func (s *CanvasService) List(ctx context.Context, limit int) ([]domain.Canvas, error) {
	canvases, err := s.repo.List(ctx, limit)
	if err != nil {
		logrus.WithError(err).Error("CanvasService: list failed")
		return nil, ErrInternalServer
	}
	return canvases, nil
}

// Export writes the canvas as a PDF to w.
func (s *CanvasService) Export(ctx context.Context, id string, w io.Writer) error {
	canvas, doc, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := export.WritePDF(w, canvas.Name, doc); err != nil {
		logrus.WithError(err).WithField("canvas_id", id).Error("CanvasService: export failed")
		return ErrInternalServer
	}
	return nil
}

func (s *CanvasService) cacheAdd(ctx context.Context, logCtx *logrus.Entry, canvas *domain.Canvas) {
	if _, err := s.cache.AddCanvas(ctx, canvas, s.cacheTTL); err != nil {
		logCtx.WithError(err).Warn("CanvasService: cache write failed")
	}
}

func (s *CanvasService) enqueuePersist(ctx context.Context, logCtx *logrus.Entry, canvas *domain.Canvas) bool {
	if s.queue == nil {
		return false
	}
	task, err := tasks.NewCanvasPersistTask(canvas)
	if err != nil {
		logCtx.WithError(err).Error("CanvasService: failed to build persist task")
		return false
	}
	info, err := s.queue.EnqueueContext(ctx, task)
	if err != nil {
		logCtx.WithError(err).Warn("CanvasService: enqueue failed, falling back to synchronous save")
		return false
	}
	logCtx.WithField("task_id", info.ID).Debug("CanvasService: persist task enqueued")
	return true
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultCanvasName, nil
	}
	if utf8.RuneCountInString(name) > maxCanvasNameLength {
		return "", fmt.Errorf("%w: longer than %d characters", ErrInvalidName, maxCanvasNameLength)
	}
	return name, nil
}

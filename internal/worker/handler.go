package worker

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"thumbio/internal/domain"
	"thumbio/internal/tasks"
)

// CanvasPersister writes a canvas to durable storage, skipping stale
// versions. service.CanvasService implements it.
type CanvasPersister interface {
	Persist(ctx context.Context, canvas *domain.Canvas) (bool, error)
}

// CanvasPersistHandler processes canvas:persist tasks.
type CanvasPersistHandler struct {
	persister CanvasPersister
}

// NewCanvasPersistHandler creates the handler.
func NewCanvasPersistHandler(persister CanvasPersister) *CanvasPersistHandler {
	if persister == nil {
		panic("CanvasPersister cannot be nil for CanvasPersistHandler")
	}
	return &CanvasPersistHandler{persister: persister}
}

// ProcessTask implements asynq.Handler.
func (h *CanvasPersistHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	taskID := ""
	if rw := t.ResultWriter(); rw != nil {
		taskID = rw.TaskID()
	}
	currentRetry, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)
	logCtx := logrus.WithFields(logrus.Fields{
		"task_id":   taskID,
		"task_type": t.Type(),
		"retry":     currentRetry,
		"max_retry": maxRetry,
	})

	payload, err := tasks.ParseCanvasPersistPayload(t.Payload())
	if err != nil {
		logCtx.WithError(err).Error("Worker: bad canvas persist payload")
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	logCtx = logCtx.WithFields(logrus.Fields{"canvas_id": payload.ID, "version": payload.Version})

	written, err := h.persister.Persist(ctx, payload.Canvas())
	if err != nil {
		logCtx.WithError(err).Error("Worker: canvas persist failed")
		return fmt.Errorf("persist canvas %s: %w", payload.ID, err)
	}
	logCtx.WithField("written", written).Info("Worker: canvas persist task processed")
	return nil
}

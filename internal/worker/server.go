package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"thumbio/internal/tasks"
)

// WorkerServer wraps the asynq server that drains background tasks.
type WorkerServer struct {
	server    *asynq.Server
	log       *logrus.Entry
	persister CanvasPersister
}

// NewWorkerServer creates a WorkerServer.
func NewWorkerServer(redisOpt asynq.RedisClientOpt, persister CanvasPersister, logger *logrus.Logger) *WorkerServer {
	logEntry := logger.WithField("component", "worker_server")

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				taskID := ""
				if rw := task.ResultWriter(); rw != nil {
					taskID = rw.TaskID()
				}
				retryCount, _ := asynq.GetRetryCount(ctx)
				maxRetry, _ := asynq.GetMaxRetry(ctx)
				logEntry.WithFields(logrus.Fields{
					"task_id":   taskID,
					"task_type": task.Type(),
					"retries":   retryCount,
					"max_retry": maxRetry,
				}).Errorf("Task failed: %v", err)
			}),
			Logger: logEntry,
		},
	)

	return &WorkerServer{server: server, log: logEntry, persister: persister}
}

// NewServeMux registers every task handler.
func NewServeMux(persister CanvasPersister) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Handle(tasks.TypeCanvasPersist, NewCanvasPersistHandler(persister))
	return mux
}

// Start launches the worker goroutines and returns once they are running.
func (ws *WorkerServer) Start() error {
	ws.log.Info("Worker server starting...")
	if err := ws.server.Start(NewServeMux(ws.persister)); err != nil {
		if errors.Is(err, asynq.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("could not start worker server: %w", err)
	}
	return nil
}

// Shutdown stops the worker server gracefully.
func (ws *WorkerServer) Shutdown() {
	ws.log.Info("Shutting down worker server...")
	ws.server.Shutdown()
	ws.log.Info("Worker server shut down complete.")
}

// Package tasks defines the asynq task types and their payloads.
package tasks

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"thumbio/internal/domain"
)

// Task type names.
const (
	TypeCanvasPersist = "canvas:persist"
)

// CanvasPersistPayload carries a full canvas row, document included, to the
// worker that writes it to SQL.
type CanvasPersistPayload struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Document  string    `json:"document"`
	Version   uint      `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Canvas rebuilds the row carried by the payload.
func (p CanvasPersistPayload) Canvas() *domain.Canvas {
	return &domain.Canvas{
		ID:        p.ID,
		Name:      p.Name,
		Document:  p.Document,
		Version:   p.Version,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// NewCanvasPersistTask creates a persistence task for canvas.
func NewCanvasPersistTask(canvas *domain.Canvas) (*asynq.Task, error) {
	payload := CanvasPersistPayload{
		ID:        canvas.ID,
		Name:      canvas.Name,
		Document:  canvas.Document,
		Version:   canvas.Version,
		CreatedAt: canvas.CreatedAt,
		UpdatedAt: canvas.UpdatedAt,
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal canvas persist payload: %w", err)
	}
	return asynq.NewTask(TypeCanvasPersist, payloadBytes, asynq.MaxRetry(5), asynq.Timeout(30*time.Second)), nil
}

// ParseCanvasPersistPayload decodes a task payload.
func ParseCanvasPersistPayload(data []byte) (CanvasPersistPayload, error) {
	var p CanvasPersistPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("failed to unmarshal canvas persist payload: %w", err)
	}
	if p.ID == "" {
		return p, fmt.Errorf("canvas persist payload without id")
	}
	return p, nil
}

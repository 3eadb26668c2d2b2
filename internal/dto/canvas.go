// Package dto holds HTTP request and response bodies.
package dto

import (
	"time"

	"thumbio/internal/domain"
)

// CreateCanvasRequest is the body of POST /api/canvases.
type CreateCanvasRequest struct {
	Name string `json:"name" binding:"max=191"`
}

// SaveCanvasRequest is the body of PUT /api/canvases/:id.
type SaveCanvasRequest struct {
	Name     string                `json:"name" binding:"max=191"`
	Document domain.CanvasDocument `json:"document"`
}

// CanvasResponse describes a canvas, with its document when loaded.
type CanvasResponse struct {
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	Version   uint                   `json:"version"`
	CreatedAt time.Time              `json:"createdAt"`
	UpdatedAt time.Time              `json:"updatedAt"`
	Document  *domain.CanvasDocument `json:"document,omitempty"`
}

// NewCanvasResponse builds a response; doc may be nil.
func NewCanvasResponse(c *domain.Canvas, doc *domain.CanvasDocument) CanvasResponse {
	return CanvasResponse{
		ID:        c.ID,
		Name:      c.Name,
		Version:   c.Version,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		Document:  doc,
	}
}

// ConsumeQuotaRequest is the body of POST /api/quota/consume.
type ConsumeQuotaRequest struct {
	Units int64 `json:"units" binding:"min=0"`
}

// ConsumeQuotaResponse reports whether the units were granted.
type ConsumeQuotaResponse struct {
	Approved bool              `json:"approved"`
	Usage    domain.QuotaUsage `json:"usage"`
}

// ErrorDTO is the body of every error response.
type ErrorDTO struct {
	Error string `json:"error"`
}

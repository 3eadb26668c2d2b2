package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"thumbio/internal/dto"
	"thumbio/internal/service"
)

// CanvasHandler serves the canvas document API.
type CanvasHandler struct {
	canvasService *service.CanvasService
}

// NewCanvasHandler creates a CanvasHandler.
func NewCanvasHandler(canvasService *service.CanvasService) *CanvasHandler {
	if canvasService == nil {
		panic("CanvasService cannot be nil for CanvasHandler")
	}
	return &CanvasHandler{canvasService: canvasService}
}

// CreateCanvas handles POST /api/canvases. The body is optional.
func (h *CanvasHandler) CreateCanvas(c *gin.Context) {
	var req dto.CreateCanvasRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			logrus.WithError(err).Warn("Handler.CreateCanvas: Invalid input format")
			ErrorResponse(c, http.StatusBadRequest, "Invalid input: "+err.Error())
			return
		}
	}

	canvas, err := h.canvasService.Create(c.Request.Context(), req.Name)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	logrus.WithField("canvas_id", canvas.ID).Info("Handler.CreateCanvas: Canvas created")
	SuccessResponse(c, http.StatusCreated, dto.NewCanvasResponse(canvas, nil))
}

// ListCanvases handles GET /api/canvases?limit=N.
func (h *CanvasHandler) ListCanvases(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	canvases, err := h.canvasService.List(c.Request.Context(), limit)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	out := make([]dto.CanvasResponse, 0, len(canvases))
	for i := range canvases {
		out = append(out, dto.NewCanvasResponse(&canvases[i], nil))
	}
	SuccessResponse(c, http.StatusOK, out)
}

// GetCanvas handles GET /api/canvases/:id.
func (h *CanvasHandler) GetCanvas(c *gin.Context) {
	canvas, doc, err := h.canvasService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, dto.NewCanvasResponse(canvas, &doc))
}

// SaveCanvas handles PUT /api/canvases/:id.
func (h *CanvasHandler) SaveCanvas(c *gin.Context) {
	id := c.Param("id")
	logCtx := logrus.WithField("canvas_id", id)

	var req dto.SaveCanvasRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logCtx.WithError(err).Warn("Handler.SaveCanvas: Invalid input format")
		ErrorResponse(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	canvas, err := h.canvasService.Save(c.Request.Context(), id, req.Name, req.Document)
	if err != nil {
		logCtx.WithError(err).Warn("Handler.SaveCanvas: Save failed")
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, dto.NewCanvasResponse(canvas, &req.Document))
}

// ExportCanvas handles GET /api/canvases/:id/export.pdf.
func (h *CanvasHandler) ExportCanvas(c *gin.Context) {
	id := c.Param("id")
	var buf bytes.Buffer
	if err := h.canvasService.Export(c.Request.Context(), id, &buf); err != nil {
		HandleServiceError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="canvas-%s.pdf"`, id))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"thumbio/internal/dto"
	"thumbio/internal/service"
)

// QuotaHandler serves the daily fetch quota API.
type QuotaHandler struct {
	quotaService *service.QuotaService
}

// NewQuotaHandler creates a QuotaHandler.
func NewQuotaHandler(quotaService *service.QuotaService) *QuotaHandler {
	if quotaService == nil {
		panic("QuotaService cannot be nil for QuotaHandler")
	}
	return &QuotaHandler{quotaService: quotaService}
}

// GetUsage handles GET /api/quota.
func (h *QuotaHandler) GetUsage(c *gin.Context) {
	usage, err := h.quotaService.Usage(c.Request.Context())
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, usage)
}

// Consume handles POST /api/quota/consume. A denied request answers 429 with
// the current usage and spends nothing.
func (h *QuotaHandler) Consume(c *gin.Context) {
	var req dto.ConsumeQuotaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	usage, err := h.quotaService.Consume(c.Request.Context(), req.Units)
	switch {
	case err == nil:
		SuccessResponse(c, http.StatusOK, dto.ConsumeQuotaResponse{Approved: true, Usage: usage})
	case errors.Is(err, service.ErrQuotaExceeded):
		logrus.WithField("units", req.Units).Warn("Handler.Consume: Quota exceeded")
		SuccessResponse(c, http.StatusTooManyRequests, dto.ConsumeQuotaResponse{Approved: false, Usage: usage})
	default:
		HandleServiceError(c, err)
	}
}

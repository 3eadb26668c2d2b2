package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"thumbio/internal/service"
)

// HandleServiceError maps service errors to HTTP statuses.
func HandleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCanvasNotFound):
		ErrorResponse(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidDocument),
		errors.Is(err, service.ErrInvalidName),
		errors.Is(err, service.ErrInvalidUnits):
		ErrorResponse(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrSaveConflict):
		ErrorResponse(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrQuotaExceeded):
		ErrorResponse(c, http.StatusTooManyRequests, err.Error())
	default:
		logrus.WithError(err).WithField("path", c.FullPath()).Error("Unhandled internal server error")
		ErrorResponse(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}

package service

import (
	"errors"

	"thumbio/internal/domain"
)

var (
	ErrCanvasNotFound  = errors.New("canvas not found")
	ErrInvalidDocument = domain.ErrInvalidDocument
	ErrInvalidName     = errors.New("invalid canvas name")
	ErrInvalidUnits    = errors.New("quota units must not be negative")
	ErrQuotaExceeded   = errors.New("daily quota exceeded")
	ErrSaveConflict    = errors.New("canvas is being saved concurrently, try again")
	ErrInternalServer  = errors.New("internal server error")
)

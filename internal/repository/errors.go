package repository

import "errors"

// Storage-level errors shared by every implementation.
var (
	// ErrNotFound means the requested record does not exist (or a cache miss).
	ErrNotFound = errors.New("repository: record not found")
	// ErrDuplicateEntry means a write violated a unique constraint.
	ErrDuplicateEntry = errors.New("repository: duplicate entry")
)

// Resource aliases, kept distinct in name so call sites read clearly.
var (
	ErrCanvasNotFound = ErrNotFound
	ErrCacheMiss      = ErrNotFound
)

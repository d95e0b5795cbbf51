package store

import "errors"

var (
	// ErrNotFound indicates the requested file does not exist.
	ErrNotFound = errors.New("file not found")
	// ErrEmptyKey indicates an empty storage key was provided.
	ErrEmptyKey = errors.New("storage key must not be empty")
	// ErrInvalidKey indicates the storage key is absolute or contains a path traversal segment.
	ErrInvalidKey = errors.New("storage key contains invalid path segment")
)

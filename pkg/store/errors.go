package store

import "errors"

var (
	// ErrNotFound is returned when a key does not exist.
	ErrNotFound = errors.New("store.not_found")

	// ErrUnavailable is returned when the backend is unreachable or an operation timed out.
	ErrUnavailable = errors.New("store.unavailable")

	// ErrEmptyKey is returned when an operation receives an empty key.
	ErrEmptyKey = errors.New("store.empty_key")
)

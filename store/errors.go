package store

import "errors"

// Sentinel errors for session store operations.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrLoadFailed      = errors.New("load failed")
	ErrSaveFailed      = errors.New("save failed")
)

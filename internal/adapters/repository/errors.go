package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound = errors.New("meet not found")
	ErrExists   = errors.New("meet already exists")
	ErrNoResult = errors.New("meet has not been scored")
	ErrStale    = errors.New("result is older than the stored one")
)

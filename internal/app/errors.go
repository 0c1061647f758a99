package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted   = errors.New("service not started")
	ErrInvalidMeet  = errors.New("invalid meet")
	ErrInvalidInput = errors.New("invalid input")
	ErrBackpressure = errors.New("recompute queue is full")
	ErrNoRoster     = errors.New("team has no roster selection")
)

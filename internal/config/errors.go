package config

import "errors"

// Sentinel kinds for configuration failures.
var (
	ErrInvalidConfig = errors.New("invalid meetscore config")
	ErrLoadConfig    = errors.New("load meetscore config")
)

package roster

import "errors"

// Sentinel kinds for roster errors.
var (
	ErrInvalidDiverRatio = errors.New("diver ratio must be within [0, 1]")
)

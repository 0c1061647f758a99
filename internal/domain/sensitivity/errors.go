package sensitivity

import "errors"

// Sentinel kinds for sensitivity errors.
var (
	ErrTooManyAthletes  = errors.New("too many sensitivity athletes")
	ErrInvalidPercent   = errors.New("sensitivity percent must be within (0, 100)")
	ErrAthleteNotOnTeam = errors.New("athlete is not on team")
)

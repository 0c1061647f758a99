package relay

import (
	"errors"
	"fmt"
)

// ErrLegUnresolved marks a relay leg with no usable time. It is advisory:
// the relay total becomes unavailable, never zero.
var ErrLegUnresolved = errors.New("relay leg unresolved")

// LegUnresolvedError identifies the leg that could not be timed.
type LegUnresolvedError struct {
	AthleteID string
	LegIndex  int
	Leg       Leg
	Reason    string
}

func (e *LegUnresolvedError) Error() string {
	return fmt.Sprintf("%s: leg %d (%d %s) athlete %q: %s",
		ErrLegUnresolved, e.LegIndex+1, e.Leg.Distance, e.Leg.Stroke, e.AthleteID, e.Reason)
}

func (e *LegUnresolvedError) Unwrap() error { return ErrLegUnresolved }

package timecodec

import (
	"errors"
	"fmt"
)

// ErrFormat is the sentinel kind for malformed time or score strings.
var ErrFormat = errors.New("invalid time format")

// FormatError describes a rejected time or score string. Callers must reject
// the input at the edit boundary rather than coerce it to zero.
type FormatError struct {
	Input  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s %q: %s", ErrFormat, e.Input, e.Reason)
}

func (e *FormatError) Unwrap() error { return ErrFormat }

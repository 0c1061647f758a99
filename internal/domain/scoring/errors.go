package scoring

import (
	"errors"
	"fmt"
)

// ErrConfiguration is the sentinel kind for invalid scoring configuration.
var ErrConfiguration = errors.New("invalid scoring configuration")

// ConfigurationError aborts table generation. It is never degraded to a
// default table.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrConfiguration, e.Field, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

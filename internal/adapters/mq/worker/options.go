package worker

import (
	"github.com/okian/meetscore/pkg/logger"
)

// Option applies a configuration option to an InMemoryWorker or a Pool.
type Option func(*settings)

type settings struct {
	name   string
	logger logger.Logger
	onDone func(Job, error)
}

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(s *settings) {
		if name != "" {
			s.name = name
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithOnDone registers a callback run after every job with its error, if
// any. It runs on the worker goroutine.
func WithOnDone(fn func(Job, error)) Option {
	return func(s *settings) {
		s.onDone = fn
	}
}

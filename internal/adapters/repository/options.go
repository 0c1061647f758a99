package repository

import "time"

// Option applies a configuration option to the MemStore.
type Option func(*MemStore)

// WithIDGenerator replaces the UUID generator used for new meets.
func WithIDGenerator(gen func() string) Option {
	return func(s *MemStore) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithClock replaces time.Now for result timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *MemStore) {
		if now != nil {
			s.now = now
		}
	}
}

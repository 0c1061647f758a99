// Package repository holds meet snapshots and their latest scored results.
package repository

import (
	"context"
	"time"

	"github.com/okian/meetscore/internal/domain/engine"
	"github.com/okian/meetscore/internal/domain/model"
)

// Scored is a published scoring result. Version is the snapshot version it
// was computed from.
type Scored struct {
	Version  uint64        `json:"version"`
	ScoredAt time.Time     `json:"scored_at"`
	Result   engine.Result `json:"result"`
}

// Store provides read/write access to meets.
type Store interface {
	// Create stores m, assigning an ID when m.ID is empty.
	// Returns ErrExists if the ID is taken.
	Create(ctx context.Context, m model.Meet) (model.Meet, error)

	// Get returns a copy of the current snapshot and its version.
	Get(ctx context.Context, id string) (model.Meet, uint64, error)

	// Update applies fn to a copy of the snapshot and stores it when fn
	// succeeds. The new version is returned.
	Update(ctx context.Context, id string, fn func(*model.Meet) error) (uint64, error)

	// PutResult publishes a result computed from snapshot version.
	// Returns ErrStale if a result from a newer version is already stored.
	PutResult(ctx context.Context, id string, version uint64, res engine.Result) error

	// Result returns the latest published result or ErrNoResult.
	Result(ctx context.Context, id string) (Scored, error)

	// Count returns the number of stored meets.
	Count(ctx context.Context) int
}

package repository

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/meetscore/internal/domain/engine"
	"github.com/okian/meetscore/internal/domain/model"
	"github.com/okian/meetscore/pkg/metrics"
)

// record is one meet. Writers hold mu; the published result is swapped
// atomically so readers never wait on a recompute.
type record struct {
	mu      sync.RWMutex
	meet    model.Meet
	version uint64
	result  atomic.Pointer[Scored]
}

// MemStore is an in-memory Store.
type MemStore struct {
	mu    sync.RWMutex
	meets map[string]*record
	newID func() string
	now   func() time.Time
}

var _ Store = (*MemStore)(nil)

// NewMemStore creates an empty store.
func NewMemStore(opts ...Option) *MemStore {
	s := &MemStore{
		meets: make(map[string]*record),
		newID: uuid.NewString,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemStore) lookup(id string) (*record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.meets[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return r, nil
}

// Create implements Store.
func (s *MemStore) Create(_ context.Context, m model.Meet) (model.Meet, error) {
	if m.ID == "" {
		m.ID = s.newID()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.meets[m.ID]; ok {
		return model.Meet{}, fmt.Errorf("%w: %s", ErrExists, m.ID)
	}
	s.meets[m.ID] = &record{meet: m.Clone(), version: 1}
	metrics.UpdateMeetsTotal(len(s.meets))
	return m.Clone(), nil
}

// Get implements Store.
func (s *MemStore) Get(_ context.Context, id string) (model.Meet, uint64, error) {
	r, err := s.lookup(id)
	if err != nil {
		return model.Meet{}, 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.meet.Clone(), r.version, nil
}

// Update implements Store.
func (s *MemStore) Update(_ context.Context, id string, fn func(*model.Meet) error) (uint64, error) {
	r, err := s.lookup(id)
	if err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	next := r.meet.Clone()
	if err := fn(&next); err != nil {
		return r.version, err
	}
	next.ID = id
	r.meet = next
	r.version++
	return r.version, nil
}

// PutResult implements Store.
func (s *MemStore) PutResult(_ context.Context, id string, version uint64, res engine.Result) error {
	r, err := s.lookup(id)
	if err != nil {
		return err
	}
	next := &Scored{Version: version, ScoredAt: s.now(), Result: res}
	for {
		cur := r.result.Load()
		if cur != nil && cur.Version > version {
			return fmt.Errorf("%w: have %d, got %d", ErrStale, cur.Version, version)
		}
		if r.result.CompareAndSwap(cur, next) {
			return nil
		}
	}
}

// Result implements Store.
func (s *MemStore) Result(_ context.Context, id string) (Scored, error) {
	r, err := s.lookup(id)
	if err != nil {
		return Scored{}, err
	}
	cur := r.result.Load()
	if cur == nil {
		return Scored{}, fmt.Errorf("%w: %s", ErrNoResult, id)
	}
	return *cur, nil
}

// Count implements Store.
func (s *MemStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.meets)
}

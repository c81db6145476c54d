package counters

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the single-process counter store. Each workflow gets its own
// cell so concurrent runs of different workflows never contend.
type MemoryStore struct {
	mu    sync.Mutex
	cells map[string]*cell
}

type cell struct {
	mu     sync.Mutex
	count  int64
	lastAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{cells: make(map[string]*cell)}
}

func (s *MemoryStore) Record(_ context.Context, workflowID string, at time.Time) (int64, error) {
	c := s.cell(workflowID)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.count++
	if at.After(c.lastAt) {
		c.lastAt = at
	}

	return c.count, nil
}

func (s *MemoryStore) Get(_ context.Context, workflowID string) (int64, *time.Time, error) {
	c := s.cell(workflowID)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.count == 0 {
		return 0, nil, nil
	}

	lastAt := c.lastAt

	return c.count, &lastAt, nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) cell(workflowID string) *cell {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cells[workflowID]
	if !ok {
		c = &cell{}
		s.cells[workflowID] = c
	}

	return c
}

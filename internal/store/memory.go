package store

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/EngineerAbdulQadir/evolved-todo-sub002/internal/models"
)

// MemoryStore is an in-memory Store. It is safe for concurrent use: the id
// sequence is an atomic counter and record access is serialized by a RWMutex,
// so a single mutation is observed as fully applied or not at all.
type MemoryStore struct {
	mu     sync.RWMutex
	tasks  map[int64]*models.Task
	order  []int64
	nextID atomic.Int64
	now    func() time.Time
}

// NewMemoryStore creates an empty in-memory store. The id sequence starts at 1.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tasks: make(map[int64]*models.Task),
		now:   time.Now,
	}
}

// SetClock overrides the timestamp source. Intended for tests.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.now = now
}

// Create assigns the next id, stamps timestamps, and inserts the task.
func (s *MemoryStore) Create(ctx context.Context, task *models.Task) error {
	task.ID = s.nextID.Add(1)
	now := s.now()
	task.CreatedAt = now
	task.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[task.ID] = task.Clone()
	s.order = append(s.order, task.ID)
	return nil
}

// Get retrieves a task by id.
func (s *MemoryStore) Get(ctx context.Context, id int64) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[id]
	if !ok {
		return nil, fmt.Errorf("get task %d: %w", id, ErrNotFound)
	}
	return task.Clone(), nil
}

// Update replaces an existing record and refreshes UpdatedAt.
func (s *MemoryStore) Update(ctx context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.tasks[task.ID]
	if !ok {
		return fmt.Errorf("update task %d: %w", task.ID, ErrNotFound)
	}
	task.CreatedAt = existing.CreatedAt
	task.UpdatedAt = s.now()
	s.tasks[task.ID] = task.Clone()
	return nil
}

// Delete removes a record. The id is never reissued.
func (s *MemoryStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return fmt.Errorf("delete task %d: %w", id, ErrNotFound)
	}
	delete(s.tasks, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// List returns a snapshot of all tasks in insertion order.
func (s *MemoryStore) List(ctx context.Context) ([]*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Task, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.tasks[id].Clone())
	}
	return out, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}

// MemoryProvider hands out one in-memory store per owner, created lazily.
type MemoryProvider struct {
	mu     sync.Mutex
	stores map[string]*MemoryStore
}

// NewMemoryProvider creates an empty provider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{stores: make(map[string]*MemoryStore)}
}

// For returns the owner's store, creating it on first use.
func (p *MemoryProvider) For(ctx context.Context, owner string) (Store, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.stores[owner]
	if !ok {
		s = NewMemoryStore()
		p.stores[owner] = s
	}
	return s, nil
}

// Owners lists every owner that has a store.
func (p *MemoryProvider) Owners(ctx context.Context) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	owners := make([]string, 0, len(p.stores))
	for owner := range p.stores {
		owners = append(owners, owner)
	}
	return owners, nil
}

// Close is a no-op for the in-memory provider.
func (p *MemoryProvider) Close() error {
	return nil
}

var (
	_ Store       = (*MemoryStore)(nil)
	_ Provider    = (*MemoryProvider)(nil)
	_ OwnerLister = (*MemoryProvider)(nil)
)

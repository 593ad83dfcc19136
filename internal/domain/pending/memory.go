package pending

import (
	"context"
	"sort"
	"sync"

	"fiatrouter/pkg/errors"
)

// MemoryStore is a process-local Store
type MemoryStore struct {
	mu         sync.RWMutex
	entries    map[string]*Request
	generation uint64
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*Request)}
}

func (s *MemoryStore) Put(_ context.Context, req *Request) error {
	if req == nil || !req.Kind.Valid() || req.Requester == "" {
		return errors.Wrap(errors.ErrInvalidInput, "pending request requires kind and requester")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	req.Generation = s.generation
	s.entries[req.Key()] = req.Clone()
	return nil
}

func (s *MemoryStore) GetAll(_ context.Context) ([]*Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Request, 0, len(s.entries))
	for _, req := range s.entries {
		out = append(out, req.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out, nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

func (s *MemoryStore) DeleteIfGeneration(_ context.Context, key string, generation uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.entries[key]
	if !ok || current.Generation != generation {
		return false, nil
	}
	delete(s.entries, key)
	return true, nil
}

func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

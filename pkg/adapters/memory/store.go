package memory

import (
	"context"
	"sync"

	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/domain"
)

// Store implements ports.UserStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.User
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.User),
	}
}

// Save persists a copy of the user in memory.
func (s *Store) Save(ctx context.Context, user *domain.User) error {
	copied := user.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[user.Addr] = copied
	return nil
}

// Load retrieves a copy of the user so callers can't mutate store state by pointer.
func (s *Store) Load(ctx context.Context, addr string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.data[addr]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return user.Clone(), nil
}

// Delete removes the user.
func (s *Store) Delete(ctx context.Context, addr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, addr)
	return nil
}

// List returns stored addresses.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	addrs := make([]string, 0, len(s.data))
	for addr := range s.data {
		addrs = append(addrs, addr)
	}
	return addrs, nil
}

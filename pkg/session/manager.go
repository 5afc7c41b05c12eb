package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/praekeltfoundation/vaccine-eligibility-sub001/internal/logging"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/domain"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates user access, ensuring one turn at a time per user.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	store ports.UserStore

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides the distributed lock expiry.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new Manager over the given store.
func NewManager(store ports.UserStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST lock entry.mu, and then call release(addr) after unlocking.
func (m *Manager) acquire(addr string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[addr]
	if !exists {
		entry = &lockEntry{}
		m.locks[addr] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(addr string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[addr]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, addr)
	}
}

// Load retrieves an existing user from the store.
func (m *Manager) Load(ctx context.Context, addr string) (*domain.User, error) {
	var user *domain.User
	err := m.WithLock(ctx, addr, func(ctx context.Context) error {
		var err error
		user, err = m.store.Load(ctx, addr)
		return err
	})
	return user, err
}

// LoadOrCreate loads a user without locking, creating a fresh one on first contact.
// Callers are expected to already hold the user's lock (see WithLock).
func (m *Manager) LoadOrCreate(ctx context.Context, addr string) (*domain.User, error) {
	user, err := m.store.Load(ctx, addr)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return domain.NewUser(addr), nil
}

// Turn runs fn against the user for addr while holding its lock, then saves the result.
// The user is written exactly once, after fn returns successfully.
func (m *Manager) Turn(ctx context.Context, addr string, fn func(ctx context.Context, user *domain.User) error) error {
	return m.WithLock(ctx, addr, func(ctx context.Context) error {
		user, err := m.LoadOrCreate(ctx, addr)
		if err != nil {
			return err
		}
		if err := fn(ctx, user); err != nil {
			return err
		}
		if err := m.store.Save(ctx, user); err != nil {
			return fmt.Errorf("failed to save user: %w", err)
		}
		return nil
	})
}

// Save persists the user.
func (m *Manager) Save(ctx context.Context, user *domain.User) error {
	return m.WithLock(ctx, user.Addr, func(ctx context.Context) error {
		return m.store.Save(ctx, user)
	})
}

// Delete removes the user from the store.
func (m *Manager) Delete(ctx context.Context, addr string) error {
	return m.WithLock(ctx, addr, func(ctx context.Context) error {
		return m.store.Delete(ctx, addr)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying user store.
func (m *Manager) Store() ports.UserStore {
	return m.store
}

// WithLock executes fn while holding the lock for the user.
func (m *Manager) WithLock(ctx context.Context, addr string, fn func(context.Context) error) error {
	entry := m.acquire(addr)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(addr)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, addr, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			// The turn context may already be cancelled; release regardless.
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"addr", addr,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

package session_test

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/adapters/memory"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/domain"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/ports"
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// slowStore simulates latency to provoke lost updates if locking is missing.
type slowStore struct {
	*memory.Store
}

func (s slowStore) Load(ctx context.Context, addr string) (*domain.User, error) {
	time.Sleep(2 * time.Millisecond)
	return s.Store.Load(ctx, addr)
}

func (s slowStore) Save(ctx context.Context, user *domain.User) error {
	time.Sleep(2 * time.Millisecond)
	return s.Store.Save(ctx, user)
}

var _ ports.UserStore = slowStore{}

func TestManager_TurnsAreSerialised(t *testing.T) {
	store := slowStore{memory.NewStore()}
	manager := session.NewManager(store)
	ctx := context.Background()
	addr := "27820001001"

	var wg sync.WaitGroup
	turns := 20
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := manager.Turn(ctx, addr, func(ctx context.Context, u *domain.User) error {
				n, _ := strconv.Atoi(func() string { v, _ := u.Answer("counter"); return v }())
				u.SetAnswer("counter", strconv.Itoa(n+1))
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	user, err := manager.Load(ctx, addr)
	require.NoError(t, err)
	v, _ := user.Answer("counter")
	assert.Equal(t, strconv.Itoa(turns), v, "every turn must observe the previous one")
}

func TestManager_TurnCreatesUserOnFirstContact(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	ctx := context.Background()

	err := manager.Turn(ctx, "new-user", func(ctx context.Context, u *domain.User) error {
		assert.Equal(t, "", u.StateName())
		u.SetStateName("state_start")
		return nil
	})
	require.NoError(t, err)

	user, err := manager.Load(ctx, "new-user")
	require.NoError(t, err)
	assert.Equal(t, "state_start", user.StateName())
}

func TestManager_FailedTurnIsNotSaved(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	ctx := context.Background()
	boom := errors.New("boom")

	err := manager.Turn(ctx, "u1", func(ctx context.Context, u *domain.User) error {
		u.SetAnswer("state_half_written", "x")
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = manager.Load(ctx, "u1")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

type recordingLocker struct {
	mu       sync.Mutex
	locked   []string
	released int
}

func (l *recordingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	l.locked = append(l.locked, key)
	l.mu.Unlock()
	return func(ctx context.Context) error {
		l.mu.Lock()
		l.released++
		l.mu.Unlock()
		return nil
	}, nil
}

func TestManager_UsesDistributedLocker(t *testing.T) {
	locker := &recordingLocker{}
	manager := session.NewManager(memory.NewStore(), session.WithLocker(locker))

	err := manager.Turn(context.Background(), "u1", func(ctx context.Context, u *domain.User) error { return nil })
	require.NoError(t, err)

	assert.Equal(t, []string{"u1"}, locker.locked)
	assert.Equal(t, 1, locker.released)
}

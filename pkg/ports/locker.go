package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a distributed lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serialises turns for a single user across replicas.
type DistributedLocker interface {
	// Lock blocks until the lock for key (a user address) is acquired or ctx is done.
	// The lock expires after ttl even if never released.
	// The returned UnlockFunc MUST be called to release it.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}

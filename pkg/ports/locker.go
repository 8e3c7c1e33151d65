package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock taken by DistributedLocker.Lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serializes turns on one session across lendflow replicas
// sharing a store.
type DistributedLocker interface {
	// Lock blocks until the lock on key (a session ID) is held or ctx is done.
	// The lock expires after ttl if the holder dies without unlocking.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}

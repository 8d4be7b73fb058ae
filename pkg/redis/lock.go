package redis

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrLockNotAcquired is returned when the lock could not be acquired within the retry window.
var ErrLockNotAcquired = errors.New("lock not acquired")

const (
	lockTTL        = 5 * time.Second
	lockRetryDelay = 50 * time.Millisecond
	lockRetryMax   = 40
)

// Locker acquires short-lived mutual-exclusion locks keyed by an arbitrary string.
// It backs the find-or-create uniqueness guarantees on per-user aggregates.
type Locker struct{}

// NewLocker creates a new Locker
func NewLocker() *Locker {
	return &Locker{}
}

// Acquire blocks (with bounded retries) until the lock for key is held,
// then returns a token that must be passed to Release.
func (l *Locker) Acquire(ctx context.Context, key string) (string, error) {
	token := uuid.New().String()
	for i := 0; i < lockRetryMax; i++ {
		ok, err := SetNX(ctx, "lock:"+key, token, lockTTL)
		if err != nil {
			return "", err
		}
		if ok {
			return token, nil
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(lockRetryDelay):
		}
	}
	return "", ErrLockNotAcquired
}

// Release frees the lock if it is still held by the given token.
func (l *Locker) Release(ctx context.Context, key, token string) error {
	current, err := Get(ctx, "lock:"+key)
	if err != nil {
		return nil // Already expired or released
	}
	if current != token {
		return nil // Someone else holds it now; never delete their lock
	}
	return Del(ctx, "lock:"+key)
}

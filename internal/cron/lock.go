package cron

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

const defaultLockTTL = 15 * time.Minute

// Lock keeps two workers from running the same cycle.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

type leaseStore interface {
	AcquireLease(ctx context.Context, name, owner string, ttl time.Duration) (bool, error)
	ReleaseLease(ctx context.Context, name, owner string) (bool, error)
}

// RedisLock holds a lease that expires after ttl, so a crashed worker blocks
// the others for one ttl at most. Each acquisition uses a fresh owner token.
type RedisLock struct {
	store leaseStore
	name  string
	ttl   time.Duration

	mu    sync.Mutex
	owner string
}

func NewRedisLock(store leaseStore, name string, ttl time.Duration) (*RedisLock, error) {
	if store == nil {
		return nil, errors.New("lease store required for lock")
	}
	if name == "" {
		return nil, errors.New("lock name is required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLock{store: store, name: name, ttl: ttl}, nil
}

func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	owner := uuid.NewString()
	ok, err := l.store.AcquireLease(ctx, l.name, owner, l.ttl)
	if err != nil {
		return false, fmt.Errorf("acquire lease %s: %w", l.name, err)
	}
	if ok {
		l.owner = owner
	}
	return ok, nil
}

// Release is a no-op when nothing is held. A lease that already expired is
// not an error.
func (l *RedisLock) Release(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.owner == "" {
		return nil
	}
	owner := l.owner
	l.owner = ""
	if _, err := l.store.ReleaseLease(ctx, l.name, owner); err != nil {
		return fmt.Errorf("release lease %s: %w", l.name, err)
	}
	return nil
}

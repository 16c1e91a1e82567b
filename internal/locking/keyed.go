package locking

import (
	"context"
	"sync"
	"time"
)

// KeyedLock serializes work per key. With redis configured it is a
// distributed lock; otherwise it degrades to an in-process mutex per key,
// which is enough for a single-replica deployment.
type KeyedLock struct {
	locker *Locker // nil when redis is not configured

	mu    sync.Mutex
	local map[string]*sync.Mutex
}

func NewKeyedLock(locker *Locker) *KeyedLock {
	return &KeyedLock{
		locker: locker,
		local:  make(map[string]*sync.Mutex),
	}
}

// Acquire blocks until the key lock is held or ctx is done. The returned
// release function must be called exactly once.
func (k *KeyedLock) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	if k.locker == nil {
		return k.acquireLocal(ctx, key)
	}

	backoff := 25 * time.Millisecond
	for {
		token, ok, err := k.locker.TryLock(ctx, key, ttl)
		if err != nil {
			return nil, err
		}
		if ok {
			return func() {
				releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				_ = k.locker.Release(releaseCtx, key, token)
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		if backoff < time.Second {
			backoff *= 2
		}
	}
}

func (k *KeyedLock) acquireLocal(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	m, ok := k.local[key]
	if !ok {
		m = &sync.Mutex{}
		k.local[key] = m
	}
	k.mu.Unlock()

	locked := make(chan struct{})
	go func() {
		m.Lock()
		close(locked)
	}()

	select {
	case <-ctx.Done():
		// The goroutine still holds or will hold the mutex; hand it back
		// as soon as it is acquired.
		go func() {
			<-locked
			m.Unlock()
		}()
		return nil, ctx.Err()
	case <-locked:
		return m.Unlock, nil
	}
}

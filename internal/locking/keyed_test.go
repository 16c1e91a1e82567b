package locking

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyedLock_MutualExclusion(t *testing.T) {
	k := NewKeyedLock(nil)

	var inside int32
	var overlaps int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := k.Acquire(context.Background(), "recap:1:2025-03", time.Minute)
			if err != nil {
				t.Error(err)
				return
			}
			defer release()
			if !atomic.CompareAndSwapInt32(&inside, 0, 1) {
				atomic.AddInt32(&overlaps, 1)
				return
			}
			time.Sleep(time.Millisecond)
			atomic.StoreInt32(&inside, 0)
		}()
	}
	wg.Wait()

	assert.Zero(t, atomic.LoadInt32(&overlaps))
}

func TestKeyedLock_IndependentKeys(t *testing.T) {
	k := NewKeyedLock(nil)

	releaseA, err := k.Acquire(context.Background(), "recap:1:2025-03", time.Minute)
	assert.NoError(t, err)
	defer releaseA()

	// Holding one key must not block another.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	releaseB, err := k.Acquire(ctx, "recap:1:2025-04", time.Minute)
	assert.NoError(t, err)
	releaseB()
}

func TestKeyedLock_CanceledWaiterHandsBack(t *testing.T) {
	k := NewKeyedLock(nil)

	release, err := k.Acquire(context.Background(), "k", time.Minute)
	assert.NoError(t, err)

	// A waiter that gives up while the lock is held reports the context
	// error instead of blocking.
	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = k.Acquire(canceled, "k", time.Minute)
	assert.ErrorIs(t, err, context.Canceled)

	// The abandoned waiter eventually grabs the mutex once the holder
	// releases; it must hand it straight back or the key stays locked
	// forever.
	release()

	ctx, cancelWait := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancelWait()
	again, err := k.Acquire(ctx, "k", time.Minute)
	assert.NoError(t, err)
	again()
}

func TestKeyedLock_ReleaseWakesWaiter(t *testing.T) {
	k := NewKeyedLock(nil)

	release, err := k.Acquire(context.Background(), "k", time.Minute)
	assert.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		r, err := k.Acquire(context.Background(), "k", time.Minute)
		if err != nil {
			t.Error(err)
			return
		}
		close(acquired)
		r()
	}()

	select {
	case <-acquired:
		t.Fatal("waiter got the lock while it was held")
	case <-time.After(20 * time.Millisecond):
	}

	release()

	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatal("waiter never got the lock after release")
	}
}

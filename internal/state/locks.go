package state

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// keyedLocks serializes work per stream id. Different ids never contend.
type keyedLocks struct {
	mu sync.Mutex
	m  map[int]*keyedLock
}

type keyedLock struct {
	sem  *semaphore.Weighted
	refs int
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{m: map[int]*keyedLock{}}
}

// lock blocks until key is free or ctx is done. The returned func releases it.
func (k *keyedLocks) lock(ctx context.Context, key int) (func(), error) {
	k.mu.Lock()
	l, ok := k.m[key]
	if !ok {
		l = &keyedLock{sem: semaphore.NewWeighted(1)}
		k.m[key] = l
	}
	l.refs++
	k.mu.Unlock()

	if err := l.sem.Acquire(ctx, 1); err != nil {
		k.drop(key, l)
		return nil, err
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			l.sem.Release(1)
			k.drop(key, l)
		})
	}, nil
}

// tryLock is lock without waiting; ok is false when key is held.
func (k *keyedLocks) tryLock(key int) (release func(), ok bool) {
	k.mu.Lock()
	l, exists := k.m[key]
	if !exists {
		l = &keyedLock{sem: semaphore.NewWeighted(1)}
		k.m[key] = l
	}
	if !l.sem.TryAcquire(1) {
		if !exists {
			delete(k.m, key)
		}
		k.mu.Unlock()
		return nil, false
	}
	l.refs++
	k.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			l.sem.Release(1)
			k.drop(key, l)
		})
	}, true
}

func (k *keyedLocks) drop(key int, l *keyedLock) {
	k.mu.Lock()
	l.refs--
	if l.refs == 0 && k.m[key] == l {
		delete(k.m, key)
	}
	k.mu.Unlock()
}

func (k *keyedLocks) len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.m)
}

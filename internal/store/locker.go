package store

import (
	"context"
	"sync"
)

// MutexLocker is an in-process Locker. Waiting for a key honours ctx.
type MutexLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func NewMutexLocker() *MutexLocker {
	return &MutexLocker{slots: make(map[string]chan struct{})}
}

func (l *MutexLocker) sem(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	ch, ok := l.slots[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[key] = ch
	}
	return ch
}

func (l *MutexLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	ch := l.sem(key)

	select {
	case ch <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-ch }()

	return fn(ctx)
}

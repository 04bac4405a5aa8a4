package repository

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// itemLocks hands out one in-process mutex per item id. Entries are
// reference counted and dropped once nobody holds or waits on them.
type itemLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*itemLock
}

type itemLock struct {
	sem  chan struct{}
	refs int
}

func newItemLocks() *itemLocks {
	return &itemLocks{locks: make(map[uuid.UUID]*itemLock)}
}

// acquire blocks until the item's lock is held or ctx is done. The returned
// func releases the lock and must be called exactly once.
func (l *itemLocks) acquire(ctx context.Context, id uuid.UUID) (func(), error) {
	l.mu.Lock()
	lk, ok := l.locks[id]
	if !ok {
		lk = &itemLock{sem: make(chan struct{}, 1)}
		l.locks[id] = lk
	}
	lk.refs++
	l.mu.Unlock()

	select {
	case lk.sem <- struct{}{}:
		return func() {
			<-lk.sem
			l.drop(id, lk)
		}, nil
	case <-ctx.Done():
		l.drop(id, lk)
		return nil, ctx.Err()
	}
}

func (l *itemLocks) drop(id uuid.UUID, lk *itemLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lk.refs--
	if lk.refs == 0 {
		delete(l.locks, id)
	}
}

func (l *itemLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

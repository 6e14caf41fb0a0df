package service

import (
	"sync"

	"github.com/google/uuid"
)

// goalLocks 为每个目标提供一把互斥锁，不同目标之间互不阻塞
// 没有持有者的锁会被回收
type goalLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*goalLock
}

type goalLock struct {
	mu   sync.Mutex
	refs int
}

func newGoalLocks() *goalLocks {
	return &goalLocks{locks: make(map[uuid.UUID]*goalLock)}
}

// lock 阻塞直到获得 id 对应的锁，返回解锁函数
func (l *goalLocks) lock(id uuid.UUID) func() {
	l.mu.Lock()
	entry, ok := l.locks[id]
	if !ok {
		entry = &goalLock{}
		l.locks[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}

func (l *goalLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

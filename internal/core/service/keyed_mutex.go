package service

import "sync"

// keyedMutex provides one mutex per key. Entries are released once no
// goroutine holds or waits for them.
type keyedMutex[K comparable] struct {
	mutex sync.Mutex
	locks map[K]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func (m *keyedMutex[K]) Lock(key K) (unlock func()) {
	m.mutex.Lock()
	if m.locks == nil {
		m.locks = make(map[K]*refMutex)
	}

	lock, exists := m.locks[key]
	if !exists {
		lock = &refMutex{}
		m.locks[key] = lock
	}
	lock.refs++
	m.mutex.Unlock()

	lock.Lock()

	return func() {
		lock.Unlock()

		m.mutex.Lock()
		defer m.mutex.Unlock()

		lock.refs--
		if lock.refs == 0 {
			delete(m.locks, key)
		}
	}
}

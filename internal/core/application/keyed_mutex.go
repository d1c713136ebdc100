package application

import (
	"sort"
	"sync"
)

// keyedMutex is a set of mutexes identified by string keys, allocated on
// demand and released once nobody holds or waits for them.
type keyedMutex struct {
	lock  *sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{
		lock:  &sync.Mutex{},
		locks: make(map[string]*refMutex),
	}
}

// Lock acquires the mutexes of all the given keys and returns the function
// to release them. Keys are locked in lexicographic order so that callers
// with overlapping sets can't deadlock.
func (m *keyedMutex) Lock(keys ...string) func() {
	unique := make(map[string]struct{}, len(keys))
	sorted := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := unique[k]; ok {
			continue
		}
		unique[k] = struct{}{}
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	for _, k := range sorted {
		m.acquire(k).Lock()
	}

	return func() {
		for i := len(sorted) - 1; i >= 0; i-- {
			m.release(sorted[i])
		}
	}
}

func (m *keyedMutex) acquire(key string) *refMutex {
	m.lock.Lock()
	defer m.lock.Unlock()

	l, ok := m.locks[key]
	if !ok {
		l = &refMutex{}
		m.locks[key] = l
	}
	l.refs++
	return l
}

func (m *keyedMutex) release(key string) {
	m.lock.Lock()
	defer m.lock.Unlock()

	l := m.locks[key]
	l.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(m.locks, key)
	}
}

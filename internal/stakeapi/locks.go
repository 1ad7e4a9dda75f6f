package stakeapi

import (
	"sort"
	"sync"
)

// accountLocks hands out one mutex per account id so every read-modify-write
// cycle against the same account is serialized. Locks are never released back
// to the map; the set of accounts only grows in this system.
type accountLocks struct {
	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func newAccountLocks() *accountLocks {
	return &accountLocks{locks: map[uint]*sync.Mutex{}}
}

func (l *accountLocks) get(id uint) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	return m
}

// lock acquires the mutexes for the given account ids in ascending id order,
// the fixed global order that keeps cross-account operations deadlock free.
// The returned func releases them in reverse.
func (l *accountLocks) lock(ids ...uint) func() {
	sorted := append([]uint(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	// Drop duplicates so the same account is never locked twice.
	uniq := sorted[:0]
	for _, id := range sorted {
		if len(uniq) == 0 || uniq[len(uniq)-1] != id {
			uniq = append(uniq, id)
		}
	}
	held := make([]*sync.Mutex, 0, len(uniq))
	for _, id := range uniq {
		m := l.get(id)
		m.Lock()
		held = append(held, m)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}

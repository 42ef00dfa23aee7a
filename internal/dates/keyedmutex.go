// Copyright (C) 2025 the datecoord maintainers
// See root-dir/LICENSE for more information

package dates

import (
	"sync"

	"github.com/google/uuid"
)

// keyedMutex serializes work per proposal id. Entries are never
// reclaimed; the id space is bounded by the number of proposals the
// store holds.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[uuid.UUID]*sync.Mutex)}
}

// lock acquires the mutex for id and returns its unlock func.
func (k *keyedMutex) lock(id uuid.UUID) func() {
	k.mu.Lock()
	m, ok := k.locks[id]
	if !ok {
		m = &sync.Mutex{}
		k.locks[id] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}

package trie

import "sync"

// TrieStore is a concurrent façade over a Trie root. Readers snapshot the
// root under a brief rootLock and then operate lock-free on their
// snapshot; writers serialize end-to-end on writeLock, computing the new
// root before installing it under rootLock.
//
// Grounded on the read-mostly snapshot pattern in
// core/write_engine/memtable's copy-on-write memtable swap: readers never
// block writers and never see a torn root.
type TrieStore struct {
	rootLock  sync.Mutex
	writeLock sync.Mutex
	root      Trie
}

// NewTrieStore returns a store wrapping an empty trie.
func NewTrieStore() *TrieStore {
	return &TrieStore{}
}

func (s *TrieStore) snapshot() Trie {
	s.rootLock.Lock()
	defer s.rootLock.Unlock()
	return s.root
}

func (s *TrieStore) install(t Trie) {
	s.rootLock.Lock()
	defer s.rootLock.Unlock()
	s.root = t
}

// ValueGuard bundles a borrowed value with the Trie snapshot it came
// from, keeping that snapshot's nodes reachable — and the value valid —
// even after concurrent writers install newer roots.
type ValueGuard[T any] struct {
	snapshot Trie
	value    T
}

// Value returns the guarded value.
func (g ValueGuard[T]) Value() T { return g.value }

// StoreGet snapshots the current root under rootLock and looks up key in
// it, returning a guard that keeps the snapshot's nodes reachable for as
// long as the caller holds it. Named distinctly from trie.go's Get since
// Go has no overloading and both are package-level generic functions.
func StoreGet[T any](s *TrieStore, key string) (ValueGuard[T], bool) {
	snap := s.snapshot()
	v, ok := Get[T](snap, key)
	if !ok {
		return ValueGuard[T]{}, false
	}
	return ValueGuard[T]{snapshot: snap, value: v}, true
}

// StorePut serializes on writeLock, computes a new root with key mapped
// to value from the current snapshot, and installs it under rootLock.
func StorePut[T any](s *TrieStore, key string, value T) {
	s.writeLock.Lock()
	defer s.writeLock.Unlock()
	next := Put(s.snapshot(), key, value)
	s.install(next)
}

// RemoveKey serializes on writeLock, computes a new root with key's
// value dropped, and installs it under rootLock.
func (s *TrieStore) RemoveKey(key string) {
	s.writeLock.Lock()
	defer s.writeLock.Unlock()
	s.install(Remove(s.snapshot(), key))
}

// Package trie implements a persistent, copy-on-write trie: every Put or
// Remove produces a new immutable root that shares unaffected subtrees
// with the old one, plus a TrieStore façade that lets readers snapshot a
// root cheaply while writers are serialized.
//
// Grounded on the copy-on-write path-copy discipline in
// core/write_engine/wal/log_manager.go's append-only segment model
// (never mutate what a reader might already be holding), generalized
// here to a tree instead of a log.
package trie

// node is one link in the trie: an immutable, reference-shared fan-out
// by character, plus an optional value. Go has no dynamic_cast, so a
// value-bearing node is a plain node with hasValue set rather than a
// distinct subtype.
type node struct {
	children map[byte]*node
	hasValue bool
	value    any
}

func newNode() *node {
	return &node{children: make(map[byte]*node)}
}

// clone returns a shallow copy of n: a new children map pointing at the
// same child pointers, and the same value. Callers overwrite whichever
// child or value changed along their path, leaving every other subtree
// shared with the original.
func (n *node) clone() *node {
	if n == nil {
		return newNode()
	}
	children := make(map[byte]*node, len(n.children))
	for k, v := range n.children {
		children[k] = v
	}
	return &node{children: children, hasValue: n.hasValue, value: n.value}
}

func (n *node) isEmpty() bool {
	return n == nil || (!n.hasValue && len(n.children) == 0)
}

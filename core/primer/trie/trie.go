package trie

// Trie is a handle to an immutable tree. The zero value is a valid empty
// trie.
type Trie struct {
	root *node
}

// New returns an empty trie.
func New() Trie {
	return Trie{}
}

// Get walks key from the root. It returns not-found if any character's
// child is missing, or if the terminal node holds no value, or if the
// stored value's dynamic type does not match T.
//
// Get cannot be a method with its own type parameter — Go methods may
// not introduce type parameters beyond the receiver's — so it is a
// package-level generic function, following the same shape as
// core/indexing/btree/btree.go's free functions operating on a
// receiver-less BTree[K,V].
func Get[T any](t Trie, key string) (T, bool) {
	var zero T
	cur := t.root
	for i := 0; i < len(key); i++ {
		if cur == nil {
			return zero, false
		}
		cur = cur.children[key[i]]
	}
	if cur == nil || !cur.hasValue {
		return zero, false
	}
	v, ok := cur.value.(T)
	if !ok {
		return zero, false
	}
	return v, true
}

// Put returns a new Trie with key mapped to value, sharing every subtree
// off the path with t. Existing children of the terminal node, if any,
// are preserved.
func Put[T any](t Trie, key string, value T) Trie {
	newRoot := t.root.clone()
	cur := newRoot
	for i := 0; i < len(key); i++ {
		c := key[i]
		child := cur.children[c].clone()
		cur.children[c] = child
		cur = child
	}
	cur.hasValue = true
	cur.value = value
	return Trie{root: newRoot}
}

// Remove returns a new Trie with key's value dropped. A node left with
// no value and no children after the removal is pruned from its parent,
// propagating upward; if the root itself becomes empty, the new Trie is
// empty.
func Remove(t Trie, key string) Trie {
	if t.root == nil {
		return t
	}
	path := make([]*node, 0, len(key)+1)
	path = append(path, t.root)
	cur := t.root
	for i := 0; i < len(key); i++ {
		cur = cur.children[key[i]]
		if cur == nil {
			return t
		}
		path = append(path, cur)
	}
	if !path[len(path)-1].hasValue {
		return t
	}

	cloned := make([]*node, len(path))
	for i, n := range path {
		cloned[i] = n.clone()
	}
	cloned[len(cloned)-1].hasValue = false
	cloned[len(cloned)-1].value = nil

	for i := len(cloned) - 1; i > 0; i-- {
		if cloned[i].isEmpty() {
			delete(cloned[i-1].children, key[i-1])
		} else {
			cloned[i-1].children[key[i-1]] = cloned[i]
		}
	}

	if cloned[0].isEmpty() {
		return Trie{}
	}
	return Trie{root: cloned[0]}
}

package trie

import (
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTrie_GetOnEmptyTrieNotFound(t *testing.T) {
	tr := New()
	_, ok := Get[int](tr, "anything")
	require.False(t, ok)
}

func TestTrie_PutThenGet(t *testing.T) {
	tr := New()
	tr = Put(tr, "hello", 42)
	v, ok := Get[int](tr, "hello")
	require.True(t, ok)
	require.Equal(t, 42, v)
}

func TestTrie_GetWrongTypeNotFound(t *testing.T) {
	tr := Put(New(), "k", "a string value")
	_, ok := Get[int](tr, "k")
	require.False(t, ok, "type mismatch must report not-found, not panic or wrong value")
}

func TestTrie_EmptyKeyIsValidPath(t *testing.T) {
	tr := Put(New(), "", 7)
	v, ok := Get[int](tr, "")
	require.True(t, ok)
	require.Equal(t, 7, v)
}

// TestTrie_SnapshotIsolation mirrors spec.md's scenario 5: t0 = empty,
// t1 = t0.Put("ab", 1), t2 = t1.Put("ac", 2). t1 must not see "ac"; t2
// must still see "ab", then dropping "ab" from t2 must not disturb "ac".
func TestTrie_SnapshotIsolation(t *testing.T) {
	t0 := New()
	t1 := Put(t0, "ab", 1)
	t2 := Put(t1, "ac", 2)

	_, ok := Get[int](t1, "ac")
	require.False(t, ok, "t1 must not observe a key inserted only into t2")

	v, ok := Get[int](t2, "ab")
	require.True(t, ok)
	require.Equal(t, 1, v)

	t3 := Remove(t2, "ab")
	v, ok = Get[int](t3, "ac")
	require.True(t, ok)
	require.Equal(t, 2, v)

	_, ok = Get[int](t3, "ab")
	require.False(t, ok)

	// t2 itself must remain untouched by producing t3.
	v, ok = Get[int](t2, "ab")
	require.True(t, ok)
	require.Equal(t, 1, v)
}

func TestTrie_RemoveUnknownKeyIsNoOp(t *testing.T) {
	tr := Put(New(), "ab", 1)
	tr2 := Remove(tr, "zz")
	v, ok := Get[int](tr2, "ab")
	require.True(t, ok)
	require.Equal(t, 1, v)
}

func TestTrie_RemovePrunesEmptyInteriorNodes(t *testing.T) {
	tr := Put(New(), "ab", 1)
	tr = Remove(tr, "ab")
	_, ok := Get[int](tr, "ab")
	require.False(t, ok)
	// The trie must now be entirely empty, including interior nodes
	// left over from "a" and "ab".
	require.Nil(t, tr.root)
}

func TestTrie_RemoveKeepsSiblingBranches(t *testing.T) {
	tr := Put(New(), "ab", 1)
	tr = Put(tr, "ac", 2)
	tr = Remove(tr, "ab")

	_, ok := Get[int](tr, "ab")
	require.False(t, ok)
	v, ok := Get[int](tr, "ac")
	require.True(t, ok)
	require.Equal(t, 2, v)
}

func TestTrieStore_PutThenGetReturnsGuard(t *testing.T) {
	s := NewTrieStore()
	StorePut(s, "key", 99)
	g, ok := StoreGet[int](s, "key")
	require.True(t, ok)
	require.Equal(t, 99, g.Value())
}

// TestTrieStore_ReaderSeesConsistentSnapshotAcrossWrite mirrors spec.md's
// scenario 6: a reader holds a guard obtained before a concurrent write,
// and that guard keeps returning its original value.
func TestTrieStore_ReaderSeesConsistentSnapshotAcrossWrite(t *testing.T) {
	s := NewTrieStore()
	StorePut(s, "k", 1)

	g, ok := StoreGet[int](s, "k")
	require.True(t, ok)

	StorePut(s, "k", 2)

	require.Equal(t, 1, g.Value(), "a guard taken before a write must keep observing the old value")

	g2, ok := StoreGet[int](s, "k")
	require.True(t, ok)
	require.Equal(t, 2, g2.Value())
}

func TestTrieStore_ConcurrentWritersAllVisibleAfterJoin(t *testing.T) {
	s := NewTrieStore()
	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			StorePut(s, "key-"+strconv.Itoa(i), i)
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		g, ok := StoreGet[int](s, "key-"+strconv.Itoa(i))
		require.True(t, ok)
		require.Equal(t, i, g.Value())
	}
}

package bplustree

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nikhilrp/anchordb/core/storage/buffer"
	"github.com/nikhilrp/anchordb/core/storage/page"
)

type memDisk struct {
	pageSize int
	pages    map[page.ID][]byte
}

func newMemDisk(pageSize int) *memDisk {
	return &memDisk{pageSize: pageSize, pages: make(map[page.ID][]byte)}
}

func (d *memDisk) ReadPage(id page.ID, buf []byte) error {
	if data, ok := d.pages[id]; ok {
		copy(buf, data)
	}
	return nil
}

func (d *memDisk) WritePage(id page.ID, buf []byte) error {
	cp := make([]byte, len(buf))
	copy(cp, buf)
	d.pages[id] = cp
	return nil
}

func (d *memDisk) Sync() error   { return nil }
func (d *memDisk) Close() error  { return nil }
func (d *memDisk) PageSize() int { return d.pageSize }

func newTestTree(t *testing.T, poolSize, leafMax, internalMax int) *BPlusTree[int64, int64] {
	t.Helper()
	disk := newMemDisk(256)
	bpm := buffer.New(poolSize, disk, 2, nil, nil)
	headerID, _, err := bpm.NewPage()
	require.NoError(t, err)
	tree, err := New[int64, int64]("t", headerID, bpm, DefaultInt64Comparator, leafMax, internalMax, Int64Codec, Int64Codec, nil, nil)
	require.NoError(t, err)
	return tree
}

func TestBPlusTree_SearchOnEmptyTree(t *testing.T) {
	tree := newTestTree(t, 8, 3, 3)
	_, found, err := tree.Search(42)
	require.NoError(t, err)
	require.False(t, found)
}

func TestBPlusTree_InsertAndSearchSingleKey(t *testing.T) {
	tree := newTestTree(t, 8, 3, 3)
	ok, err := tree.Insert(1, 100)
	require.NoError(t, err)
	require.True(t, ok)

	v, found, err := tree.Search(1)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, int64(100), v)
}

func TestBPlusTree_DuplicateKeyRejected(t *testing.T) {
	tree := newTestTree(t, 8, 3, 3)
	ok, err := tree.Insert(1, 100)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = tree.Insert(1, 200)
	require.NoError(t, err)
	require.False(t, ok)

	v, found, err := tree.Search(1)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, int64(100), v, "rejected duplicate must not overwrite the original value")
}

// TestBPlusTree_LeafSplitScenario mirrors the canonical worked example:
// leaf_max=3, internal_max=3, inserting keys 5,9,1,4 splits the root
// leaf into [1,4] and [5,9] under a new internal root [_,5].
func TestBPlusTree_LeafSplitScenario(t *testing.T) {
	tree := newTestTree(t, 16, 3, 3)
	for _, k := range []int64{5, 9, 1, 4} {
		ok, err := tree.Insert(k, k*10)
		require.NoError(t, err)
		require.True(t, ok)
	}

	for _, k := range []int64{1, 4, 5, 9} {
		v, found, err := tree.Search(k)
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, k*10, v)
	}

	it, err := tree.Begin()
	require.NoError(t, err)
	var got []int64
	for it.Valid() {
		got = append(got, it.Key())
		require.NoError(t, it.Next())
	}
	it.Close()
	require.Equal(t, []int64{1, 4, 5, 9}, got)
}

func TestBPlusTree_ManyInsertsRemainSearchable(t *testing.T) {
	tree := newTestTree(t, 32, 4, 4)
	keys := []int64{50, 20, 80, 10, 30, 70, 90, 15, 25, 35, 45, 5, 60, 100, 1}
	for _, k := range keys {
		ok, err := tree.Insert(k, k)
		require.NoError(t, err)
		require.True(t, ok)
	}
	for _, k := range keys {
		v, found, err := tree.Search(k)
		require.NoError(t, err)
		require.True(t, found, "key %d should be found", k)
		require.Equal(t, k, v)
	}

	it, err := tree.Begin()
	require.NoError(t, err)
	var got []int64
	for it.Valid() {
		got = append(got, it.Key())
		require.NoError(t, it.Next())
	}
	it.Close()
	for i := 1; i < len(got); i++ {
		require.Less(t, got[i-1], got[i], "iteration must be strictly increasing")
	}
	require.Len(t, got, len(keys))
}

func TestBPlusTree_RemoveThenSearchNotFound(t *testing.T) {
	tree := newTestTree(t, 8, 3, 3)
	_, err := tree.Insert(1, 10)
	require.NoError(t, err)

	ok, err := tree.Remove(1)
	require.NoError(t, err)
	require.True(t, ok)

	_, found, err := tree.Search(1)
	require.NoError(t, err)
	require.False(t, found)
}

func TestBPlusTree_RemoveUnknownKeyReturnsFalse(t *testing.T) {
	tree := newTestTree(t, 8, 3, 3)
	ok, err := tree.Remove(999)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestBPlusTree_BeginAtStartsAtOrAfterKey(t *testing.T) {
	tree := newTestTree(t, 16, 3, 3)
	for _, k := range []int64{5, 9, 1, 4} {
		_, err := tree.Insert(k, k)
		require.NoError(t, err)
	}
	it, err := tree.BeginAt(4)
	require.NoError(t, err)
	require.True(t, it.Valid())
	require.Equal(t, int64(4), it.Key())
	it.Close()
}

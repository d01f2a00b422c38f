package replacer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nikhilrp/anchordb/core/storage/page"
)

func fid(n int) page.FrameID { return page.FrameID(n) }

func TestLRUKReplacer_BasicEvictionScenario(t *testing.T) {
	r := New(7, 2, nil, nil)

	for _, f := range []int{1, 2, 3, 4, 5, 6} {
		require.NoError(t, r.RecordAccess(fid(f)))
	}
	for _, f := range []int{1, 2, 3, 4, 5, 6} {
		require.NoError(t, r.SetEvictable(fid(f), true))
	}
	require.Equal(t, 6, r.Size())

	victim, ok := r.Evict()
	require.True(t, ok)
	require.Equal(t, fid(1), victim)

	victim, ok = r.Evict()
	require.True(t, ok)
	require.Equal(t, fid(2), victim)

	victim, ok = r.Evict()
	require.True(t, ok)
	require.Equal(t, fid(3), victim)

	// Frame 3 was just evicted, so this RecordAccess recreates it with a
	// single access, landing it back in the young list; Evict scans the
	// young list before the full one, so it comes back out first.
	for _, f := range []int{3, 4, 5, 6} {
		require.NoError(t, r.RecordAccess(fid(f)))
	}
	require.NoError(t, r.SetEvictable(fid(3), true))

	victim, ok = r.Evict()
	require.True(t, ok)
	require.Equal(t, fid(3), victim)
}

// TestLRUKReplacer_FullKDistanceTiebreak exercises the other branch of
// Evict's tie-break, isolated from any prior eviction: among frames that
// all have K accesses, the one whose Kth-most-recent access is oldest
// (largest backward-K-distance) goes first.
func TestLRUKReplacer_FullKDistanceTiebreak(t *testing.T) {
	r := New(41, 2, nil, nil)

	for _, f := range []int{10, 20, 30, 40} {
		require.NoError(t, r.RecordAccess(fid(f)))
	}
	for _, f := range []int{10, 20, 30, 40} {
		require.NoError(t, r.SetEvictable(fid(f), true))
	}
	// Second access in reverse order: frame 10's oldest recorded access
	// stays the least recent overall, giving it the largest distance.
	for _, f := range []int{40, 30, 20, 10} {
		require.NoError(t, r.RecordAccess(fid(f)))
	}

	victim, ok := r.Evict()
	require.True(t, ok)
	require.Equal(t, fid(10), victim)
}

func TestLRUKReplacer_RecordAccessOutOfRange(t *testing.T) {
	r := New(4, 2, nil, nil)
	err := r.RecordAccess(fid(10))
	require.ErrorIs(t, err, ErrOutOfRange)
}

func TestLRUKReplacer_SetEvictableUnknownFrame(t *testing.T) {
	r := New(4, 2, nil, nil)
	err := r.SetEvictable(fid(0), true)
	require.ErrorIs(t, err, ErrNotTracked)
}

func TestLRUKReplacer_EvictEmptyReturnsFalse(t *testing.T) {
	r := New(4, 2, nil, nil)
	_, ok := r.Evict()
	require.False(t, ok)
}

func TestLRUKReplacer_UnevictableFrameSkipped(t *testing.T) {
	r := New(4, 2, nil, nil)
	require.NoError(t, r.RecordAccess(fid(0)))
	require.NoError(t, r.RecordAccess(fid(1)))
	require.NoError(t, r.SetEvictable(fid(1), true))

	victim, ok := r.Evict()
	require.True(t, ok)
	require.Equal(t, fid(1), victim)
}

func TestLRUKReplacer_RemoveIsNoOpOnUnknownFrame(t *testing.T) {
	r := New(4, 2, nil, nil)
	require.NoError(t, r.Remove(fid(2)))
}

func TestLRUKReplacer_SizeCountsOnlyEvictable(t *testing.T) {
	r := New(4, 2, nil, nil)
	require.NoError(t, r.RecordAccess(fid(0)))
	require.NoError(t, r.RecordAccess(fid(1)))
	require.NoError(t, r.SetEvictable(fid(0), true))
	require.Equal(t, 1, r.Size())
}

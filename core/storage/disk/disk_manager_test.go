package disk

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nikhilrp/anchordb/core/storage/page"
)

func TestFileManager_UnwrittenPageReadsAsZero(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pages.db")
	m, err := NewFileManager(path, 16)
	require.NoError(t, err)
	defer m.Close()

	buf := make([]byte, 16)
	require.NoError(t, m.ReadPage(page.ID(3), buf))
	require.Equal(t, make([]byte, 16), buf)
}

func TestFileManager_WriteThenReadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pages.db")
	m, err := NewFileManager(path, 16)
	require.NoError(t, err)
	defer m.Close()

	want := []byte("0123456789abcdef")
	require.NoError(t, m.WritePage(page.ID(0), want))

	got := make([]byte, 16)
	require.NoError(t, m.ReadPage(page.ID(0), got))
	require.Equal(t, want, got)
}

func TestFileManager_NonContiguousPageIDsDoNotCollide(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pages.db")
	m, err := NewFileManager(path, 8)
	require.NoError(t, err)
	defer m.Close()

	require.NoError(t, m.WritePage(page.ID(0), []byte("aaaaaaaa")))
	require.NoError(t, m.WritePage(page.ID(5), []byte("bbbbbbbb")))

	buf := make([]byte, 8)
	require.NoError(t, m.ReadPage(page.ID(0), buf))
	require.Equal(t, []byte("aaaaaaaa"), buf)

	require.NoError(t, m.ReadPage(page.ID(5), buf))
	require.Equal(t, []byte("bbbbbbbb"), buf)

	require.NoError(t, m.ReadPage(page.ID(2), buf))
	require.Equal(t, make([]byte, 8), buf, "a never-written page between two written ones stays zeroed")
}

func TestFileManager_ReadRejectsWrongBufferSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pages.db")
	m, err := NewFileManager(path, 16)
	require.NoError(t, err)
	defer m.Close()

	err = m.ReadPage(page.ID(0), make([]byte, 8))
	require.Error(t, err)
}

func TestFileManager_CorruptedChecksumDetected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pages.db")
	m, err := NewFileManager(path, 8)
	require.NoError(t, err)
	require.NoError(t, m.WritePage(page.ID(0), []byte("original")))
	require.NoError(t, m.Close())

	f, err := os.OpenFile(path, os.O_RDWR, 0o666)
	require.NoError(t, err)
	_, err = f.WriteAt([]byte{'X'}, 0)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	m2, err := NewFileManager(path, 8)
	require.NoError(t, err)
	defer m2.Close()

	err = m2.ReadPage(page.ID(0), make([]byte, 8))
	require.ErrorIs(t, err, ErrChecksumMismatch)
}

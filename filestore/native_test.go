package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/cfdpgo"
)

func TestNative_CreateWriteReadRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	n := NewNative()
	path := filepath.Join(t.TempDir(), "f.bin")

	f, err := n.Create(ctx, path)
	require.NoError(t, err)
	_, err = f.WriteAt([]byte("hello"), 0)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	r, err := n.Open(ctx, path, cfdp.OpenReadOnly)
	require.NoError(t, err)
	buf := make([]byte, 5)
	_, err = r.ReadAt(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf))
	require.NoError(t, r.Close())
}

func TestNative_DeleteRemovesFile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	n := NewNative()
	path := filepath.Join(t.TempDir(), "f.bin")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	require.NoError(t, n.Delete(ctx, path))

	exists, err := n.FileExists(ctx, path)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestNative_RenameRejectsExistingTarget(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	n := NewNative()
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	require.NoError(t, os.WriteFile(src, []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(dst, []byte("b"), 0o644))

	err := n.Rename(ctx, src, dst)
	assert.ErrorIs(t, err, os.ErrExist)
}

func TestNative_AppendCreatesThenGrows(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	n := NewNative()
	path := filepath.Join(t.TempDir(), "f.bin")

	f, err := n.Append(ctx, path)
	require.NoError(t, err)
	_, err = f.WriteAt([]byte("abc"), 0)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	size, err := n.FileSize(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), size)
}

func TestNative_ReplaceOverwritesExisting(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	n := NewNative()
	dir := t.TempDir()
	existing := filepath.Join(dir, "existing")
	replacement := filepath.Join(dir, "replacement")
	require.NoError(t, os.WriteFile(existing, []byte("old content here"), 0o644))
	require.NoError(t, os.WriteFile(replacement, []byte("new"), 0o644))

	require.NoError(t, n.Replace(ctx, existing, replacement))

	got, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))
}

func TestNative_MakeDirectoryCreatesParents(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	n := NewNative()
	path := filepath.Join(t.TempDir(), "a", "b", "c")

	require.NoError(t, n.MakeDirectory(ctx, path))

	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, fi.IsDir())
}

func TestNative_FileExistsFalseForMissing(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	n := NewNative()

	exists, err := n.FileExists(ctx, filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestNative_ChecksumRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	n := NewNative()
	path := filepath.Join(t.TempDir(), "f.bin")
	require.NoError(t, os.WriteFile(path, []byte("payload"), 0o644))

	sum, err := n.CalculateChecksum(ctx, path, cfdp.ChecksumCRC32C)
	require.NoError(t, err)

	ok, err := n.VerifyChecksum(ctx, path, cfdp.ChecksumCRC32C, sum)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = n.VerifyChecksum(ctx, path, cfdp.ChecksumCRC32C, sum+1)
	require.NoError(t, err)
	assert.False(t, ok)
}

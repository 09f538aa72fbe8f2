package filestore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/cfdpgo"
)

func TestMemory_CreateThenWriteAtGrowsFile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := NewMemory()

	f, err := m.Create(ctx, "f.bin")
	require.NoError(t, err)
	_, err = f.WriteAt([]byte("world"), 5)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	content, ok := m.Contents("f.bin")
	require.True(t, ok)
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 'w', 'o', 'r', 'l', 'd'}, content)
}

func TestMemory_ReadAtPastEndReturnsZero(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := NewMemory()
	m.Seed("f.bin", []byte("abc"))

	f, err := m.Open(ctx, "f.bin", cfdp.OpenReadOnly)
	require.NoError(t, err)
	buf := make([]byte, 4)
	n, err := f.ReadAt(buf, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestMemory_OpenMissingFails(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := NewMemory()

	_, err := m.Open(ctx, "missing", cfdp.OpenReadOnly)
	assert.Error(t, err)
}

func TestMemory_RenameMovesContentAndRejectsExistingTarget(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := NewMemory()
	m.Seed("a", []byte("1"))
	m.Seed("b", []byte("2"))

	require.Error(t, m.Rename(ctx, "a", "b"))

	require.NoError(t, m.Rename(ctx, "a", "c"))
	_, ok := m.Contents("a")
	assert.False(t, ok)
	c, ok := m.Contents("c")
	require.True(t, ok)
	assert.Equal(t, []byte("1"), c)
}

func TestMemory_ReplaceCopiesContentIndependently(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := NewMemory()
	m.Seed("replacement", []byte("new data"))

	require.NoError(t, m.Replace(ctx, "existing", "replacement"))

	got, ok := m.Contents("existing")
	require.True(t, ok)
	assert.Equal(t, []byte("new data"), got)

	f, err := m.Append(ctx, "replacement")
	require.NoError(t, err)
	_, err = f.WriteAt([]byte("!"), 8)
	require.NoError(t, err)

	unchanged, _ := m.Contents("existing")
	assert.Equal(t, []byte("new data"), unchanged, "replace must copy, not alias, the source bytes")
}

func TestMemory_DirectoryLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.MakeDirectory(ctx, "dir"))
	require.NoError(t, m.RemoveDirectory(ctx, "dir"))
	assert.Error(t, m.RemoveDirectory(ctx, "dir"))
}

func TestMemory_FileSizeAndExists(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := NewMemory()
	m.Seed("f.bin", []byte("12345"))

	exists, err := m.FileExists(ctx, "f.bin")
	require.NoError(t, err)
	assert.True(t, exists)

	size, err := m.FileSize(ctx, "f.bin")
	require.NoError(t, err)
	assert.Equal(t, uint64(5), size)

	exists, err = m.FileExists(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemory_ChecksumRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := NewMemory()
	m.Seed("f.bin", []byte("payload"))

	sum, err := m.CalculateChecksum(ctx, "f.bin", cfdp.ChecksumCRC32C)
	require.NoError(t, err)

	ok, err := m.VerifyChecksum(ctx, "f.bin", cfdp.ChecksumCRC32C, sum)
	require.NoError(t, err)
	assert.True(t, ok)
}

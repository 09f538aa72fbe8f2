package filestore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRestricted_CreateConfinesToRoot(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	inner := NewMemory()
	r := NewRestricted(inner, "/root")

	f, err := r.Create(ctx, "dir/f.bin")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, ok := inner.Contents("/root/dir/f.bin")
	assert.True(t, ok, "the inner store should see the rewritten, root-prefixed path")
}

func TestRestricted_RejectsPathEscapingRoot(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := NewRestricted(NewMemory(), "/root")

	_, err := r.Create(ctx, "../../etc/passwd")
	var escErr *ErrPathEscapesRoot
	require.True(t, errors.As(err, &escErr))
	assert.Equal(t, "/root", escErr.Root)
}

func TestRestricted_RejectsEscapeViaRename(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	inner := NewMemory()
	inner.Seed("/root/f.bin", []byte("x"))
	r := NewRestricted(inner, "/root")

	err := r.Rename(ctx, "f.bin", "../outside.bin")
	var escErr *ErrPathEscapesRoot
	assert.True(t, errors.As(err, &escErr))
}

func TestRestricted_AllowsPathEqualToRoot(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := NewRestricted(NewMemory(), "/root")

	_, err := r.FileExists(ctx, ".")
	require.NoError(t, err)
}

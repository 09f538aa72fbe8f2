package mib

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/cfdpgo"
)

func TestStatic_SetAndLookup(t *testing.T) {
	t.Parallel()
	s := NewStatic()

	_, ok := s.Lookup(cfdp.EntityID(1))
	assert.False(t, ok)

	s.Set(cfdp.Entry{EntityID: 1, MaxFileSegmentLength: 2048})
	got, ok := s.Lookup(cfdp.EntityID(1))
	require.True(t, ok)
	assert.Equal(t, uint64(2048), got.MaxFileSegmentLength)
}

func TestStatic_SetReplacesExistingEntry(t *testing.T) {
	t.Parallel()
	s := NewStatic()

	s.Set(cfdp.Entry{EntityID: 1, MaxFileSegmentLength: 1024})
	s.Set(cfdp.Entry{EntityID: 1, MaxFileSegmentLength: 4096})

	got, ok := s.Lookup(cfdp.EntityID(1))
	require.True(t, ok)
	assert.Equal(t, uint64(4096), got.MaxFileSegmentLength)
}

func TestStatic_Remove(t *testing.T) {
	t.Parallel()
	s := NewStatic()
	s.Set(cfdp.Entry{EntityID: 1})

	s.Remove(cfdp.EntityID(1))

	_, ok := s.Lookup(cfdp.EntityID(1))
	assert.False(t, ok)
}

func TestStatic_RemoveUnknownIsNoOp(t *testing.T) {
	t.Parallel()
	s := NewStatic()
	assert.NotPanics(t, func() { s.Remove(cfdp.EntityID(99)) })
}

func TestStatic_AllReturnsSnapshot(t *testing.T) {
	t.Parallel()
	s := NewStatic()
	s.Set(cfdp.Entry{EntityID: 1})
	s.Set(cfdp.Entry{EntityID: 2})

	all := s.All()
	assert.Len(t, all, 2)

	s.Set(cfdp.Entry{EntityID: 3})
	assert.Len(t, all, 2, "a previously returned snapshot must not observe later mutations")
}

// Package filestore provides ready-to-use cfdp.Filestore implementations:
// an in-memory store for tests and a native-disk store for production, plus
// a restricting wrapper that confines either one to a directory prefix.
package filestore

import (
	"context"
	"fmt"
	"sync"

	"github.com/marmos91/cfdpgo"
)

// Memory is an in-memory cfdp.Filestore backed by a map of byte slices. It
// is the primary fixture used by the core's own tests and is safe for
// concurrent use.
type Memory struct {
	mu    sync.RWMutex
	files map[string][]byte
	dirs  map[string]bool
}

// NewMemory returns an empty in-memory filestore.
func NewMemory() *Memory {
	return &Memory{
		files: make(map[string][]byte),
		dirs:  make(map[string]bool),
	}
}

// Seed installs content at path without going through the Filestore API,
// for test setup.
func (m *Memory) Seed(path string, content []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	buf := make([]byte, len(content))
	copy(buf, content)
	m.files[path] = buf
}

// Contents returns a copy of path's current content, for test assertions.
func (m *Memory) Contents(path string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.files[path]
	if !ok {
		return nil, false
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, true
}

type memoryFile struct {
	store *Memory
	path  string
}

func (f *memoryFile) ReadAt(p []byte, off int64) (int, error) {
	f.store.mu.RLock()
	defer f.store.mu.RUnlock()
	b, ok := f.store.files[f.path]
	if !ok {
		return 0, fmt.Errorf("no such file: %s", f.path)
	}
	if off >= int64(len(b)) {
		return 0, nil
	}
	n := copy(p, b[off:])
	return n, nil
}

func (f *memoryFile) WriteAt(p []byte, off int64) (int, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	b := f.store.files[f.path]
	end := off + int64(len(p))
	if end > int64(len(b)) {
		grown := make([]byte, end)
		copy(grown, b)
		b = grown
	}
	copy(b[off:], p)
	f.store.files[f.path] = b
	return len(p), nil
}

func (f *memoryFile) Close() error { return nil }

func (m *Memory) Open(ctx context.Context, path string, flag cfdp.OpenFlag) (cfdp.File, error) {
	m.mu.RLock()
	_, ok := m.files[path]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no such file: %s", path)
	}
	return &memoryFile{store: m, path: path}, nil
}

func (m *Memory) Create(ctx context.Context, path string) (cfdp.File, error) {
	m.mu.Lock()
	m.files[path] = nil
	m.mu.Unlock()
	return &memoryFile{store: m, path: path}, nil
}

func (m *Memory) Delete(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[path]; !ok {
		return fmt.Errorf("no such file: %s", path)
	}
	delete(m.files, path)
	return nil
}

func (m *Memory) Rename(ctx context.Context, oldPath, newPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.files[oldPath]
	if !ok {
		return fmt.Errorf("no such file: %s", oldPath)
	}
	if _, exists := m.files[newPath]; exists {
		return fmt.Errorf("already exists: %s", newPath)
	}
	m.files[newPath] = b
	delete(m.files, oldPath)
	return nil
}

func (m *Memory) Append(ctx context.Context, path string) (cfdp.File, error) {
	m.mu.Lock()
	if _, ok := m.files[path]; !ok {
		m.files[path] = nil
	}
	m.mu.Unlock()
	return &memoryFile{store: m, path: path}, nil
}

func (m *Memory) Replace(ctx context.Context, existingPath, replacementPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.files[replacementPath]
	if !ok {
		return fmt.Errorf("no such file: %s", replacementPath)
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	m.files[existingPath] = cp
	return nil
}

func (m *Memory) MakeDirectory(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dirs[path] = true
	return nil
}

func (m *Memory) RemoveDirectory(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.dirs[path] {
		return fmt.Errorf("no such directory: %s", path)
	}
	delete(m.dirs, path)
	return nil
}

func (m *Memory) FileSize(ctx context.Context, path string) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.files[path]
	if !ok {
		return 0, fmt.Errorf("no such file: %s", path)
	}
	return uint64(len(b)), nil
}

func (m *Memory) FileExists(ctx context.Context, path string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.files[path]
	return ok, nil
}

func (m *Memory) CalculateChecksum(ctx context.Context, path string, checksumType cfdp.ChecksumType) (uint32, error) {
	m.mu.RLock()
	b, ok := m.files[path]
	m.mu.RUnlock()
	if !ok {
		return 0, fmt.Errorf("no such file: %s", path)
	}
	return computeChecksum(b, checksumType), nil
}

func (m *Memory) VerifyChecksum(ctx context.Context, path string, checksumType cfdp.ChecksumType, want uint32) (bool, error) {
	got, err := m.CalculateChecksum(ctx, path, checksumType)
	if err != nil {
		return false, err
	}
	return got == want, nil
}

var _ cfdp.Filestore = (*Memory)(nil)

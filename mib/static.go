// Package mib provides ready-to-use cfdp.MIB implementations.
package mib

import (
	"sync"

	"github.com/marmos91/cfdpgo"
)

// Static is an in-memory, mutex-protected MIB keyed by remote entity ID.
// Entries can be added, replaced or removed at runtime.
type Static struct {
	mu      sync.RWMutex
	entries map[cfdp.EntityID]cfdp.Entry
}

// NewStatic returns an empty Static MIB.
func NewStatic() *Static {
	return &Static{entries: make(map[cfdp.EntityID]cfdp.Entry)}
}

// Set installs or replaces the entry for entry.EntityID.
func (s *Static) Set(entry cfdp.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.EntityID] = entry
}

// Remove deletes the entry for entityID, if any.
func (s *Static) Remove(entityID cfdp.EntityID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, entityID)
}

// Lookup implements cfdp.MIB.
func (s *Static) Lookup(entityID cfdp.EntityID) (cfdp.Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[entityID]
	return e, ok
}

// All returns a snapshot of every configured entry, in no particular order.
func (s *Static) All() []cfdp.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]cfdp.Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	return out
}

var _ cfdp.MIB = (*Static)(nil)

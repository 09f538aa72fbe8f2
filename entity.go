package cfdp

import "fmt"

// EntityID identifies a CFDP endpoint. On the wire it is encoded as a
// variable-width unsigned integer of 1-8 bytes; the core treats it as an
// opaque 64-bit value and leaves the wire width to the packet codec.
type EntityID uint64

// String renders the entity ID in decimal, matching how it appears in
// log lines and the control-plane API.
func (e EntityID) String() string {
	return fmt.Sprintf("%d", uint64(e))
}

// TransactionID names a transaction uniquely: the pair (source entity ID,
// destination entity ID) plus a sequence number assigned by the source
// handler from a monotonic per-source-entity counter. Immutable once
// assigned.
type TransactionID struct {
	SourceEntityID      EntityID
	DestinationEntityID EntityID
	SequenceNumber      uint64
}

// String renders the transaction ID as "source:dest:seq", used for log
// correlation and as the control-plane API's transaction key.
func (t TransactionID) String() string {
	return fmt.Sprintf("%d:%d:%d", uint64(t.SourceEntityID), uint64(t.DestinationEntityID), t.SequenceNumber)
}

// IsZero reports whether t is the zero value (no transaction assigned).
func (t TransactionID) IsZero() bool {
	return t == TransactionID{}
}

// sequenceCounter hands out strictly increasing sequence numbers for
// transactions originated by one source entity. Source handlers embed one;
// it is never reset for the lifetime of the handler.
type sequenceCounter struct {
	next uint64
}

// nextSequence returns the next sequence number, starting at 1 so the zero
// TransactionID is never a valid, assigned transaction.
func (c *sequenceCounter) nextSequence() uint64 {
	c.next++
	return c.next
}

// Package cfdp implements the sender and receiver state machines of the
// CCSDS File Delivery Protocol (CFDP), as defined by CCSDS Blue Book
// 727.0-B-5.
//
// The package drives a pair of state machines — SourceHandler and
// DestinationHandler — that produce PDUs to transmit, consume PDUs
// received, and invoke filestore and user-indication callbacks at
// well-defined transaction milestones. It does not own the underlying
// link, timers, or local filesystem: those are supplied by the caller
// through the Filestore, MIB, Indications, and Timer interfaces.
//
// PDU byte-level encoding/decoding, network transport, and the
// Keep-Alive/Prompt/suspend-resume protocol features are out of scope;
// see internal/xdrcodec for a minimal reference codec used only by the
// in-process demo relay in cmd/cfdpd.
package cfdp

package cfdp

import "errors"

// Caller-misuse errors returned by the handlers' public methods. These are
// distinct from protocol faults (ConditionCode) and filestore failures
// (*FilestoreError): they indicate the caller asked for something the API
// contract does not allow, not a runtime transfer failure.
var (
	// ErrUnknownTransaction is returned when a caller references a
	// TransactionID the handler has no record of.
	ErrUnknownTransaction = errors.New("cfdp: unknown transaction")

	// ErrTransactionClosed is returned when a caller drives a handler
	// method against a transaction that already reached its
	// Notice-of-Completion step.
	ErrTransactionClosed = errors.New("cfdp: transaction already closed")

	// ErrInvalidPutRequest is returned when a PutRequest fails validation
	// (e.g. empty SourceFilePath) before a TransactionID is assigned.
	ErrInvalidPutRequest = errors.New("cfdp: invalid put request")

	// ErrNoMIBEntry names the case of a remote entity absent from the MIB.
	// Neither handler returns it: both fall back to the defaultEntry given
	// to their constructor when the MIB has no entry for a remote entity.
	ErrNoMIBEntry = errors.New("cfdp: no MIB entry for destination entity")

	// ErrWrongEntity is returned when a PDU's TransactionID names a source
	// or destination entity that does not match the handler it was
	// delivered to.
	ErrWrongEntity = errors.New("cfdp: PDU addressed to a different entity")
)

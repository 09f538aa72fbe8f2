package auditstore

import (
	"context"
	"log/slog"

	"github.com/marmos91/cfdpgo"
)

// IndicationsRecorder wraps a cfdp.Indications implementation, persisting
// the opening and closing of each transaction to the audit store before
// delegating to Next. Failures to write the audit trail are logged and
// swallowed: a database outage must never stall the protocol engine that
// happens to be decorated.
type IndicationsRecorder struct {
	Next  cfdp.Indications
	Store *Store
	Log   *slog.Logger
}

func (r IndicationsRecorder) logger() *slog.Logger {
	if r.Log != nil {
		return r.Log
	}
	return slog.Default()
}

func (r IndicationsRecorder) TransactionIndication(id cfdp.TransactionID) {
	if err := r.Store.RecordStarted(context.Background(), TransactionRecord{
		ID:                  id.String(),
		SourceEntityID:      uint64(id.SourceEntityID),
		DestinationEntityID: uint64(id.DestinationEntityID),
	}); err != nil {
		r.logger().Warn("audit store: record transaction start failed", "transaction", id, "error", err)
	}
	r.Next.TransactionIndication(id)
}

func (r IndicationsRecorder) EOFSentIndication(id cfdp.TransactionID) {
	r.Next.EOFSentIndication(id)
}

func (r IndicationsRecorder) TransactionFinishedIndication(id cfdp.TransactionID, code cfdp.ConditionCode, delivery cfdp.DeliveryCode, status cfdp.FileStatus) {
	if err := r.Store.RecordFinished(context.Background(), id.String(), code.String(), delivery.String()); err != nil {
		r.logger().Warn("audit store: record transaction finish failed", "transaction", id, "error", err)
	}
	r.Next.TransactionFinishedIndication(id, code, delivery, status)
}

func (r IndicationsRecorder) MetadataReceivedIndication(id cfdp.TransactionID, sourceFilePath, destinationFilePath string, fileSize uint64, messagesToUser [][]byte) {
	if err := r.Store.RecordStarted(context.Background(), TransactionRecord{
		ID:                  id.String(),
		SourceEntityID:      uint64(id.SourceEntityID),
		DestinationEntityID: uint64(id.DestinationEntityID),
		SourceFilePath:      sourceFilePath,
		DestinationFilePath: destinationFilePath,
	}); err != nil {
		r.logger().Warn("audit store: record transaction metadata failed", "transaction", id, "error", err)
	}
	r.Next.MetadataReceivedIndication(id, sourceFilePath, destinationFilePath, fileSize, messagesToUser)
}

func (r IndicationsRecorder) FileSegmentReceivedIndication(id cfdp.TransactionID, offset, length uint64) {
	r.Next.FileSegmentReceivedIndication(id, offset, length)
}

func (r IndicationsRecorder) SuspendedIndication(id cfdp.TransactionID, code cfdp.ConditionCode) {
	r.Next.SuspendedIndication(id, code)
}

func (r IndicationsRecorder) FaultIndication(id cfdp.TransactionID, code cfdp.ConditionCode, action cfdp.FaultHandlerAction, progress uint64) {
	r.Next.FaultIndication(id, code, action, progress)
}

func (r IndicationsRecorder) AbandonedIndication(id cfdp.TransactionID, code cfdp.ConditionCode) {
	if err := r.Store.RecordFinished(context.Background(), id.String(), code.String(), ""); err != nil {
		r.logger().Warn("audit store: record transaction abandonment failed", "transaction", id, "error", err)
	}
	r.Next.AbandonedIndication(id, code)
}

func (r IndicationsRecorder) ReportIndication(id cfdp.TransactionID, statusReport string) {
	r.Next.ReportIndication(id, statusReport)
}

var _ cfdp.Indications = IndicationsRecorder{}

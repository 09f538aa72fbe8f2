package metrics

import "github.com/marmos91/cfdpgo"

// IndicationsRecorder wraps a cfdp.Indications implementation, recording
// Transfer metrics for each callback before delegating to Next.
type IndicationsRecorder struct {
	Next    cfdp.Indications
	Metrics *Transfer
}

func (r IndicationsRecorder) TransactionIndication(id cfdp.TransactionID) {
	r.Next.TransactionIndication(id)
}

func (r IndicationsRecorder) EOFSentIndication(id cfdp.TransactionID) {
	r.Metrics.RecordPDUSent("EOF")
	r.Next.EOFSentIndication(id)
}

func (r IndicationsRecorder) TransactionFinishedIndication(id cfdp.TransactionID, code cfdp.ConditionCode, delivery cfdp.DeliveryCode, status cfdp.FileStatus) {
	r.Metrics.RecordTransactionFinished(code.String())
	r.Next.TransactionFinishedIndication(id, code, delivery, status)
}

func (r IndicationsRecorder) MetadataReceivedIndication(id cfdp.TransactionID, sourceFilePath, destinationFilePath string, fileSize uint64, messagesToUser [][]byte) {
	r.Next.MetadataReceivedIndication(id, sourceFilePath, destinationFilePath, fileSize, messagesToUser)
}

func (r IndicationsRecorder) FileSegmentReceivedIndication(id cfdp.TransactionID, offset, length uint64) {
	r.Metrics.RecordFileBytes("rx", length)
	r.Next.FileSegmentReceivedIndication(id, offset, length)
}

func (r IndicationsRecorder) SuspendedIndication(id cfdp.TransactionID, code cfdp.ConditionCode) {
	r.Next.SuspendedIndication(id, code)
}

func (r IndicationsRecorder) FaultIndication(id cfdp.TransactionID, code cfdp.ConditionCode, action cfdp.FaultHandlerAction, progress uint64) {
	r.Metrics.RecordFault(code.String(), action.String())
	r.Next.FaultIndication(id, code, action, progress)
}

func (r IndicationsRecorder) AbandonedIndication(id cfdp.TransactionID, code cfdp.ConditionCode) {
	r.Next.AbandonedIndication(id, code)
}

func (r IndicationsRecorder) ReportIndication(id cfdp.TransactionID, statusReport string) {
	r.Next.ReportIndication(id, statusReport)
}

var _ cfdp.Indications = IndicationsRecorder{}

package cfdp

// Indications is the synchronous callback surface both handlers invoke at
// transaction milestones. Calls are made from within PutRequest,
// CancelRequest, Receive and Tick on the caller's goroutine, in the order the milestones occur within a
// single call; an implementation that blocks blocks the handler. Handlers
// never call back into themselves from within an indication.
type Indications interface {
	// TransactionIndication fires once, when a transaction is first
	// assigned a TransactionID (source: on PutRequest; destination: on
	// receipt of the first PDU for an unseen transaction).
	TransactionIndication(id TransactionID)

	// EOFSentIndication fires on the source handler after the EOF PDU for
	// id has been handed to the caller for transmission.
	EOFSentIndication(id TransactionID)

	// TransactionFinishedIndication fires once per transaction that
	// completes or is cancelled, when a handler reaches its
	// Notice-of-Completion step. An abandoned transaction reaches that step
	// without it; only AbandonedIndication fires.
	TransactionFinishedIndication(id TransactionID, conditionCode ConditionCode, deliveryCode DeliveryCode, fileStatus FileStatus)

	// MetadataReceivedIndication fires on the destination handler after a
	// Metadata PDU has been processed.
	MetadataReceivedIndication(id TransactionID, sourceFilePath, destinationFilePath string, fileSize uint64, messagesToUser [][]byte)

	// FileSegmentReceivedIndication fires on the destination handler after
	// each File Data PDU is written to the filestore.
	FileSegmentReceivedIndication(id TransactionID, offset uint64, length uint64)

	// SuspendedIndication fires when a transaction moves to
	// NOTICE_OF_SUSPENSION. Resuming a suspended transaction is out of
	// scope; the indication exists so callers can observe the fault
	// handler decision.
	SuspendedIndication(id TransactionID, conditionCode ConditionCode)

	// FaultIndication fires whenever a fault handler procedure is invoked,
	// before the corresponding action (ignore/cancel/suspend/abandon) is
	// applied.
	FaultIndication(id TransactionID, conditionCode ConditionCode, action FaultHandlerAction, progress uint64)

	// AbandonedIndication fires when a transaction is abandoned: all
	// further PDUs for id are dropped and no more indications follow.
	AbandonedIndication(id TransactionID, conditionCode ConditionCode)

	// ReportIndication fires on request of the report_request primitive.
	// Not exercised by this core (report_request is out of scope) but kept
	// for interface completeness with the indication set.
	ReportIndication(id TransactionID, statusReport string)
}

// NoOpIndications implements Indications with no-op methods. Embed it to
// implement only the callbacks a caller cares about.
type NoOpIndications struct{}

func (NoOpIndications) TransactionIndication(TransactionID) {}
func (NoOpIndications) EOFSentIndication(TransactionID)     {}
func (NoOpIndications) TransactionFinishedIndication(TransactionID, ConditionCode, DeliveryCode, FileStatus) {
}
func (NoOpIndications) MetadataReceivedIndication(TransactionID, string, string, uint64, [][]byte) {}
func (NoOpIndications) FileSegmentReceivedIndication(TransactionID, uint64, uint64)                {}
func (NoOpIndications) SuspendedIndication(TransactionID, ConditionCode)                            {}
func (NoOpIndications) FaultIndication(TransactionID, ConditionCode, FaultHandlerAction, uint64)    {}
func (NoOpIndications) AbandonedIndication(TransactionID, ConditionCode)                            {}
func (NoOpIndications) ReportIndication(TransactionID, string)                                      {}

var _ Indications = NoOpIndications{}

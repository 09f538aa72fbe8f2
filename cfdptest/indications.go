package cfdptest

import (
	"sync"

	"github.com/marmos91/cfdpgo"
)

// FinishedCall records one TransactionFinishedIndication invocation.
type FinishedCall struct {
	ID            cfdp.TransactionID
	ConditionCode cfdp.ConditionCode
	DeliveryCode  cfdp.DeliveryCode
	FileStatus    cfdp.FileStatus
}

// FaultCall records one FaultIndication invocation.
type FaultCall struct {
	ID            cfdp.TransactionID
	ConditionCode cfdp.ConditionCode
	Action        cfdp.FaultHandlerAction
	Progress      uint64
}

// Recorder is a cfdp.Indications implementation that appends every call it
// receives to an in-memory log, for test assertions on indication order and
// content.
type Recorder struct {
	cfdp.NoOpIndications

	mu sync.Mutex

	Transactions []cfdp.TransactionID
	Finished     []FinishedCall
	Faults       []FaultCall
	Abandoned    []cfdp.TransactionID
	Segments     []uint64 // offsets received, in order
}

func (r *Recorder) TransactionIndication(id cfdp.TransactionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Transactions = append(r.Transactions, id)
}

func (r *Recorder) TransactionFinishedIndication(id cfdp.TransactionID, code cfdp.ConditionCode, delivery cfdp.DeliveryCode, status cfdp.FileStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Finished = append(r.Finished, FinishedCall{ID: id, ConditionCode: code, DeliveryCode: delivery, FileStatus: status})
}

func (r *Recorder) FaultIndication(id cfdp.TransactionID, code cfdp.ConditionCode, action cfdp.FaultHandlerAction, progress uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Faults = append(r.Faults, FaultCall{ID: id, ConditionCode: code, Action: action, Progress: progress})
}

func (r *Recorder) AbandonedIndication(id cfdp.TransactionID, code cfdp.ConditionCode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Abandoned = append(r.Abandoned, id)
}

func (r *Recorder) FileSegmentReceivedIndication(id cfdp.TransactionID, offset uint64, length uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Segments = append(r.Segments, offset)
}

var _ cfdp.Indications = (*Recorder)(nil)

package cfdp

import (
	"context"
	"sync"
)

// sourceTransaction holds all per-transaction state the Source Handler
// tracks for one outgoing transfer.
type sourceTransaction struct {
	id TransactionID

	mode TransmissionMode
	mib  Entry

	sourceFilePath      string
	destinationFilePath string
	fileSize            uint64
	segmentLength       uint64
	checksumType        ChecksumType
	closureRequested    bool
	messagesToUser      [][]byte
	filestoreRequests   []FilestoreRequest

	faultHandlers map[ConditionCode]FaultHandlerAction

	step SourceStep

	// nextOffset is the byte offset of the next original File Data PDU to
	// send; sending is sequential except while RETRANSMITTING.
	nextOffset uint64

	// sent tracks every byte range already transmitted at least once, so
	// EOF can be generated once nextOffset reaches fileSize.
	sent *IntervalSet

	// retransmitQueue holds gaps reported by NAK PDUs, consumed in FIFO
	// order while in SourceRetransmitting.
	retransmitQueue []ByteRange
	resendMetadata  bool

	// eofSent is set the first time an EOF PDU is queued, and never
	// cleared. It guards against a NAK arriving after closure has already
	// begun re-triggering the EOF/closure sequence a second time.
	eofSent          bool
	eofConditionCode ConditionCode
	eofChecksum      uint32
	eofFaultLocation *EntityID

	ackTimer      Timer
	ackRetries    int
	finishedRecvd bool

	file   File
	closed bool
}

// SourceHandler drives the sender side of zero or more concurrent CFDP
// transactions. One SourceHandler corresponds to one local source entity.
type SourceHandler struct {
	entityID EntityID
	fs       Filestore
	mib      MIB
	defaults Entry
	ind      Indications
	timers   TimerFactory

	mu           sync.Mutex
	seq          sequenceCounter
	transactions map[TransactionID]*sourceTransaction
}

// NewSourceHandler constructs a SourceHandler for the given local entity.
// defaultEntry is used for any destination entity the MIB has no entry for.
func NewSourceHandler(entityID EntityID, fs Filestore, mib MIB, defaultEntry Entry, ind Indications, timers TimerFactory) *SourceHandler {
	if ind == nil {
		ind = NoOpIndications{}
	}
	if timers == nil {
		timers = NewRealTimerFactory()
	}
	return &SourceHandler{
		entityID:     entityID,
		fs:           fs,
		mib:          mib,
		defaults:     defaultEntry,
		ind:          ind,
		timers:       timers,
		transactions: make(map[TransactionID]*sourceTransaction),
	}
}

func (h *SourceHandler) lookupEntry(remote EntityID) Entry {
	if h.mib != nil {
		if e, ok := h.mib.Lookup(remote); ok {
			return e
		}
	}
	entry := h.defaults
	entry.EntityID = remote
	return entry
}

// PutRequest begins a new transaction. It performs the CRC (checksum type
// selection) and transmission-mode procedures and returns the PDUs the
// caller must send: one Metadata PDU, a File Data PDU for every segment of
// the file, and the EOF PDU once the whole file has been read. Receive and
// Tick drive the transaction from there (EOF acknowledgement, NAK-driven
// retransmission and Finished handling).
func (h *SourceHandler) PutRequest(ctx context.Context, req PutRequest) (FsmResult, error) {
	if req.SourceFilePath == "" || req.DestinationFilePath == "" {
		return FsmResult{}, ErrInvalidPutRequest
	}

	entry := h.lookupEntry(req.DestinationEntityID)

	mode := entry.DefaultTransmissionMode
	if req.ModeOverridden {
		mode = req.TransmissionMode
	}

	fileSize, err := h.fs.FileSize(ctx, req.SourceFilePath)
	if err != nil {
		return FsmResult{}, &FilestoreError{Op: FilestoreOpFileSize, Path: req.SourceFilePath, Err: err}
	}

	checksumType := entry.DefaultChecksumType
	if fileSize == 0 {
		checksumType = ChecksumNull
	}

	segLen := entry.MaxFileSegmentLength
	if segLen == 0 {
		segLen = 1024
	}

	faultHandlers := entry.FaultHandlerOverrides
	if req.FaultHandlerOverrides != nil {
		merged := make(map[ConditionCode]FaultHandlerAction, len(entry.FaultHandlerOverrides)+len(req.FaultHandlerOverrides))
		for k, v := range entry.FaultHandlerOverrides {
			merged[k] = v
		}
		for k, v := range req.FaultHandlerOverrides {
			merged[k] = v
		}
		faultHandlers = merged
	}

	h.mu.Lock()
	id := TransactionID{
		SourceEntityID:      h.entityID,
		DestinationEntityID: req.DestinationEntityID,
		SequenceNumber:      h.seq.nextSequence(),
	}
	tx := &sourceTransaction{
		id:                   id,
		mode:                 mode,
		mib:                  entry,
		sourceFilePath:       req.SourceFilePath,
		destinationFilePath:  req.DestinationFilePath,
		fileSize:             fileSize,
		segmentLength:        segLen,
		checksumType:         checksumType,
		closureRequested:     req.ClosureRequested,
		messagesToUser:       req.MessagesToUser,
		filestoreRequests:    req.FilestoreRequests,
		faultHandlers:        faultHandlers,
		step:                 SourceTransactionStart,
		sent:                 NewIntervalSet(),
	}
	h.transactions[id] = tx
	h.mu.Unlock()

	h.ind.TransactionIndication(id)

	f, err := h.fs.Open(ctx, req.SourceFilePath, OpenReadOnly)
	if err != nil {
		return h.cancelLocally(tx, FilestoreRejection, &FilestoreError{Op: FilestoreOpOpen, Path: req.SourceFilePath, Err: err})
	}
	tx.file = f

	result := FsmResult{TransactionID: id}
	tx.step = SourceSendingMetadata
	result.PDUsToSend = append(result.PDUsToSend, &MetadataPDU{
		TransactionID:       id,
		FileSize:            fileSize,
		SourceFilePath:      req.SourceFilePath,
		DestinationFilePath: req.DestinationFilePath,
		ChecksumType:        checksumType,
		ClosureRequested:    req.ClosureRequested,
		MessagesToUser:      req.MessagesToUser,
		FilestoreRequests:   req.FilestoreRequests,
	})

	tx.step = SourceSendingFileData
	h.fillFileData(ctx, tx, &result)
	h.maybeEmitEOF(ctx, tx, &result)

	result.SourceStep = tx.step
	result.Terminal = tx.step == SourceNoticeOfCompletion
	return result, nil
}

// fillFileData appends File Data PDUs to result for every segment not yet
// sent, draining the whole gap in one call since nothing else drives the
// transaction forward between PutRequest/Receive events. Retransmission gaps
// take priority over original forward progress, matching the rule that
// NAK'd segments are resent before new data continues.
func (h *SourceHandler) fillFileData(ctx context.Context, tx *sourceTransaction, result *FsmResult) {
	resumeStep := tx.step
	pastEOF := tx.eofSent

	for {
		if len(tx.retransmitQueue) > 0 {
			tx.step = SourceRetransmitting
			gap := tx.retransmitQueue[0]
			tx.retransmitQueue = tx.retransmitQueue[1:]
			h.sendRange(ctx, tx, result, gap.Start, gap.End)
			if tx.step == SourceWaitingForEOFAck || tx.step == SourceNoticeOfCompletion {
				return // sendRange hit a filestore fault that already cancelled or completed the transaction
			}
			continue
		}
		if tx.resendMetadata {
			tx.resendMetadata = false
			result.PDUsToSend = append(result.PDUsToSend, &MetadataPDU{
				TransactionID:       tx.id,
				FileSize:            tx.fileSize,
				SourceFilePath:      tx.sourceFilePath,
				DestinationFilePath: tx.destinationFilePath,
				ChecksumType:        tx.checksumType,
				ClosureRequested:    tx.closureRequested,
				MessagesToUser:      tx.messagesToUser,
				FilestoreRequests:   tx.filestoreRequests,
			})
			continue
		}
		if tx.nextOffset >= tx.fileSize {
			switch {
			case pastEOF:
				// A NAK arrived after EOF had already been sent (and
				// possibly acked): resending the gap must not disturb the
				// closing sequence already in progress.
				tx.step = resumeStep
			case tx.step == SourceRetransmitting:
				tx.step = SourceSendingFileData
			}
			return
		}
		end := tx.nextOffset + tx.segmentLength
		if end > tx.fileSize {
			end = tx.fileSize
		}
		h.sendRange(ctx, tx, result, tx.nextOffset, end)
		if tx.step == SourceWaitingForEOFAck || tx.step == SourceNoticeOfCompletion {
			return
		}
		tx.nextOffset = end
	}
}

func (h *SourceHandler) sendRange(ctx context.Context, tx *sourceTransaction, result *FsmResult, start, end uint64) {
	length := end - start
	buf := make([]byte, length)
	if length > 0 {
		if _, err := tx.file.ReadAt(buf, int64(start)); err != nil {
			h.fault(ctx, tx, result, FilestoreRejection, &FilestoreError{Op: FilestoreOpOpen, Path: tx.sourceFilePath, Err: err})
			return
		}
	}
	tx.sent.Insert(start, end)
	result.PDUsToSend = append(result.PDUsToSend, &FileDataPDU{
		TransactionID: tx.id,
		Offset:        start,
		Data:          buf,
	})
}

// maybeEmitEOF appends the EOF PDU to result once every byte of the file
// has been sent and no retransmission gaps remain outstanding.
func (h *SourceHandler) maybeEmitEOF(ctx context.Context, tx *sourceTransaction, result *FsmResult) {
	if tx.eofSent {
		return
	}
	if tx.nextOffset < tx.fileSize || len(tx.retransmitQueue) > 0 {
		return
	}

	checksum, err := h.fs.CalculateChecksum(ctx, tx.sourceFilePath, tx.checksumType)
	if err != nil {
		h.fault(ctx, tx, result, FilestoreRejection, &FilestoreError{Op: FilestoreOpChecksum, Path: tx.sourceFilePath, Err: err})
		return
	}

	tx.step = SourceSendingEOF
	tx.eofSent = true
	tx.eofChecksum = checksum
	result.PDUsToSend = append(result.PDUsToSend, &EOFPDU{
		TransactionID: tx.id,
		ConditionCode: NoError,
		FileChecksum:  checksum,
		FileSize:      tx.fileSize,
	})
	h.ind.EOFSentIndication(tx.id)

	if tx.mode == TransmissionModeUnacknowledged {
		h.complete(tx, result, NoError, DeliveryComplete, FileStatusRetained)
		return
	}

	tx.step = SourceWaitingForEOFAck
	tx.ackTimer = h.timers.NewTimer()
	tx.ackTimer.Reset(tx.mib.PositiveAckTimeout)
}

// Receive delivers one inbound PDU addressed to this handler (an ACK of EOF
// or Finished, or a NAK) and advances that transaction's state machine.
func (h *SourceHandler) Receive(ctx context.Context, pdu PDU) (FsmResult, error) {
	id := pdu.Transaction()
	if id.SourceEntityID != h.entityID {
		return FsmResult{}, ErrWrongEntity
	}

	h.mu.Lock()
	tx, ok := h.transactions[id]
	h.mu.Unlock()
	if !ok {
		return FsmResult{}, ErrUnknownTransaction
	}
	if tx.step == SourceNoticeOfCompletion {
		return FsmResult{}, ErrTransactionClosed
	}

	result := FsmResult{TransactionID: id}

	switch p := pdu.(type) {
	case *AckPDU:
		if p.AcknowledgedPDU == AckOfEOF && tx.step == SourceWaitingForEOFAck {
			if tx.ackTimer != nil {
				tx.ackTimer.Stop()
			}
			if p.ConditionCode != NoError {
				h.complete(tx, &result, p.ConditionCode, DeliveryIncomplete, FileStatusUnreported)
			} else {
				// Reaching here only happens in acknowledged mode, which
				// always concludes with a Finished/Ack-of-Finished exchange
				// regardless of whether closure was requested; closure only
				// affects unacknowledged transfers, handled in maybeEmitEOF.
				tx.step = SourceWaitingForFinished
			}
		}
	case *NakPDU:
		h.handleNak(ctx, tx, p, &result)
		h.fillFileData(ctx, tx, &result)
		h.maybeEmitEOF(ctx, tx, &result)
	case *FinishedPDU:
		if tx.step == SourceWaitingForFinished {
			tx.finishedRecvd = true
			tx.step = SourceSendingAckOfFinished
			result.PDUsToSend = append(result.PDUsToSend, &AckPDU{
				TransactionID:   id,
				AcknowledgedPDU: AckOfFinished,
				ConditionCode:   p.ConditionCode,
			})
			h.complete(tx, &result, p.ConditionCode, p.DeliveryCode, p.FileStatus)
		}
	}

	result.SourceStep = tx.step
	result.Terminal = tx.step == SourceNoticeOfCompletion
	return result, nil
}

func (h *SourceHandler) handleNak(ctx context.Context, tx *sourceTransaction, nak *NakPDU, result *FsmResult) {
	for _, seg := range nak.SegmentRequests {
		if seg.IsMetadataRequest() {
			tx.resendMetadata = true
			continue
		}
		tx.retransmitQueue = append(tx.retransmitQueue, ByteRange{Start: seg.StartOffset, End: seg.EndOffset})
	}
}

// Tick advances timers for the given transaction without a new inbound PDU,
// resending EOF up to the MIB's positive ACK limit before declaring
// PositiveAckLimitReached.
func (h *SourceHandler) Tick(ctx context.Context, id TransactionID) (FsmResult, error) {
	h.mu.Lock()
	tx, ok := h.transactions[id]
	h.mu.Unlock()
	if !ok {
		return FsmResult{}, ErrUnknownTransaction
	}

	result := FsmResult{TransactionID: id}
	if tx.step == SourceWaitingForEOFAck && tx.ackTimer != nil && tx.ackTimer.Expired() {
		tx.ackRetries++
		if tx.ackRetries > tx.mib.PositiveAckLimit {
			h.fault(ctx, tx, &result, PositiveAckLimitReached, nil)
		} else {
			result.PDUsToSend = append(result.PDUsToSend, &EOFPDU{
				TransactionID: id,
				ConditionCode: NoError,
				FileChecksum:  tx.eofChecksum,
				FileSize:      tx.fileSize,
			})
			tx.ackTimer.Reset(tx.mib.PositiveAckTimeout)
		}
	}
	result.SourceStep = tx.step
	result.Terminal = tx.step == SourceNoticeOfCompletion
	return result, nil
}

// CancelRequest cancels an in-progress transaction by applying the fault
// handler policy for CancelRequestReceived. Under the default policy the
// returned result carries an EOF with that condition code; in
// unacknowledged mode the transaction also completes immediately.
func (h *SourceHandler) CancelRequest(ctx context.Context, id TransactionID) (FsmResult, error) {
	h.mu.Lock()
	tx, ok := h.transactions[id]
	h.mu.Unlock()
	if !ok {
		return FsmResult{}, ErrUnknownTransaction
	}
	if tx.step == SourceNoticeOfCompletion {
		return FsmResult{}, ErrTransactionClosed
	}

	result := FsmResult{TransactionID: id}
	h.fault(ctx, tx, &result, CancelRequestReceived, nil)
	result.SourceStep = tx.step
	result.Terminal = tx.step == SourceNoticeOfCompletion
	return result, nil
}

// cancelLocally is used during PutRequest before PDUs can be buffered onto
// a shared result (filestore open failure before send has begun).
func (h *SourceHandler) cancelLocally(tx *sourceTransaction, code ConditionCode, err error) (FsmResult, error) {
	result := FsmResult{TransactionID: tx.id}
	h.fault(context.Background(), tx, &result, code, err)
	result.SourceStep = tx.step
	result.Terminal = tx.step == SourceNoticeOfCompletion
	return result, err
}

// fault applies the destination entity's fault handler policy for code.
func (h *SourceHandler) fault(ctx context.Context, tx *sourceTransaction, result *FsmResult, code ConditionCode, cause error) {
	action := tx.mib.FaultHandlerAction(code)
	if tx.faultHandlers != nil {
		if override, ok := tx.faultHandlers[code]; ok {
			action = override
		}
	}
	progress := tx.nextOffset
	h.ind.FaultIndication(tx.id, code, action, progress)

	switch action {
	case FaultHandlerIgnore:
		return
	case FaultHandlerNoticeOfSuspension:
		h.ind.SuspendedIndication(tx.id, code)
		return
	case FaultHandlerAbandon:
		h.closeFile(tx)
		tx.step = SourceNoticeOfCompletion
		h.ind.AbandonedIndication(tx.id, code)
		return
	default: // NOTICE_OF_CANCELLATION
		self := h.entityID
		tx.eofConditionCode = code
		tx.eofFaultLocation = &self
		tx.eofSent = true
		result.PDUsToSend = append(result.PDUsToSend, &EOFPDU{
			TransactionID: tx.id,
			ConditionCode: code,
			FileSize:      tx.nextOffset,
			FaultLocation: &self,
		})
		if tx.mode == TransmissionModeUnacknowledged {
			h.complete(tx, result, code, DeliveryIncomplete, FileStatusUnreported)
		} else {
			tx.step = SourceWaitingForEOFAck
			tx.ackTimer = h.timers.NewTimer()
			tx.ackTimer.Reset(tx.mib.PositiveAckTimeout)
		}
	}
}

func (h *SourceHandler) complete(tx *sourceTransaction, result *FsmResult, code ConditionCode, delivery DeliveryCode, status FileStatus) {
	h.closeFile(tx)
	tx.step = SourceNoticeOfCompletion
	h.ind.TransactionFinishedIndication(tx.id, code, delivery, status)
}

func (h *SourceHandler) closeFile(tx *sourceTransaction) {
	if tx.file != nil && !tx.closed {
		tx.file.Close()
		tx.closed = true
	}
}

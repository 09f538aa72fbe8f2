package cfdp

import (
	"context"
	"sync"
)

// destinationTransaction holds all per-transaction state the Destination
// Handler tracks for one incoming transfer.
type destinationTransaction struct {
	id   TransactionID
	mode TransmissionMode
	mib  Entry

	sourceFilePath      string
	destinationFilePath string
	fileSize            uint64 // 0 until Metadata or EOF has told us
	fileSizeKnown       bool
	checksumType        ChecksumType
	closureRequested    bool
	filestoreRequests   []FilestoreRequest

	faultHandlers map[ConditionCode]FaultHandlerAction

	step DestStep

	metadataReceived bool
	received         *IntervalSet

	eofReceived  bool
	eofChecksum  uint32
	eofCondition ConditionCode

	nakTimer   Timer
	nakRetries int

	file   File
	closed bool

	finishedSent bool
	deliveryCode DeliveryCode
	fileStatus   FileStatus
}

// DestinationHandler drives the receiver side of zero or more concurrent
// CFDP transactions. One DestinationHandler corresponds to one local
// destination entity.
type DestinationHandler struct {
	entityID EntityID
	fs       Filestore
	mib      MIB
	defaults Entry
	ind      Indications
	timers   TimerFactory

	mu           sync.Mutex
	transactions map[TransactionID]*destinationTransaction
}

// NewDestinationHandler constructs a DestinationHandler for the given local
// entity. defaultEntry is used for any source entity the MIB has no entry
// for.
func NewDestinationHandler(entityID EntityID, fs Filestore, mib MIB, defaultEntry Entry, ind Indications, timers TimerFactory) *DestinationHandler {
	if ind == nil {
		ind = NoOpIndications{}
	}
	if timers == nil {
		timers = NewRealTimerFactory()
	}
	return &DestinationHandler{
		entityID:     entityID,
		fs:           fs,
		mib:          mib,
		defaults:     defaultEntry,
		ind:          ind,
		timers:       timers,
		transactions: make(map[TransactionID]*destinationTransaction),
	}
}

func (h *DestinationHandler) lookupEntry(remote EntityID) Entry {
	if h.mib != nil {
		if e, ok := h.mib.Lookup(remote); ok {
			return e
		}
	}
	entry := h.defaults
	entry.EntityID = remote
	return entry
}

func (h *DestinationHandler) getOrCreate(id TransactionID) *destinationTransaction {
	h.mu.Lock()
	defer h.mu.Unlock()
	if tx, ok := h.transactions[id]; ok {
		return tx
	}
	entry := h.lookupEntry(id.SourceEntityID)
	tx := &destinationTransaction{
		id:       id,
		mode:     entry.DefaultTransmissionMode,
		mib:      entry,
		step:     DestTransactionStart,
		received: NewIntervalSet(),
	}
	h.transactions[id] = tx
	h.ind.TransactionIndication(id)
	return tx
}

// Receive delivers one inbound PDU addressed to this handler and advances
// the named transaction's state machine, returning the PDUs (ACKs, NAKs,
// Finished) the caller must now send. A transaction's transmission mode is
// never inferred from the PDU that happens to arrive first: it comes from
// the sending entity's MIB entry, looked up by getOrCreate on first sight of
// the transaction.
func (h *DestinationHandler) Receive(ctx context.Context, pdu PDU) (FsmResult, error) {
	id := pdu.Transaction()
	if id.DestinationEntityID != h.entityID {
		return FsmResult{}, ErrWrongEntity
	}

	tx := h.getOrCreate(id)
	if tx.step == DestNoticeOfCompletion {
		return FsmResult{}, ErrTransactionClosed
	}

	result := FsmResult{TransactionID: id}

	switch p := pdu.(type) {
	case *MetadataPDU:
		h.handleMetadata(ctx, tx, p, &result)
	case *FileDataPDU:
		h.handleFileData(ctx, tx, p, &result)
	case *EOFPDU:
		h.handleEOF(ctx, tx, p, &result)
	case *AckPDU:
		if p.AcknowledgedPDU == AckOfFinished && tx.step == DestWaitingForFinishedAck {
			h.complete(tx, &result)
		}
	}

	result.DestStep = tx.step
	result.Terminal = tx.step == DestNoticeOfCompletion
	return result, nil
}

func (h *DestinationHandler) handleMetadata(ctx context.Context, tx *destinationTransaction, p *MetadataPDU, result *FsmResult) {
	if tx.metadataReceived {
		return
	}
	tx.metadataReceived = true
	tx.sourceFilePath = p.SourceFilePath
	tx.destinationFilePath = p.DestinationFilePath
	tx.fileSize = p.FileSize
	tx.fileSizeKnown = true
	tx.checksumType = p.ChecksumType
	tx.closureRequested = p.ClosureRequested
	tx.filestoreRequests = p.FilestoreRequests

	f, err := h.fs.Create(ctx, p.DestinationFilePath)
	if err != nil {
		h.fault(ctx, tx, result, FilestoreRejection)
		return
	}
	tx.file = f
	tx.step = DestReceivingFileData
	h.ind.MetadataReceivedIndication(tx.id, p.SourceFilePath, p.DestinationFilePath, p.FileSize, p.MessagesToUser)
}

func (h *DestinationHandler) handleFileData(ctx context.Context, tx *destinationTransaction, p *FileDataPDU, result *FsmResult) {
	if tx.file == nil {
		// File Data arrived before Metadata: open lazily so out-of-order
		// delivery under Class 1 does not lose the segment.
		f, err := h.fs.Create(ctx, tx.destinationFilePath)
		if err != nil {
			h.fault(ctx, tx, result, FilestoreRejection)
			return
		}
		tx.file = f
		if tx.step == DestTransactionStart {
			tx.step = DestReceivingFileData
		}
	}

	end := p.Offset + uint64(len(p.Data))
	if !tx.received.Covered(p.Offset, end) && len(p.Data) > 0 {
		if _, err := tx.file.WriteAt(p.Data, int64(p.Offset)); err != nil {
			h.fault(ctx, tx, result, FilestoreRejection)
			return
		}
		tx.received.Insert(p.Offset, end)
		h.ind.FileSegmentReceivedIndication(tx.id, p.Offset, uint64(len(p.Data)))
	}

	// Gaps are only meaningful to report once EOF has announced the final
	// file size and the sender has stopped its forward pass; checking on
	// every segment while data is still streaming in would NAK bytes the
	// sender simply hasn't reached yet.
	if tx.mode == TransmissionModeAcknowledged && tx.eofReceived {
		h.maybeSendNak(tx, result)
	}
	h.maybeFinish(ctx, tx, result)
}

func (h *DestinationHandler) handleEOF(ctx context.Context, tx *destinationTransaction, p *EOFPDU, result *FsmResult) {
	if p.ConditionCode != NoError {
		h.fault(ctx, tx, result, p.ConditionCode)
		return
	}

	tx.eofReceived = true
	tx.eofChecksum = p.FileChecksum
	tx.eofCondition = p.ConditionCode
	tx.fileSize = p.FileSize
	tx.fileSizeKnown = true

	if tx.mode == TransmissionModeAcknowledged {
		result.PDUsToSend = append(result.PDUsToSend, &AckPDU{
			TransactionID:   tx.id,
			AcknowledgedPDU: AckOfEOF,
			ConditionCode:   NoError,
		})
		h.maybeSendNak(tx, result)
	}
	h.maybeFinish(ctx, tx, result)
}

// maybeSendNak emits a NAK for every gap in the received data known so far,
// once EOF has told us the file's final size (or metadata named it for a
// zero-length file). Used only in acknowledged mode.
func (h *DestinationHandler) maybeSendNak(tx *destinationTransaction, result *FsmResult) {
	if !tx.fileSizeKnown {
		return
	}
	gaps := tx.received.Missing(0, tx.fileSize)
	var reqs []SegmentRequest
	if !tx.metadataReceived {
		reqs = append(reqs, SegmentRequest{StartOffset: 0, EndOffset: 0})
	}
	for _, g := range gaps {
		reqs = append(reqs, SegmentRequest{StartOffset: g.Start, EndOffset: g.End})
	}
	if len(reqs) == 0 {
		tx.nakRetries = 0
		if tx.nakTimer != nil {
			tx.nakTimer.Stop()
		}
		return
	}
	tx.step = DestSendingNaks
	result.PDUsToSend = append(result.PDUsToSend, &NakPDU{
		TransactionID:   tx.id,
		ScopeStart:      0,
		ScopeEnd:        tx.fileSize,
		SegmentRequests: reqs,
	})
	tx.nakTimer = h.timers.NewTimer()
	tx.nakTimer.Reset(tx.mib.NakTimeout)
}

// Tick re-sends an outstanding NAK if its timer has expired, up to the
// MIB's NAK limit.
func (h *DestinationHandler) Tick(ctx context.Context, id TransactionID) (FsmResult, error) {
	h.mu.Lock()
	tx, ok := h.transactions[id]
	h.mu.Unlock()
	if !ok {
		return FsmResult{}, ErrUnknownTransaction
	}

	result := FsmResult{TransactionID: id}
	if tx.step == DestSendingNaks && tx.nakTimer != nil && tx.nakTimer.Expired() {
		tx.nakRetries++
		if tx.nakRetries > tx.mib.NakLimit {
			h.fault(ctx, tx, &result, NakLimitReached)
		} else {
			h.maybeSendNak(tx, &result)
		}
	}
	result.DestStep = tx.step
	result.Terminal = tx.step == DestNoticeOfCompletion
	return result, nil
}

// maybeFinish checks whether the file is completely received and, once it
// is, verifies the checksum and applies any filestore requests. It then sends
// a Finished PDU when the transaction is acknowledged or closure was
// requested (waiting for its ACK in acknowledged mode), and otherwise
// completes immediately.
func (h *DestinationHandler) maybeFinish(ctx context.Context, tx *destinationTransaction, result *FsmResult) {
	if !tx.eofReceived || !tx.fileSizeKnown {
		return
	}
	if len(tx.received.Missing(0, tx.fileSize)) > 0 {
		return
	}
	if tx.step == DestTransferCompletion || tx.step == DestSendingFinished ||
		tx.step == DestWaitingForFinishedAck || tx.step == DestNoticeOfCompletion {
		return
	}

	tx.step = DestTransferCompletion
	h.closeFile(tx)

	ok, err := h.fs.VerifyChecksum(ctx, tx.destinationFilePath, tx.checksumType, tx.eofChecksum)
	condition := NoError
	if err != nil {
		h.fault(ctx, tx, result, FilestoreRejection)
		return
	}
	if !ok {
		condition = FileChecksumFailure
		action := tx.mib.FaultHandlerAction(condition)
		if tx.faultHandlers != nil {
			if override, has := tx.faultHandlers[condition]; has {
				action = override
			}
		}
		h.ind.FaultIndication(tx.id, condition, action, tx.received.TotalBytes())
		if action != FaultHandlerIgnore {
			tx.deliveryCode = DeliveryIncomplete
		} else {
			tx.deliveryCode = DeliveryComplete
		}
	} else {
		tx.deliveryCode = DeliveryComplete
	}
	tx.eofCondition = condition

	responses := h.applyFilestoreRequests(ctx, tx)
	tx.fileStatus = FileStatusRetained

	if tx.mode == TransmissionModeAcknowledged || tx.closureRequested {
		tx.step = DestSendingFinished
		result.PDUsToSend = append(result.PDUsToSend, &FinishedPDU{
			TransactionID:      tx.id,
			ConditionCode:      condition,
			DeliveryCode:       tx.deliveryCode,
			FileStatus:         tx.fileStatus,
			FilestoreResponses: responses,
		})
		tx.finishedSent = true
		if tx.mode == TransmissionModeAcknowledged {
			tx.step = DestWaitingForFinishedAck
			return
		}
	}
	h.complete(tx, result)
}

func (h *DestinationHandler) applyFilestoreRequests(ctx context.Context, tx *destinationTransaction) []FilestoreResponse {
	responses := make([]FilestoreResponse, 0, len(tx.filestoreRequests))
	for _, req := range tx.filestoreRequests {
		resp := FilestoreResponse{Request: req, Success: true}
		var err error
		switch req.Action {
		case FilestoreActionDeleteFile:
			err = h.fs.Delete(ctx, req.FirstFilename)
		case FilestoreActionRenameFile:
			err = h.fs.Rename(ctx, req.FirstFilename, req.SecondFilename)
		case FilestoreActionCreateDirectory:
			err = h.fs.MakeDirectory(ctx, req.FirstFilename)
		case FilestoreActionRemoveDirectory:
			err = h.fs.RemoveDirectory(ctx, req.FirstFilename)
		case FilestoreActionAppendFile:
			_, err = h.fs.Append(ctx, req.FirstFilename)
		case FilestoreActionReplaceFile:
			err = h.fs.Replace(ctx, req.FirstFilename, req.SecondFilename)
		case FilestoreActionCreateFile:
			var f File
			f, err = h.fs.Create(ctx, req.FirstFilename)
			if err == nil {
				f.Close()
			}
		default:
			// DENY_FILE / DENY_DIRECTORY are advisory no-ops for this core.
		}
		if err != nil {
			resp.Success = false
			resp.Message = err.Error()
		}
		responses = append(responses, resp)
	}
	return responses
}

func (h *DestinationHandler) fault(ctx context.Context, tx *destinationTransaction, result *FsmResult, code ConditionCode) {
	action := tx.mib.FaultHandlerAction(code)
	if tx.faultHandlers != nil {
		if override, ok := tx.faultHandlers[code]; ok {
			action = override
		}
	}
	progress := tx.received.TotalBytes()
	h.ind.FaultIndication(tx.id, code, action, progress)

	switch action {
	case FaultHandlerIgnore:
		return
	case FaultHandlerNoticeOfSuspension:
		h.ind.SuspendedIndication(tx.id, code)
		return
	case FaultHandlerAbandon:
		h.closeFile(tx)
		tx.step = DestNoticeOfCompletion
		h.ind.AbandonedIndication(tx.id, code)
		return
	default: // NOTICE_OF_CANCELLATION
		h.closeFile(tx)
		tx.deliveryCode = DeliveryIncomplete
		tx.fileStatus = FileStatusDiscardedFilestoreRejection
		tx.eofCondition = code
		tx.step = DestSendingFinished
		self := h.entityID
		result.PDUsToSend = append(result.PDUsToSend, &FinishedPDU{
			TransactionID: tx.id,
			ConditionCode: code,
			DeliveryCode:  tx.deliveryCode,
			FileStatus:    tx.fileStatus,
			FaultLocation: &self,
		})
		if tx.mode == TransmissionModeAcknowledged {
			tx.step = DestWaitingForFinishedAck
			return
		}
		h.complete(tx, result)
	}
}

func (h *DestinationHandler) complete(tx *destinationTransaction, result *FsmResult) {
	tx.step = DestNoticeOfCompletion
	h.ind.TransactionFinishedIndication(tx.id, tx.eofCondition, tx.deliveryCode, tx.fileStatus)
}

func (h *DestinationHandler) closeFile(tx *destinationTransaction) {
	if tx.file != nil && !tx.closed {
		tx.file.Close()
		tx.closed = true
	}
}

package cfdp_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/cfdpgo"
	"github.com/marmos91/cfdpgo/cfdptest"
	"github.com/marmos91/cfdpgo/filestore"
)

const (
	sourceEntity = cfdp.EntityID(1)
	destEntity   = cfdp.EntityID(2)
)

func defaultEntry(id cfdp.EntityID, mode cfdp.TransmissionMode) cfdp.Entry {
	return cfdp.Entry{
		EntityID:                id,
		DefaultTransmissionMode: mode,
		MaxFileSegmentLength:    1024,
		DefaultChecksumType:     cfdp.ChecksumCRC32C,
		PositiveAckTimeout:      50 * time.Millisecond,
		PositiveAckLimit:        2,
		NakTimeout:              50 * time.Millisecond,
		NakLimit:                2,
	}
}

// harness wires a SourceHandler and a DestinationHandler together with
// in-memory filestores, pumping PDUs directly between them without going
// through any wire codec. dropFileData, if set, reports whether a File Data
// PDU at the given offset should be silently lost, for retransmission tests.
type harness struct {
	t      *testing.T
	ctx    context.Context
	source *cfdp.SourceHandler
	dest   *cfdp.DestinationHandler
	srcFS  *filestore.Memory
	dstFS  *filestore.Memory
	srcInd *cfdptest.Recorder
	dstInd *cfdptest.Recorder
	mode   cfdp.TransmissionMode

	dropFileData func(offset uint64) bool
}

func newHarness(t *testing.T, mode cfdp.TransmissionMode) *harness {
	t.Helper()
	srcFS := filestore.NewMemory()
	dstFS := filestore.NewMemory()
	srcInd := &cfdptest.Recorder{}
	dstInd := &cfdptest.Recorder{}

	h := &harness{
		t:      t,
		ctx:    context.Background(),
		srcFS:  srcFS,
		dstFS:  dstFS,
		srcInd: srcInd,
		dstInd: dstInd,
		mode:   mode,
	}
	h.source = cfdp.NewSourceHandler(sourceEntity, srcFS, nil, defaultEntry(destEntity, mode), srcInd, cfdptest.NewVirtualClock(time.Now()))
	h.dest = cfdp.NewDestinationHandler(destEntity, dstFS, nil, defaultEntry(sourceEntity, mode), dstInd, cfdptest.NewVirtualClock(time.Now()))
	return h
}

// pump delivers every PDU in result (produced by one handler) to the other
// handler, recursively delivering whatever PDUs that produces in turn, until
// quiescence. It returns the last FsmResult seen from each handler.
func (h *harness) pump(from string, pdus []cfdp.PDU) (srcResult, dstResult cfdp.FsmResult) {
	for _, pdu := range pdus {
		switch from {
		case "source":
			if fd, ok := pdu.(*cfdp.FileDataPDU); ok && h.dropFileData != nil && h.dropFileData(fd.Offset) {
				continue
			}
			r, err := h.dest.Receive(h.ctx, pdu)
			require.NoError(h.t, err)
			dstResult = r
			sr, dr := h.pump("dest", r.PDUsToSend)
			if !sr.TransactionID.IsZero() {
				srcResult = sr
			}
			if !dr.TransactionID.IsZero() {
				dstResult = dr
			}
		case "dest":
			r, err := h.source.Receive(h.ctx, pdu)
			require.NoError(h.t, err)
			srcResult = r
			sr, dr := h.pump("source", r.PDUsToSend)
			if !sr.TransactionID.IsZero() {
				srcResult = sr
			}
			if !dr.TransactionID.IsZero() {
				dstResult = dr
			}
		}
	}
	return srcResult, dstResult
}

func TestTransfer_Class1EmptyFile(t *testing.T) {
	t.Parallel()
	h := newHarness(t, cfdp.TransmissionModeUnacknowledged)
	h.srcFS.Seed("/src/empty.bin", nil)

	result, err := h.source.PutRequest(h.ctx, cfdp.PutRequest{
		DestinationEntityID: destEntity,
		SourceFilePath:      "/src/empty.bin",
		DestinationFilePath: "/dst/empty.bin",
	})
	require.NoError(t, err)
	assert.True(t, result.Terminal, "unacknowledged mode completes locally once EOF is sent")
	assert.Equal(t, cfdp.SourceNoticeOfCompletion, result.SourceStep)

	h.pump("source", result.PDUsToSend)

	content, ok := h.dstFS.Contents("/dst/empty.bin")
	require.True(t, ok)
	assert.Empty(t, content)
	require.Len(t, h.dstInd.Finished, 1)
	assert.Equal(t, cfdp.DeliveryComplete, h.dstInd.Finished[0].DeliveryCode)
}

func TestTransfer_Class1MultiSegmentFile(t *testing.T) {
	t.Parallel()
	h := newHarness(t, cfdp.TransmissionModeUnacknowledged)

	payload := make([]byte, 4*1024+7) // several 1024-byte segments plus a remainder
	for i := range payload {
		payload[i] = byte(i)
	}
	h.srcFS.Seed("/src/data.bin", payload)

	result, err := h.source.PutRequest(h.ctx, cfdp.PutRequest{
		DestinationEntityID: destEntity,
		SourceFilePath:      "/src/data.bin",
		DestinationFilePath: "/dst/data.bin",
	})
	require.NoError(t, err)
	assert.True(t, result.Terminal)

	h.pump("source", result.PDUsToSend)

	content, ok := h.dstFS.Contents("/dst/data.bin")
	require.True(t, ok)
	assert.Equal(t, payload, content)
	require.Len(t, h.dstInd.Finished, 1)
	assert.Equal(t, cfdp.DeliveryComplete, h.dstInd.Finished[0].DeliveryCode)
}

func TestTransfer_Class2AcknowledgedNoLoss(t *testing.T) {
	t.Parallel()
	h := newHarness(t, cfdp.TransmissionModeAcknowledged)

	payload := []byte("acknowledged transfer payload, several segments long enough to matter")
	h.srcFS.Seed("/src/f.bin", payload)

	result, err := h.source.PutRequest(h.ctx, cfdp.PutRequest{
		DestinationEntityID: destEntity,
		SourceFilePath:      "/src/f.bin",
		DestinationFilePath: "/dst/f.bin",
		ModeOverridden:      true,
		TransmissionMode:    cfdp.TransmissionModeAcknowledged,
	})
	require.NoError(t, err)
	assert.Equal(t, cfdp.SourceWaitingForEOFAck, result.SourceStep)

	h.pump("source", result.PDUsToSend)

	content, ok := h.dstFS.Contents("/dst/f.bin")
	require.True(t, ok)
	assert.Equal(t, payload, content)
	require.Len(t, h.srcInd.Finished, 1)
	assert.Equal(t, cfdp.DeliveryComplete, h.srcInd.Finished[0].DeliveryCode)
	require.Len(t, h.dstInd.Finished, 1)
}

func TestTransfer_Class2RetransmitsLostSegment(t *testing.T) {
	t.Parallel()
	h := newHarness(t, cfdp.TransmissionModeAcknowledged)

	payload := make([]byte, 3*1024)
	for i := range payload {
		payload[i] = byte(i % 251)
	}
	h.srcFS.Seed("/src/f.bin", payload)

	lostOnce := false
	h.dropFileData = func(offset uint64) bool {
		if offset == 1024 && !lostOnce {
			lostOnce = true
			return true
		}
		return false
	}

	result, err := h.source.PutRequest(h.ctx, cfdp.PutRequest{
		DestinationEntityID: destEntity,
		SourceFilePath:      "/src/f.bin",
		DestinationFilePath: "/dst/f.bin",
		ModeOverridden:      true,
		TransmissionMode:    cfdp.TransmissionModeAcknowledged,
	})
	require.NoError(t, err)

	h.pump("source", result.PDUsToSend)

	// The EOF/NAK/retransmit/ACK dance above should have fully recovered the
	// dropped segment without a Tick-driven timeout.
	content, ok := h.dstFS.Contents("/dst/f.bin")
	require.True(t, ok)
	assert.Equal(t, payload, content, "the lost segment must be recovered via NAK-driven retransmission")
	require.Len(t, h.dstInd.Finished, 1)
	assert.Equal(t, cfdp.DeliveryComplete, h.dstInd.Finished[0].DeliveryCode)
	assert.True(t, lostOnce, "the test setup must actually have dropped a segment")
}

func TestTransfer_Class2CancelMidTransfer(t *testing.T) {
	t.Parallel()
	h := newHarness(t, cfdp.TransmissionModeAcknowledged)

	payload := make([]byte, 10*1024)
	h.srcFS.Seed("/src/f.bin", payload)

	result, err := h.source.PutRequest(h.ctx, cfdp.PutRequest{
		DestinationEntityID: destEntity,
		SourceFilePath:      "/src/f.bin",
		DestinationFilePath: "/dst/f.bin",
		ModeOverridden:      true,
		TransmissionMode:    cfdp.TransmissionModeAcknowledged,
	})
	require.NoError(t, err)
	assert.False(t, result.Terminal, "acknowledged mode never completes synchronously from PutRequest")
	assert.Equal(t, cfdp.SourceWaitingForEOFAck, result.SourceStep, "all segments and the EOF queue in one PutRequest call; cancellation below targets the EOF-ack wait")

	cancelResult, err := h.source.CancelRequest(h.ctx, result.TransactionID)
	require.NoError(t, err)
	require.Len(t, cancelResult.PDUsToSend, 1)
	eof, ok := cancelResult.PDUsToSend[0].(*cfdp.EOFPDU)
	require.True(t, ok)
	assert.Equal(t, cfdp.CancelRequestReceived, eof.ConditionCode)
	assert.Equal(t, cfdp.SourceWaitingForEOFAck, cancelResult.SourceStep)

	// A cancelling EOF carries a non-NoError condition code, so the
	// destination's fault path fires directly instead of acking EOF first.
	dstResult, err := h.dest.Receive(h.ctx, eof)
	require.NoError(t, err)
	require.Len(t, dstResult.PDUsToSend, 1)
	finished, ok := dstResult.PDUsToSend[0].(*cfdp.FinishedPDU)
	require.True(t, ok)
	assert.Equal(t, cfdp.CancelRequestReceived, finished.ConditionCode)
	assert.Equal(t, cfdp.DeliveryIncomplete, finished.DeliveryCode)
	assert.Equal(t, cfdp.DestWaitingForFinishedAck, dstResult.DestStep)

	require.Len(t, h.dstInd.Faults, 1)
	assert.Equal(t, cfdp.CancelRequestReceived, h.dstInd.Faults[0].ConditionCode)
}

func TestTransfer_UnknownTransactionErrors(t *testing.T) {
	t.Parallel()
	h := newHarness(t, cfdp.TransmissionModeUnacknowledged)

	bogus := cfdp.TransactionID{SourceEntityID: sourceEntity, DestinationEntityID: destEntity, SequenceNumber: 999}
	_, err := h.source.Tick(h.ctx, bogus)
	assert.ErrorIs(t, err, cfdp.ErrUnknownTransaction)

	_, err = h.source.CancelRequest(h.ctx, bogus)
	assert.ErrorIs(t, err, cfdp.ErrUnknownTransaction)
}

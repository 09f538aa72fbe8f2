// Package xdrcodec gives cmd/cfdpd's in-process demo relay a concrete wire
// format to put on its loopback transport, and gives codec round-trip tests
// something to exercise. The cfdp core package never imports this: it
// only produces and consumes the PDU values in pdu.go, leaving wire
// encoding to whatever transport a caller wires in, of which this is one.
package xdrcodec

import (
	"bytes"
	"fmt"

	"github.com/rasky/go-xdr/xdr2"

	"github.com/marmos91/cfdpgo"
)

// wireHeader is common to every encoded frame: enough to route the frame
// to the right handler and transaction before decoding the type-specific
// body.
type wireHeader struct {
	PDUType             uint32
	SourceEntityID      uint64
	DestinationEntityID uint64
	SequenceNumber      uint64
}

func headerOf(id cfdp.TransactionID, pduType cfdp.PDUType) wireHeader {
	return wireHeader{
		PDUType:             uint32(pduType),
		SourceEntityID:      uint64(id.SourceEntityID),
		DestinationEntityID: uint64(id.DestinationEntityID),
		SequenceNumber:      id.SequenceNumber,
	}
}

func (h wireHeader) transactionID() cfdp.TransactionID {
	return cfdp.TransactionID{
		SourceEntityID:      cfdp.EntityID(h.SourceEntityID),
		DestinationEntityID: cfdp.EntityID(h.DestinationEntityID),
		SequenceNumber:      h.SequenceNumber,
	}
}

// wireMetadata, wireFileData, ... mirror the core PDU structs field for
// field, using only XDR-encodable types. MessagesToUser travels as a
// variable-length array of opaque values; FilestoreRequests is dropped from
// the wire form: the demo relay never exercises filestore request delivery.
type wireMetadata struct {
	Header              wireHeader
	SegmentationControl bool
	FileSize            uint64
	SourceFilePath      string
	DestinationFilePath string
	ChecksumType        int32
	ClosureRequested    bool
	MessagesToUser      [][]byte
}

type wireFileData struct {
	Header wireHeader
	Offset uint64
	Data   []byte
}

type wireEOF struct {
	Header            wireHeader
	ConditionCode     int32
	FileChecksum      uint32
	FileSize          uint64
	HasFaultLocation  bool
	FaultLocationID   uint64
}

type wireFinished struct {
	Header           wireHeader
	ConditionCode    int32
	DeliveryCode     int32
	FileStatus       int32
	HasFaultLocation bool
	FaultLocationID  uint64
}

type wireAck struct {
	Header          wireHeader
	AcknowledgedPDU int32
	ConditionCode   int32
}

type wireSegmentRequest struct {
	StartOffset uint64
	EndOffset   uint64
}

type wireNak struct {
	Header          wireHeader
	ScopeStart      uint64
	ScopeEnd        uint64
	SegmentRequests []wireSegmentRequest
}

// Encode marshals pdu into its XDR wire representation. Returns an error
// for Prompt and Keep-Alive PDUs, which have no wire form here.
func Encode(pdu cfdp.PDU) ([]byte, error) {
	var buf bytes.Buffer
	var payload any

	switch p := pdu.(type) {
	case *cfdp.MetadataPDU:
		payload = wireMetadata{
			Header:              headerOf(p.TransactionID, cfdp.PDUTypeMetadata),
			SegmentationControl: p.SegmentationControl,
			FileSize:            p.FileSize,
			SourceFilePath:      p.SourceFilePath,
			DestinationFilePath: p.DestinationFilePath,
			ChecksumType:        int32(p.ChecksumType),
			ClosureRequested:    p.ClosureRequested,
			MessagesToUser:      p.MessagesToUser,
		}
	case *cfdp.FileDataPDU:
		payload = wireFileData{
			Header: headerOf(p.TransactionID, cfdp.PDUTypeFileData),
			Offset: p.Offset,
			Data:   p.Data,
		}
	case *cfdp.EOFPDU:
		w := wireEOF{
			Header:        headerOf(p.TransactionID, cfdp.PDUTypeEOF),
			ConditionCode: int32(p.ConditionCode),
			FileChecksum:  p.FileChecksum,
			FileSize:      p.FileSize,
		}
		if p.FaultLocation != nil {
			w.HasFaultLocation = true
			w.FaultLocationID = uint64(*p.FaultLocation)
		}
		payload = w
	case *cfdp.FinishedPDU:
		w := wireFinished{
			Header:        headerOf(p.TransactionID, cfdp.PDUTypeFinished),
			ConditionCode: int32(p.ConditionCode),
			DeliveryCode:  int32(p.DeliveryCode),
			FileStatus:    int32(p.FileStatus),
		}
		if p.FaultLocation != nil {
			w.HasFaultLocation = true
			w.FaultLocationID = uint64(*p.FaultLocation)
		}
		payload = w
	case *cfdp.AckPDU:
		payload = wireAck{
			Header:          headerOf(p.TransactionID, cfdp.PDUTypeAck),
			AcknowledgedPDU: int32(p.AcknowledgedPDU),
			ConditionCode:   int32(p.ConditionCode),
		}
	case *cfdp.NakPDU:
		requests := make([]wireSegmentRequest, len(p.SegmentRequests))
		for i, sr := range p.SegmentRequests {
			requests[i] = wireSegmentRequest{StartOffset: sr.StartOffset, EndOffset: sr.EndOffset}
		}
		payload = wireNak{
			Header:          headerOf(p.TransactionID, cfdp.PDUTypeNak),
			ScopeStart:      p.ScopeStart,
			ScopeEnd:        p.ScopeEnd,
			SegmentRequests: requests,
		}
	default:
		return nil, fmt.Errorf("xdrcodec: no wire form for %T", pdu)
	}

	if _, err := xdr.Marshal(&buf, payload); err != nil {
		return nil, fmt.Errorf("xdrcodec: marshal %T: %w", pdu, err)
	}
	return buf.Bytes(), nil
}

// PeekType decodes only enough of frame to report its PDUType, without
// allocating the type-specific body. Decode uses this to pick the concrete
// body type to unmarshal.
func PeekType(frame []byte) (cfdp.PDUType, error) {
	var h wireHeader
	if _, err := xdr.Unmarshal(bytes.NewReader(frame), &h); err != nil {
		return 0, fmt.Errorf("xdrcodec: peek header: %w", err)
	}
	return cfdp.PDUType(h.PDUType), nil
}

// Decode unmarshals frame into the concrete PDU its header names.
func Decode(frame []byte) (cfdp.PDU, error) {
	pduType, err := PeekType(frame)
	if err != nil {
		return nil, err
	}

	r := bytes.NewReader(frame)
	switch pduType {
	case cfdp.PDUTypeMetadata:
		var w wireMetadata
		if _, err := xdr.Unmarshal(r, &w); err != nil {
			return nil, fmt.Errorf("xdrcodec: decode metadata: %w", err)
		}
		return &cfdp.MetadataPDU{
			TransactionID:       w.Header.transactionID(),
			SegmentationControl: w.SegmentationControl,
			FileSize:            w.FileSize,
			SourceFilePath:      w.SourceFilePath,
			DestinationFilePath: w.DestinationFilePath,
			ChecksumType:        cfdp.ChecksumType(w.ChecksumType),
			ClosureRequested:    w.ClosureRequested,
			MessagesToUser:      w.MessagesToUser,
		}, nil

	case cfdp.PDUTypeFileData:
		var w wireFileData
		if _, err := xdr.Unmarshal(r, &w); err != nil {
			return nil, fmt.Errorf("xdrcodec: decode file data: %w", err)
		}
		return &cfdp.FileDataPDU{
			TransactionID: w.Header.transactionID(),
			Offset:        w.Offset,
			Data:          w.Data,
		}, nil

	case cfdp.PDUTypeEOF:
		var w wireEOF
		if _, err := xdr.Unmarshal(r, &w); err != nil {
			return nil, fmt.Errorf("xdrcodec: decode EOF: %w", err)
		}
		pdu := &cfdp.EOFPDU{
			TransactionID: w.Header.transactionID(),
			ConditionCode: cfdp.ConditionCode(w.ConditionCode),
			FileChecksum:  w.FileChecksum,
			FileSize:      w.FileSize,
		}
		if w.HasFaultLocation {
			loc := cfdp.EntityID(w.FaultLocationID)
			pdu.FaultLocation = &loc
		}
		return pdu, nil

	case cfdp.PDUTypeFinished:
		var w wireFinished
		if _, err := xdr.Unmarshal(r, &w); err != nil {
			return nil, fmt.Errorf("xdrcodec: decode Finished: %w", err)
		}
		pdu := &cfdp.FinishedPDU{
			TransactionID: w.Header.transactionID(),
			ConditionCode: cfdp.ConditionCode(w.ConditionCode),
			DeliveryCode:  cfdp.DeliveryCode(w.DeliveryCode),
			FileStatus:    cfdp.FileStatus(w.FileStatus),
		}
		if w.HasFaultLocation {
			loc := cfdp.EntityID(w.FaultLocationID)
			pdu.FaultLocation = &loc
		}
		return pdu, nil

	case cfdp.PDUTypeAck:
		var w wireAck
		if _, err := xdr.Unmarshal(r, &w); err != nil {
			return nil, fmt.Errorf("xdrcodec: decode Ack: %w", err)
		}
		return &cfdp.AckPDU{
			TransactionID:   w.Header.transactionID(),
			AcknowledgedPDU: cfdp.AckedPDUType(w.AcknowledgedPDU),
			ConditionCode:   cfdp.ConditionCode(w.ConditionCode),
		}, nil

	case cfdp.PDUTypeNak:
		var w wireNak
		if _, err := xdr.Unmarshal(r, &w); err != nil {
			return nil, fmt.Errorf("xdrcodec: decode Nak: %w", err)
		}
		requests := make([]cfdp.SegmentRequest, len(w.SegmentRequests))
		for i, sr := range w.SegmentRequests {
			requests[i] = cfdp.SegmentRequest{StartOffset: sr.StartOffset, EndOffset: sr.EndOffset}
		}
		return &cfdp.NakPDU{
			TransactionID:   w.Header.transactionID(),
			ScopeStart:      w.ScopeStart,
			ScopeEnd:        w.ScopeEnd,
			SegmentRequests: requests,
		}, nil

	default:
		return nil, fmt.Errorf("xdrcodec: unsupported PDU type %d", pduType)
	}
}

package cfdp

// PDUType identifies the concrete type carried by a PDU value.
type PDUType int

const (
	PDUTypeMetadata PDUType = iota
	PDUTypeFileData
	PDUTypeEOF
	PDUTypeFinished
	PDUTypeAck
	PDUTypeNak
	PDUTypePrompt
	PDUTypeKeepAlive
)

func (t PDUType) String() string {
	switch t {
	case PDUTypeMetadata:
		return "METADATA"
	case PDUTypeFileData:
		return "FILE_DATA"
	case PDUTypeEOF:
		return "EOF"
	case PDUTypeFinished:
		return "FINISHED"
	case PDUTypeAck:
		return "ACK"
	case PDUTypeNak:
		return "NAK"
	case PDUTypePrompt:
		return "PROMPT"
	case PDUTypeKeepAlive:
		return "KEEP_ALIVE"
	default:
		return "UNKNOWN"
	}
}

// PDU is implemented by every concrete PDU value the core produces or
// consumes. The core never encodes or decodes the wire form; this is the
// typed contract the packet codec on either side of the core adapts to.
type PDU interface {
	Transaction() TransactionID
	Type() PDUType
}

// MetadataPDU is the first PDU of a transaction, carrying the file's
// identity and the transfer options needed to reconstruct it.
type MetadataPDU struct {
	TransactionID       TransactionID
	SegmentationControl bool
	FileSize            uint64
	SourceFilePath       string
	DestinationFilePath  string
	ChecksumType         ChecksumType
	ClosureRequested     bool
	MessagesToUser       [][]byte
	FilestoreRequests    []FilestoreRequest
}

func (p *MetadataPDU) Transaction() TransactionID { return p.TransactionID }
func (p *MetadataPDU) Type() PDUType              { return PDUTypeMetadata }

// FileDataPDU carries one segment of file content at a given offset.
type FileDataPDU struct {
	TransactionID TransactionID
	Offset        uint64
	Data          []byte
}

func (p *FileDataPDU) Transaction() TransactionID { return p.TransactionID }
func (p *FileDataPDU) Type() PDUType              { return PDUTypeFileData }

// EOFPDU marks the end of file data from the sender.
type EOFPDU struct {
	TransactionID TransactionID
	ConditionCode ConditionCode
	FileChecksum  uint32
	FileSize      uint64
	// FaultLocation is set only when ConditionCode != NoError; it names the
	// entity that originated the fault or cancellation.
	FaultLocation *EntityID
}

func (p *EOFPDU) Transaction() TransactionID { return p.TransactionID }
func (p *EOFPDU) Type() PDUType              { return PDUTypeEOF }

// FinishedPDU is the receiver's closing PDU.
type FinishedPDU struct {
	TransactionID      TransactionID
	ConditionCode      ConditionCode
	DeliveryCode       DeliveryCode
	FileStatus         FileStatus
	FilestoreResponses []FilestoreResponse
	FaultLocation      *EntityID
}

func (p *FinishedPDU) Transaction() TransactionID { return p.TransactionID }
func (p *FinishedPDU) Type() PDUType              { return PDUTypeFinished }

// AckedPDUType names which PDU an AckPDU acknowledges: only EOF and
// Finished are acknowledged by this core; Keep-Alive/Prompt ACKs are out of
// scope.
type AckedPDUType int

const (
	AckOfEOF AckedPDUType = iota
	AckOfFinished
)

// AckPDU acknowledges receipt of an EOF or Finished PDU.
type AckPDU struct {
	TransactionID     TransactionID
	AcknowledgedPDU   AckedPDUType
	ConditionCode     ConditionCode
}

func (p *AckPDU) Transaction() TransactionID { return p.TransactionID }
func (p *AckPDU) Type() PDUType              { return PDUTypeAck }

// SegmentRequest is one missing byte range named by a NAK PDU.
type SegmentRequest struct {
	StartOffset uint64
	EndOffset   uint64
}

// IsMetadataRequest reports whether this segment request is the special
// (0,0) sentinel meaning "retransmit the Metadata PDU".
func (s SegmentRequest) IsMetadataRequest() bool {
	return s.StartOffset == 0 && s.EndOffset == 0
}

// NakPDU lists the byte ranges the destination handler still needs.
type NakPDU struct {
	TransactionID    TransactionID
	ScopeStart       uint64
	ScopeEnd         uint64
	SegmentRequests  []SegmentRequest
}

func (p *NakPDU) Transaction() TransactionID { return p.TransactionID }
func (p *NakPDU) Type() PDUType              { return PDUTypeNak }

// PromptPDU and KeepAlivePDU are defined for type completeness with the
// CFDP PDU contract but are never generated or consumed by this core.
type PromptPDU struct {
	TransactionID TransactionID
}

func (p *PromptPDU) Transaction() TransactionID { return p.TransactionID }
func (p *PromptPDU) Type() PDUType              { return PDUTypePrompt }

type KeepAlivePDU struct {
	TransactionID  TransactionID
	ProgressOffset uint64
}

func (p *KeepAlivePDU) Transaction() TransactionID { return p.TransactionID }
func (p *KeepAlivePDU) Type() PDUType              { return PDUTypeKeepAlive }

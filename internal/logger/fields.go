package logger

import (
	"log/slog"
)

// Standard field keys for structured logging across the engine, the
// control plane, and the CLI. Use these keys consistently so log lines can
// be aggregated and queried by transaction.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"

	// ========================================================================
	// Transaction Identity
	// ========================================================================
	KeyTransactionID  = "transaction_id"
	KeySourceEntity   = "source_entity"
	KeyDestEntity     = "dest_entity"
	KeySequenceNumber = "sequence_number"

	// ========================================================================
	// Protocol State
	// ========================================================================
	KeySourceStep    = "source_step"
	KeyDestStep      = "dest_step"
	KeyPDUType       = "pdu_type"
	KeyConditionCode = "condition_code"
	KeyDeliveryCode  = "delivery_code"
	KeyFileStatus    = "file_status"
	KeyFaultAction   = "fault_action"
	KeyMode          = "mode"

	// ========================================================================
	// File Transfer Progress
	// ========================================================================
	KeyOffset        = "offset"
	KeyLength        = "length"
	KeyFileSize      = "file_size"
	KeyChecksum      = "checksum"
	KeyChecksumType  = "checksum_type"
	KeySourcePath    = "source_path"
	KeyDestPath      = "dest_path"

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms"
	KeyError      = "error"
	KeyAttempt    = "attempt"
	KeyMaxRetries = "max_retries"

	// ========================================================================
	// Control Plane
	// ========================================================================
	KeyRequestID = "request_id"
	KeyRemoteIP  = "remote_ip"
	KeyRoute     = "route"
)

func TraceID(id string) slog.Attr { return slog.String(KeyTraceID, id) }
func SpanID(id string) slog.Attr  { return slog.String(KeySpanID, id) }

func TransactionID(id string) slog.Attr { return slog.String(KeyTransactionID, id) }
func SourceEntity(id string) slog.Attr  { return slog.String(KeySourceEntity, id) }
func DestEntity(id string) slog.Attr    { return slog.String(KeyDestEntity, id) }
func SequenceNumber(n uint64) slog.Attr { return slog.Uint64(KeySequenceNumber, n) }

func SourceStep(step string) slog.Attr    { return slog.String(KeySourceStep, step) }
func DestStep(step string) slog.Attr      { return slog.String(KeyDestStep, step) }
func PDUType(t string) slog.Attr          { return slog.String(KeyPDUType, t) }
func ConditionCode(c string) slog.Attr    { return slog.String(KeyConditionCode, c) }
func DeliveryCode(c string) slog.Attr     { return slog.String(KeyDeliveryCode, c) }
func FileStatus(s string) slog.Attr       { return slog.String(KeyFileStatus, s) }
func FaultAction(a string) slog.Attr      { return slog.String(KeyFaultAction, a) }
func Mode(m string) slog.Attr             { return slog.String(KeyMode, m) }

func Offset(off uint64) slog.Attr       { return slog.Uint64(KeyOffset, off) }
func Length(n uint64) slog.Attr         { return slog.Uint64(KeyLength, n) }
func FileSize(n uint64) slog.Attr       { return slog.Uint64(KeyFileSize, n) }
func Checksum(c uint32) slog.Attr       { return slog.Uint64(KeyChecksum, uint64(c)) }
func ChecksumType(t string) slog.Attr   { return slog.String(KeyChecksumType, t) }
func SourcePath(p string) slog.Attr     { return slog.String(KeySourcePath, p) }
func DestPath(p string) slog.Attr       { return slog.String(KeyDestPath, p) }

func DurationMs(ms float64) slog.Attr { return slog.Float64(KeyDurationMs, ms) }
func Attempt(n int) slog.Attr         { return slog.Int(KeyAttempt, n) }
func MaxRetries(n int) slog.Attr      { return slog.Int(KeyMaxRetries, n) }

func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

func RequestID(id string) slog.Attr { return slog.String(KeyRequestID, id) }
func RemoteIP(addr string) slog.Attr { return slog.String(KeyRemoteIP, addr) }
func Route(route string) slog.Attr   { return slog.String(KeyRoute, route) }

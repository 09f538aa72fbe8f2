package logger

import (
	"context"
	"time"
)

// contextKey is a private type for context keys to avoid collisions
type contextKey struct{}

// logContextKey is the key for LogContext in context.Context
var logContextKey = contextKey{}

// LogContext holds transaction-scoped logging context, threaded through
// the control plane's request handling via context.Context.
type LogContext struct {
	TraceID       string
	SpanID        string
	TransactionID string // cfdp.TransactionID.String()
	SourceEntity  string
	DestEntity    string
	StartTime     time.Time
}

// WithContext returns a new context with the given LogContext
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from context, or nil if not present
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext creates a new LogContext for a transaction.
func NewLogContext(transactionID string) *LogContext {
	return &LogContext{
		TransactionID: transactionID,
		StartTime:     time.Now(),
	}
}

// Clone creates a copy of the LogContext
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	return &LogContext{
		TraceID:       lc.TraceID,
		SpanID:        lc.SpanID,
		TransactionID: lc.TransactionID,
		SourceEntity:  lc.SourceEntity,
		DestEntity:    lc.DestEntity,
		StartTime:     lc.StartTime,
	}
}

// WithEntities returns a copy with the source/destination entities set
func (lc *LogContext) WithEntities(source, dest string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.SourceEntity = source
		clone.DestEntity = dest
	}
	return clone
}

// WithTrace returns a copy with trace info set
func (lc *LogContext) WithTrace(traceID, spanID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.TraceID = traceID
		clone.SpanID = spanID
	}
	return clone
}

// DurationMs returns the duration since StartTime in milliseconds
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}

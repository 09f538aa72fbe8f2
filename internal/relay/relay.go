// Package relay implements cmd/cfdpd's in-process PDU relay: a stand-in for
// a real transport that shuttles PDUs between a local Source Handler and a
// local Destination Handler, round-tripping each one through the XDR wire
// codec so the daemon exercises the same encode/decode path a real link
// would use. It is not part of the cfdp core and the core never imports it.
package relay

import (
	"container/list"
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/marmos91/cfdpgo"
	"github.com/marmos91/cfdpgo/internal/logger"
	"github.com/marmos91/cfdpgo/internal/tracing"
	"github.com/marmos91/cfdpgo/internal/xdrcodec"
	"github.com/marmos91/cfdpgo/pkg/metrics"
)

// Link couples a Source Handler and a Destination Handler over a loopback
// "wire": PDUs the source emits are delivered to the destination and vice
// versa, with every hop passing through xdrcodec.Encode/Decode.
type Link struct {
	Source      *cfdp.SourceHandler
	Destination *cfdp.DestinationHandler
	Metrics     *metrics.Transfer

	mu       sync.Mutex
	inflight map[cfdp.TransactionID]struct{}
}

// NewLink returns a Link driving source and destination.
func NewLink(source *cfdp.SourceHandler, destination *cfdp.DestinationHandler, m *metrics.Transfer) *Link {
	return &Link{
		Source:      source,
		Destination: destination,
		Metrics:     m,
		inflight:    make(map[cfdp.TransactionID]struct{}),
	}
}

// Submit issues req against the Source Handler and pumps the resulting
// PDUs across the loopback wire until the transaction has no more PDUs to
// exchange right now. Class 2 transactions that still need timer-driven
// retransmission remain tracked for Run's Tick loop.
func (l *Link) Submit(ctx context.Context, req cfdp.PutRequest) (cfdp.FsmResult, error) {
	result, err := l.Source.PutRequest(ctx, req)
	if err != nil {
		return result, err
	}

	l.track(result.TransactionID, result.Terminal)
	if err := l.pump(ctx, result.PDUsToSend); err != nil {
		return result, fmt.Errorf("relay: %w", err)
	}
	return result, nil
}

// pump delivers a batch of outbound PDUs across the wire, breadth-first,
// until no side has anything left to send in response.
func (l *Link) pump(ctx context.Context, outbound []cfdp.PDU) error {
	queue := list.New()
	for _, pdu := range outbound {
		queue.PushBack(pdu)
	}

	for queue.Len() > 0 {
		elem := queue.Front()
		queue.Remove(elem)
		pdu := elem.Value.(cfdp.PDU)

		frame, err := xdrcodec.Encode(pdu)
		if err != nil {
			logger.Debug("relay dropping non-wire PDU", logger.PDUType(pdu.Type().String()))
			continue
		}
		decoded, err := xdrcodec.Decode(frame)
		if err != nil {
			return fmt.Errorf("decode frame: %w", err)
		}

		spanCtx, span := tracing.StartSpan(ctx, "relay.deliver",
			trace.WithAttributes(tracing.PDUType(decoded.Type().String()), tracing.Transaction(decoded.Transaction().String())),
		)

		var result cfdp.FsmResult
		switch p := decoded.(type) {
		case *cfdp.MetadataPDU, *cfdp.FileDataPDU, *cfdp.EOFPDU:
			result, err = l.Destination.Receive(spanCtx, decoded)
			l.Metrics.RecordPDUReceived(decoded.Type().String())
		case *cfdp.FinishedPDU, *cfdp.NakPDU:
			result, err = l.Source.Receive(spanCtx, decoded)
			l.Metrics.RecordPDUReceived(decoded.Type().String())
		case *cfdp.AckPDU:
			// An ack of EOF travels destination-to-source; an ack of
			// Finished travels source-to-destination. The PDU type alone
			// doesn't say which, so the acknowledged-PDU field decides.
			if p.AcknowledgedPDU == cfdp.AckOfFinished {
				result, err = l.Destination.Receive(spanCtx, decoded)
			} else {
				result, err = l.Source.Receive(spanCtx, decoded)
			}
			l.Metrics.RecordPDUReceived(decoded.Type().String())
		default:
			span.End()
			continue
		}
		if err != nil {
			tracing.RecordError(spanCtx, err)
			span.End()
			return fmt.Errorf("deliver %s: %w", decoded.Type(), err)
		}
		span.End()

		if decoded.Type() == cfdp.PDUTypeNak {
			for _, resent := range result.PDUsToSend {
				if resent.Type() == cfdp.PDUTypeFileData {
					l.Metrics.RecordRetransmittedSegment()
				}
			}
		}

		l.Metrics.RecordPDUSent(pdu.Type().String())
		l.track(result.TransactionID, result.Terminal)
		for _, next := range result.PDUsToSend {
			queue.PushBack(next)
		}
	}
	return nil
}

func (l *Link) track(id cfdp.TransactionID, terminal bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if terminal {
		delete(l.inflight, id)
		return
	}
	if !id.IsZero() {
		l.inflight[id] = struct{}{}
	}
}

// Run drives timer-based retransmission for every tracked in-flight
// transaction until ctx is cancelled, ticking at the given interval.
func (l *Link) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.tickAll(ctx)
		}
	}
}

func (l *Link) tickAll(ctx context.Context) {
	l.mu.Lock()
	ids := make([]cfdp.TransactionID, 0, len(l.inflight))
	for id := range l.inflight {
		ids = append(ids, id)
	}
	l.mu.Unlock()

	for _, id := range ids {
		if result, err := l.Source.Tick(ctx, id); err == nil {
			l.track(result.TransactionID, result.Terminal)
			if err := l.pump(ctx, result.PDUsToSend); err != nil {
				logger.Error("relay source tick pump failed", logger.TransactionID(id.String()), logger.Err(err))
			}
		}
		if result, err := l.Destination.Tick(ctx, id); err == nil {
			l.track(result.TransactionID, result.Terminal)
			if err := l.pump(ctx, result.PDUsToSend); err != nil {
				logger.Error("relay destination tick pump failed", logger.TransactionID(id.String()), logger.Err(err))
			}
		}
	}
}

// Package metrics exposes Prometheus instrumentation for the engine. It is
// incremented from the FsmResult and Indications hooks the Source and
// Destination handlers already produce, never from inside the handlers'
// decision logic itself.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Transfer provides Prometheus metrics for CFDP transaction activity.
// All methods are nil-safe: calls on a nil *Transfer are no-ops, so callers
// that did not wire a registry can pass a nil *Transfer around freely.
type Transfer struct {
	activeBySourceStep *prometheus.GaugeVec
	activeByDestStep   *prometheus.GaugeVec

	pdusSentTotal     *prometheus.CounterVec
	pdusReceivedTotal *prometheus.CounterVec

	retransmittedSegmentsTotal prometheus.Counter
	nakTimerExpiriesTotal      prometheus.Counter
	ackTimerExpiriesTotal      prometheus.Counter

	fileBytesTransferredTotal *prometheus.CounterVec

	transactionsFinishedTotal *prometheus.CounterVec
	faultsTotal               *prometheus.CounterVec
}

// NewTransfer creates and registers transfer metrics with reg. If reg is
// nil, metrics are created but not registered, for use in tests.
//
// On re-registration (daemon restart against a shared registry), existing
// collectors are reused so metrics keep exporting correctly.
func NewTransfer(reg prometheus.Registerer) *Transfer {
	m := &Transfer{
		activeBySourceStep: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "cfdp", Subsystem: "source",
			Name: "transactions_active", Help: "Active source transactions by step.",
		}, []string{"step"}),
		activeByDestStep: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "cfdp", Subsystem: "destination",
			Name: "transactions_active", Help: "Active destination transactions by step.",
		}, []string{"step"}),
		pdusSentTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cfdp", Name: "pdus_sent_total", Help: "PDUs sent, labeled by type.",
		}, []string{"type"}),
		pdusReceivedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cfdp", Name: "pdus_received_total", Help: "PDUs received, labeled by type.",
		}, []string{"type"}),
		retransmittedSegmentsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cfdp", Name: "retransmitted_segments_total", Help: "File Data segments resent after a NAK.",
		}),
		nakTimerExpiriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cfdp", Name: "nak_timer_expiries_total", Help: "NAK timer expiries observed by destination handlers.",
		}),
		ackTimerExpiriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cfdp", Name: "ack_timer_expiries_total", Help: "Positive ACK timer expiries observed by source handlers.",
		}),
		fileBytesTransferredTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cfdp", Name: "file_bytes_transferred_total", Help: "File bytes transferred, labeled by direction.",
		}, []string{"direction"}),
		transactionsFinishedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cfdp", Name: "transactions_finished_total", Help: "Completed transactions, labeled by condition code.",
		}, []string{"condition_code"}),
		faultsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cfdp", Name: "faults_total", Help: "Fault handler invocations, labeled by condition code and action taken.",
		}, []string{"condition_code", "action"}),
	}

	if reg != nil {
		m.activeBySourceStep = registerOrReuse(reg, m.activeBySourceStep).(*prometheus.GaugeVec)
		m.activeByDestStep = registerOrReuse(reg, m.activeByDestStep).(*prometheus.GaugeVec)
		m.pdusSentTotal = registerOrReuse(reg, m.pdusSentTotal).(*prometheus.CounterVec)
		m.pdusReceivedTotal = registerOrReuse(reg, m.pdusReceivedTotal).(*prometheus.CounterVec)
		m.retransmittedSegmentsTotal = registerOrReuse(reg, m.retransmittedSegmentsTotal).(prometheus.Counter)
		m.nakTimerExpiriesTotal = registerOrReuse(reg, m.nakTimerExpiriesTotal).(prometheus.Counter)
		m.ackTimerExpiriesTotal = registerOrReuse(reg, m.ackTimerExpiriesTotal).(prometheus.Counter)
		m.fileBytesTransferredTotal = registerOrReuse(reg, m.fileBytesTransferredTotal).(*prometheus.CounterVec)
		m.transactionsFinishedTotal = registerOrReuse(reg, m.transactionsFinishedTotal).(*prometheus.CounterVec)
		m.faultsTotal = registerOrReuse(reg, m.faultsTotal).(*prometheus.CounterVec)
	}

	return m
}

func registerOrReuse(reg prometheus.Registerer, c prometheus.Collector) prometheus.Collector {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector
		}
		panic(err)
	}
	return c
}

// SetSourceStepActive sets the active-transaction gauge for one step. The
// caller is responsible for decrementing the prior step's gauge.
func (m *Transfer) SetSourceStepActive(step string, count float64) {
	if m == nil {
		return
	}
	m.activeBySourceStep.WithLabelValues(step).Set(count)
}

func (m *Transfer) SetDestStepActive(step string, count float64) {
	if m == nil {
		return
	}
	m.activeByDestStep.WithLabelValues(step).Set(count)
}

func (m *Transfer) RecordPDUSent(pduType string) {
	if m == nil {
		return
	}
	m.pdusSentTotal.WithLabelValues(pduType).Inc()
}

func (m *Transfer) RecordPDUReceived(pduType string) {
	if m == nil {
		return
	}
	m.pdusReceivedTotal.WithLabelValues(pduType).Inc()
}

func (m *Transfer) RecordRetransmittedSegment() {
	if m == nil {
		return
	}
	m.retransmittedSegmentsTotal.Inc()
}

func (m *Transfer) RecordNakTimerExpiry() {
	if m == nil {
		return
	}
	m.nakTimerExpiriesTotal.Inc()
}

func (m *Transfer) RecordAckTimerExpiry() {
	if m == nil {
		return
	}
	m.ackTimerExpiriesTotal.Inc()
}

func (m *Transfer) RecordFileBytes(direction string, n uint64) {
	if m == nil {
		return
	}
	m.fileBytesTransferredTotal.WithLabelValues(direction).Add(float64(n))
}

func (m *Transfer) RecordTransactionFinished(conditionCode string) {
	if m == nil {
		return
	}
	m.transactionsFinishedTotal.WithLabelValues(conditionCode).Inc()
}

func (m *Transfer) RecordFault(conditionCode, action string) {
	if m == nil {
		return
	}
	m.faultsTotal.WithLabelValues(conditionCode, action).Inc()
}

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Collector) float64 {
	t.Helper()
	ch := make(chan prometheus.Metric, 1)
	c.Collect(ch)
	m := &dto.Metric{}
	require.NoError(t, (<-ch).Write(m))
	return m.GetCounter().GetValue()
}

func TestTransfer_NilReceiverMethodsAreNoOps(t *testing.T) {
	t.Parallel()
	var m *Transfer

	assert.NotPanics(t, func() {
		m.SetSourceStepActive("idle", 1)
		m.SetDestStepActive("idle", 1)
		m.RecordPDUSent("EOF")
		m.RecordPDUReceived("EOF")
		m.RecordRetransmittedSegment()
		m.RecordNakTimerExpiry()
		m.RecordAckTimerExpiry()
		m.RecordFileBytes("tx", 10)
		m.RecordTransactionFinished("NO_ERROR")
		m.RecordFault("NO_ERROR", "IGNORE")
	})
}

func TestTransfer_RecordPDUSentIncrementsLabeledCounter(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	m := NewTransfer(reg)

	m.RecordPDUSent("EOF")
	m.RecordPDUSent("EOF")
	m.RecordPDUSent("METADATA")

	assert.Equal(t, float64(2), counterValue(t, m.pdusSentTotal.WithLabelValues("EOF")))
	assert.Equal(t, float64(1), counterValue(t, m.pdusSentTotal.WithLabelValues("METADATA")))
}

func TestTransfer_RecordFaultLabelsByCodeAndAction(t *testing.T) {
	t.Parallel()
	m := NewTransfer(nil)

	m.RecordFault("CANCEL_REQUEST_RECEIVED", "ABANDON")

	assert.Equal(t, float64(1), counterValue(t, m.faultsTotal.WithLabelValues("CANCEL_REQUEST_RECEIVED", "ABANDON")))
}

func TestNewTransfer_ReRegistrationReusesCollectors(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()

	a := NewTransfer(reg)
	a.RecordPDUSent("EOF")

	b := NewTransfer(reg)
	b.RecordPDUSent("EOF")

	assert.Equal(t, float64(2), counterValue(t, a.pdusSentTotal.WithLabelValues("EOF")),
		"a second NewTransfer against the same registry must reuse, not replace, the existing collector")
}

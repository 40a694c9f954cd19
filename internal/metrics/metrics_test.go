package metrics

import (
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRecordMethods exercises every Record* method against a live
// collector set, and confirms the nil receiver is a safe no-op
// (internal/registry and internal/scheduler both accept a nil
// *Metrics).
func TestRecordMethods(t *testing.T) {
	m := New()
	m.RecordOpen()
	m.RecordClose()
	m.RecordRead("pipe", 10)
	m.RecordWrite("pipe", 5)
	m.RecordWriteRetry()
	m.RecordYield()
	m.RecordPoll()

	assert.Equal(t, float64(0), gaugeValue(t, m.ChannelsOpen))
	assert.Equal(t, float64(1), counterValue(t, m.ChannelsOpened))
	assert.Equal(t, float64(1), counterValue(t, m.ChannelsClosed))
	assert.Equal(t, float64(1), counterValue(t, m.SchedulerYields))
	assert.Equal(t, float64(1), counterValue(t, m.SchedulerPolls))

	var nilMetrics *Metrics
	assert.NotPanics(t, func() {
		nilMetrics.RecordOpen()
		nilMetrics.RecordClose()
		nilMetrics.RecordRead("pipe", 1)
		nilMetrics.RecordWrite("pipe", 1)
		nilMetrics.RecordWriteRetry()
		nilMetrics.RecordYield()
		nilMetrics.RecordPoll()
	})
}

func gaugeValue(t *testing.T, g interface{ Write(*dto.Metric) error }) float64 {
	t.Helper()
	var metric dto.Metric
	require.NoError(t, g.Write(&metric))
	return metric.GetGauge().GetValue()
}

func counterValue(t *testing.T, c interface{ Write(*dto.Metric) error }) float64 {
	t.Helper()
	var metric dto.Metric
	require.NoError(t, c.Write(&metric))
	return metric.GetCounter().GetValue()
}

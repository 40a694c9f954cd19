// Package metrics exposes Prometheus instrumentation for the channel
// runtime: open/close counts, bytes moved per transport kind, write
// retries absorbed by framing, and scheduler yield/poll activity.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every Prometheus collector the runtime publishes.
type Metrics struct {
	ChannelsOpen      prometheus.Gauge
	ChannelsOpened    prometheus.Counter
	ChannelsClosed    prometheus.Counter
	BytesRead         *prometheus.CounterVec
	BytesWritten      *prometheus.CounterVec
	WriteRetries      prometheus.Counter
	SchedulerYields   prometheus.Counter
	SchedulerPolls    prometheus.Counter

	Uptime    prometheus.Gauge
	startTime time.Time
}

var (
	defaultOnce sync.Once
	defaultM    *Metrics
)

// New creates a fresh set of collectors and registers them with the
// default Prometheus registry.
func New() *Metrics {
	m := &Metrics{
		startTime: time.Now(),

		ChannelsOpen: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "chrt_channels_open",
			Help: "Number of channel descriptors currently open",
		}),
		ChannelsOpened: promauto.NewCounter(prometheus.CounterOpts{
			Name: "chrt_channels_opened_total",
			Help: "Total number of channels opened",
		}),
		ChannelsClosed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "chrt_channels_closed_total",
			Help: "Total number of channels closed",
		}),
		BytesRead: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "chrt_bytes_read_total",
			Help: "Total bytes read, by transport kind",
		}, []string{"kind"}),
		BytesWritten: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "chrt_bytes_written_total",
			Help: "Total bytes written, by transport kind",
		}, []string{"kind"}),
		WriteRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "chrt_write_retries_total",
			Help: "Total number of partial-write retries absorbed by framing",
		}),
		SchedulerYields: promauto.NewCounter(prometheus.CounterOpts{
			Name: "chrt_scheduler_yields_total",
			Help: "Total number of cooperative yield handoffs",
		}),
		SchedulerPolls: promauto.NewCounter(prometheus.CounterOpts{
			Name: "chrt_scheduler_polls_total",
			Help: "Total number of poll() calls made by the scheduler loop",
		}),
		Uptime: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "chrt_uptime_seconds",
			Help: "Process uptime in seconds",
		}),
	}

	go m.updateUptime()
	return m
}

// Default returns a process-wide singleton, created on first use. Most
// callers should prefer constructing their own *Metrics via New and
// threading it explicitly, but a default is handy for cmd/chrtdemo.
func Default() *Metrics {
	defaultOnce.Do(func() { defaultM = New() })
	return defaultM
}

func (m *Metrics) updateUptime() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for range ticker.C {
		m.Uptime.Set(time.Since(m.startTime).Seconds())
	}
}

// RecordOpen marks a channel as opened.
func (m *Metrics) RecordOpen() {
	if m == nil {
		return
	}
	m.ChannelsOpen.Inc()
	m.ChannelsOpened.Inc()
}

// RecordClose marks a channel as closed.
func (m *Metrics) RecordClose() {
	if m == nil {
		return
	}
	m.ChannelsOpen.Dec()
	m.ChannelsClosed.Inc()
}

// RecordRead adds n bytes to the read counter for kind.
func (m *Metrics) RecordRead(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.BytesRead.WithLabelValues(kind).Add(float64(n))
}

// RecordWrite adds n bytes to the write counter for kind.
func (m *Metrics) RecordWrite(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.BytesWritten.WithLabelValues(kind).Add(float64(n))
}

// RecordWriteRetry counts one partial-write retry.
func (m *Metrics) RecordWriteRetry() {
	if m == nil {
		return
	}
	m.WriteRetries.Inc()
}

// RecordYield counts one cooperative yield handoff.
func (m *Metrics) RecordYield() {
	if m == nil {
		return
	}
	m.SchedulerYields.Inc()
}

// RecordPoll counts one poll() call made by the scheduler loop.
func (m *Metrics) RecordPoll() {
	if m == nil {
		return
	}
	m.SchedulerPolls.Inc()
}

package ledgerstore

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/atomic"
)

const (
	// opSampleEvery rate-limits latency observations by call count.
	opSampleEvery = 16

	// opSampleMinInterval rate-limits latency observations by time.
	opSampleMinInterval = time.Second
)

// Metrics counts store activity. A nil registerer yields metrics that are
// collected but never exported, which keeps the hot paths unconditional.
type Metrics struct {
	apiCalls       *prometheus.CounterVec
	shredsInserted prometheus.Counter
	slotsPurged    prometheus.Counter
	opDurations    *prometheus.HistogramVec

	samplers struct {
		insert opSampler
		purge  opSampler
	}
}

func newMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.NewRegistry()
	}
	factory := promauto.With(registerer)

	return &Metrics{
		apiCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledgerstore",
			Name:      "api_calls_total",
			Help:      "Number of read accessor calls, by method.",
		}, []string{"method"}),
		shredsInserted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "ledgerstore",
			Name:      "shreds_inserted_total",
			Help:      "Number of shreds accepted into the store.",
		}),
		slotsPurged: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "ledgerstore",
			Name:      "slots_purged_total",
			Help:      "Number of slots removed by purges.",
		}),
		opDurations: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ledgerstore",
			Name:      "op_duration_seconds",
			Help:      "Sampled latency of storage operations, by operation.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"op"}),
	}
}

func (m *Metrics) countAPICall(method string) {
	m.apiCalls.WithLabelValues(method).Inc()
}

// observeInsert samples the duration of an insert batch.
func (m *Metrics) observeInsert(start time.Time) {
	if m.samplers.insert.shouldSample() {
		m.opDurations.WithLabelValues("insert_shreds").Observe(time.Since(start).Seconds())
	}
}

// observePurge samples the duration of a purge.
func (m *Metrics) observePurge(start time.Time) {
	if m.samplers.purge.shouldSample() {
		m.opDurations.WithLabelValues("purge_slots").Observe(time.Since(start).Seconds())
	}
}

// opSampler decides, best effort, whether an operation should be timed. An
// operation is sampled at most once per opSampleMinInterval and at most every
// opSampleEvery calls; races just skip a sample.
type opSampler struct {
	calls      atomic.Uint64
	lastSample atomic.Int64
}

func (s *opSampler) shouldSample() bool {
	if s.calls.Inc()%opSampleEvery != 1 {
		return false
	}

	now := time.Now().UnixNano()
	last := s.lastSample.Load()
	if now-last < int64(opSampleMinInterval) {
		return false
	}

	return s.lastSample.CompareAndSwap(last, now)
}

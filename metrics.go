package sessionauth

import (
	"sync/atomic"
	"time"
)

// MetricID identifies a counter or histogram in a MetricsSnapshot.
type MetricID uint16

const (
	MetricRegisterSuccess MetricID = iota
	MetricRegisterConflict
	MetricLoginSuccess
	MetricLoginFailure
	MetricLoginInactive
	MetricLoginRateLimited
	MetricSessionCreated
	MetricSessionResolved
	MetricSessionExpired
	MetricLogout
	MetricAccessDenied
	MetricAdminGranted
	MetricAdminGrantRace
	MetricAdminRevoked
	MetricSuperAdminChanged
	MetricProfileUpdated
	MetricUserDeactivated
	MetricPasswordUpgraded
	MetricBackendError
	// MetricResolveLatency is the only histogram: ResolveCurrentUser wall time.
	MetricResolveLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds lock-free counters, one per cache line, plus a fixed-bucket
// latency histogram. A nil or disabled Metrics ignores every call.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of every counter. Histogram buckets
// are non-cumulative, bounded at 5, 10, 25, 50, 100, 250, 500 ms and +Inf.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricResolveLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricResolveLatency].buckets[i])
		}
		s.Histograms[MetricResolveLatency] = buckets
	}

	return s
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}

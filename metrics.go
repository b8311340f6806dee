package goWallet

import (
	"sync/atomic"
	"time"
)

// MetricID defines a public type used by goWallet APIs.
type MetricID uint16

const (
	// MetricLoginSuccess counts successful LogIn calls.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure counts LogIn calls rejected by the identity provider.
	MetricLoginFailure
	// MetricLogout counts LogOut calls.
	MetricLogout
	// MetricTeardown counts sessions ended by a 401/403 or token failure.
	MetricTeardown
	// MetricRestoreAuthenticated counts Init calls that restored a session.
	MetricRestoreAuthenticated
	// MetricRestoreUnauthenticated counts Init calls that found no usable session.
	MetricRestoreUnauthenticated
	// MetricAccountReloadFailure counts persisted account references dropped after a failed reload.
	MetricAccountReloadFailure
	// MetricTokenCacheHit counts Token calls served from the cache.
	MetricTokenCacheHit
	// MetricTokenFetch counts identity-provider round trips made for a token.
	MetricTokenFetch
	// MetricTokenFetchShared counts Token calls that joined another caller's fetch.
	MetricTokenFetchShared
	// MetricTokenFailure counts Token calls that failed.
	MetricTokenFailure
	// MetricRequest counts backend requests sent.
	MetricRequest
	// MetricRequestError counts backend requests that failed in transport.
	MetricRequestError
	// MetricAuthRejected counts backend 401/403 responses.
	MetricAuthRejected
	// MetricTrackStarted counts accepted Track calls.
	MetricTrackStarted
	// MetricTrackDuplicate counts Track calls ignored for an existing (kind, key).
	MetricTrackDuplicate
	// MetricTrackTerminal counts tracked operations that reached a backend terminal status.
	MetricTrackTerminal
	// MetricTrackPollError counts tracked operations ended with StatusPollError.
	MetricTrackPollError
	// MetricTrackCancelled counts tracked operations stopped by Cancel.
	MetricTrackCancelled
	// MetricPollTick counts status polls issued.
	MetricPollTick
	// MetricPollTickSkipped counts ticks dropped while a poll was outstanding.
	MetricPollTickSkipped
	// MetricRequestLatency is the backend request latency histogram.
	MetricRequestLatency
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

// Metrics holds lock-free counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot defines a public type used by goWallet APIs.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics returns counters configured by cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Inc adds one to id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d in the latency histogram of id.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enableLatency || id != MetricRequestLatency {
		return
	}
	atomic.AddUint64(&m.histograms[id].buckets[bucketIndex(d)], 1)
}

// Value returns the current count of id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter. Disabled metrics produce empty maps.
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
		if id == MetricRequestLatency {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricRequestLatency].buckets[i])
		}
		s.Histograms[MetricRequestLatency] = buckets
	}
	return s
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 25:
		return 0
	case ms <= 50:
		return 1
	case ms <= 100:
		return 2
	case ms <= 250:
		return 3
	case ms <= 500:
		return 4
	case ms <= 1000:
		return 5
	case ms <= 2500:
		return 6
	default:
		return 7
	}
}

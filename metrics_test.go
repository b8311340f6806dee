package goWallet

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"
)

func TestMetricsDisabledNoIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	m.Inc(MetricLoginSuccess)

	if got := m.Value(MetricLoginSuccess); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if snap := m.Snapshot(); len(snap.Counters) != 0 {
		t.Fatalf("expected empty snapshot, got %d counters", len(snap.Counters))
	}
}

func TestMetricsEnabledIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Inc(MetricLoginSuccess)
	m.Inc(MetricLoginSuccess)
	m.Inc(MetricLoginSuccess)

	if got := m.Value(MetricLoginSuccess); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.Inc(MetricRequest)
	m.Observe(MetricRequestLatency, time.Millisecond)
	if m.Value(MetricRequest) != 0 || m.Enabled() {
		t.Fatal("nil metrics must record nothing")
	}
}

func TestMetricsConcurrentIncrementSafe(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const goroutines = 32
	const perG = 4000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perG; j++ {
				m.Inc(MetricPollTick)
			}
		}()
	}
	wg.Wait()

	want := uint64(goroutines * perG)
	if got := m.Value(MetricPollTick); got != want {
		t.Fatalf("expected %d, got %d", want, got)
	}
}

func TestMetricsHistogramBucketCorrectness(t *testing.T) {
	m := NewMetrics(MetricsConfig{
		Enabled:                 true,
		EnableLatencyHistograms: true,
	})

	observations := []time.Duration{
		5 * time.Millisecond,
		40 * time.Millisecond,
		100 * time.Millisecond,
		200 * time.Millisecond,
		500 * time.Millisecond,
		900 * time.Millisecond,
		2 * time.Second,
		4 * time.Second,
	}

	for _, d := range observations {
		m.Observe(MetricRequestLatency, d)
	}

	snap := m.Snapshot()
	buckets := snap.Histograms[MetricRequestLatency]
	if len(buckets) != 8 {
		t.Fatalf("expected 8 buckets, got %d", len(buckets))
	}

	for i, v := range buckets {
		if v != 1 {
			t.Fatalf("bucket %d expected 1, got %d", i, v)
		}
	}
	if _, ok := snap.Counters[MetricRequestLatency]; ok {
		t.Fatal("latency histogram must not appear as a counter")
	}
}

func TestClientRecordsRequestMetrics(t *testing.T) {
	backend := newFakeBackend(t)
	backend.handle("GET /wallet/{id}", walletHandler("1.00"))
	c := loggedInClient(t, backend, testClientOptions{mutate: func(b *Builder) {
		b.config.Metrics.EnableLatencyHistograms = true
	}})

	if _, err := c.LoadWallet(context.Background(), "w-1"); err != nil {
		t.Fatalf("LoadWallet: %v", err)
	}
	resp, err := c.Get(context.Background(), "/missing")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	snap := c.MetricsSnapshot()
	if snap.Counters[MetricRequest] != 2 || snap.Counters[MetricLoginSuccess] != 1 {
		t.Fatalf("unexpected counters %+v", snap.Counters)
	}
	if snap.Counters[MetricTokenCacheHit] < 2 {
		t.Fatalf("expected cached tokens, got %d cache hits", snap.Counters[MetricTokenCacheHit])
	}
	var observed uint64
	for _, v := range snap.Histograms[MetricRequestLatency] {
		observed += v
	}
	if observed != 2 {
		t.Fatalf("expected 2 latency observations, got %d", observed)
	}
}

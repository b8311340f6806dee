package otel

import (
	"context"
	"errors"
	"fmt"

	goWallet "github.com/MrEthical07/goWallet"
	"github.com/MrEthical07/goWallet/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

// MetricsSource is what the exporter reads; *goWallet.Client implements it.
type MetricsSource interface {
	MetricsSnapshot() goWallet.MetricsSnapshot
	EventsDropped() uint64
	TrackedActive() int
}

type observedCounter struct {
	id         goWallet.MetricID
	instrument metric.Int64ObservableCounter
}

type observedHistogram struct {
	id      goWallet.MetricID
	buckets [8]metric.Int64ObservableGauge
	count   metric.Int64ObservableGauge
}

// OTelExporter publishes client metrics through observable instruments. One
// callback reads a snapshot per collection.
type OTelExporter struct {
	source       MetricsSource
	registration metric.Registration
	counters     []observedCounter
	histograms   []observedHistogram
	dropped      metric.Int64ObservableCounter
	active       metric.Int64ObservableGauge
}

// NewOTelExporter registers instruments on meter for client.
func NewOTelExporter(meter metric.Meter, client *goWallet.Client) (*OTelExporter, error) {
	if client == nil {
		return nil, ErrNilSource
	}
	return NewOTelExporterFromSource(meter, client)
}

// NewOTelExporterFromSource registers instruments on meter for source.
func NewOTelExporterFromSource(meter metric.Meter, source MetricsSource) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &OTelExporter{
		source:     source,
		counters:   make([]observedCounter, 0, len(internaldefs.CounterDefs)),
		histograms: make([]observedHistogram, 0, len(internaldefs.HistogramDefs)),
	}
	observables := make([]metric.Observable, 0, len(internaldefs.CounterDefs)+len(internaldefs.HistogramDefs)*9+2)

	for _, def := range internaldefs.CounterDefs {
		ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("create observable counter %s: %w", def.Name, err)
		}
		e.counters = append(e.counters, observedCounter{id: def.ID, instrument: ins})
		observables = append(observables, ins)
	}

	for _, def := range internaldefs.HistogramDefs {
		h := observedHistogram{id: def.ID}
		for i, suffix := range internaldefs.HistogramBoundSuffix {
			name := def.Name + "_bucket_le_" + suffix
			ins, err := meter.Int64ObservableGauge(name, metric.WithDescription("Cumulative histogram bucket count."))
			if err != nil {
				return nil, fmt.Errorf("create histogram bucket gauge %s: %w", name, err)
			}
			h.buckets[i] = ins
			observables = append(observables, ins)
		}
		countIns, err := meter.Int64ObservableGauge(def.Name+"_count", metric.WithDescription("Histogram total sample count."))
		if err != nil {
			return nil, fmt.Errorf("create histogram count gauge %s_count: %w", def.Name, err)
		}
		h.count = countIns
		observables = append(observables, countIns)
		e.histograms = append(e.histograms, h)
	}

	dropped, err := meter.Int64ObservableCounter(internaldefs.EventsDroppedName,
		metric.WithDescription("Events dropped due to dispatcher backpressure."))
	if err != nil {
		return nil, fmt.Errorf("create events dropped counter: %w", err)
	}
	active, err := meter.Int64ObservableGauge(internaldefs.TrackedActiveName,
		metric.WithDescription("Operations currently being polled."))
	if err != nil {
		return nil, fmt.Errorf("create tracked operations gauge: %w", err)
	}
	e.dropped, e.active = dropped, active
	observables = append(observables, dropped, active)

	registration, err := meter.RegisterCallback(e.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	e.registration = registration
	return e, nil
}

func (e *OTelExporter) observe(_ context.Context, observer metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()
	for _, c := range e.counters {
		observer.ObserveInt64(c.instrument, int64(snapshot.Counters[c.id]))
	}
	for _, h := range e.histograms {
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snapshot.Histograms[h.id]))
		for i := range cumulative {
			observer.ObserveInt64(h.buckets[i], int64(cumulative[i]))
		}
		observer.ObserveInt64(h.count, int64(cumulative[len(cumulative)-1]))
	}
	observer.ObserveInt64(e.dropped, int64(e.source.EventsDropped()))
	observer.ObserveInt64(e.active, int64(e.source.TrackedActive()))
	return nil
}

// Close unregisters the callback.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}

package otel

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/metric"

	"github.com/MrEthical07/sessionauth"
	"github.com/MrEthical07/sessionauth/metrics/export/internaldefs"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() sessionauth.MetricsSnapshot
	AuditDropped() uint64
}

// latencyInstruments observe one engine histogram as cumulative bucket
// gauges plus a sample count.
type latencyInstruments struct {
	id      sessionauth.MetricID
	buckets [internaldefs.BucketCount]metric.Int64ObservableGauge
	count   metric.Int64ObservableGauge
}

// OTelExporter keeps the instruments and callback registration alive until
// Close.
type OTelExporter struct {
	source       metricsSource
	registration metric.Registration

	outcomes     map[sessionauth.MetricID]metric.Int64ObservableCounter
	latencies    []latencyInstruments
	auditDropped metric.Int64ObservableCounter
}

// NewOTelExporter registers instruments on meter that observe engine.
func NewOTelExporter(meter metric.Meter, engine *sessionauth.Engine) (*OTelExporter, error) {
	if engine == nil {
		return nil, ErrNilSource
	}
	return NewOTelExporterFromSource(meter, engine)
}

// NewOTelExporterFromSource is NewOTelExporter over any snapshot source.
func NewOTelExporterFromSource(meter metric.Meter, source metricsSource) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &OTelExporter{
		source:   source,
		outcomes: make(map[sessionauth.MetricID]metric.Int64ObservableCounter, len(internaldefs.CounterDefs)),
	}

	var observed []metric.Observable
	for _, def := range internaldefs.CounterDefs {
		c, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("counter %s: %w", def.Name, err)
		}
		e.outcomes[def.ID] = c
		observed = append(observed, c)
	}

	for _, def := range internaldefs.HistogramDefs {
		li, err := newLatencyInstruments(meter, def)
		if err != nil {
			return nil, err
		}
		e.latencies = append(e.latencies, li)
		observed = append(observed, li.count)
		for _, g := range li.buckets {
			observed = append(observed, g)
		}
	}

	dropped, err := meter.Int64ObservableCounter(internaldefs.AuditDroppedName,
		metric.WithDescription(internaldefs.AuditDroppedHelp))
	if err != nil {
		return nil, fmt.Errorf("counter %s: %w", internaldefs.AuditDroppedName, err)
	}
	e.auditDropped = dropped
	observed = append(observed, dropped)

	e.registration, err = meter.RegisterCallback(e.observe, observed...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	return e, nil
}

func newLatencyInstruments(meter metric.Meter, def internaldefs.HistogramDef) (latencyInstruments, error) {
	li := latencyInstruments{id: def.ID}
	for i, suffix := range internaldefs.HistogramBoundSuffix {
		name := def.Name + "_bucket_le_" + suffix
		g, err := meter.Int64ObservableGauge(name, metric.WithDescription("Cumulative histogram bucket count."))
		if err != nil {
			return li, fmt.Errorf("gauge %s: %w", name, err)
		}
		li.buckets[i] = g
	}

	name := def.Name + "_count"
	g, err := meter.Int64ObservableGauge(name, metric.WithDescription("Histogram total sample count."))
	if err != nil {
		return li, fmt.Errorf("gauge %s: %w", name, err)
	}
	li.count = g
	return li, nil
}

// observe takes one snapshot per collection so all instruments agree.
func (e *OTelExporter) observe(_ context.Context, o metric.Observer) error {
	snap := e.source.MetricsSnapshot()

	for id, c := range e.outcomes {
		o.ObserveInt64(c, int64(snap.Counters[id]))
	}
	for _, li := range e.latencies {
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snap.Histograms[li.id]))
		for i, g := range li.buckets {
			o.ObserveInt64(g, int64(cumulative[i]))
		}
		o.ObserveInt64(li.count, int64(cumulative[len(cumulative)-1]))
	}
	o.ObserveInt64(e.auditDropped, int64(e.source.AuditDropped()))
	return nil
}

// Close unregisters the callback. The instruments stay defined on the meter.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}

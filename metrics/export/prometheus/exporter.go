package prometheus

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrEthical07/sessionauth"
	"github.com/MrEthical07/sessionauth/metrics/export/internaldefs"
)

type metricsSource interface {
	MetricsSnapshot() sessionauth.MetricsSnapshot
	AuditDropped() uint64
}

type counterDesc struct {
	id   sessionauth.MetricID
	desc *prometheus.Desc
}

// Collector is a prometheus.Collector that reads engine counters on every
// scrape. Register it with a prometheus.Registerer.
type Collector struct {
	source     metricsSource
	counters   []counterDesc
	histograms []counterDesc
	dropped    *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector creates a Collector for engine.
func NewCollector(engine *sessionauth.Engine) *Collector {
	return NewCollectorFromSource(engine)
}

// NewCollectorFromSource creates a Collector over any snapshot source.
func NewCollectorFromSource(source metricsSource) *Collector {
	c := &Collector{
		source:     source,
		counters:   make([]counterDesc, 0, len(internaldefs.CounterDefs)),
		histograms: make([]counterDesc, 0, len(internaldefs.HistogramDefs)),
		dropped:    prometheus.NewDesc(internaldefs.AuditDroppedName, internaldefs.AuditDroppedHelp, nil, nil),
	}
	for _, def := range internaldefs.CounterDefs {
		c.counters = append(c.counters, counterDesc{
			id:   def.ID,
			desc: prometheus.NewDesc(def.Name, def.Help, nil, nil),
		})
	}
	for _, def := range internaldefs.HistogramDefs {
		c.histograms = append(c.histograms, counterDesc{
			id:   def.ID,
			desc: prometheus.NewDesc(def.Name, def.Help, nil, nil),
		})
	}
	return c
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range c.counters {
		ch <- d.desc
	}
	for _, d := range c.histograms {
		ch <- d.desc
	}
	ch <- c.dropped
}

// Collect emits nothing for counters and histograms while engine metrics
// are disabled. The audit drop counter is always reported.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	if c == nil || c.source == nil {
		return
	}

	snapshot := c.source.MetricsSnapshot()
	if len(snapshot.Counters) > 0 {
		for _, d := range c.counters {
			ch <- prometheus.MustNewConstMetric(d.desc, prometheus.CounterValue, float64(snapshot.Counters[d.id]))
		}
	}

	for _, d := range c.histograms {
		raw, ok := snapshot.Histograms[d.id]
		if !ok {
			continue
		}
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw))
		buckets := make(map[float64]uint64, len(internaldefs.HistogramBounds))
		for i, le := range internaldefs.HistogramBounds {
			buckets[le] = cumulative[i]
		}
		// The engine keeps no running sum.
		ch <- prometheus.MustNewConstHistogram(d.desc, cumulative[internaldefs.BucketCount-1], 0, buckets)
	}

	ch <- prometheus.MustNewConstMetric(c.dropped, prometheus.CounterValue, float64(c.source.AuditDropped()))
}

// Handler serves only this collector's metrics from a private registry.
func (c *Collector) Handler() http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(c)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// Package metrics exposes heapqueue counters as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/andrewortman/heapqueue"
)

// StatsSource is the part of a queue the collector reads. A snapshot is
// taken at every scrape.
type StatsSource interface {
	Stats() heapqueue.Stats
}

// Collector exports a queue's counters as Prometheus metrics. Register it
// with any prometheus.Registerer; the queue is only touched when scraped.
type Collector struct {
	source StatsSource

	items    *prometheus.Desc
	capacity *prometheus.Desc
	inserts  *prometheus.Desc
	removals *prometheus.Desc
	grows    *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector builds a collector over source. namespace prefixes every
// metric name and may be empty. It panics if source is nil.
func NewCollector(source StatsSource, namespace string) *Collector {
	if source == nil {
		panic("metrics: nil source")
	}
	return &Collector{
		source: source,
		items: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "queue", "items"),
			"Number of elements currently queued.",
			nil, nil,
		),
		capacity: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "queue", "capacity"),
			"Current backing store length.",
			nil, nil,
		),
		inserts: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "queue", "inserts_total"),
			"Total elements inserted since construction.",
			nil, nil,
		),
		removals: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "queue", "removals_total"),
			"Total elements removed since construction.",
			nil, nil,
		),
		grows: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "queue", "grows_total"),
			"Total backing store replacements installed by growth.",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.items
	ch <- c.capacity
	ch <- c.inserts
	ch <- c.removals
	ch <- c.grows
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.source.Stats()
	ch <- prometheus.MustNewConstMetric(c.items, prometheus.GaugeValue, float64(s.Size))
	ch <- prometheus.MustNewConstMetric(c.capacity, prometheus.GaugeValue, float64(s.Capacity))
	ch <- prometheus.MustNewConstMetric(c.inserts, prometheus.CounterValue, float64(s.Inserts))
	ch <- prometheus.MustNewConstMetric(c.removals, prometheus.CounterValue, float64(s.Removals))
	ch <- prometheus.MustNewConstMetric(c.grows, prometheus.CounterValue, float64(s.Grows))
}

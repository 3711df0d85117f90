// Package prometheus exports table metrics to Prometheus.
package prometheus

import (
	"time"

	"github.com/hupe1980/tabiter"
	"github.com/prometheus/client_golang/prometheus"
)

var _ tabiter.MetricsCollector = (*Collector)(nil)

// Collector implements tabiter.MetricsCollector with Prometheus metrics.
type Collector struct {
	ops          *prometheus.CounterVec
	bytes        *prometheus.CounterVec
	flushLatency *prometheus.HistogramVec
	binds        *prometheus.CounterVec
	catchUpRows  prometheus.Counter
}

// Option configures a Collector.
type Option func(*options)

type options struct {
	namespace  string
	registerer prometheus.Registerer
}

// WithNamespace sets the metric namespace (default "tabiter").
func WithNamespace(ns string) Option {
	return func(o *options) { o.namespace = ns }
}

// WithRegisterer registers the metrics with r instead of the default registry.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(o *options) { o.registerer = r }
}

// New creates and registers a Collector.
func New(opts ...Option) (*Collector, error) {
	o := options{namespace: "tabiter", registerer: prometheus.DefaultRegisterer}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Collector{
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: o.namespace,
			Name:      "operations_total",
			Help:      "Attribute reads, row fills and flushes",
		}, []string{"op", "status"}),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: o.namespace,
			Name:      "bytes_total",
			Help:      "Bytes read, filled and flushed",
		}, []string{"op"}),
		flushLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: o.namespace,
			Name:      "flush_latency_seconds",
			Help:      "Latency of table flushes",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
		binds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: o.namespace,
			Name:      "binds_total",
			Help:      "Attribute bindings by address owner",
		}, []string{"owner", "status"}),
		catchUpRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: o.namespace,
			Name:      "catch_up_rows_total",
			Help:      "Default rows appended to columns created late",
		}),
	}

	for _, m := range []prometheus.Collector{c.ops, c.bytes, c.flushLatency, c.binds, c.catchUpRows} {
		if err := o.registerer.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordRead implements tabiter.MetricsCollector.
func (c *Collector) RecordRead(bytes int, err error) {
	c.ops.WithLabelValues("read", status(err)).Inc()
	c.bytes.WithLabelValues("read").Add(float64(bytes))
}

// RecordFill implements tabiter.MetricsCollector.
func (c *Collector) RecordFill(bytes int, err error) {
	c.ops.WithLabelValues("fill", status(err)).Inc()
	c.bytes.WithLabelValues("fill").Add(float64(bytes))
}

// RecordFlush implements tabiter.MetricsCollector.
func (c *Collector) RecordFlush(bytes int64, d time.Duration, err error) {
	c.ops.WithLabelValues("flush", status(err)).Inc()
	c.bytes.WithLabelValues("flush").Add(float64(bytes))
	c.flushLatency.WithLabelValues(status(err)).Observe(d.Seconds())
}

// RecordBind implements tabiter.MetricsCollector.
func (c *Collector) RecordBind(external bool, err error) {
	owner := "table"
	if external {
		owner = "caller"
	}
	c.binds.WithLabelValues(owner, status(err)).Inc()
}

// RecordCatchUp implements tabiter.MetricsCollector.
func (c *Collector) RecordCatchUp(rows int64) {
	c.catchUpRows.Add(float64(rows))
}

package tabiter

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus
// (see the metrics/prometheus package).
//
// Read is called once per attribute pull, so implementations should be cheap.
type MetricsCollector interface {
	// RecordRead is called after an attribute value was pulled from the store.
	RecordRead(bytes int, err error)

	// RecordFill is called after each committed row.
	RecordFill(bytes int, err error)

	// RecordFlush is called after each flush with the bytes written.
	RecordFlush(bytes int64, duration time.Duration, err error)

	// RecordBind is called when an attribute is bound to a column.
	// external is true when a caller-owned address was adopted.
	RecordBind(external bool, err error)

	// RecordCatchUp is called with the number of default rows appended to a late column.
	RecordCatchUp(rows int64)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordRead(int, error)                   {}
func (NoopMetricsCollector) RecordFill(int, error)                   {}
func (NoopMetricsCollector) RecordFlush(int64, time.Duration, error) {}
func (NoopMetricsCollector) RecordBind(bool, error)                  {}
func (NoopMetricsCollector) RecordCatchUp(int64)                     {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	ReadCount       atomic.Int64
	ReadErrors      atomic.Int64
	ReadBytes       atomic.Int64
	FillCount       atomic.Int64
	FillErrors      atomic.Int64
	FillBytes       atomic.Int64
	FlushCount      atomic.Int64
	FlushErrors     atomic.Int64
	FlushBytes      atomic.Int64
	FlushTotalNanos atomic.Int64
	BindCount       atomic.Int64
	BindExternal    atomic.Int64
	BindErrors      atomic.Int64
	CatchUpRows     atomic.Int64
}

// RecordRead implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRead(bytes int, err error) {
	b.ReadCount.Add(1)
	b.ReadBytes.Add(int64(bytes))
	if err != nil {
		b.ReadErrors.Add(1)
	}
}

// RecordFill implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFill(bytes int, err error) {
	b.FillCount.Add(1)
	b.FillBytes.Add(int64(bytes))
	if err != nil {
		b.FillErrors.Add(1)
	}
}

// RecordFlush implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFlush(bytes int64, duration time.Duration, err error) {
	b.FlushCount.Add(1)
	b.FlushBytes.Add(bytes)
	b.FlushTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.FlushErrors.Add(1)
	}
}

// RecordBind implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBind(external bool, err error) {
	b.BindCount.Add(1)
	if external {
		b.BindExternal.Add(1)
	}
	if err != nil {
		b.BindErrors.Add(1)
	}
}

// RecordCatchUp implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCatchUp(rows int64) {
	b.CatchUpRows.Add(rows)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		ReadCount:     b.ReadCount.Load(),
		ReadErrors:    b.ReadErrors.Load(),
		ReadBytes:     b.ReadBytes.Load(),
		FillCount:     b.FillCount.Load(),
		FillErrors:    b.FillErrors.Load(),
		FillBytes:     b.FillBytes.Load(),
		FlushCount:    b.FlushCount.Load(),
		FlushErrors:   b.FlushErrors.Load(),
		FlushBytes:    b.FlushBytes.Load(),
		FlushAvgNanos: b.getAvgFlushNanos(),
		BindCount:     b.BindCount.Load(),
		BindExternal:  b.BindExternal.Load(),
		BindErrors:    b.BindErrors.Load(),
		CatchUpRows:   b.CatchUpRows.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgFlushNanos() int64 {
	count := b.FlushCount.Load()
	if count == 0 {
		return 0
	}
	return b.FlushTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	ReadCount     int64
	ReadErrors    int64
	ReadBytes     int64
	FillCount     int64
	FillErrors    int64
	FillBytes     int64
	FlushCount    int64
	FlushErrors   int64
	FlushBytes    int64
	FlushAvgNanos int64
	BindCount     int64
	BindExternal  int64
	BindErrors    int64
	CatchUpRows   int64
}

// Stats are the per-table counters returned by Table.Stats.
type Stats struct {
	// Slots is the number of cached attributes.
	Slots        int
	BytesRead    int64
	BytesFilled  int64
	BytesFlushed int64
	// Hits and Misses count lookups resolved by the last-accessed probe and
	// by a full scan.
	Hits   uint64
	Misses uint64
	// Rebinds counts cache reallocations that re-registered addresses.
	Rebinds     uint64
	CatchUpRows int64
}

// HitRate returns the fraction of lookups served by the last-accessed probe.
func (s Stats) HitRate() float64 {
	if s.Hits+s.Misses == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Hits+s.Misses)
}

package colstore

import (
	"log/slog"

	"github.com/hupe1980/tabiter/codec"
	"github.com/hupe1980/tabiter/internal/resource"
)

type options struct {
	logger      *slog.Logger
	codec       codec.Codec
	compression Compression
	limits      resource.Limits
	readOnly    bool
}

// Option configures a Store.
type Option func(*options)

func defaultOptions() options {
	return options{
		logger:      slog.New(slog.DiscardHandler),
		codec:       codec.Default,
		compression: CompressionZSTD,
		limits:      resource.Limits{EncodeWorkers: 4},
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the logger for open, flush and column events.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithCodec sets the codec for record, array and sequence values of new tables.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithCompression sets the value block compression used on flush.
func WithCompression(c Compression) Option {
	return func(o *options) { o.compression = c }
}

// WithMemoryLimit caps the bytes of appended column data. 0 means unlimited.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) { o.limits.MemoryBytes = bytes }
}

// WithFlushRateLimit throttles flush writes to bytesPerSec. 0 means unlimited.
func WithFlushRateLimit(bytesPerSec int64) Option {
	return func(o *options) { o.limits.FlushBytesPerSec = bytesPerSec }
}

// WithFlushWorkers bounds the columns encoded concurrently during a flush.
func WithFlushWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.limits.EncodeWorkers = int64(n)
		}
	}
}

// WithReadOnly rejects appends, column creation and flushes.
func WithReadOnly(readOnly bool) Option {
	return func(o *options) { o.readOnly = readOnly }
}

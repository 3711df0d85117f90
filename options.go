package tabiter

import (
	"log/slog"

	"github.com/hupe1980/tabiter/blobstore"
	"github.com/hupe1980/tabiter/codec"
	"github.com/hupe1980/tabiter/colstore"
)

// DefaultCapacity is the number of attribute slots reserved up-front.
// Growing past it re-registers every address with the store.
const DefaultCapacity = 200

type options struct {
	store            Store
	blobStore        blobstore.BlobStore
	readOnly         bool
	logger           *Logger
	metricsCollector MetricsCollector
	capacity         int
	overrideAddress  bool
	indirectObjects  bool
	layout           colstore.Layout

	// Passed through to colstore when the table owns its store.
	codec          codec.Codec
	compression    colstore.Compression
	hasCompression bool
	memoryLimit    int64
	flushRateLimit int64
	flushWorkers   int
}

// Option configures New, Open and Attach.
type Option func(*options)

func defaultOptions() options {
	return options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		capacity:         DefaultCapacity,
		indirectObjects:  true,
		layout:           colstore.DefaultLayout,
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) storeOptions() []colstore.Option {
	opts := []colstore.Option{
		colstore.WithLogger(o.logger.Logger),
		colstore.WithReadOnly(o.readOnly),
		colstore.WithMemoryLimit(o.memoryLimit),
		colstore.WithFlushRateLimit(o.flushRateLimit),
		colstore.WithFlushWorkers(o.flushWorkers),
	}
	if o.codec != nil {
		opts = append(opts, colstore.WithCodec(o.codec))
	}
	if o.hasCompression {
		opts = append(opts, colstore.WithCompression(o.compression))
	}
	return opts
}

// WithStore makes Open attach to an existing store instead of creating one.
// The table does not take ownership.
func WithStore(s Store) Option {
	return func(o *options) {
		o.store = s
	}
}

// WithBlobStore sets the location Open loads from and Flush writes to.
//
// Example:
//
//	bs := blobstore.NewLocalStore("./data")
//	t, err := tabiter.Open(ctx, "events", tabiter.WithBlobStore(bs))
func WithBlobStore(bs blobstore.BlobStore) Option {
	return func(o *options) {
		o.blobStore = bs
	}
}

// WithReadOnly opens the table for reading only.
func WithReadOnly(readOnly bool) Option {
	return func(o *options) {
		o.readOnly = readOnly
	}
}

// WithLogger sets a custom logger.
//
// If nil is passed, logging is disabled (NoopLogger).
//
// Example:
//
//	logger := tabiter.NewJSONLogger(slog.LevelInfo)
//	t := tabiter.New("events", tabiter.WithLogger(logger))
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithLogLevel logs as text to stderr at the given minimum level.
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithVerbosity logs to stderr at the level VerbosityLevel(verbosity) maps to.
func WithVerbosity(verbosity int) Option {
	return func(o *options) {
		o.logger = NewTextLogger(VerbosityLevel(verbosity))
	}
}

// WithMetricsCollector sets a custom metrics collector.
//
// If nil is passed, NoopMetricsCollector is used.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithCapacity sets the number of attribute slots reserved up-front.
func WithCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.capacity = n
		}
	}
}

// WithOverrideAddress makes the table register its own storage even when a
// column already has a caller-owned address.
func WithOverrideAddress(override bool) Option {
	return func(o *options) {
		o.overrideAddress = override
	}
}

// WithIndirectObjects selects pointer-to-pointer registration for record,
// array and sequence attributes (the default). With false the address of the
// value itself is registered.
func WithIndirectObjects(indirect bool) Option {
	return func(o *options) {
		o.indirectObjects = indirect
	}
}

// WithLayout sets the storage hints of columns the table creates.
func WithLayout(l colstore.Layout) Option {
	return func(o *options) {
		o.layout = l
	}
}

// WithCodec sets the codec of record, array and sequence values.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithCompression sets the block compression used on flush.
func WithCompression(c colstore.Compression) Option {
	return func(o *options) {
		o.compression = c
		o.hasCompression = true
	}
}

// WithMemoryLimit caps the bytes of appended values. 0 means unlimited.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.memoryLimit = bytes
	}
}

// WithFlushRateLimit throttles flush writes. 0 means unlimited.
func WithFlushRateLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.flushRateLimit = bytesPerSec
	}
}

// WithFlushWorkers bounds the columns encoded concurrently during a flush.
func WithFlushWorkers(n int) Option {
	return func(o *options) {
		o.flushWorkers = n
	}
}

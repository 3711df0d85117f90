package tabiter

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/hupe1980/tabiter/colstore"
)

// Table is an attribute binding cache over a column store.
//
// Attributes are addressed by name and Go type. The first access binds a
// slot of the cache to the column of that name; later accesses of the same
// (name, type) reuse it. A Table is not safe for concurrent use.
type Table struct {
	name  string
	store Store
	owned bool

	slots   []slot
	last    int
	tryLast bool

	opts    options
	logger  *Logger
	metrics MetricsCollector
	stats   Stats
	err     error
	closed  bool
}

// New creates a table backed by an in-memory store it owns.
func New(name string, opts ...Option) *Table {
	o := applyOptions(opts)
	return newTable(name, colstore.New(name, o.storeOptions()...), true, o)
}

// Open loads the table name from the blob store set with WithBlobStore,
// creating it unless WithReadOnly is set. With WithStore the table attaches to
// that store instead.
//
// Example:
//
//	t, err := tabiter.Open(ctx, "events", tabiter.WithBlobStore(blobstore.NewLocalStore("./data")))
//	if err != nil {
//		return err
//	}
//	defer t.Close()
func Open(ctx context.Context, name string, opts ...Option) (*Table, error) {
	o := applyOptions(opts)
	if o.store != nil {
		return attach(o.store, o), nil
	}
	if o.blobStore == nil {
		return nil, newError("open", "", -1, SeverityError, ErrNoStore)
	}
	st, err := colstore.Open(ctx, o.blobStore, name, o.storeOptions()...)
	if err != nil {
		e := newError("open", "", -1, SeverityError, err)
		o.logger.LogError(e)
		return nil, e
	}
	return newTable(name, st, true, o), nil
}

// Attach wraps a store the caller keeps ownership of. All columns are
// disabled; binding an attribute enables its column again.
func Attach(st Store, opts ...Option) *Table {
	return attach(st, applyOptions(opts))
}

func attach(st Store, o options) *Table {
	if err := st.SetColumnStatus("*", false); err != nil && !errors.Is(err, ErrColumnNotFound) {
		o.logger.Warn("disable columns", "error", err)
	}
	return newTable(st.Name(), st, false, o)
}

func newTable(name string, st Store, owned bool, o options) *Table {
	return &Table{
		name:    name,
		store:   st,
		owned:   owned,
		slots:   make([]slot, 0, o.capacity),
		opts:    o,
		logger:  o.logger.WithTable(name),
		metrics: o.metricsCollector,
	}
}

// Name returns the table name.
func (t *Table) Name() string { return t.name }

// Store returns the underlying store, or nil.
func (t *Table) Store() Store { return t.store }

// RowCount returns the number of rows in the store.
func (t *Table) RowCount() int64 {
	if t.store == nil {
		return 0
	}
	return t.store.RowCount()
}

// Stats returns a snapshot of the table counters.
func (t *Table) Stats() Stats {
	s := t.stats
	s.Slots = len(t.slots)
	return s
}

// Err returns the first error that ended the last Fill iteration.
func (t *Table) Err() error { return t.err }

// SetStore switches the table to st, dropping every cached binding. A
// previously owned store is closed; st stays owned by the caller.
func (t *Table) SetStore(st Store) error {
	if t.closed {
		return ErrClosed
	}
	t.reset()
	var err error
	if t.owned && t.store != nil {
		err = t.store.Close()
	}
	t.store = st
	t.owned = false
	return err
}

// reset unregisters every slot in reverse order of creation and empties the cache.
func (t *Table) reset() {
	for i := len(t.slots) - 1; i >= 0; i-- {
		if t.store != nil {
			t.slots[i].unregister(t.store)
		}
	}
	clear(t.slots)
	t.slots = t.slots[:0]
	t.tryLast = false
	t.last = 0
}

// ReadRow reads every bound attribute of row at once.
func (t *Table) ReadRow(row int64) (int, error) {
	if err := t.check("read"); err != nil {
		return 0, err
	}
	n, err := t.store.ReadEntry(row)
	t.stats.BytesRead += int64(n)
	t.metrics.RecordRead(n, err)
	if err != nil {
		return n, t.report("read", "", row, SeverityError, wrap(ErrRead, err))
	}
	for i := range t.slots {
		if s := &t.slots[i]; s.owned() && t.store.Active(s.name) {
			s.lastRead = row
		}
	}
	return n, nil
}

// Flush persists the store.
func (t *Table) Flush(ctx context.Context) (int64, error) {
	if err := t.check("flush"); err != nil {
		return 0, err
	}
	if !t.store.Writable() {
		return 0, t.report("flush", "", -1, SeverityError, ErrReadOnly)
	}
	start := time.Now()
	n, err := t.store.Flush(ctx)
	elapsed := time.Since(start)
	t.metrics.RecordFlush(n, elapsed, err)
	t.logger.LogFlush(ctx, n, elapsed, err)
	if err != nil {
		return n, newError("flush", "", -1, SeverityError, err)
	}
	t.stats.BytesFlushed += n
	return n, nil
}

// AttributeNames lists the columns of the store. children adds the
// "parent.child" names of split records, inactive adds disabled columns.
func (t *Table) AttributeNames(children, inactive bool) []string {
	if t.store == nil {
		return nil
	}
	return t.store.ColumnNames(children, inactive)
}

// AttributeNamesString is AttributeNames joined with ", ".
func (t *Table) AttributeNamesString(children, inactive bool) string {
	return strings.Join(t.AttributeNames(children, inactive), ", ")
}

// Close releases every binding, closes an owned store and logs the table
// counters at info level.
func (t *Table) Close() error {
	if t.closed {
		return nil
	}
	t.reset()
	var err error
	if t.owned && t.store != nil {
		err = t.store.Close()
	}
	t.closed = true
	t.logger.LogStats(t.stats)
	return err
}

func (t *Table) check(op string) error {
	switch {
	case t.closed:
		return newError(op, "", -1, SeverityError, ErrClosed)
	case t.store == nil:
		return t.report(op, "", -1, SeverityError, ErrNoStore)
	}
	return nil
}

// report logs a failure and returns it.
func (t *Table) report(op, name string, row int64, sev Severity, err error) *Error {
	e := newError(op, name, row, sev, err)
	t.logger.LogError(e)
	return e
}

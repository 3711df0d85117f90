package colstore

import (
	"fmt"
	"log/slog"
	"path"

	"github.com/bits-and-blooms/bitset"
	"github.com/google/uuid"
	"github.com/hupe1980/tabiter/blobstore"
	"github.com/hupe1980/tabiter/internal/resource"
)

// Store is an in-memory column store with optional blob persistence.
//
// Columns are appended row by row from registered caller addresses and read
// back row by row into them. A Store is not safe for concurrent use.
type Store struct {
	name    string
	id      uuid.UUID
	columns []*Column
	byName  map[string]*Column
	// inactive holds the indices of disabled columns.
	inactive *bitset.BitSet
	rows     int64

	bs      blobstore.BlobStore
	version uint64

	opts     options
	logger   *slog.Logger
	rc       *resource.Controller
	reserved int64
	closed   bool
}

// New creates an empty store that is not backed by a blob store.
func New(name string, opts ...Option) *Store {
	o := applyOptions(opts)
	return &Store{
		name:     name,
		id:       uuid.New(),
		byName:   make(map[string]*Column),
		inactive: bitset.New(0),
		opts:     o,
		logger:   o.logger.With("table", name),
		rc:       resource.NewController(o.limits),
	}
}

// Name returns the table name.
func (s *Store) Name() string { return s.name }

// ID returns the identity written to every version of the table.
func (s *Store) ID() uuid.UUID { return s.id }

// Version returns the last flushed or loaded version (0 if never persisted).
func (s *Store) Version() uint64 { return s.version }

// BlobStore returns the backing location, or nil.
func (s *Store) BlobStore() blobstore.BlobStore { return s.bs }

// RowCount returns the number of complete rows.
func (s *Store) RowCount() int64 { return s.rows }

// MemoryInUse returns the bytes reserved for appended values.
func (s *Store) MemoryInUse() int64 { return s.rc.InUse() }

// Writable reports whether Flush can persist the table.
func (s *Store) Writable() bool {
	return s.bs != nil && !s.opts.readOnly && !s.closed
}

// ReadOnly reports whether the store rejects mutation.
func (s *Store) ReadOnly() bool { return s.opts.readOnly }

// Column returns the named column.
func (s *Store) Column(name string) (*Column, bool) {
	c, ok := s.byName[name]
	return c, ok
}

// Columns returns all columns in creation order.
func (s *Store) Columns() []*Column { return s.columns }

// CreateColumn adds an empty column. Rows appended before the column existed
// must be caught up with AppendColumn before the next AppendRow.
func (s *Store) CreateColumn(name string, desc Descriptor) (*Column, error) {
	switch {
	case s.closed:
		return nil, ErrClosed
	case s.opts.readOnly:
		return nil, columnErr("create", name, ErrReadOnly)
	case desc.Kind == KindInvalid || desc.Kind > KindRecord:
		return nil, columnErr("create", name, ErrInvalidKind)
	}
	if _, ok := s.byName[name]; ok {
		return nil, columnErr("create", name, ErrColumnExists)
	}

	c := newColumn(name, len(s.columns), desc)
	s.columns = append(s.columns, c)
	s.byName[name] = c
	s.logger.Debug("column created", "column", name, "kind", desc.Kind.String(), "type", desc.TypeName)
	return c, nil
}

// RegisterAddress binds addr to col. Loaded columns are materialized with the
// address type on first registration.
func (s *Store) RegisterAddress(col *Column, addr Address) error {
	if s.closed {
		return ErrClosed
	}
	if addr.IsZero() {
		return columnErr("register", col.name, ErrNoAddress)
	}
	if !col.desc.Accepts(addr.Type()) {
		return columnErr("register", col.name,
			fmt.Errorf("%w: column is %s, address is %s", ErrTypeMismatch, col.desc.TypeName, addr.Type()))
	}

	switch t := col.vec.goType(); {
	case t == nil:
		enc := col.vec.(*encodedVector)
		var (
			vec vector
			err error
		)
		if enc.Len() == 0 {
			vec = addr.ops.create(max(col.desc.Layout.BufferSize, 0))
		} else if vec, err = addr.ops.decode(s.opts.codec, enc); err != nil {
			return columnErr("register", col.name, err)
		}
		col.vec = vec
	case t != addr.Type():
		return columnErr("register", col.name,
			fmt.Errorf("%w: column holds %s, address is %s", ErrTypeMismatch, t, addr.Type()))
	}

	col.addr = addr
	return nil
}

// UnregisterAddress removes the address of col.
func (s *Store) UnregisterAddress(col *Column) {
	col.addr = Address{}
}

func (s *Store) active(col *Column) bool {
	return !s.inactive.Test(uint(col.index))
}

// ReadRow copies the value of col at row into its registered address.
func (s *Store) ReadRow(col *Column, row int64) (int, error) {
	switch {
	case s.closed:
		return 0, ErrClosed
	case row < 0 || row >= col.Len():
		return 0, columnErr("read", col.name, fmt.Errorf("%w: row %d of %d", ErrRowOutOfRange, row, col.Len()))
	case col.addr.IsZero():
		return 0, columnErr("read", col.name, ErrNoAddress)
	case !s.active(col):
		return 0, columnErr("read", col.name, ErrColumnInactive)
	}
	n, err := col.vec.readInto(int(row), col.addr)
	if err != nil {
		return 0, columnErr("read", col.name, err)
	}
	return n, nil
}

// ReadEntry reads row into every active column with a registered address.
func (s *Store) ReadEntry(row int64) (int, error) {
	if s.closed {
		return 0, ErrClosed
	}
	if row < 0 || row >= s.rows {
		return 0, fmt.Errorf("%w: row %d of %d", ErrRowOutOfRange, row, s.rows)
	}
	total := 0
	for _, col := range s.columns {
		if col.addr.IsZero() || !s.active(col) {
			continue
		}
		n, err := s.ReadRow(col, row)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// AppendRow appends one value to every column, copying from registered
// addresses and zero-filling the rest. If the memory budget runs out midway,
// the columns already appended keep their value and RowCount is unchanged.
func (s *Store) AppendRow() (int, error) {
	switch {
	case s.closed:
		return 0, ErrClosed
	case s.opts.readOnly:
		return 0, ErrReadOnly
	}
	for _, col := range s.columns {
		if col.Len() != s.rows {
			return 0, columnErr("append", col.name,
				fmt.Errorf("%w: %d values for %d rows", ErrRowMismatch, col.Len(), s.rows))
		}
	}

	total := 0
	for _, col := range s.columns {
		n, err := s.appendOne(col)
		if err != nil {
			return total, err
		}
		total += n
	}
	s.rows++
	return total, nil
}

// AppendColumn appends one value to col alone. It is used to catch up a
// column created after rows were already appended.
func (s *Store) AppendColumn(col *Column) (int, error) {
	switch {
	case s.closed:
		return 0, ErrClosed
	case s.opts.readOnly:
		return 0, ErrReadOnly
	case col.Len() >= s.rows:
		return 0, columnErr("append", col.name,
			fmt.Errorf("%w: column already has %d values", ErrRowMismatch, col.Len()))
	}
	return s.appendOne(col)
}

func (s *Store) appendOne(col *Column) (int, error) {
	size := col.pendingSize()
	if err := s.rc.Reserve(int64(size)); err != nil {
		return 0, columnErr("append", col.name, err)
	}
	s.reserved += int64(size)

	if col.addr.IsZero() || !s.active(col) {
		return col.appendZero(), nil
	}
	return col.appendValue(), nil
}

// SetColumnStatus enables or disables every column matching pattern
// (path.Match syntax, "*" for all). Disabled columns are zero-filled on append
// and cannot be read.
func (s *Store) SetColumnStatus(pattern string, active bool) error {
	matched := false
	for _, col := range s.columns {
		ok, err := path.Match(pattern, col.name)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		matched = true
		s.inactive.SetTo(uint(col.index), !active)
	}
	if !matched {
		return columnErr("status", pattern, ErrColumnNotFound)
	}
	return nil
}

// Active reports whether the named column is enabled.
func (s *Store) Active(name string) bool {
	col, ok := s.byName[name]
	return ok && s.active(col)
}

// ColumnNames lists column names in creation order, optionally with
// "parent.child" names of split records and disabled columns.
func (s *Store) ColumnNames(children, inactive bool) []string {
	names := make([]string, 0, len(s.columns))
	for _, col := range s.columns {
		if !inactive && !s.active(col) {
			continue
		}
		names = append(names, col.name)
		if children {
			names = append(names, col.ChildNames()...)
		}
	}
	return names
}

// Value returns the value of col at row as bool, int64, uint64, float32,
// float64 or string. Records, arrays and sequences are rendered with the codec.
func (s *Store) Value(col *Column, row int64) (any, error) {
	if row < 0 || row >= col.Len() {
		return nil, columnErr("value", col.name, ErrRowOutOfRange)
	}
	return col.vec.canonical(int(row), s.opts.codec)
}

// Close releases the memory budget. The store is unusable afterwards.
func (s *Store) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	for _, col := range s.columns {
		col.addr = Address{}
	}
	s.rc.Release(s.reserved)
	s.reserved = 0
	s.logger.Debug("store closed", "rows", s.rows, "columns", len(s.columns))
	return nil
}

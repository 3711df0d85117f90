package tabiter

import "errors"

// Row is the entry an iteration yields. It is only valid inside the loop body.
type Row struct {
	t         *Table
	index     int64
	filling   bool
	committed bool
}

// Index returns the row number.
func (r *Row) Index() int64 { return r.index }

// Table returns the table the row belongs to.
func (r *Row) Table() *Table { return r.t }

// Filling reports whether the row is being appended.
func (r *Row) Filling() bool { return r.filling }

// Commit appends the pending row. Attributes not set since the previous
// commit are written with their type default. Fill commits automatically if
// the loop body did not.
func (r *Row) Commit() (int, error) {
	switch {
	case !r.filling:
		return 0, newError("fill", "", r.index, SeverityError, ErrNotFilling)
	case r.committed:
		return 0, nil
	}
	r.committed = true
	return r.t.commit(r.index)
}

func (t *Table) commit(row int64) (int, error) {
	if err := t.check("fill"); err != nil {
		return 0, err
	}
	for i := range t.slots {
		s := &t.slots[i]
		if !s.owned() {
			continue
		}
		if s.unset {
			s.ops.reset(&s.u)
			s.lastRead = -1
			t.logger.LogDefault(s.name, row)
		}
		s.unset = true
	}
	n, err := t.store.AppendRow()
	t.metrics.RecordFill(n, err)
	switch {
	case err != nil:
		return n, t.report("fill", "", row, SeverityError, wrap(ErrFill, err))
	case n <= 0:
		return n, t.report("fill", "", row, SeverityError, ErrEmptyRow)
	}
	t.stats.BytesFilled += int64(n)
	t.logger.LogFill(row, n)
	return n, nil
}

// Get returns the value of attribute name in the row, or the zero value if
// it cannot be read. Failures are logged.
func Get[T any](r *Row, name string) T {
	var zero T
	return GetOr(r, name, zero)
}

// GetOr is Get with a default for attributes that cannot be read.
func GetOr[T any](r *Row, name string, def T) T {
	v, _ := lookup(r, name, def)
	return v
}

// Lookup returns the value of attribute name in the row.
//
// On a read row the value is pulled from the store unless the slot already
// holds this row. On a filling row the pending value is returned.
func Lookup[T any](r *Row, name string) (T, error) {
	var zero T
	return lookup(r, name, zero)
}

func lookup[T any](r *Row, name string, def T) (T, error) {
	t := r.t
	if t.closed {
		return def, newError("get", name, r.index, SeverityError, ErrClosed)
	}
	ops := opsFor[T]()
	i := t.lookup(name, ops.typ)

	if r.filling {
		if i < 0 || !t.slots[i].bound {
			return def, newError("get", name, r.index, SeverityInfo, ErrNotBound)
		}
		return slotGet[T](&t.slots[i]), nil
	}

	if i < 0 {
		i = t.addSlot(name, ops)
		if err := t.bind(i, false); err != nil {
			return def, err
		}
	}
	s := &t.slots[i]
	if !s.bound {
		return def, newError("get", name, r.index, SeverityInfo, ErrNotBound)
	}
	if err := t.pull(s, r.index); err != nil {
		return def, err
	}
	return slotGet[T](s), nil
}

// pull reads row into the slot unless it already holds it.
func (t *Table) pull(s *slot, row int64) error {
	if !s.owned() || s.lastRead == row {
		return nil
	}
	n, err := t.store.ReadRow(s.col, row)
	t.metrics.RecordRead(n, err)
	if err == nil && n <= 0 {
		err = errors.New("no data read")
	}
	if err != nil {
		s.lastRead = -1
		return t.report("get", s.name, row, SeverityError, wrap(ErrRead, err))
	}
	s.lastRead = row
	t.stats.BytesRead += int64(n)
	t.logger.LogRead(s.name, row, n)
	return nil
}

// Set assigns v to attribute name for the pending row and returns v.
// Failures are logged.
func Set[T any](r *Row, name string, v T) T {
	_ = Put(r, name, v)
	return v
}

// Put assigns v to attribute name for the pending row.
//
// The first Put of an attribute the store lacks creates its column. If rows
// were filled before, the column is caught up with default values so that v
// lands in the current row. When binding fails v is kept in memory only.
func Put[T any](r *Row, name string, v T) error {
	t := r.t
	if t.closed {
		return newError("set", name, r.index, SeverityError, ErrClosed)
	}
	ops := opsFor[T]()
	i := t.lookup(name, ops.typ)
	switch {
	case i >= 0 && t.slots[i].bound:
		slotSet(&t.slots[i], v)
		return nil
	case i >= 0 && !t.slots[i].missing:
		slotSet(&t.slots[i], v)
		return newError("set", name, r.index, SeverityInfo, ErrNotBound)
	case i < 0:
		i = t.addSlot(name, ops)
	}
	if err := t.bindNew(i); err != nil {
		slotSet(&t.slots[i], v)
		return err
	}
	slotSet(&t.slots[i], v)
	return nil
}

// Branch binds attribute name of type T, creating its column if needed, so
// that it is written with its default in rows that never set it.
func Branch[T any](t *Table, name string) error {
	if t.closed {
		return newError("branch", name, -1, SeverityError, ErrClosed)
	}
	ops := opsFor[T]()
	i := t.lookup(name, ops.typ)
	switch {
	case i >= 0 && t.slots[i].bound:
		return nil
	case i >= 0 && !t.slots[i].missing:
		return newError("branch", name, -1, SeverityInfo, ErrNotBound)
	case i < 0:
		i = t.addSlot(name, ops)
	}
	return t.bindNew(i)
}

// bindNew binds slot i, creating its column, and catches the column up with
// default values.
func (t *Table) bindNew(i int) error {
	if err := t.bind(i, true); err != nil {
		return err
	}
	s := &t.slots[i]
	s.ops.reset(&s.u)
	s.lastRead = -1
	return t.catchUp(i)
}

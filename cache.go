package tabiter

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/hupe1980/tabiter/colstore"
)

// lookup returns the slot index of (name, typ), or -1.
//
// The slot after the last hit is probed first, so a loop body that accesses
// its attributes in the same order every row resolves each lookup with a
// single comparison. Otherwise all slots are scanned.
func (t *Table) lookup(name string, typ reflect.Type) int {
	n := len(t.slots)
	if n == 0 {
		return -1
	}
	probed := -1
	if t.tryLast {
		t.last++
		if t.last >= n {
			t.last = 0
		}
		probed = t.last
		if s := &t.slots[probed]; s.ops.typ == typ && s.name == name {
			t.stats.Hits++
			return probed
		}
	}
	for i := range t.slots {
		if i == probed {
			continue
		}
		if s := &t.slots[i]; s.ops.typ == typ && s.name == name {
			t.tryLast = true
			t.last = i
			t.stats.Misses++
			return i
		}
	}
	t.tryLast = false
	return -1
}

// addSlot appends a slot and returns its index. If the append moved the slot
// array every owned address is registered again.
func (t *Table) addSlot(name string, ops *slotOps) int {
	var front *slot
	if len(t.slots) > 0 {
		front = &t.slots[0]
	}
	t.slots = append(t.slots, newSlot(name, ops, t.opts.indirectObjects))
	if front != nil && front != &t.slots[0] {
		t.rebind()
	}
	i := len(t.slots) - 1
	// The new slot is the most recently accessed one.
	t.tryLast = true
	t.last = i
	return i
}

func (t *Table) rebind() {
	t.stats.Rebinds++
	n := 0
	for i := range t.slots {
		s := &t.slots[i]
		if !s.owned() {
			continue
		}
		if err := s.register(t.store, s.col); err != nil {
			t.report("rebind", s.name, -1, SeverityError, wrap(ErrBinding, err))
			continue
		}
		n++
	}
	t.logger.LogRebind(n)
}

// bind connects slot i to its column. With create a missing column is
// created; otherwise ErrColumnNotFound is returned.
func (t *Table) bind(i int, create bool) error {
	s := &t.slots[i]
	if t.store == nil {
		return t.report("bind", s.name, -1, SeverityError, ErrNoStore)
	}

	col, ok := t.store.Column(s.name)
	created := false
	switch {
	case ok:
		if err := t.bindExisting(i, col); err != nil {
			t.metrics.RecordBind(false, err)
			return t.report("bind", s.name, -1, SeverityError, wrap(ErrBinding, err))
		}
	case !create:
		s.missing = true
		t.metrics.RecordBind(false, ErrColumnNotFound)
		return t.report("bind", s.name, -1, SeverityError,
			wrap(ErrBinding, fmt.Errorf("%w: %q", ErrColumnNotFound, s.name)))
	default:
		col, err := t.store.CreateColumn(s.name, s.ops.descriptor(t.opts.layout))
		if err == nil {
			err = s.register(t.store, col)
		}
		if err != nil {
			t.metrics.RecordBind(false, err)
			return t.report("bind", s.name, -1, SeverityError, wrap(ErrBinding, err))
		}
		created = true
	}

	s.missing = false
	external := !s.external.IsZero()
	t.metrics.RecordBind(external, nil)
	t.logger.LogBind(s.name, s.ops.typ.String(), created, external)
	return nil
}

func (t *Table) bindExisting(i int, col *colstore.Column) error {
	s := &t.slots[i]
	if col.HasAddress() && !t.opts.overrideAddress {
		if j := t.owner(col); j >= 0 && j != i {
			return fmt.Errorf("%w: column is bound to %s by this table", ErrTypeMismatch, t.slots[j].ops.typ)
		}
		addr := col.Address()
		if addr.Type() != s.ops.typ {
			return fmt.Errorf("%w: column address is %s, attribute is %s", ErrTypeMismatch, addr.Type(), s.ops.typ)
		}
		s.col = col
		s.external = addr
		s.bound = true
	} else if err := s.register(t.store, col); err != nil {
		return err
	}
	if !t.store.Active(col.Name()) {
		if err := t.store.SetColumnStatus(escapePattern(col.Name()), true); err != nil && !errors.Is(err, ErrColumnNotFound) {
			return err
		}
	}
	return nil
}

// owner returns the slot whose own storage is registered with col, or -1.
func (t *Table) owner(col *colstore.Column) int {
	for j := range t.slots {
		if s := &t.slots[j]; s.owned() && s.col == col {
			return j
		}
	}
	return -1
}

// catchUp appends default values to a column created after rows were filled.
func (t *Table) catchUp(i int) error {
	s := &t.slots[i]
	if !s.owned() {
		return nil
	}
	var rows int64
	for target := t.store.RowCount(); s.col.Len() < target; rows++ {
		n, err := t.store.AppendColumn(s.col)
		if err != nil {
			return t.report("catch up", s.name, s.col.Len(), SeverityError, wrap(ErrFill, err))
		}
		t.stats.BytesFilled += int64(n)
	}
	if rows > 0 {
		t.stats.CatchUpRows += rows
		t.metrics.RecordCatchUp(rows)
		t.logger.LogCatchUp(s.name, rows)
	}
	return nil
}

var patternEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`)

// escapePattern quotes name for SetColumnStatus.
func escapePattern(name string) string {
	return patternEscaper.Replace(name)
}

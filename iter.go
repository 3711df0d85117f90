package tabiter

import (
	"context"
	"iter"
)

// Rows iterates over every row of the table. Attribute values are pulled
// lazily by Get and Lookup, so columns the loop body never touches are not read.
//
// Example:
//
//	for r := range t.Rows() {
//		sum += tabiter.Get[float64](r, "x")
//	}
func (t *Table) Rows() iter.Seq[*Row] {
	return t.Range(0, -1)
}

// Range iterates over rows [first, last). A negative last means the end of
// the table. Bounds are taken from the row count when iteration starts.
func (t *Table) Range(first, last int64) iter.Seq[*Row] {
	return func(yield func(*Row) bool) {
		if t.closed || t.store == nil {
			return
		}
		n := t.store.RowCount()
		end := last
		if end < 0 || end > n {
			end = n
		}
		r := &Row{t: t}
		for i := max(first, 0); i < end; i++ {
			r.index = i
			if !yield(r) {
				return
			}
		}
	}
}

// Fill iterates over n rows to append; n < 0 runs until the loop breaks.
// Each row is committed after the loop body unless the body committed it or
// broke out. When iteration ends the store is flushed if it is writable.
// Iteration stops at the first failed commit or flush; see Err.
//
// Example:
//
//	for r := range t.Fill(ctx, 1000) {
//		tabiter.Set(r, "x", rand.Float64())
//	}
//	if err := t.Err(); err != nil {
//		return err
//	}
func (t *Table) Fill(ctx context.Context, n int64) iter.Seq[*Row] {
	return func(yield func(*Row) bool) {
		t.err = nil
		if err := t.check("fill"); err != nil {
			t.err = err
			return
		}
		for i := range t.slots {
			t.slots[i].unset = true
			t.slots[i].lastRead = -1
		}
		defer t.finishFill(ctx)

		start := t.store.RowCount()
		r := &Row{t: t, filling: true}
		for i := int64(0); n < 0 || i < n; i++ {
			if err := ctx.Err(); err != nil {
				t.err = err
				return
			}
			r.index = start + i
			r.committed = false
			if !yield(r) {
				return
			}
			if r.committed {
				continue
			}
			r.committed = true
			if _, err := t.commit(r.index); err != nil {
				t.err = err
				return
			}
		}
	}
}

func (t *Table) finishFill(ctx context.Context) {
	if t.closed || t.store == nil || !t.store.Writable() {
		return
	}
	if _, err := t.Flush(ctx); err != nil && t.err == nil {
		t.err = err
	}
}

package colstore

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// Column is one named, typed column of a Store.
type Column struct {
	name   string
	index  int
	desc   Descriptor
	vec    vector
	addr   Address
	padded *roaring.Bitmap
}

func newColumn(name string, index int, desc Descriptor) *Column {
	return &Column{
		name:   name,
		index:  index,
		desc:   desc,
		vec:    &encodedVector{k: desc.Kind},
		padded: roaring.New(),
	}
}

// Name returns the column name.
func (c *Column) Name() string { return c.name }

// Index returns the creation position of the column.
func (c *Column) Index() int { return c.index }

// Descriptor returns the declared type.
func (c *Column) Descriptor() Descriptor { return c.desc }

// Len returns the number of stored values.
func (c *Column) Len() int64 { return int64(c.vec.Len()) }

// Address returns the registered address, or the zero Address.
func (c *Column) Address() Address { return c.addr }

// HasAddress reports whether an address is registered.
func (c *Column) HasAddress() bool { return !c.addr.IsZero() }

// Bound reports whether the stored values have been materialized with a Go type.
func (c *Column) Bound() bool { return c.vec.goType() != nil }

// Padded reports whether row was appended without an address (zero-filled).
func (c *Column) Padded(row int64) bool {
	return row >= 0 && row <= int64(^uint32(0)) && c.padded.Contains(uint32(row))
}

// PaddedCount returns the number of zero-filled rows.
func (c *Column) PaddedCount() uint64 { return c.padded.GetCardinality() }

// ChildNames returns the "parent.child" names of split record fields.
func (c *Column) ChildNames() []string {
	if len(c.desc.Children) == 0 {
		return nil
	}
	names := make([]string, len(c.desc.Children))
	for i, child := range c.desc.Children {
		names[i] = c.name + "." + child
	}
	return names
}

func (c *Column) appendZero() int {
	c.padded.Add(uint32(c.vec.Len()))
	return c.vec.appendZero()
}

func (c *Column) appendValue() int {
	if c.addr.IsZero() {
		return c.appendZero()
	}
	return c.vec.appendFrom(c.addr)
}

func (c *Column) pendingSize() int {
	if c.addr.IsZero() {
		var zero Address
		return c.vec.sizeOf(zero)
	}
	return c.vec.sizeOf(c.addr)
}

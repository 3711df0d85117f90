package tabiter

import (
	"reflect"
	"sync"
	"unsafe"

	"github.com/hupe1980/tabiter/colstore"
)

// payload is the type-erased storage of one attribute. Bool and numeric
// values live in word, strings in str, everything else on the heap behind ptr.
type payload struct {
	word uint64
	str  string
	ptr  unsafe.Pointer
}

// valuePtr returns the typed view of the value held by u.
func valuePtr[T any](u *payload, k colstore.Kind) *T {
	switch {
	case k.IsNumeric():
		return (*T)(unsafe.Pointer(&u.word))
	case k == colstore.KindString:
		return (*T)(unsafe.Pointer(&u.str))
	default:
		return (*T)(u.ptr)
	}
}

// slotOps is the function table of one attribute type.
type slotOps struct {
	typ        reflect.Type
	kind       colstore.Kind
	descriptor func(colstore.Layout) colstore.Descriptor
	init       func(u *payload)
	reset      func(u *payload)
	address    func(u *payload, indirect bool) colstore.Address
}

var slotOpsCache sync.Map // reflect.Type -> *slotOps

func opsFor[T any]() *slotOps {
	typ := reflect.TypeFor[T]()
	if ops, ok := slotOpsCache.Load(typ); ok {
		return ops.(*slotOps)
	}
	k := colstore.KindOf(typ)
	ops := &slotOps{
		typ:        typ,
		kind:       k,
		descriptor: colstore.DescriptorFor[T],
		init: func(u *payload) {
			if !k.IsScalar() {
				u.ptr = unsafe.Pointer(new(T))
			}
		},
		reset: func(u *payload) {
			var zero T
			*valuePtr[T](u, k) = zero
		},
		address: func(u *payload, indirect bool) colstore.Address {
			if indirect {
				return colstore.IndirectAddressOf((**T)(unsafe.Pointer(&u.ptr)))
			}
			return colstore.AddressOf(valuePtr[T](u, k))
		},
	}
	actual, _ := slotOpsCache.LoadOrStore(typ, ops)
	return actual.(*slotOps)
}

// slot is one cached attribute binding.
type slot struct {
	name string
	ops  *slotOps
	u    payload
	col  *colstore.Column

	// addr is the address this table registered, external a caller-owned
	// address adopted from the column. At most one is set.
	addr     colstore.Address
	external colstore.Address

	bound    bool
	missing  bool // the column did not exist when binding was attempted
	indirect bool
	lastRead int64
	// unset is true until the attribute is assigned for the pending row.
	unset bool
}

func newSlot(name string, ops *slotOps, indirect bool) slot {
	s := slot{
		name:     name,
		ops:      ops,
		indirect: indirect && ops.kind.IsObject(),
		lastRead: -1,
	}
	ops.init(&s.u)
	return s
}

func (s *slot) owned() bool {
	return s.bound && s.external.IsZero()
}

// register binds the slot's own storage to col.
func (s *slot) register(st Store, col *colstore.Column) error {
	addr := s.ops.address(&s.u, s.indirect)
	if err := st.RegisterAddress(col, addr); err != nil {
		s.bound = false
		return err
	}
	s.col = col
	s.addr = addr
	s.external = colstore.Address{}
	s.bound = true
	return nil
}

func (s *slot) unregister(st Store) {
	if s.owned() {
		st.UnregisterAddress(s.col)
	}
	s.bound = false
	s.addr = colstore.Address{}
	s.external = colstore.Address{}
	s.lastRead = -1
}

func slotGet[T any](s *slot) T {
	if !s.external.IsZero() {
		v, _ := colstore.ValueAt[T](s.external)
		return v
	}
	return *valuePtr[T](&s.u, s.ops.kind)
}

func slotSet[T any](s *slot, v T) {
	s.unset = false
	if !s.external.IsZero() {
		colstore.Assign(s.external, v)
		return
	}
	*valuePtr[T](&s.u, s.ops.kind) = v
	s.lastRead = -1
}

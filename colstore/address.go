package colstore

import "reflect"

// Address is a caller-owned memory location registered with a column.
//
// Reads copy the row value into the location, appends copy the value out of it.
// An indirect address is a pointer-to-pointer: the store dereferences it once
// more and allocates the pointee when it is nil.
type Address struct {
	ptr      any
	indirect bool
	typ      reflect.Type
	ops      *vectorOps
}

// AddressOf returns the direct address of *p.
func AddressOf[T any](p *T) Address {
	if p == nil {
		return Address{}
	}
	return Address{ptr: p, typ: reflect.TypeFor[T](), ops: opsFor[T]()}
}

// IndirectAddressOf returns the indirect address held by pp.
func IndirectAddressOf[T any](pp **T) Address {
	if pp == nil {
		return Address{}
	}
	return Address{ptr: pp, indirect: true, typ: reflect.TypeFor[T](), ops: opsFor[T]()}
}

// IsZero reports whether the address is unset.
func (a Address) IsZero() bool { return a.ptr == nil }

// Indirect reports whether the address is a pointer-to-pointer.
func (a Address) Indirect() bool { return a.indirect }

// Type returns the value type the address points at.
func (a Address) Type() reflect.Type { return a.typ }

// Pointer returns the registered pointer (*T or **T).
func (a Address) Pointer() any { return a.ptr }

// Same reports whether both addresses refer to the same location.
func (a Address) Same(b Address) bool {
	return a.ptr == b.ptr && a.indirect == b.indirect
}

// ValueAt loads the value stored at a. It returns false if a does not hold a T
// or an indirect address currently points nowhere.
func ValueAt[T any](a Address) (T, bool) {
	var zero T
	if a.indirect {
		pp, ok := a.ptr.(**T)
		if !ok || pp == nil || *pp == nil {
			return zero, false
		}
		return **pp, true
	}
	p, ok := a.ptr.(*T)
	if !ok || p == nil {
		return zero, false
	}
	return *p, true
}

// Assign stores v at a, allocating the pointee of an indirect address if needed.
func Assign[T any](a Address, v T) bool {
	if a.indirect {
		pp, ok := a.ptr.(**T)
		if !ok || pp == nil {
			return false
		}
		if *pp == nil {
			*pp = new(T)
		}
		**pp = v
		return true
	}
	p, ok := a.ptr.(*T)
	if !ok || p == nil {
		return false
	}
	*p = v
	return true
}

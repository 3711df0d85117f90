package colstore

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"reflect"
	"sync"

	"github.com/hupe1980/tabiter/codec"
)

// vector is the typed storage behind one column.
type vector interface {
	Len() int
	kind() Kind
	// goType is nil until the column is materialized with a registering type.
	goType() reflect.Type
	sizeOf(a Address) int
	appendFrom(a Address) int
	appendZero() int
	readInto(row int, a Address) (int, error)
	// canonical returns bool, int64, uint64, float32, float64 or string.
	canonical(row int, c codec.Codec) (any, error)
	encode(c codec.Codec) ([]byte, error)
}

// vectorOps is the per-type function table carried by an Address.
type vectorOps struct {
	typ    reflect.Type
	create func(capacity int) vector
	decode func(c codec.Codec, enc *encodedVector) (vector, error)
}

var opsCache sync.Map // reflect.Type -> *vectorOps

func opsFor[T any]() *vectorOps {
	t := reflect.TypeFor[T]()
	if v, ok := opsCache.Load(t); ok {
		return v.(*vectorOps)
	}
	ops := &vectorOps{
		typ:    t,
		create: func(capacity int) vector { return newTypedVector[T](capacity) },
		decode: func(c codec.Codec, enc *encodedVector) (vector, error) { return decodeTyped[T](c, enc) },
	}
	v, _ := opsCache.LoadOrStore(t, ops)
	return v.(*vectorOps)
}

// fixedWidth is the encoded size of scalar kinds, or -1 for length-prefixed kinds.
func fixedWidth(k Kind) int {
	switch {
	case k == KindBool:
		return 1
	case k == KindFloat32:
		return 4
	case k.IsNumeric():
		return 8
	default:
		return -1
	}
}

type typedVector[T any] struct {
	data  []T
	k     Kind
	typ   reflect.Type
	fixed int
	deep  bool
}

func newTypedVector[T any](capacity int) *typedVector[T] {
	t := reflect.TypeFor[T]()
	return &typedVector[T]{
		data:  make([]T, 0, max(capacity, 0)),
		k:     KindOf(t),
		typ:   t,
		fixed: max(int(t.Size()), 1),
		deep:  hasRefs(t),
	}
}

func (v *typedVector[T]) Len() int             { return len(v.data) }
func (v *typedVector[T]) kind() Kind           { return v.k }
func (v *typedVector[T]) goType() reflect.Type { return v.typ }

func (v *typedVector[T]) size(val *T) int {
	switch v.k {
	case KindString:
		return 4 + reflect.ValueOf(val).Elem().Len()
	case KindSequence:
		return 4 + reflect.ValueOf(val).Elem().Len()*int(v.typ.Elem().Size())
	default:
		return v.fixed
	}
}

func (v *typedVector[T]) load(a Address) T {
	val, _ := ValueAt[T](a)
	return val
}

func (v *typedVector[T]) sizeOf(a Address) int {
	val := v.load(a)
	return v.size(&val)
}

func (v *typedVector[T]) appendFrom(a Address) int {
	val := v.load(a)
	if v.deep {
		val = deepCopy(val)
	}
	v.data = append(v.data, val)
	return v.size(&val)
}

func (v *typedVector[T]) appendZero() int {
	var zero T
	v.data = append(v.data, zero)
	return v.size(&zero)
}

func (v *typedVector[T]) readInto(row int, a Address) (int, error) {
	if row < 0 || row >= len(v.data) {
		return 0, ErrRowOutOfRange
	}
	val := v.data[row]
	if v.deep {
		val = deepCopy(val)
	}
	if !Assign(a, val) {
		return 0, ErrTypeMismatch
	}
	return v.size(&val), nil
}

func (v *typedVector[T]) canonical(row int, c codec.Codec) (any, error) {
	rv := reflect.ValueOf(&v.data[row]).Elem()
	switch {
	case v.k.IsScalar():
		return scalarOf(v.k, rv), nil
	case rv.IsZero():
		return "", nil
	default:
		b, err := c.Marshal(rv.Interface())
		return string(b), err
	}
}

func (v *typedVector[T]) encode(c codec.Codec) ([]byte, error) {
	buf := make([]byte, 0, len(v.data)*max(fixedWidth(v.k), 8))
	for i := range v.data {
		var err error
		if buf, err = appendValue(buf, v.k, reflect.ValueOf(&v.data[i]).Elem(), c); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
	}
	return buf, nil
}

func decodeTyped[T any](c codec.Codec, enc *encodedVector) (vector, error) {
	v := newTypedVector[T](len(enc.rows))
	if v.k != enc.k {
		return nil, ErrTypeMismatch
	}
	for i, raw := range enc.rows {
		var val T
		if raw != nil {
			if err := decodeValue(raw, v.k, reflect.ValueOf(&val).Elem(), c); err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
		}
		v.data = append(v.data, val)
	}
	return v, nil
}

var errNotMaterialized = errors.New("colstore: column has not been bound to a type")

// encodedVector holds loaded rows until an address registration supplies their Go type.
// A nil row is the zero value.
type encodedVector struct {
	k    Kind
	rows [][]byte
}

func (v *encodedVector) Len() int             { return len(v.rows) }
func (v *encodedVector) kind() Kind           { return v.k }
func (v *encodedVector) goType() reflect.Type { return nil }

func (v *encodedVector) zeroSize() int {
	if w := fixedWidth(v.k); w > 0 {
		return w
	}
	return 4
}

func (v *encodedVector) sizeOf(Address) int { return v.zeroSize() }

func (v *encodedVector) appendFrom(Address) int { return v.appendZero() }

func (v *encodedVector) appendZero() int {
	v.rows = append(v.rows, nil)
	return v.zeroSize()
}

func (v *encodedVector) readInto(int, Address) (int, error) {
	return 0, errNotMaterialized
}

func (v *encodedVector) canonical(row int, _ codec.Codec) (any, error) {
	raw := v.rows[row]
	if !v.k.IsScalar() {
		return string(raw), nil
	}
	val := reflect.New(canonicalType(v.k)).Elem()
	if raw != nil {
		if err := decodeValue(raw, v.k, val, nil); err != nil {
			return nil, err
		}
	}
	return val.Interface(), nil
}

func (v *encodedVector) encode(codec.Codec) ([]byte, error) {
	var buf []byte
	w := fixedWidth(v.k)
	for _, raw := range v.rows {
		switch {
		case w > 0 && raw == nil:
			buf = append(buf, make([]byte, w)...)
		case w > 0:
			buf = append(buf, raw...)
		default:
			buf = binary.LittleEndian.AppendUint32(buf, uint32(len(raw)))
			buf = append(buf, raw...)
		}
	}
	return buf, nil
}

// splitRows cuts an encoded value block into per-row slices.
func splitRows(payload []byte, k Kind, n int) ([][]byte, error) {
	rows := make([][]byte, 0, n)
	w := fixedWidth(k)
	off := 0
	for range n {
		size := w
		if w < 0 {
			if off+4 > len(payload) {
				return nil, ErrCorrupt
			}
			size = int(binary.LittleEndian.Uint32(payload[off:]))
			off += 4
		}
		if off+size > len(payload) {
			return nil, ErrCorrupt
		}
		if w < 0 && size == 0 {
			if k == KindString {
				rows = append(rows, []byte{})
			} else {
				rows = append(rows, nil)
			}
		} else {
			rows = append(rows, payload[off:off+size:off+size])
		}
		off += size
	}
	if off != len(payload) {
		return nil, ErrCorrupt
	}
	return rows, nil
}

func appendValue(buf []byte, k Kind, rv reflect.Value, c codec.Codec) ([]byte, error) {
	switch k {
	case KindBool:
		if rv.Bool() {
			return append(buf, 1), nil
		}
		return append(buf, 0), nil
	case KindInt, KindInt8, KindInt16, KindInt32, KindInt64:
		return binary.LittleEndian.AppendUint64(buf, uint64(rv.Int())), nil
	case KindUint, KindUint8, KindUint16, KindUint32, KindUint64:
		return binary.LittleEndian.AppendUint64(buf, rv.Uint()), nil
	case KindFloat32:
		return binary.LittleEndian.AppendUint32(buf, math.Float32bits(float32(rv.Float()))), nil
	case KindFloat64:
		return binary.LittleEndian.AppendUint64(buf, math.Float64bits(rv.Float())), nil
	case KindString:
		s := rv.String()
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(s)))
		return append(buf, s...), nil
	}

	if rv.IsZero() {
		return binary.LittleEndian.AppendUint32(buf, 0), nil
	}
	b, err := c.Marshal(rv.Interface())
	if err != nil {
		return nil, err
	}
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(b)))
	return append(buf, b...), nil
}

func decodeValue(raw []byte, k Kind, rv reflect.Value, c codec.Codec) error {
	if w := fixedWidth(k); w > 0 && len(raw) != w {
		return ErrCorrupt
	}
	switch k {
	case KindBool:
		rv.SetBool(raw[0] != 0)
	case KindInt, KindInt8, KindInt16, KindInt32, KindInt64:
		rv.SetInt(int64(binary.LittleEndian.Uint64(raw)))
	case KindUint, KindUint8, KindUint16, KindUint32, KindUint64:
		rv.SetUint(binary.LittleEndian.Uint64(raw))
	case KindFloat32:
		rv.SetFloat(float64(math.Float32frombits(binary.LittleEndian.Uint32(raw))))
	case KindFloat64:
		rv.SetFloat(math.Float64frombits(binary.LittleEndian.Uint64(raw)))
	case KindString:
		rv.SetString(string(raw))
	default:
		if len(raw) == 0 {
			return nil
		}
		if c == nil {
			return ErrUnknownCodec
		}
		return c.Unmarshal(raw, rv.Addr().Interface())
	}
	return nil
}

func canonicalType(k Kind) reflect.Type {
	switch k {
	case KindBool:
		return reflect.TypeFor[bool]()
	case KindInt, KindInt8, KindInt16, KindInt32, KindInt64:
		return reflect.TypeFor[int64]()
	case KindUint, KindUint8, KindUint16, KindUint32, KindUint64:
		return reflect.TypeFor[uint64]()
	case KindFloat32:
		return reflect.TypeFor[float32]()
	case KindFloat64:
		return reflect.TypeFor[float64]()
	default:
		return reflect.TypeFor[string]()
	}
}

func scalarOf(k Kind, rv reflect.Value) any {
	switch k {
	case KindBool:
		return rv.Bool()
	case KindInt, KindInt8, KindInt16, KindInt32, KindInt64:
		return rv.Int()
	case KindUint, KindUint8, KindUint16, KindUint32, KindUint64:
		return rv.Uint()
	case KindFloat32:
		return float32(rv.Float())
	case KindFloat64:
		return rv.Float()
	default:
		return rv.String()
	}
}

// hasRefs reports whether values of t share memory when copied by assignment.
func hasRefs(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Slice, reflect.Map, reflect.Pointer:
		return true
	case reflect.Array:
		return hasRefs(t.Elem())
	case reflect.Struct:
		for i := range t.NumField() {
			if hasRefs(t.Field(i).Type) {
				return true
			}
		}
	}
	return false
}

// deepCopy copies slices, maps and pointers reachable through exported fields.
// Cyclic pointer graphs are not supported.
func deepCopy[T any](v T) T {
	src := reflect.ValueOf(&v).Elem()
	dst := reflect.New(src.Type()).Elem()
	copyValue(dst, src)
	return dst.Interface().(T)
}

func copyValue(dst, src reflect.Value) {
	switch src.Kind() {
	case reflect.Slice:
		if src.IsNil() {
			return
		}
		s := reflect.MakeSlice(src.Type(), src.Len(), src.Len())
		if hasRefs(src.Type().Elem()) {
			for i := range src.Len() {
				copyValue(s.Index(i), src.Index(i))
			}
		} else {
			reflect.Copy(s, src)
		}
		dst.Set(s)
	case reflect.Array:
		if !hasRefs(src.Type().Elem()) {
			dst.Set(src)
			return
		}
		for i := range src.Len() {
			copyValue(dst.Index(i), src.Index(i))
		}
	case reflect.Struct:
		dst.Set(src)
		for i := range src.NumField() {
			if f := dst.Field(i); f.CanSet() {
				copyValue(f, src.Field(i))
			}
		}
	case reflect.Map:
		if src.IsNil() {
			return
		}
		m := reflect.MakeMapWithSize(src.Type(), src.Len())
		it := src.MapRange()
		for it.Next() {
			val := reflect.New(src.Type().Elem()).Elem()
			copyValue(val, it.Value())
			m.SetMapIndex(it.Key(), val)
		}
		dst.Set(m)
	case reflect.Pointer:
		if src.IsNil() {
			return
		}
		p := reflect.New(src.Type().Elem())
		copyValue(p.Elem(), src.Elem())
		dst.Set(p)
	default:
		dst.Set(src)
	}
}

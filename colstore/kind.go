package colstore

import (
	"fmt"
	"reflect"
)

// Kind is the closed set of payload kinds a column can hold.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindBool
	KindInt
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat32
	KindFloat64
	KindString
	// KindArray is a fixed-size Go array, e.g. [3]float64.
	KindArray
	// KindSequence is a variable-length slice, e.g. []float64.
	KindSequence
	// KindRecord is any other type (structs, maps, named composites).
	KindRecord
)

var kindNames = [...]string{
	KindInvalid:  "invalid",
	KindBool:     "bool",
	KindInt:      "int",
	KindInt8:     "int8",
	KindInt16:    "int16",
	KindInt32:    "int32",
	KindInt64:    "int64",
	KindUint:     "uint",
	KindUint8:    "uint8",
	KindUint16:   "uint16",
	KindUint32:   "uint32",
	KindUint64:   "uint64",
	KindFloat32:  "float32",
	KindFloat64:  "float64",
	KindString:   "string",
	KindArray:    "array",
	KindSequence: "sequence",
	KindRecord:   "record",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// IsScalar reports whether values of this kind fit in a machine word or a string header.
func (k Kind) IsScalar() bool {
	return k >= KindBool && k <= KindString
}

// IsNumeric reports whether the kind is a bool or number stored in a single word.
func (k Kind) IsNumeric() bool {
	return k >= KindBool && k <= KindFloat64
}

// IsObject reports whether the kind is held behind a pointer (array, sequence, record).
func (k Kind) IsObject() bool {
	return k >= KindArray
}

// KindOf classifies a Go type.
func KindOf(t reflect.Type) Kind {
	if t == nil {
		return KindInvalid
	}
	switch t.Kind() {
	case reflect.Bool:
		return KindBool
	case reflect.Int:
		return KindInt
	case reflect.Int8:
		return KindInt8
	case reflect.Int16:
		return KindInt16
	case reflect.Int32:
		return KindInt32
	case reflect.Int64:
		return KindInt64
	case reflect.Uint:
		return KindUint
	case reflect.Uint8:
		return KindUint8
	case reflect.Uint16:
		return KindUint16
	case reflect.Uint32:
		return KindUint32
	case reflect.Uint64:
		return KindUint64
	case reflect.Float32:
		return KindFloat32
	case reflect.Float64:
		return KindFloat64
	case reflect.String:
		return KindString
	case reflect.Array:
		return KindArray
	case reflect.Slice:
		return KindSequence
	case reflect.Invalid, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return KindInvalid
	default:
		return KindRecord
	}
}

// KindFor is KindOf for a static type.
func KindFor[T any]() Kind {
	return KindOf(reflect.TypeFor[T]())
}

// Layout carries the storage hints used when a column is created.
type Layout struct {
	// BufferSize is the initial row capacity reserved for the column.
	BufferSize int `json:"buffer_size"`
	// SplitLevel > 0 exposes the exported fields of struct records as child columns.
	SplitLevel int `json:"split_level"`
}

// DefaultLayout mirrors the defaults most tables want.
var DefaultLayout = Layout{BufferSize: 1024, SplitLevel: 99}

// Descriptor declares the type of a column.
type Descriptor struct {
	Kind     Kind     `json:"kind"`
	TypeName string   `json:"type"`
	Children []string `json:"children,omitempty"`
	Layout   Layout   `json:"layout"`
}

// DescriptorFor builds the descriptor of a column holding T.
func DescriptorFor[T any](layout Layout) Descriptor {
	t := reflect.TypeFor[T]()
	d := Descriptor{
		Kind:     KindOf(t),
		TypeName: t.String(),
		Layout:   layout,
	}
	if d.Kind == KindRecord && t.Kind() == reflect.Struct && layout.SplitLevel > 0 {
		for i := range t.NumField() {
			if f := t.Field(i); f.IsExported() {
				d.Children = append(d.Children, f.Name)
			}
		}
	}
	return d
}

// Accepts reports whether values of type t may be stored in a column with this descriptor.
func (d Descriptor) Accepts(t reflect.Type) bool {
	return t != nil && KindOf(t) == d.Kind && t.String() == d.TypeName
}

// Package codec encodes the values of record, array and sequence columns
// when a table is flushed.
//
// The codec name is stored in every table file header. Changing the default
// codec never breaks existing tables: they are decoded with the codec they
// were written with.
package codec

import "fmt"

// Codec encodes the non-zero values of record, array and sequence columns,
// one length-prefixed value per row of the column section, before the section
// is block-compressed. Flush encodes columns in parallel, so implementations
// must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// ByName returns a built-in codec by the name stored in a table header.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	default:
		return nil, false
	}
}

// MustMarshal is a helper for tests and benchmarks.
func MustMarshal(c Codec, v any) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("codec %s marshal failed: %w", c.Name(), err))
	}
	return b
}

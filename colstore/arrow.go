package colstore

import (
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

func arrowType(k Kind) arrow.DataType {
	switch k {
	case KindBool:
		return arrow.FixedWidthTypes.Boolean
	case KindInt, KindInt8, KindInt16, KindInt32, KindInt64:
		return arrow.PrimitiveTypes.Int64
	case KindUint, KindUint8, KindUint16, KindUint32, KindUint64:
		return arrow.PrimitiveTypes.Uint64
	case KindFloat32:
		return arrow.PrimitiveTypes.Float32
	case KindFloat64:
		return arrow.PrimitiveTypes.Float64
	default:
		// Strings, and records/arrays/sequences rendered by the codec.
		return arrow.BinaryTypes.String
	}
}

// ArrowSchema returns the Arrow schema of the table. Every column is nullable;
// padded rows are exported as nulls.
func (s *Store) ArrowSchema() *arrow.Schema {
	fields := make([]arrow.Field, len(s.columns))
	for i, col := range s.columns {
		fields[i] = arrow.Field{
			Name:     col.name,
			Type:     arrowType(col.desc.Kind),
			Nullable: true,
			Metadata: arrow.NewMetadata([]string{"kind", "type"}, []string{col.desc.Kind.String(), col.desc.TypeName}),
		}
	}
	return arrow.NewSchema(fields, nil)
}

// ArrowRecord copies the table into a single Arrow record. A nil allocator
// uses the Go allocator. The caller must Release the record.
func (s *Store) ArrowRecord(mem memory.Allocator) (arrow.Record, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if mem == nil {
		mem = memory.NewGoAllocator()
	}

	b := array.NewRecordBuilder(mem, s.ArrowSchema())
	defer b.Release()

	for i, col := range s.columns {
		fb := b.Field(i)
		fb.Reserve(int(s.rows))
		for row := range s.rows {
			if col.Padded(row) {
				fb.AppendNull()
				continue
			}
			v, err := col.vec.canonical(int(row), s.opts.codec)
			if err != nil {
				return nil, columnErr("export", col.name, err)
			}
			if err := appendArrow(fb, v); err != nil {
				return nil, columnErr("export", col.name, err)
			}
		}
	}
	return b.NewRecord(), nil
}

func appendArrow(fb array.Builder, v any) error {
	switch b := fb.(type) {
	case *array.BooleanBuilder:
		b.Append(v.(bool))
	case *array.Int64Builder:
		b.Append(v.(int64))
	case *array.Uint64Builder:
		b.Append(v.(uint64))
	case *array.Float32Builder:
		b.Append(v.(float32))
	case *array.Float64Builder:
		b.Append(v.(float64))
	case *array.StringBuilder:
		b.Append(v.(string))
	default:
		return fmt.Errorf("unsupported arrow builder %T", fb)
	}
	return nil
}

// WriteArrowIPC writes the table to w in the Arrow IPC file format.
func (s *Store) WriteArrowIPC(w io.Writer) error {
	mem := memory.NewGoAllocator()
	rec, err := s.ArrowRecord(mem)
	if err != nil {
		return err
	}
	defer rec.Release()

	fw, err := ipc.NewFileWriter(w, ipc.WithSchema(rec.Schema()), ipc.WithAllocator(mem))
	if err != nil {
		return err
	}
	if err := fw.Write(rec); err != nil {
		_ = fw.Close()
		return err
	}
	return fw.Close()
}

package tabiter

import (
	"context"

	"github.com/hupe1980/tabiter/colstore"
)

// Store is the column store a Table binds its attributes to.
// *colstore.Store implements it.
type Store interface {
	Name() string
	RowCount() int64

	Column(name string) (*colstore.Column, bool)
	CreateColumn(name string, desc colstore.Descriptor) (*colstore.Column, error)
	RegisterAddress(col *colstore.Column, addr colstore.Address) error
	UnregisterAddress(col *colstore.Column)

	ReadRow(col *colstore.Column, row int64) (int, error)
	ReadEntry(row int64) (int, error)
	AppendRow() (int, error)
	AppendColumn(col *colstore.Column) (int, error)

	SetColumnStatus(pattern string, active bool) error
	Active(name string) bool
	ColumnNames(children, inactive bool) []string

	// Writable reports whether Flush can persist the table.
	Writable() bool
	Flush(ctx context.Context) (int64, error)
	Close() error
}

var _ Store = (*colstore.Store)(nil)

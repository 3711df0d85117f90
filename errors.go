package tabiter

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/hupe1980/tabiter/colstore"
)

// Configuration errors.
var (
	// ErrNoStore is returned when a table has no column store to work on.
	ErrNoStore = errors.New("tabiter: no store available")
	// ErrReadOnly is returned when persisting a table without a writable location.
	ErrReadOnly = colstore.ErrReadOnly
	// ErrTableNotFound is returned when opening a missing table read-only.
	ErrTableNotFound = colstore.ErrTableNotFound
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("tabiter: table is closed")
)

// Binding errors. The attribute stays unbound: reads return the default and
// writes are kept in memory only.
var (
	ErrBinding        = errors.New("tabiter: binding failed")
	ErrNotBound       = errors.New("tabiter: attribute not bound")
	ErrTypeMismatch   = colstore.ErrTypeMismatch
	ErrColumnNotFound = colstore.ErrColumnNotFound
)

// Read/write errors.
var (
	ErrRead                = errors.New("tabiter: read failed")
	ErrFill                = errors.New("tabiter: fill failed")
	ErrEmptyRow            = errors.New("tabiter: no data filled")
	ErrNotFilling          = errors.New("tabiter: row is not being filled")
	ErrMemoryLimitExceeded = colstore.ErrMemoryLimitExceeded
)

// Severity grades a reported error.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	default:
		return "error"
	}
}

// Level maps the severity to a log level.
func (s Severity) Level() slog.Level {
	switch s {
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// Error is the structured report of a failed table operation.
//
// The underlying cause can be matched with errors.Is, e.g.
// errors.Is(err, ErrBinding) or errors.Is(err, ErrTypeMismatch).
type Error struct {
	Op       string
	Name     string // attribute name, empty for table-level operations
	Row      int64  // -1 if not row specific
	Severity Severity
	Err      error
}

func (e *Error) Error() string {
	switch {
	case e.Name != "" && e.Row >= 0:
		return fmt.Sprintf("tabiter: %s %q row %d: %v", e.Op, e.Name, e.Row, e.Err)
	case e.Name != "":
		return fmt.Sprintf("tabiter: %s %q: %v", e.Op, e.Name, e.Err)
	case e.Row >= 0:
		return fmt.Sprintf("tabiter: %s row %d: %v", e.Op, e.Row, e.Err)
	default:
		return fmt.Sprintf("tabiter: %s: %v", e.Op, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

func newError(op, name string, row int64, sev Severity, err error) *Error {
	return &Error{Op: op, Name: name, Row: row, Severity: sev, Err: err}
}

// wrap attaches a category sentinel unless err already carries it.
func wrap(category, err error) error {
	if errors.Is(err, category) {
		return err
	}
	return fmt.Errorf("%w: %w", category, err)
}

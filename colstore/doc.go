// Package colstore is the column-store engine underneath tabiter tables.
//
// A Store holds named, typed columns of equal length. Callers register a
// memory Address per column; AppendRow copies every registered value into the
// columns and ReadRow copies a stored value back out. Columns created after
// rows exist are caught up with AppendColumn.
//
// # Persistence
//
// Flush writes one immutable blob per version and then replaces the table
// pointer:
//
//	events-000001.tab   header + column sections
//	events.CURRENT      "events-000001.tab"
//
// Value blocks are compressed with zstd (default) or lz4. Loaded columns stay
// encoded until the first RegisterAddress supplies their Go type.
//
// # Export
//
// ArrowRecord and WriteArrowIPC copy a table into Apache Arrow. Padded rows
// (appended without a registered address) are exported as nulls.
package colstore

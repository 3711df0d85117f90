package colstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/tabiter/blobstore"
	"github.com/hupe1980/tabiter/codec"
	"golang.org/x/sync/errgroup"
)

// writeChunkSize bounds a single rate-limited blob write.
const writeChunkSize = 256 << 10

// PointerName returns the name of the blob naming the current version of table.
func PointerName(table string) string { return table + blobstore.PointerSuffix }

// VersionName returns the blob name of one table version.
func VersionName(table string, version uint64) string {
	return fmt.Sprintf("%s-%06d.tab", table, version)
}

func parseVersion(table, blob string) (uint64, error) {
	var v uint64
	if _, err := fmt.Sscanf(strings.TrimPrefix(blob, table+"-"), "%06d.tab", &v); err != nil {
		return 0, fmt.Errorf("%w: bad version blob %q", ErrCorrupt, blob)
	}
	return v, nil
}

// Open loads the current version of table from bs. A missing table is
// created empty unless the store is read-only.
func Open(ctx context.Context, bs blobstore.BlobStore, table string, opts ...Option) (*Store, error) {
	if bs == nil {
		return nil, ErrNoBlobStore
	}
	s := New(table, opts...)
	s.bs = bs

	ptr, err := blobstore.ReadAll(ctx, bs, PointerName(table))
	if err != nil {
		if !errors.Is(err, blobstore.ErrNotFound) {
			return nil, err
		}
		if s.opts.readOnly {
			return nil, fmt.Errorf("%w: %s", ErrTableNotFound, table)
		}
		s.logger.Info("table created", "id", s.id.String())
		return s, nil
	}

	blobName := string(bytes.TrimSpace(ptr))
	if s.version, err = parseVersion(table, blobName); err != nil {
		return nil, err
	}
	data, err := blobstore.ReadAll(ctx, bs, blobName)
	if err != nil {
		return nil, fmt.Errorf("colstore: read %s: %w", blobName, err)
	}
	if err := s.load(data); err != nil {
		return nil, fmt.Errorf("colstore: load %s: %w", blobName, err)
	}

	s.logger.Info("table opened", "version", s.version, "rows", s.rows, "columns", len(s.columns))
	return s, nil
}

func (s *Store) load(data []byte) error {
	var h FileHeader
	if err := h.UnmarshalBinary(data); err != nil {
		return err
	}
	cd, ok := codec.ByName(h.Codec)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCodec, h.Codec)
	}
	s.opts.codec = cd
	s.id = h.ID
	s.rows = int64(h.Rows)

	off := HeaderSize
	for i := range int(h.Columns) {
		sec, n, err := decodeSection(data[off:], cd, h.Compression)
		if err != nil {
			return fmt.Errorf("column %d: %w", i, err)
		}
		off += n
		if sec.rows != int(h.Rows) {
			return fmt.Errorf("%w: column %q has %d rows, table has %d", ErrCorrupt, sec.name, sec.rows, h.Rows)
		}

		rows, err := splitRows(sec.values, sec.desc.Kind, sec.rows)
		if err != nil {
			return fmt.Errorf("column %q: %w", sec.name, err)
		}
		col := newColumn(sec.name, len(s.columns), sec.desc)
		col.vec = &encodedVector{k: sec.desc.Kind, rows: rows}
		col.padded = sec.padded
		s.columns = append(s.columns, col)
		s.byName[col.name] = col
	}
	if off != len(data) {
		return fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, len(data)-off)
	}
	return nil
}

// Flush writes a new immutable version of the table and then points the
// table at it. It returns the bytes written.
func (s *Store) Flush(ctx context.Context) (int64, error) {
	switch {
	case s.closed:
		return 0, ErrClosed
	case s.bs == nil:
		return 0, ErrNoBlobStore
	case s.opts.readOnly:
		return 0, ErrReadOnly
	}
	for _, col := range s.columns {
		if col.Len() != s.rows {
			return 0, columnErr("flush", col.name,
				fmt.Errorf("%w: %d values for %d rows", ErrRowMismatch, col.Len(), s.rows))
		}
	}

	start := time.Now()
	sections, err := s.encodeColumns(ctx)
	if err != nil {
		return 0, err
	}

	h := FileHeader{
		Magic:       FormatMagic,
		Version:     FormatVersion,
		Compression: s.opts.compression,
		Rows:        uint64(s.rows),
		Columns:     uint32(len(s.columns)),
		Codec:       s.opts.codec.Name(),
		ID:          s.id,
	}
	for _, col := range s.columns {
		if !col.padded.IsEmpty() {
			h.Flags |= FlagPadded
		}
	}
	header, err := h.MarshalBinary()
	if err != nil {
		return 0, err
	}

	next := s.version + 1
	blobName := VersionName(s.name, next)
	written, err := s.writeBlob(ctx, blobName, append([][]byte{header}, sections...))
	if err != nil {
		return 0, fmt.Errorf("colstore: write %s: %w", blobName, err)
	}

	if err := s.bs.Put(ctx, PointerName(s.name), []byte(blobName)); err != nil {
		_ = s.bs.Delete(ctx, blobName)
		return 0, fmt.Errorf("colstore: commit %s: %w", blobName, err)
	}

	if s.version > 0 {
		prev := VersionName(s.name, s.version)
		if err := s.bs.Delete(ctx, prev); err != nil {
			s.logger.Warn("failed to delete previous version", "blob", prev, "error", err)
		}
	}
	s.version = next

	s.logger.Info("table flushed",
		"version", next,
		"rows", s.rows,
		"columns", len(s.columns),
		"bytes", written,
		"compression", s.opts.compression.String(),
		"duration", time.Since(start),
	)
	return written, nil
}

func (s *Store) encodeColumns(ctx context.Context) ([][]byte, error) {
	sections := make([][]byte, len(s.columns))
	g, gctx := errgroup.WithContext(ctx)
	for i, col := range s.columns {
		g.Go(func() error {
			if err := s.rc.AcquireWorker(gctx); err != nil {
				return err
			}
			defer s.rc.ReleaseWorker()

			values, err := col.vec.encode(s.opts.codec)
			if err != nil {
				return columnErr("encode", col.name, err)
			}
			sec, err := encodeSection(section{
				name:   col.name,
				desc:   col.desc,
				padded: col.padded,
				rows:   col.vec.Len(),
				values: values,
			}, s.opts.codec, s.opts.compression)
			if err != nil {
				return columnErr("encode", col.name, err)
			}
			sections[i] = sec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sections, nil
}

func (s *Store) writeBlob(ctx context.Context, name string, parts [][]byte) (int64, error) {
	w, err := s.bs.Create(ctx, name)
	if err != nil {
		return 0, err
	}

	var written int64
	for _, p := range parts {
		for len(p) > 0 {
			chunk := p[:min(len(p), writeChunkSize)]
			if err := s.rc.WaitWrite(ctx, len(chunk)); err != nil {
				_ = blobstore.Abort(ctx, s.bs, name, w)
				return written, err
			}
			n, err := w.Write(chunk)
			written += int64(n)
			if err != nil {
				_ = blobstore.Abort(ctx, s.bs, name, w)
				return written, err
			}
			p = p[n:]
		}
	}
	if err := w.Sync(); err != nil {
		_ = blobstore.Abort(ctx, s.bs, name, w)
		return written, err
	}
	return written, w.Close()
}

package colstore

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/google/uuid"
	"github.com/hupe1980/tabiter/codec"
)

const (
	// FormatMagic identifies table blobs (ASCII: "TAB0").
	FormatMagic uint32 = 0x54414230

	// FormatVersion is the current table format version.
	FormatVersion uint32 = 1

	// HeaderSize is the size of the file header in bytes.
	HeaderSize = 64

	// FlagPadded marks tables where at least one column has zero-filled rows.
	FlagPadded uint32 = 1 << 0

	codecNameSize = 8
)

// FileHeader is the 64-byte header at the start of every table blob.
//
// Layout (little-endian):
//
//	[0:4]   magic
//	[4:8]   version
//	[8:12]  flags
//	[12]    compression
//	[16:24] row count
//	[24:28] column count
//	[28:36] codec name, zero padded
//	[36:52] table UUID
//	[56:60] CRC32 of bytes [0:56]
type FileHeader struct {
	Magic       uint32
	Version     uint32
	Flags       uint32
	Compression Compression
	Rows        uint64
	Columns     uint32
	Codec       string
	ID          uuid.UUID
	Checksum    uint32
}

// MarshalBinary encodes the header and fills in its checksum.
func (h *FileHeader) MarshalBinary() ([]byte, error) {
	if len(h.Codec) > codecNameSize {
		return nil, fmt.Errorf("colstore: codec name %q too long", h.Codec)
	}
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint32(buf[4:8], h.Version)
	binary.LittleEndian.PutUint32(buf[8:12], h.Flags)
	buf[12] = byte(h.Compression)
	binary.LittleEndian.PutUint64(buf[16:24], h.Rows)
	binary.LittleEndian.PutUint32(buf[24:28], h.Columns)
	copy(buf[28:36], h.Codec)
	copy(buf[36:52], h.ID[:])

	h.Checksum = crc32.ChecksumIEEE(buf[:56])
	binary.LittleEndian.PutUint32(buf[56:60], h.Checksum)
	return buf, nil
}

// UnmarshalBinary decodes and validates a header.
func (h *FileHeader) UnmarshalBinary(buf []byte) error {
	if len(buf) < HeaderSize {
		return ErrCorrupt
	}
	h.Magic = binary.LittleEndian.Uint32(buf[0:4])
	if h.Magic != FormatMagic {
		return ErrInvalidMagic
	}
	h.Checksum = binary.LittleEndian.Uint32(buf[56:60])
	if h.Checksum != crc32.ChecksumIEEE(buf[:56]) {
		return ErrCorrupt
	}

	h.Version = binary.LittleEndian.Uint32(buf[4:8])
	if h.Version > FormatVersion {
		return ErrUnsupportedVersion
	}
	h.Flags = binary.LittleEndian.Uint32(buf[8:12])
	h.Compression = Compression(buf[12])
	h.Rows = binary.LittleEndian.Uint64(buf[16:24])
	h.Columns = binary.LittleEndian.Uint32(buf[24:28])
	h.Codec = string(bytes.TrimRight(buf[28:36], "\x00"))
	copy(h.ID[:], buf[36:52])
	return nil
}

// section is the persisted form of one column:
//
//	[bodyLen u32]
//	body: [nameLen u16][name][descLen u32][descriptor][bitmapLen u32][padded bitmap][rows u32][value block]
//	[CRC32 of body u32]
type section struct {
	name   string
	desc   Descriptor
	padded *roaring.Bitmap
	rows   int
	values []byte // raw, uncompressed
}

func encodeSection(s section, cd codec.Codec, comp Compression) ([]byte, error) {
	desc, err := cd.Marshal(s.desc)
	if err != nil {
		return nil, err
	}
	bitmap, err := s.padded.ToBytes()
	if err != nil {
		return nil, err
	}

	body := make([]byte, 0, 2+len(s.name)+8+len(desc)+len(bitmap)+8+len(s.values))
	body = binary.LittleEndian.AppendUint16(body, uint16(len(s.name)))
	body = append(body, s.name...)
	body = binary.LittleEndian.AppendUint32(body, uint32(len(desc)))
	body = append(body, desc...)
	body = binary.LittleEndian.AppendUint32(body, uint32(len(bitmap)))
	body = append(body, bitmap...)
	body = binary.LittleEndian.AppendUint32(body, uint32(s.rows))
	if body, err = compressBlock(body, s.values, comp); err != nil {
		return nil, err
	}

	out := make([]byte, 0, 8+len(body))
	out = binary.LittleEndian.AppendUint32(out, uint32(len(body)))
	out = append(out, body...)
	return binary.LittleEndian.AppendUint32(out, crc32.ChecksumIEEE(body)), nil
}

// decodeSection parses the section at the start of buf and returns the bytes consumed.
func decodeSection(buf []byte, cd codec.Codec, comp Compression) (section, int, error) {
	var s section
	if len(buf) < 4 {
		return s, 0, ErrCorrupt
	}
	bodyLen := int(binary.LittleEndian.Uint32(buf))
	if len(buf) < 8+bodyLen {
		return s, 0, ErrCorrupt
	}
	body := buf[4 : 4+bodyLen]
	if binary.LittleEndian.Uint32(buf[4+bodyLen:]) != crc32.ChecksumIEEE(body) {
		return s, 0, ErrCorrupt
	}

	r := sectionReader{buf: body}
	s.name = string(r.next(int(r.u16())))
	desc := r.next(int(r.u32()))
	bitmap := r.next(int(r.u32()))
	s.rows = int(r.u32())
	if r.err != nil {
		return s, 0, r.err
	}

	if err := cd.Unmarshal(desc, &s.desc); err != nil {
		return s, 0, fmt.Errorf("%w: descriptor of %q: %v", ErrCorrupt, s.name, err)
	}
	s.padded = roaring.New()
	if len(bitmap) > 0 {
		if _, err := s.padded.FromBuffer(bytes.Clone(bitmap)); err != nil {
			return s, 0, fmt.Errorf("%w: padded rows of %q: %v", ErrCorrupt, s.name, err)
		}
	}

	values, n, err := decompressBlock(body[r.off:], comp)
	if err != nil {
		return s, 0, fmt.Errorf("%w: values of %q: %v", ErrCorrupt, s.name, err)
	}
	if r.off+n != len(body) {
		return s, 0, ErrCorrupt
	}
	s.values = values
	return s, 8 + bodyLen, nil
}

type sectionReader struct {
	buf []byte
	off int
	err error
}

func (r *sectionReader) next(n int) []byte {
	if r.err != nil || n < 0 || r.off+n > len(r.buf) {
		r.err = ErrCorrupt
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

func (r *sectionReader) u16() uint16 {
	b := r.next(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *sectionReader) u32() uint32 {
	b := r.next(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

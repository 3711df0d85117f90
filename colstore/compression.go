package colstore

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the algorithm applied to column value blocks on flush.
type Compression uint8

const (
	// CompressionNone stores value blocks as-is.
	CompressionNone Compression = 0
	// CompressionLZ4 favours encode speed.
	CompressionLZ4 Compression = 1
	// CompressionZSTD favours ratio. Default.
	CompressionZSTD Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// ParseCompression maps "none", "lz4" and "zstd" to a Compression.
func ParseCompression(s string) (Compression, error) {
	switch s {
	case "none", "":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZSTD, nil
	default:
		return 0, fmt.Errorf("colstore: unknown compression %q", s)
	}
}

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// Block layout: [rawSize u32][storedSize u32][data]. storedSize 0 means data is raw.
const blockHeaderSize = 8

var errBlockTruncated = errors.New("colstore: value block truncated")

// compressBlock appends the encoded block for data to dst.
// Blocks that do not shrink below 90% are stored raw.
func compressBlock(dst, data []byte, c Compression) ([]byte, error) {
	var packed []byte
	switch c {
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, err
		}
		packed = buf[:n]
	case CompressionZSTD:
		if len(data) > 0 {
			enc := getZstdEncoder()
			packed = enc.EncodeAll(data, nil)
			zstdEncoderPool.Put(enc)
		}
	case CompressionNone:
	default:
		return nil, fmt.Errorf("colstore: unsupported compression %d", c)
	}

	var hdr [blockHeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[0:], uint32(len(data)))
	if len(packed) == 0 || float64(len(packed)) > float64(len(data))*0.9 {
		dst = append(dst, hdr[:]...)
		return append(dst, data...), nil
	}
	binary.LittleEndian.PutUint32(hdr[4:], uint32(len(packed)))
	dst = append(dst, hdr[:]...)
	return append(dst, packed...), nil
}

// decompressBlock decodes one block and returns the raw bytes and the bytes consumed.
func decompressBlock(block []byte, c Compression) ([]byte, int, error) {
	if len(block) < blockHeaderSize {
		return nil, 0, errBlockTruncated
	}
	rawSize := int(binary.LittleEndian.Uint32(block[0:]))
	storedSize := int(binary.LittleEndian.Uint32(block[4:]))

	if storedSize == 0 {
		if len(block) < blockHeaderSize+rawSize {
			return nil, 0, errBlockTruncated
		}
		return block[blockHeaderSize : blockHeaderSize+rawSize], blockHeaderSize + rawSize, nil
	}
	if len(block) < blockHeaderSize+storedSize {
		return nil, 0, errBlockTruncated
	}
	packed := block[blockHeaderSize : blockHeaderSize+storedSize]
	raw := make([]byte, rawSize)

	switch c {
	case CompressionLZ4:
		n, err := lz4.UncompressBlock(packed, raw)
		if err != nil {
			return nil, 0, err
		}
		if n != rawSize {
			return nil, 0, errors.New("colstore: lz4 size mismatch")
		}
	case CompressionZSTD:
		dec := getZstdDecoder()
		out, err := dec.DecodeAll(packed, raw[:0])
		zstdDecoderPool.Put(dec)
		if err != nil {
			return nil, 0, err
		}
		if len(out) != rawSize {
			return nil, 0, errors.New("colstore: zstd size mismatch")
		}
		raw = out
	default:
		return nil, 0, fmt.Errorf("colstore: unsupported compression %d", c)
	}
	return raw, blockHeaderSize + storedSize, nil
}

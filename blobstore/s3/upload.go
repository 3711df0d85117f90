package s3

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// UploadConfig configures multipart uploads of table versions.
type UploadConfig struct {
	// PartSize is the part size for multipart uploads. Default: 8MB.
	PartSize int64

	// Concurrency is the number of concurrent part uploads. Default: 5.
	Concurrency int

	// EnableChecksum requests CRC32C validation from S3. Default: true.
	EnableChecksum bool

	// LeavePartsOnError keeps uploaded parts when an upload fails.
	LeavePartsOnError bool
}

// DefaultUploadConfig returns the default upload settings.
func DefaultUploadConfig() UploadConfig {
	return UploadConfig{
		PartSize:       8 * 1024 * 1024,
		Concurrency:    5,
		EnableChecksum: true,
	}
}

func newUploader(client Client, cfg UploadConfig) *manager.Uploader {
	return manager.NewUploader(client, func(u *manager.Uploader) {
		if cfg.PartSize > 0 {
			u.PartSize = cfg.PartSize
		}
		if cfg.Concurrency > 0 {
			u.Concurrency = cfg.Concurrency
		}
		u.LeavePartsOnError = cfg.LeavePartsOnError
	})
}

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

var errUploadAborted = errors.New("s3: upload aborted")

// computeCRC32C returns the base64 big-endian CRC32C S3 expects.
func computeCRC32C(data []byte) string {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], crc32.Checksum(data, castagnoli))
	return base64.StdEncoding.EncodeToString(b[:])
}

// streamingBlob pipes writes into a background multipart upload.
type streamingBlob struct {
	pw   *io.PipeWriter
	done chan error

	mu       sync.Mutex
	closed   bool
	closeErr error
}

func newStreamingBlob(ctx context.Context, uploader *manager.Uploader, bucket, key string, checksum bool) *streamingBlob {
	pr, pw := io.Pipe()
	b := &streamingBlob{pw: pw, done: make(chan error, 1)}

	input := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   pr,
	}
	if checksum {
		input.ChecksumAlgorithm = types.ChecksumAlgorithmCrc32c
	}

	go func() {
		_, err := uploader.Upload(ctx, input)
		_ = pr.CloseWithError(err)
		b.done <- err
	}()
	return b
}

func (b *streamingBlob) Write(p []byte) (int, error) {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return 0, io.ErrClosedPipe
	}
	return b.pw.Write(p)
}

// Close finishes the upload; the object exists once Close returns nil.
func (b *streamingBlob) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return b.closeErr
	}
	b.closed = true
	if err := b.pw.Close(); err != nil {
		b.closeErr = err
		return err
	}
	b.closeErr = <-b.done
	return b.closeErr
}

// Abort cancels the upload; the object is not created.
func (b *streamingBlob) Abort() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	b.closeErr = errUploadAborted
	_ = b.pw.CloseWithError(errUploadAborted)
	<-b.done
	return nil
}

// Sync is a no-op: data is committed on Close.
func (b *streamingBlob) Sync() error { return nil }

func putObject(ctx context.Context, client Client, bucket, key string, data []byte, checksum bool) error {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if checksum {
		input.ChecksumCRC32C = aws.String(computeCRC32C(data))
	}
	_, err := client.PutObject(ctx, input)
	return err
}

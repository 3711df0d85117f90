// Package blobstore provides the storage locations tables are persisted to.
//
// A table flush writes one immutable blob per version and then atomically
// replaces a small pointer blob (name + [PointerSuffix]) naming the current
// version. Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: local directory; reads are memory mapped
//   - MemoryStore: in-process map, for tests and scratch tables
//   - s3.Store: Amazon S3 with range reads and multipart uploads
//   - minio.Store: MinIO and other S3-compatible services
//
// # Custom Implementations
//
//	type BlobStore interface {
//	    Open(ctx, name) (Blob, error)
//	    Create(ctx, name) (WritableBlob, error)
//	    Put(ctx, name, data) error
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
package blobstore

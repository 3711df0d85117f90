// Package s3 stores tables in Amazon S3.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("tables/"),
//	    s3.WithRegion("eu-central-1"),
//	)
//
//	tbl, err := tabiter.Open(ctx, "events", tabiter.WithBlobStore(store))
//
// S3 has no compare-and-swap, so two writers flushing the same table can
// overwrite each other's pointer blob. Wrap the store in a [DDBCommitStore]
// to commit pointers through DynamoDB conditional writes instead.
//
// # Features
//
//   - Range reads for partial fetches
//   - Multipart streaming uploads for large table versions
//   - CRC32C checksums on small atomic writes
package s3

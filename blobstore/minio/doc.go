// Package minio stores tables in MinIO or any other S3-compatible service
// (Ceph, Garage, SeaweedFS) through the MinIO client.
//
//	store, err := minio.New("localhost:9000", "tables",
//	    minio.WithStaticCredentials("minioadmin", "minioadmin"),
//	    minio.WithPrefix("prod/"),
//	)
//	if err := store.EnsureBucket(ctx); err != nil {
//	    return err
//	}
//	tbl, err := tabiter.Open(ctx, "events", tabiter.WithBlobStore(store))
//
// Pointer blobs are written with a single PutObject, which S3-compatible
// services apply atomically per object.
package minio

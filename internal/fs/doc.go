// Package fs abstracts the filesystem calls made by the local blob store so
// tests can inject write, sync, close and rename failures.
//
// Production code uses [Default]; tests wrap it in a [FaultyFS]:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule(".tab", fs.Fault{FailAfterBytes: 64})
//	store := blobstore.NewLocalStore(dir, blobstore.WithFileSystem(ffs))
//
// The interfaces carry no context.Context: local file calls are not
// interruptible at the syscall level.
package fs

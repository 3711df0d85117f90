// Package resource bounds what a table may consume while it fills and flushes.
//
// A [Controller] tracks three budgets:
//
//   - Memory: bytes held by appended column values (non-blocking, fail-fast)
//   - Workers: concurrent column encoders during a flush
//   - Write rate: bytes per second written to the blob store during a flush
//
// Memory is reserved per appended value. A failed reservation returns
// [ErrMemoryLimitExceeded] immediately; the caller decides what to do with the
// partially appended row.
//
//	rc := resource.NewController(resource.Limits{
//	    MemoryBytes:      64 << 20,
//	    EncodeWorkers:    4,
//	    FlushBytesPerSec: 32 << 20,
//	})
//
//	if err := rc.Reserve(n); err != nil {
//	    return err
//	}
//
// All methods handle a nil Controller gracefully; they become no-ops.
package resource

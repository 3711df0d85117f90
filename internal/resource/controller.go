package resource

import (
	"context"
	"errors"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrMemoryLimitExceeded is returned when a reservation would exceed the memory budget.
var ErrMemoryLimitExceeded = errors.New("memory limit exceeded")

// Limits configures a Controller.
type Limits struct {
	// MemoryBytes is the hard limit for appended column data.
	// If 0, usage is only tracked.
	MemoryBytes int64

	// EncodeWorkers is the maximum number of columns encoded concurrently.
	// If 0, defaults to 1.
	EncodeWorkers int64

	// FlushBytesPerSec throttles blob writes. If 0, unlimited.
	FlushBytesPerSec int64
}

// Controller enforces Limits.
type Controller struct {
	limits Limits

	memSem  *semaphore.Weighted // nil if unlimited
	memUsed atomic.Int64

	workers *semaphore.Weighted

	writeLimiter *rate.Limiter
}

// NewController creates a controller for the given limits.
func NewController(limits Limits) *Controller {
	if limits.EncodeWorkers <= 0 {
		limits.EncodeWorkers = 1
	}

	c := &Controller{
		limits:  limits,
		workers: semaphore.NewWeighted(limits.EncodeWorkers),
	}

	if limits.MemoryBytes > 0 {
		c.memSem = semaphore.NewWeighted(limits.MemoryBytes)
	}

	if limits.FlushBytesPerSec > 0 {
		c.writeLimiter = rate.NewLimiter(rate.Limit(limits.FlushBytesPerSec), int(limits.FlushBytesPerSec))
	}

	return c
}

// Reserve accounts for n bytes of column data.
// Non-blocking: returns ErrMemoryLimitExceeded if the budget is exhausted.
func (c *Controller) Reserve(n int64) error {
	if c == nil || n <= 0 {
		return nil
	}

	if c.memSem != nil && !c.memSem.TryAcquire(n) {
		return ErrMemoryLimitExceeded
	}

	c.memUsed.Add(n)
	return nil
}

// Release returns n previously reserved bytes.
func (c *Controller) Release(n int64) {
	if c == nil || n <= 0 {
		return
	}

	if c.memSem != nil {
		c.memSem.Release(n)
	}
	c.memUsed.Add(-n)
}

// InUse returns the reserved bytes.
func (c *Controller) InUse() int64 {
	if c == nil {
		return 0
	}
	return c.memUsed.Load()
}

// MemoryLimit returns the configured limit in bytes (0 if unlimited).
func (c *Controller) MemoryLimit() int64 {
	if c == nil {
		return 0
	}
	return c.limits.MemoryBytes
}

// AcquireWorker blocks until an encoder slot is free.
func (c *Controller) AcquireWorker(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.workers.Acquire(ctx, 1)
}

// ReleaseWorker frees an encoder slot.
func (c *Controller) ReleaseWorker() {
	if c == nil {
		return
	}
	c.workers.Release(1)
}

// TryAcquireWorker reserves an encoder slot without blocking.
func (c *Controller) TryAcquireWorker() bool {
	if c == nil {
		return true
	}
	return c.workers.TryAcquire(1)
}

// WaitWrite blocks until n bytes may be written.
// Requests larger than the limiter burst are split.
func (c *Controller) WaitWrite(ctx context.Context, n int) error {
	if c == nil || c.writeLimiter == nil {
		return nil
	}
	burst := c.writeLimiter.Burst()
	for n > 0 {
		chunk := min(n, burst)
		if err := c.writeLimiter.WaitN(ctx, chunk); err != nil {
			return err
		}
		n -= chunk
	}
	return nil
}

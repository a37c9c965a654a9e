package workers

import (
	"context"
	"os"
	"runtime"
	"strconv"
)

// EnvOverride names the environment variable that fixes the worker count.
const EnvOverride = "PIPELINE_WORKERS"

// Count returns the number of workers for a task type. It respects
// container CPU limits via GOMAXPROCS.
//
// The multiplier adjusts for task characteristics:
//   - 1.0 for CPU-bound tasks (a detection run)
//   - 2.0 for I/O-bound tasks
//
// limit caps the result; use 0 for no limit. PIPELINE_WORKERS overrides
// the calculation but is still capped by limit.
func Count(multiplier float64, limit int) int {
	if n, ok := Override(); ok {
		if limit > 0 && n > limit {
			return limit
		}
		return n
	}

	workers := int(float64(runtime.GOMAXPROCS(0)) * multiplier)
	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}
	return workers
}

// Override returns the PIPELINE_WORKERS value when it is a positive integer.
func Override() (int, bool) {
	v := os.Getenv(EnvOverride)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// ForCPU returns worker count for CPU-bound tasks (1 per CPU).
func ForCPU(limit int) int {
	return Count(1.0, limit)
}

// ForIO returns worker count for I/O-bound tasks (2 per CPU).
func ForIO(limit int) int {
	return Count(2.0, limit)
}

// Slots is a counting semaphore bounding how many runs execute at once.
type Slots struct {
	ch chan struct{}
}

// NewSlots returns n slots. n below 1 is treated as 1.
func NewSlots(n int) *Slots {
	if n < 1 {
		n = 1
	}
	return &Slots{ch: make(chan struct{}, n)}
}

// Acquire blocks until a slot is free or ctx is done.
func (s *Slots) Acquire(ctx context.Context) error {
	select {
	case s.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryAcquire takes a slot without blocking.
func (s *Slots) TryAcquire() bool {
	select {
	case s.ch <- struct{}{}:
		return true
	default:
		return false
	}
}

// Release frees a slot taken by Acquire or TryAcquire.
func (s *Slots) Release() {
	select {
	case <-s.ch:
	default:
		panic("workers: Release without Acquire")
	}
}

// Cap returns the number of slots.
func (s *Slots) Cap() int {
	return cap(s.ch)
}

// InUse returns the number of slots currently held.
func (s *Slots) InUse() int {
	return len(s.ch)
}

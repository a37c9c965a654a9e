package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"object-detection/internal/logging"
	"object-detection/internal/metrics"
	"object-detection/internal/pipeline"
	"object-detection/internal/workers"
)

// ErrRunInProgress is returned when the video already has an active run.
var ErrRunInProgress = errors.New("a run for this video is already in progress")

// Pipeline is the run being admitted.
type Pipeline interface {
	Run(ctx context.Context, job pipeline.Job) (*pipeline.Result, error)
}

// Hooks run while the per-video lock is held. Before failing aborts the
// run; After sees the pipeline's result and error.
type Hooks struct {
	Before func(ctx context.Context, job pipeline.Job) error
	After  func(ctx context.Context, job pipeline.Job, res *pipeline.Result, err error)
}

// Runner serialises runs per video id and bounds overall concurrency.
type Runner struct {
	pipeline Pipeline
	locker   Locker
	slots    *workers.Slots
	hooks    Hooks
}

// New returns a Runner with n worker slots. A nil locker uses a
// MemoryLocker.
func New(p Pipeline, locker Locker, n int, hooks Hooks) *Runner {
	if locker == nil {
		locker = NewMemoryLocker()
	}
	return &Runner{
		pipeline: p,
		locker:   locker,
		slots:    workers.NewSlots(n),
		hooks:    hooks,
	}
}

// Slots returns the number of runs that may execute concurrently.
func (r *Runner) Slots() int {
	return r.slots.Cap()
}

// Run admits and executes job. It returns ErrRunInProgress without waiting
// when the video is already being processed.
func (r *Runner) Run(ctx context.Context, job pipeline.Job) (*pipeline.Result, error) {
	lock, err := r.locker.TryLock(ctx, job.VideoID)
	if errors.Is(err, ErrLocked) {
		metrics.RunnerRejectionsTotal.WithLabelValues("in_progress").Inc()
		return nil, ErrRunInProgress
	}
	if err != nil {
		metrics.RunnerRejectionsTotal.WithLabelValues("lock_error").Inc()
		return nil, fmt.Errorf("lock video %s: %w", job.VideoID, err)
	}
	defer func() {
		// The run context may already be done; release with a fresh one.
		unlockCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := lock.Unlock(unlockCtx); err != nil {
			logging.Warn("failed to release run lock for %s: %v", job.VideoID, err)
		}
	}()

	metrics.RunnerWaiting.Inc()
	err = r.slots.Acquire(ctx)
	metrics.RunnerWaiting.Dec()
	if err != nil {
		metrics.RunnerRejectionsTotal.WithLabelValues("canceled").Inc()
		return nil, err
	}
	defer r.slots.Release()

	if r.hooks.Before != nil {
		if err := r.hooks.Before(ctx, job); err != nil {
			return nil, fmt.Errorf("prepare run for %s: %w", job.VideoID, err)
		}
	}

	res, err := r.pipeline.Run(ctx, job)

	if r.hooks.After != nil {
		r.hooks.After(ctx, job, res, err)
	}
	return res, err
}

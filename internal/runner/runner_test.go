package runner

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"object-detection/internal/pipeline"
)

// blockingPipeline parks every run until release is closed.
type blockingPipeline struct {
	started chan string
	release chan struct{}
	running int32
	peak    int32
}

func newBlockingPipeline() *blockingPipeline {
	return &blockingPipeline{started: make(chan string, 16), release: make(chan struct{})}
}

func (p *blockingPipeline) Run(ctx context.Context, job pipeline.Job) (*pipeline.Result, error) {
	n := atomic.AddInt32(&p.running, 1)
	defer atomic.AddInt32(&p.running, -1)
	for {
		peak := atomic.LoadInt32(&p.peak)
		if n <= peak || atomic.CompareAndSwapInt32(&p.peak, peak, n) {
			break
		}
	}

	p.started <- job.VideoID
	select {
	case <-p.release:
		return &pipeline.Result{VideoID: job.VideoID, State: pipeline.StateDone}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func waitStarted(t *testing.T, p *blockingPipeline) string {
	t.Helper()
	select {
	case id := <-p.started:
		return id
	case <-time.After(5 * time.Second):
		t.Fatal("run did not start")
		return ""
	}
}

func TestConcurrentRunsSameVideo(t *testing.T) {
	p := newBlockingPipeline()
	r := New(p, nil, 4, Hooks{})
	job := pipeline.Job{VideoID: "vid", SourcePath: "in.mp4"}

	first := make(chan error, 1)
	go func() {
		_, err := r.Run(context.Background(), job)
		first <- err
	}()
	waitStarted(t, p)

	if _, err := r.Run(context.Background(), job); !errors.Is(err, ErrRunInProgress) {
		t.Fatalf("second Run error = %v, want ErrRunInProgress", err)
	}

	close(p.release)
	if err := <-first; err != nil {
		t.Fatalf("first Run: %v", err)
	}

	// The lock is released once the first run returns.
	if _, err := r.Run(context.Background(), job); err != nil {
		t.Errorf("Run after release: %v", err)
	}
}

func TestConcurrentRunsRace(t *testing.T) {
	p := newBlockingPipeline()
	r := New(p, nil, 4, Hooks{})
	job := pipeline.Job{VideoID: "vid"}

	const callers = 8
	errs := make(chan error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Run(context.Background(), job)
			errs <- err
		}()
	}

	waitStarted(t, p)
	// Everyone but the winner must have been rejected before we release.
	deadline := time.Now().Add(5 * time.Second)
	for len(errs) < callers-1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	close(p.release)
	wg.Wait()
	close(errs)

	var ok, rejected int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrRunInProgress):
			rejected++
		default:
			t.Errorf("unexpected error %v", err)
		}
	}
	if ok != 1 || rejected != callers-1 {
		t.Errorf("ok=%d rejected=%d, want 1 and %d", ok, rejected, callers-1)
	}
}

func TestDifferentVideosRunInParallel(t *testing.T) {
	p := newBlockingPipeline()
	r := New(p, nil, 2, Hooks{})

	var wg sync.WaitGroup
	for _, id := range []string{"a", "b"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if _, err := r.Run(context.Background(), pipeline.Job{VideoID: id}); err != nil {
				t.Errorf("Run(%s): %v", id, err)
			}
		}(id)
	}

	got := map[string]bool{waitStarted(t, p): true, waitStarted(t, p): true}
	if !got["a"] || !got["b"] {
		t.Errorf("started = %v", got)
	}
	close(p.release)
	wg.Wait()
}

func TestSlotsBoundConcurrency(t *testing.T) {
	p := newBlockingPipeline()
	r := New(p, nil, 1, Hooks{})
	if r.Slots() != 1 {
		t.Fatalf("Slots() = %d", r.Slots())
	}

	var wg sync.WaitGroup
	for _, id := range []string{"a", "b", "c"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, _ = r.Run(context.Background(), pipeline.Job{VideoID: id})
		}(id)
	}

	waitStarted(t, p)
	select {
	case id := <-p.started:
		t.Fatalf("run %s started while the only slot was held", id)
	case <-time.After(50 * time.Millisecond):
	}
	close(p.release)
	wg.Wait()

	if p.peak != 1 {
		t.Errorf("peak concurrency = %d, want 1", p.peak)
	}
}

func TestWaitingForSlotCanceled(t *testing.T) {
	p := newBlockingPipeline()
	locker := NewMemoryLocker()
	r := New(p, locker, 1, Hooks{})

	go func() { _, _ = r.Run(context.Background(), pipeline.Job{VideoID: "a"}) }()
	waitStarted(t, p)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := r.Run(ctx, pipeline.Job{VideoID: "b"}); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run error = %v, want deadline exceeded", err)
	}
	if locker.isHeld("b") {
		t.Error("lock for b not released after giving up")
	}
	close(p.release)
}

func TestHooks(t *testing.T) {
	p := newBlockingPipeline()
	close(p.release)

	var calls []string
	var afterRes *pipeline.Result
	r := New(p, nil, 1, Hooks{
		Before: func(_ context.Context, job pipeline.Job) error {
			calls = append(calls, "before:"+job.VideoID)
			return nil
		},
		After: func(_ context.Context, job pipeline.Job, res *pipeline.Result, err error) {
			calls = append(calls, "after:"+job.VideoID)
			afterRes = res
		},
	})

	if _, err := r.Run(context.Background(), pipeline.Job{VideoID: "v"}); err != nil {
		t.Fatal(err)
	}
	<-p.started
	if len(calls) != 2 || calls[0] != "before:v" || calls[1] != "after:v" {
		t.Errorf("calls = %v", calls)
	}
	if afterRes == nil || afterRes.VideoID != "v" {
		t.Errorf("After saw %+v", afterRes)
	}
}

func TestBeforeHookFailureAborts(t *testing.T) {
	p := newBlockingPipeline()
	cause := errors.New("db down")
	locker := NewMemoryLocker()
	r := New(p, locker, 1, Hooks{
		Before: func(context.Context, pipeline.Job) error { return cause },
	})

	if _, err := r.Run(context.Background(), pipeline.Job{VideoID: "v"}); !errors.Is(err, cause) {
		t.Errorf("Run error = %v, want %v", err, cause)
	}
	if len(p.started) != 0 {
		t.Error("pipeline ran despite Before failure")
	}
	if locker.isHeld("v") {
		t.Error("lock not released")
	}
}

type brokenLocker struct{}

func (brokenLocker) TryLock(context.Context, string) (Lock, error) {
	return nil, errors.New("connection refused")
}

func TestLockError(t *testing.T) {
	r := New(newBlockingPipeline(), brokenLocker{}, 1, Hooks{})
	_, err := r.Run(context.Background(), pipeline.Job{VideoID: "v"})
	if err == nil || errors.Is(err, ErrRunInProgress) {
		t.Errorf("Run error = %v, want lock error", err)
	}
}

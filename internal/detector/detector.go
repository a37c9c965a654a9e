package detector

import (
	"context"
	"fmt"
	"time"

	"object-detection/internal/metrics"
	"object-detection/internal/vision"
)

// Detector runs an object-detection model on single frames. Implementations
// are constructed once per process and must be safe to call from concurrent
// pipeline runs.
type Detector interface {
	// Name identifies the backend, e.g. "yolo" or "http".
	Name() string

	// Detect returns the raw detections for one frame. Order is not
	// significant. Errors are *Failure.
	Detect(ctx context.Context, frame vision.Frame) ([]vision.Detection, error)

	// Close releases model resources.
	Close() error
}

// Failure reports that the model could not produce detections for a frame.
type Failure struct {
	Frame   int
	Backend string
	Err     error
}

func (e *Failure) Error() string {
	return fmt.Sprintf("detector %s failed on frame %d: %v", e.Backend, e.Frame, e.Err)
}

func (e *Failure) Unwrap() error {
	return e.Err
}

// Fail wraps err as a Failure for the given frame. A nil err yields nil.
func Fail(backend string, frame int, err error) error {
	if err == nil {
		return nil
	}
	return &Failure{Frame: frame, Backend: backend, Err: err}
}

type instrumented struct {
	Detector
}

// Instrument records inference latency and detection counts for d.
func Instrument(d Detector) Detector {
	if _, ok := d.(*instrumented); ok {
		return d
	}
	return &instrumented{Detector: d}
}

func (i *instrumented) Detect(ctx context.Context, frame vision.Frame) ([]vision.Detection, error) {
	start := time.Now()
	dets, err := i.Detector.Detect(ctx, frame)
	metrics.DetectorInferenceDuration.WithLabelValues(i.Name()).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	for _, d := range dets {
		metrics.DetectorDetectionsTotal.WithLabelValues(classLabel(d.ClassID)).Inc()
	}
	return dets, nil
}

// otherClassLabel is the metric label for ids outside the class table.
const otherClassLabel = "other"

func classLabel(id int) string {
	if id < 0 || id >= vision.NumClasses {
		return otherClassLabel
	}
	return vision.ClassName(id)
}

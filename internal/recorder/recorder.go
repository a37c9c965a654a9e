package recorder

import (
	"context"
	"fmt"

	"object-detection/internal/database"
	"object-detection/internal/vision"
)

// Store is the persistence side of the recorder.
type Store interface {
	ReplaceDetections(ctx context.Context, videoID string, dets []database.Detection) (int, error)
}

// Recorder accumulates detection records for one video. It is owned by a
// single run and is not safe for concurrent use.
type Recorder struct {
	videoID string
	store   Store
	buf     []database.Detection
	flushed bool
}

// New returns an empty recorder for videoID.
func New(videoID string, store Store) *Recorder {
	return &Recorder{videoID: videoID, store: store}
}

// Add appends detections observed on frame, tagging each with the frame
// index. Order is preserved.
func (r *Recorder) Add(frame int, dets ...vision.Detection) {
	for _, d := range dets {
		r.buf = append(r.buf, database.NewDetection(r.videoID, frame, d))
	}
}

// Len returns the number of buffered records.
func (r *Recorder) Len() int {
	return len(r.buf)
}

func (r *Recorder) records() []database.Detection {
	out := make([]database.Detection, len(r.buf))
	copy(out, r.buf)
	return out
}

// Flush writes all buffered records with one store call and returns the
// number persisted. An empty buffer makes no store call. A recorder can be
// flushed once.
func (r *Recorder) Flush(ctx context.Context) (int, error) {
	if r.flushed {
		return 0, fmt.Errorf("recorder for %s already flushed", r.videoID)
	}
	r.flushed = true

	if len(r.buf) == 0 {
		return 0, nil
	}
	if r.store == nil {
		return 0, fmt.Errorf("no detection store configured")
	}

	n, err := r.store.ReplaceDetections(ctx, r.videoID, r.buf)
	if err != nil {
		return 0, fmt.Errorf("persist %d detections for %s: %w", len(r.buf), r.videoID, err)
	}
	return n, nil
}

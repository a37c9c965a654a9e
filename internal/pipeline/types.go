package pipeline

import (
	"context"
	"image"

	"object-detection/internal/recorder"
	"object-detection/internal/vision"
)

// FrameStream is a finite, single-pass sequence of decoded frames.
// Next returns io.EOF once the stream is exhausted, and keeps doing so.
type FrameStream interface {
	Info() vision.StreamInfo
	Next(ctx context.Context) (vision.Frame, error)
	Close() error
}

// SourceOpener opens a video file for decoding. It fails when the container
// cannot be parsed or contains no frames.
type SourceOpener interface {
	Open(ctx context.Context, path string) (FrameStream, error)
}

// FrameSink appends frames to a video container. Frames must be written in
// increasing index order. Close finalizes the container.
type FrameSink interface {
	Write(frame vision.Frame) error
	Close() error
}

// SinkOpener creates a sink at path with the geometry and rate of info.
type SinkOpener interface {
	Create(path string, info vision.StreamInfo, codec string) (FrameSink, error)
}

// Annotator draws detections onto a frame in place and reports how many
// boxes it drew.
type Annotator interface {
	Annotate(img *image.RGBA, dets []vision.Detection) int
}

// Store persists the detections of a run. ClearDetections is used when a
// run reaches persisting with nothing to record, so records of an earlier
// run do not outlive it.
type Store interface {
	recorder.Store
	ClearDetections(ctx context.Context, videoID string) (int64, error)
}

// FilteredAnnotator is implemented by annotators that apply their own class
// filter. New rejects one whose filter differs from the recording filter.
type FilteredAnnotator interface {
	Annotator
	ClassFilter() vision.ClassFilter
}

// Transcoder re-encodes in to a browser playable out. It must not return
// before the work has finished.
type Transcoder interface {
	Transcode(ctx context.Context, in, out string) error
}

// Observer receives progress notifications from a run. OnFrame is called
// after the frame was written; implementations that keep the image must
// copy it.
type Observer interface {
	OnState(videoID string, s State)
	OnFrame(videoID string, f vision.Frame, drawn int)
}

// Job identifies the video to process.
type Job struct {
	VideoID    string
	SourcePath string
}

// Result describes a run that reached Done.
type Result struct {
	VideoID string `json:"video_id"`

	// ResultPath is the playable artifact. It is the intermediate file when
	// the transcode failed.
	ResultPath string `json:"video_path"`

	// IntermediatePath is set while the pre-transcode file still exists.
	IntermediatePath string `json:"intermediate_path,omitempty"`

	Info            vision.StreamInfo `json:"info"`
	FramesProcessed int               `json:"frames_processed"`
	FramesFailed    int               `json:"frames_failed"`
	DetectionCount  int               `json:"detection_count"`
	Degraded        bool              `json:"degraded"`
	Warnings        []string          `json:"warnings,omitempty"`
	State           State             `json:"state"`
}

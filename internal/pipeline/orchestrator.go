package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"object-detection/internal/detector"
	"object-detection/internal/logging"
	"object-detection/internal/metrics"
	"object-detection/internal/recorder"
	"object-detection/internal/vision"
)

// DefaultCodec is the fourcc used for the intermediate file.
const DefaultCodec = "mp4v"

// Options parameterise every run of an Orchestrator.
type Options struct {
	// ResultDir receives <id>_raw.mp4 and <id>.mp4.
	ResultDir string

	// Codec is the fourcc for the intermediate file.
	Codec string

	// KeepIntermediate keeps <id>_raw.mp4 after a successful transcode.
	KeepIntermediate bool

	// ClassFilter selects which detections are drawn and recorded.
	ClassFilter vision.ClassFilter
}

// Deps are the collaborators of an Orchestrator. All are required except
// Observers.
type Deps struct {
	Source     SourceOpener
	Sink       SinkOpener
	Detector   detector.Detector
	Annotator  Annotator
	Transcoder Transcoder
	Store      Store
	Observers  []Observer
}

// Orchestrator runs videos through the detection and transcode pipeline.
// A single Orchestrator may run several videos concurrently; admission per
// video id is the caller's concern.
type Orchestrator struct {
	deps Deps
	opts Options
}

// New validates deps and fills in option defaults.
func New(deps Deps, opts Options) (*Orchestrator, error) {
	switch {
	case deps.Source == nil:
		return nil, errors.New("pipeline: frame source is required")
	case deps.Sink == nil:
		return nil, errors.New("pipeline: frame sink is required")
	case deps.Detector == nil:
		return nil, errors.New("pipeline: detector is required")
	case deps.Annotator == nil:
		return nil, errors.New("pipeline: annotator is required")
	case deps.Transcoder == nil:
		return nil, errors.New("pipeline: transcoder is required")
	case deps.Store == nil:
		return nil, errors.New("pipeline: detection store is required")
	}
	if opts.ResultDir == "" {
		return nil, errors.New("pipeline: result directory is required")
	}
	if opts.Codec == "" {
		opts.Codec = DefaultCodec
	}
	if len(opts.ClassFilter) == 0 {
		opts.ClassFilter = vision.DefaultClassFilter()
	}
	if fa, ok := deps.Annotator.(FilteredAnnotator); ok && !fa.ClassFilter().Equal(opts.ClassFilter) {
		return nil, fmt.Errorf("pipeline: annotator filter %q differs from class filter %q",
			fa.ClassFilter(), opts.ClassFilter)
	}
	return &Orchestrator{deps: deps, opts: opts}, nil
}

// IntermediatePath returns the pre-transcode file for a video id.
func (o *Orchestrator) IntermediatePath(videoID string) string {
	return filepath.Join(o.opts.ResultDir, videoID+"_raw.mp4")
}

// ResultPath returns the final artifact path for a video id.
func (o *Orchestrator) ResultPath(videoID string) string {
	return filepath.Join(o.opts.ResultDir, videoID+".mp4")
}

// run holds the per-invocation state. It is never shared.
type run struct {
	o     *Orchestrator
	job   Job
	log   *logrus.Entry
	state State
	res   Result
}

func (r *run) transition(to State) {
	if !CanTransition(r.state, to) {
		r.log.Warnf("Illegal state transition %s -> %s", r.state, to)
	}
	r.log.WithField("state", to.Label()).Debugf("State %s -> %s", r.state, to)
	r.state = to
	r.res.State = to
	metrics.PipelineStateTransitions.WithLabelValues(to.Label()).Inc()
	for _, obs := range r.o.deps.Observers {
		obs.OnState(r.job.VideoID, to)
	}
}

func (r *run) fail(kind Kind, frame int, err error) error {
	metrics.PipelineErrorsTotal.WithLabelValues(kind.Label()).Inc()
	r.transition(StateErrored)
	return newError(kind, r.job.VideoID, frame, err)
}

func (r *run) canceled(err error) error {
	r.transition(StateErrored)
	return fmt.Errorf("run for video %s canceled: %w", r.job.VideoID, err)
}

func (r *run) degrade(kind Kind, err error) {
	metrics.PipelineErrorsTotal.WithLabelValues(kind.Label()).Inc()
	r.log.Warnf("%s: %v", kind, err)
	r.res.Degraded = true
	r.res.Warnings = append(r.res.Warnings, newError(kind, r.job.VideoID, -1, err).Error())
}

// Run processes one video end to end. It returns a Result when the run
// reached Done, possibly degraded, and an error when it did not. All
// decode and encode handles are released before Run returns.
func (o *Orchestrator) Run(ctx context.Context, job Job) (*Result, error) {
	if job.VideoID == "" {
		return nil, errors.New("pipeline: video id is required")
	}

	start := time.Now()
	metrics.PipelineRunsInProgress.Inc()
	defer metrics.PipelineRunsInProgress.Dec()

	r := &run{
		o:   o,
		job: job,
		log: logging.WithVideo(job.VideoID),
		res: Result{VideoID: job.VideoID, State: StateIdle},
	}

	err := r.execute(ctx)
	metrics.PipelineRunDuration.Observe(time.Since(start).Seconds())

	outcome := "done"
	switch {
	case err != nil && ctx.Err() != nil && KindOf(err) == KindUnknown:
		outcome = "canceled"
	case err != nil:
		outcome = "failed"
	case r.res.Degraded:
		outcome = "degraded"
	}
	metrics.PipelineRunsTotal.WithLabelValues(outcome).Inc()

	if err != nil {
		r.log.Errorf("Run failed after %v: %v", time.Since(start).Round(time.Millisecond), err)
		return nil, err
	}

	r.log.Infof("Run finished in %v: %d frames, %d detections, result %s (degraded=%v)",
		time.Since(start).Round(time.Millisecond), r.res.FramesProcessed, r.res.DetectionCount,
		r.res.ResultPath, r.res.Degraded)
	res := r.res
	return &res, nil
}

func (r *run) execute(ctx context.Context) error {
	o := r.o
	id := r.job.VideoID

	if err := ctx.Err(); err != nil {
		return r.canceled(err)
	}

	stream, err := o.deps.Source.Open(ctx, r.job.SourcePath)
	if err != nil {
		if ctx.Err() != nil {
			return r.canceled(ctx.Err())
		}
		return r.fail(KindUnreadableVideo, -1, err)
	}
	defer func() {
		if err := stream.Close(); err != nil {
			r.log.Warnf("Failed to close source %s: %v", r.job.SourcePath, err)
		}
	}()

	info := stream.Info()
	if !info.Valid() {
		return r.fail(KindUnreadableVideo, -1, fmt.Errorf("invalid stream properties %s", info))
	}
	r.res.Info = info
	r.transition(StateOpened)
	r.log.Infof("Opened %s (%s)", r.job.SourcePath, info)

	if err := os.MkdirAll(o.opts.ResultDir, 0o755); err != nil {
		return r.fail(KindEncodeFailure, -1, fmt.Errorf("create result directory: %w", err))
	}

	rawPath := o.IntermediatePath(id)
	finalPath := o.ResultPath(id)

	sink, err := o.deps.Sink.Create(rawPath, info, o.opts.Codec)
	if err != nil {
		return r.fail(KindEncodeFailure, -1, err)
	}
	sinkOpen := true
	encoded := false
	defer func() {
		if sinkOpen {
			if err := sink.Close(); err != nil {
				r.log.Warnf("Failed to close sink %s: %v", rawPath, err)
			}
		}
		if !encoded {
			removeQuietly(r.log, rawPath)
		}
	}()

	rec := recorder.New(id, o.deps.Store)
	r.transition(StateLooping)

	for {
		if err := ctx.Err(); err != nil {
			return r.canceled(err)
		}

		frame, err := stream.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				return r.canceled(ctx.Err())
			}
			return r.fail(KindUnreadableVideo, r.res.FramesProcessed, err)
		}

		drawn, err := r.detect(ctx, rec, frame)
		if err != nil {
			return err
		}

		if err := sink.Write(frame); err != nil {
			return r.fail(KindEncodeFailure, frame.Index, err)
		}
		r.res.FramesProcessed++
		metrics.PipelineFramesProcessed.Inc()

		for _, obs := range o.deps.Observers {
			obs.OnFrame(id, frame, drawn)
		}
	}

	if r.res.FramesProcessed == 0 {
		return r.fail(KindUnreadableVideo, -1, errors.New("video contains no frames"))
	}

	sinkOpen = false
	if err := sink.Close(); err != nil {
		return r.fail(KindEncodeFailure, -1, fmt.Errorf("finalize %s: %w", rawPath, err))
	}
	encoded = true
	r.res.IntermediatePath = rawPath
	r.transition(StateEncoded)

	if r.res.FramesFailed > 0 {
		r.res.Warnings = append(r.res.Warnings,
			fmt.Sprintf("detector failed on %d of %d frames", r.res.FramesFailed, r.res.FramesProcessed))
	}

	r.transition(StateTranscoding)
	if err := o.deps.Transcoder.Transcode(ctx, rawPath, finalPath); err != nil {
		if ctx.Err() != nil {
			return r.canceled(ctx.Err())
		}
		r.degrade(KindTranscodeFailure, err)
		r.res.ResultPath = rawPath
	} else {
		r.res.ResultPath = finalPath
		if !o.opts.KeepIntermediate {
			if removeQuietly(r.log, rawPath) {
				r.res.IntermediatePath = ""
			}
		}
	}

	r.transition(StatePersisting)
	var n int
	if rec.Len() == 0 {
		err = r.clearStale(ctx)
	} else {
		n, err = rec.Flush(ctx)
	}
	if err != nil {
		r.degrade(KindPersistFailure, err)
		n = 0
	}
	r.res.DetectionCount = n
	metrics.PipelineDetectionsRecorded.Add(float64(n))

	r.transition(StateDone)
	return nil
}

// detect runs the detector on one frame, annotates it and buffers the
// filtered detections. A detector failure leaves the frame untouched.
func (r *run) detect(ctx context.Context, rec *recorder.Recorder, frame vision.Frame) (int, error) {
	dets, err := r.o.deps.Detector.Detect(ctx, frame)
	if err != nil {
		if ctx.Err() != nil {
			return 0, r.canceled(ctx.Err())
		}
		r.res.FramesFailed++
		metrics.PipelineDetectionFailures.Inc()
		metrics.PipelineErrorsTotal.WithLabelValues(KindDetectionFailure.Label()).Inc()
		r.log.WithField("frame", frame.Index).Warnf("Detection skipped: %v", err)
		return 0, nil
	}

	selected := r.o.opts.ClassFilter.Select(dets)
	drawn := r.o.deps.Annotator.Annotate(frame.Image, selected)
	rec.Add(frame.Index, selected...)
	return drawn, nil
}

func (r *run) clearStale(ctx context.Context) error {
	cleared, err := r.o.deps.Store.ClearDetections(ctx, r.job.VideoID)
	if err != nil {
		return fmt.Errorf("clear detections of %s: %w", r.job.VideoID, err)
	}
	if cleared > 0 {
		r.log.Infof("Cleared %d detections from a previous run", cleared)
	}
	return nil
}

func removeQuietly(log *logrus.Entry, path string) bool {
	err := os.Remove(path)
	if err == nil || os.IsNotExist(err) {
		return true
	}
	log.Warnf("Failed to remove %s: %v", path, err)
	return false
}

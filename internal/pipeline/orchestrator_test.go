package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"object-detection/internal/annotate"
	"object-detection/internal/database"
	"object-detection/internal/vision"
)

var green = color.RGBA{R: 0, G: 255, B: 0, A: 255}

// fakeSource produces n black frames.
type fakeSource struct {
	info    vision.StreamInfo
	frames  int
	openErr error

	mu     sync.Mutex
	opened int
	closed int
}

func (s *fakeSource) Open(_ context.Context, _ string) (FrameStream, error) {
	if s.openErr != nil {
		return nil, s.openErr
	}
	s.mu.Lock()
	s.opened++
	s.mu.Unlock()
	return &fakeStream{src: s}, nil
}

type fakeStream struct {
	src  *fakeSource
	next int
}

func (f *fakeStream) Info() vision.StreamInfo { return f.src.info }

func (f *fakeStream) Next(ctx context.Context) (vision.Frame, error) {
	if err := ctx.Err(); err != nil {
		return vision.Frame{}, err
	}
	if f.next >= f.src.frames {
		return vision.Frame{}, io.EOF
	}
	img := image.NewRGBA(image.Rect(0, 0, f.src.info.Width, f.src.info.Height))
	frame := vision.Frame{Index: f.next, Image: img}
	f.next++
	return frame, nil
}

func (f *fakeStream) Close() error {
	f.src.mu.Lock()
	f.src.closed++
	f.src.mu.Unlock()
	return nil
}

// fakeSink records every written frame. It writes the path on create so
// the orchestrator's cleanup can be observed.
type fakeSink struct {
	failAt int // frame index to fail on, -1 for never

	mu      sync.Mutex
	path    string
	written []vision.Frame
	closed  int
}

func (s *fakeSink) Create(path string, _ vision.StreamInfo, _ string) (FrameSink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.path = path
	s.written = nil
	if err := os.WriteFile(path, []byte("raw"), 0o644); err != nil {
		return nil, err
	}
	return &fakeSinkHandle{s: s}, nil
}

type fakeSinkHandle struct {
	s *fakeSink
}

func (h *fakeSinkHandle) Write(frame vision.Frame) error {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	if h.s.failAt >= 0 && frame.Index == h.s.failAt {
		return errors.New("disk full")
	}
	cp := image.NewRGBA(frame.Image.Bounds())
	copy(cp.Pix, frame.Image.Pix)
	h.s.written = append(h.s.written, vision.Frame{Index: frame.Index, Image: cp})
	return nil
}

func (h *fakeSinkHandle) Close() error {
	h.s.mu.Lock()
	h.s.closed++
	h.s.mu.Unlock()
	return nil
}

// detectFunc adapts a function to detector.Detector.
type detectFunc func(ctx context.Context, f vision.Frame) ([]vision.Detection, error)

func (d detectFunc) Name() string { return "fake" }
func (d detectFunc) Close() error { return nil }
func (d detectFunc) Detect(ctx context.Context, f vision.Frame) ([]vision.Detection, error) {
	return d(ctx, f)
}

type fakeTranscoder struct {
	err   error
	calls int
}

func (t *fakeTranscoder) Transcode(_ context.Context, in, out string) error {
	t.calls++
	if t.err != nil {
		return t.err
	}
	if _, err := os.Stat(in); err != nil {
		return err
	}
	return os.WriteFile(out, []byte("h264"), 0o644)
}

type fakeStore struct {
	err    error
	calls  int
	clears int
	byID   map[string][]database.Detection
}

func (s *fakeStore) ClearDetections(_ context.Context, id string) (int64, error) {
	s.clears++
	if s.err != nil {
		return 0, s.err
	}
	n := int64(len(s.byID[id]))
	delete(s.byID, id)
	return n, nil
}

func (s *fakeStore) ReplaceDetections(_ context.Context, id string, dets []database.Detection) (int, error) {
	s.calls++
	if s.err != nil {
		return 0, s.err
	}
	if s.byID == nil {
		s.byID = map[string][]database.Detection{}
	}
	s.byID[id] = append([]database.Detection(nil), dets...)
	return len(dets), nil
}

type stateRecorder struct {
	mu     sync.Mutex
	states []State
	frames []int
}

func (o *stateRecorder) OnState(_ string, s State) {
	o.mu.Lock()
	o.states = append(o.states, s)
	o.mu.Unlock()
}

func (o *stateRecorder) OnFrame(_ string, f vision.Frame, _ int) {
	o.mu.Lock()
	o.frames = append(o.frames, f.Index)
	o.mu.Unlock()
}

type harness struct {
	source     *fakeSource
	sink       *fakeSink
	transcoder *fakeTranscoder
	store      *fakeStore
	observer   *stateRecorder
	orch       *Orchestrator
	dir        string
}

func newHarness(t *testing.T, frames int, det detectFunc) *harness {
	t.Helper()
	h := &harness{
		source:     &fakeSource{info: vision.StreamInfo{Width: 640, Height: 480, FPS: 30}, frames: frames},
		sink:       &fakeSink{failAt: -1},
		transcoder: &fakeTranscoder{},
		store:      &fakeStore{},
		observer:   &stateRecorder{},
		dir:        t.TempDir(),
	}
	orch, err := New(Deps{
		Source:     h.source,
		Sink:       h.sink,
		Detector:   det,
		Annotator:  annotate.New(vision.DefaultClassFilter()),
		Transcoder: h.transcoder,
		Store:      h.store,
		Observers:  []Observer{h.observer},
	}, Options{ResultDir: h.dir})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h.orch = orch
	return h
}

func personOn(frame int, conf float64) detectFunc {
	return func(_ context.Context, f vision.Frame) ([]vision.Detection, error) {
		if f.Index != frame {
			return nil, nil
		}
		return []vision.Detection{{
			Box:        vision.BBox{X1: 100, Y1: 100, X2: 200, Y2: 300},
			Confidence: conf,
			ClassID:    vision.PersonClassID,
		}}, nil
	}
}

func hasBoxEdge(img *image.RGBA) bool {
	return img.RGBAAt(100, 200) == green
}

func assertSequential(t *testing.T, frames []vision.Frame, n int) {
	t.Helper()
	if len(frames) != n {
		t.Fatalf("sink got %d writes, want %d", len(frames), n)
	}
	for i, f := range frames {
		if f.Index != i {
			t.Fatalf("write %d has frame index %d", i, f.Index)
		}
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestRunSinglePersonDetection(t *testing.T) {
	h := newHarness(t, 3, personOn(1, 0.91))

	res, err := h.orch.Run(context.Background(), Job{VideoID: "vid", SourcePath: "in.mp4"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	assertSequential(t, h.sink.written, 3)
	for _, f := range h.sink.written {
		if got, want := hasBoxEdge(f.Image), f.Index == 1; got != want {
			t.Errorf("frame %d annotated = %v, want %v", f.Index, got, want)
		}
	}

	recs := h.store.byID["vid"]
	if len(recs) != 1 {
		t.Fatalf("stored %d records, want 1", len(recs))
	}
	if recs[0].Frame != 1 || recs[0].ClassID != vision.PersonClassID || recs[0].Confidence != 0.91 {
		t.Errorf("record = %+v", recs[0])
	}
	if recs[0].BBox != [4]float64{100, 100, 200, 300} {
		t.Errorf("bbox = %v", recs[0].BBox)
	}

	if res.DetectionCount != 1 || res.FramesProcessed != 3 || res.Degraded {
		t.Errorf("result = %+v", res)
	}
	if res.ResultPath != filepath.Join(h.dir, "vid.mp4") {
		t.Errorf("ResultPath = %q", res.ResultPath)
	}
	if !fileExists(res.ResultPath) {
		t.Error("result file missing")
	}
	if fileExists(filepath.Join(h.dir, "vid_raw.mp4")) || res.IntermediatePath != "" {
		t.Error("intermediate should be removed after a good transcode")
	}
	if res.State != StateDone {
		t.Errorf("State = %s", res.State)
	}
	if h.source.closed != 1 || h.sink.closed != 1 {
		t.Errorf("closed source %d times, sink %d times", h.source.closed, h.sink.closed)
	}
}

func TestRunDetectorFailureSkipsFrame(t *testing.T) {
	det := func(_ context.Context, f vision.Frame) ([]vision.Detection, error) {
		if f.Index == 1 {
			return nil, errors.New("model exploded")
		}
		return []vision.Detection{{
			Box:        vision.BBox{X1: 100, Y1: 100, X2: 200, Y2: 300},
			Confidence: 0.8,
			ClassID:    vision.PersonClassID,
		}}, nil
	}
	h := newHarness(t, 5, det)

	res, err := h.orch.Run(context.Background(), Job{VideoID: "vid", SourcePath: "in.mp4"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	assertSequential(t, h.sink.written, 5)
	for _, f := range h.sink.written {
		if got, want := hasBoxEdge(f.Image), f.Index != 1; got != want {
			t.Errorf("frame %d annotated = %v, want %v", f.Index, got, want)
		}
	}
	for _, rec := range h.store.byID["vid"] {
		if rec.Frame == 1 {
			t.Error("recorded a detection for the failed frame")
		}
	}
	if len(h.store.byID["vid"]) != 4 {
		t.Errorf("stored %d records, want 4", len(h.store.byID["vid"]))
	}
	if res.FramesFailed != 1 || res.Degraded {
		t.Errorf("result = %+v", res)
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "1 of 5") {
		t.Errorf("Warnings = %v", res.Warnings)
	}
}

func TestRunTranscodeFailureDegrades(t *testing.T) {
	h := newHarness(t, 3, personOn(0, 0.7))
	h.transcoder.err = errors.New("exit status 1")

	res, err := h.orch.Run(context.Background(), Job{VideoID: "vid", SourcePath: "in.mp4"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	raw := filepath.Join(h.dir, "vid_raw.mp4")
	if res.ResultPath != raw || res.IntermediatePath != raw {
		t.Errorf("ResultPath = %q, IntermediatePath = %q, want %q", res.ResultPath, res.IntermediatePath, raw)
	}
	if !fileExists(raw) {
		t.Error("intermediate removed after failed transcode")
	}
	if !res.Degraded {
		t.Error("result not degraded")
	}
	if len(res.Warnings) == 0 || !strings.Contains(res.Warnings[0], "TranscodeFailure") {
		t.Errorf("Warnings = %v", res.Warnings)
	}
	if res.DetectionCount != 1 {
		t.Errorf("DetectionCount = %d, want 1", res.DetectionCount)
	}
}

func TestRunKeepIntermediate(t *testing.T) {
	h := newHarness(t, 2, personOn(-1, 0))
	h.orch.opts.KeepIntermediate = true

	res, err := h.orch.Run(context.Background(), Job{VideoID: "vid", SourcePath: "in.mp4"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !fileExists(res.IntermediatePath) {
		t.Errorf("intermediate %q missing", res.IntermediatePath)
	}
}

func TestRunZeroFramesIsUnreadable(t *testing.T) {
	h := newHarness(t, 0, personOn(0, 0.9))

	res, err := h.orch.Run(context.Background(), Job{VideoID: "vid", SourcePath: "in.mp4"})
	if !errors.Is(err, ErrUnreadableVideo) {
		t.Fatalf("Run error = %v, want ErrUnreadableVideo", err)
	}
	if res != nil {
		t.Error("expected nil result")
	}
	if KindOf(err) != KindUnreadableVideo {
		t.Errorf("KindOf = %s", KindOf(err))
	}
	if len(h.sink.written) != 0 || h.transcoder.calls != 0 || h.store.calls != 0 {
		t.Error("zero-frame video reached later stages")
	}
	if fileExists(filepath.Join(h.dir, "vid_raw.mp4")) {
		t.Error("partial intermediate left behind")
	}
}

func TestRunOpenFailureIsUnreadable(t *testing.T) {
	h := newHarness(t, 3, personOn(0, 0.9))
	h.source.openErr = errors.New("moov atom not found")

	_, err := h.orch.Run(context.Background(), Job{VideoID: "vid", SourcePath: "in.mp4"})
	if !errors.Is(err, ErrUnreadableVideo) {
		t.Fatalf("Run error = %v, want ErrUnreadableVideo", err)
	}
	if !strings.Contains(err.Error(), "moov atom") {
		t.Errorf("error lost cause: %v", err)
	}
	want := []State{StateErrored}
	if !reflect.DeepEqual(h.observer.states, want) {
		t.Errorf("states = %v, want %v", h.observer.states, want)
	}
}

func TestRunInvalidStreamInfo(t *testing.T) {
	h := newHarness(t, 3, personOn(0, 0.9))
	h.source.info.FPS = 0

	_, err := h.orch.Run(context.Background(), Job{VideoID: "vid", SourcePath: "in.mp4"})
	if !errors.Is(err, ErrUnreadableVideo) {
		t.Fatalf("Run error = %v, want ErrUnreadableVideo", err)
	}
	if h.source.closed != 1 {
		t.Errorf("source closed %d times, want 1", h.source.closed)
	}
}

func TestRunEncodeFailureIsFatal(t *testing.T) {
	h := newHarness(t, 5, personOn(0, 0.9))
	h.sink.failAt = 2

	_, err := h.orch.Run(context.Background(), Job{VideoID: "vid", SourcePath: "in.mp4"})
	if !errors.Is(err, ErrEncodeFailure) {
		t.Fatalf("Run error = %v, want ErrEncodeFailure", err)
	}
	var pe *Error
	if !errors.As(err, &pe) || pe.Frame != 2 || pe.VideoID != "vid" {
		t.Errorf("error = %#v", pe)
	}
	if h.source.closed != 1 || h.sink.closed != 1 {
		t.Errorf("closed source %d times, sink %d times", h.source.closed, h.sink.closed)
	}
	if h.transcoder.calls != 0 || h.store.calls != 0 {
		t.Error("encode failure reached later stages")
	}
	if fileExists(filepath.Join(h.dir, "vid_raw.mp4")) {
		t.Error("partial intermediate left behind")
	}
}

func TestRunPersistFailureDegrades(t *testing.T) {
	h := newHarness(t, 3, personOn(1, 0.9))
	h.store.err = errors.New("database is locked")

	res, err := h.orch.Run(context.Background(), Job{VideoID: "vid", SourcePath: "in.mp4"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Degraded || res.DetectionCount != 0 {
		t.Errorf("result = %+v", res)
	}
	if res.ResultPath != filepath.Join(h.dir, "vid.mp4") {
		t.Errorf("ResultPath = %q", res.ResultPath)
	}
	if len(res.Warnings) == 0 || !strings.Contains(res.Warnings[len(res.Warnings)-1], "PersistFailure") {
		t.Errorf("Warnings = %v", res.Warnings)
	}
}

func TestRunNoDetectionsClearsPreviousRecords(t *testing.T) {
	h := newHarness(t, 3, personOn(-1, 0))
	h.store.byID = map[string][]database.Detection{
		"vid":   {{VideoID: "vid", Frame: 1}},
		"other": {{VideoID: "other", Frame: 0}},
	}

	res, err := h.orch.Run(context.Background(), Job{VideoID: "vid", SourcePath: "in.mp4"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if h.store.calls != 0 {
		t.Errorf("ReplaceDetections called %d times, want 0", h.store.calls)
	}
	if h.store.clears != 1 {
		t.Errorf("ClearDetections called %d times, want 1", h.store.clears)
	}
	if _, ok := h.store.byID["vid"]; ok {
		t.Error("records of the previous run survived")
	}
	if len(h.store.byID["other"]) != 1 {
		t.Error("records of another video were cleared")
	}
	if res.DetectionCount != 0 || res.Degraded {
		t.Errorf("result = %+v", res)
	}
}

func TestRunClearFailureDegrades(t *testing.T) {
	h := newHarness(t, 2, personOn(-1, 0))
	h.store.err = errors.New("database is locked")

	res, err := h.orch.Run(context.Background(), Job{VideoID: "vid", SourcePath: "in.mp4"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Degraded || res.State != StateDone {
		t.Errorf("result = %+v", res)
	}
}

func TestRunFailureLeavesStoreUntouched(t *testing.T) {
	h := newHarness(t, 0, personOn(0, 0.9))
	prev := []database.Detection{{VideoID: "vid", Frame: 3}}
	h.store.byID = map[string][]database.Detection{"vid": prev}

	if _, err := h.orch.Run(context.Background(), Job{VideoID: "vid", SourcePath: "in.mp4"}); err == nil {
		t.Fatal("expected error for a video without frames")
	}
	if h.store.calls != 0 || h.store.clears != 0 {
		t.Errorf("store touched: %d replaces, %d clears", h.store.calls, h.store.clears)
	}
	if !reflect.DeepEqual(h.store.byID["vid"], prev) {
		t.Error("previous records changed")
	}
}

type countingAnnotator struct {
	seen []int
}

func (a *countingAnnotator) Annotate(_ *image.RGBA, dets []vision.Detection) int {
	for _, d := range dets {
		a.seen = append(a.seen, d.ClassID)
	}
	return len(dets)
}

func TestRunDrawsWhatItRecords(t *testing.T) {
	det := func(_ context.Context, f vision.Frame) ([]vision.Detection, error) {
		return []vision.Detection{
			{Box: vision.BBox{X1: 10, Y1: 10, X2: 50, Y2: 50}, Confidence: 0.6, ClassID: 2},
			{Box: vision.BBox{X1: 100, Y1: 100, X2: 200, Y2: 300}, Confidence: 0.9, ClassID: vision.PersonClassID},
		}, nil
	}
	ann := &countingAnnotator{}
	store := &fakeStore{}
	orch, err := New(Deps{
		Source:     &fakeSource{info: vision.StreamInfo{Width: 640, Height: 480, FPS: 30}, frames: 2},
		Sink:       &fakeSink{failAt: -1},
		Detector:   detectFunc(det),
		Annotator:  ann,
		Transcoder: &fakeTranscoder{},
		Store:      store,
	}, Options{ResultDir: t.TempDir()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := orch.Run(context.Background(), Job{VideoID: "vid", SourcePath: "in.mp4"}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	var recorded []int
	for _, d := range store.byID["vid"] {
		recorded = append(recorded, d.ClassID)
	}
	if !reflect.DeepEqual(ann.seen, recorded) {
		t.Errorf("drawn classes %v, recorded classes %v", ann.seen, recorded)
	}
}

func TestRunRecordsFilteredClassesOnly(t *testing.T) {
	det := func(_ context.Context, f vision.Frame) ([]vision.Detection, error) {
		return []vision.Detection{
			{Box: vision.BBox{X1: 10, Y1: 10, X2: 50, Y2: 50}, Confidence: 0.6, ClassID: 2},
			{Box: vision.BBox{X1: 100, Y1: 100, X2: 200, Y2: 300}, Confidence: 0.9, ClassID: vision.PersonClassID},
		}, nil
	}
	h := newHarness(t, 1, det)

	if _, err := h.orch.Run(context.Background(), Job{VideoID: "vid", SourcePath: "in.mp4"}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	recs := h.store.byID["vid"]
	if len(recs) != 1 || recs[0].ClassID != vision.PersonClassID {
		t.Errorf("records = %+v", recs)
	}
	if h.sink.written[0].Image.RGBAAt(10, 30) == green {
		t.Error("unfiltered class was drawn")
	}
}

func TestRunIsRepeatable(t *testing.T) {
	det := func(_ context.Context, f vision.Frame) ([]vision.Detection, error) {
		return []vision.Detection{{
			Box:        vision.BBox{X1: float64(f.Index), Y1: 0, X2: float64(f.Index + 10), Y2: 10},
			Confidence: 0.5 + float64(f.Index)/100,
			ClassID:    vision.PersonClassID,
		}}, nil
	}
	h := newHarness(t, 4, det)
	job := Job{VideoID: "vid", SourcePath: "in.mp4"}

	if _, err := h.orch.Run(context.Background(), job); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	first := h.store.byID["vid"]

	if _, err := h.orch.Run(context.Background(), job); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if !reflect.DeepEqual(first, h.store.byID["vid"]) {
		t.Error("repeated runs produced different records")
	}
}

func TestRunCancellationReleasesHandles(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	det := func(ctx context.Context, f vision.Frame) ([]vision.Detection, error) {
		if f.Index == 1 {
			cancel()
			return nil, ctx.Err()
		}
		return nil, nil
	}
	h := newHarness(t, 5, det)

	_, err := h.orch.Run(ctx, Job{VideoID: "vid", SourcePath: "in.mp4"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run error = %v, want context.Canceled", err)
	}
	if KindOf(err) != KindUnknown {
		t.Errorf("KindOf = %s, want Unknown", KindOf(err))
	}
	if h.source.closed != 1 || h.sink.closed != 1 {
		t.Errorf("closed source %d times, sink %d times", h.source.closed, h.sink.closed)
	}
	if h.transcoder.calls != 0 {
		t.Error("transcoder ran after cancellation")
	}
}

func TestRunStateSequence(t *testing.T) {
	h := newHarness(t, 2, personOn(0, 0.9))

	if _, err := h.orch.Run(context.Background(), Job{VideoID: "vid", SourcePath: "in.mp4"}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []State{StateOpened, StateLooping, StateEncoded, StateTranscoding, StatePersisting, StateDone}
	if !reflect.DeepEqual(h.observer.states, want) {
		t.Errorf("states = %v, want %v", h.observer.states, want)
	}
	if !reflect.DeepEqual(h.observer.frames, []int{0, 1}) {
		t.Errorf("observed frames = %v", h.observer.frames)
	}
}

func TestRunRequiresVideoID(t *testing.T) {
	h := newHarness(t, 1, personOn(0, 0.9))
	if _, err := h.orch.Run(context.Background(), Job{SourcePath: "in.mp4"}); err == nil {
		t.Error("expected error for empty video id")
	}
}

func TestNewValidation(t *testing.T) {
	full := Deps{
		Source:     &fakeSource{},
		Sink:       &fakeSink{},
		Detector:   personOn(0, 0.9),
		Annotator:  annotate.New(nil),
		Transcoder: &fakeTranscoder{},
		Store:      &fakeStore{},
	}

	tests := []struct {
		name string
		edit func(*Deps, *Options)
	}{
		{"no source", func(d *Deps, _ *Options) { d.Source = nil }},
		{"no sink", func(d *Deps, _ *Options) { d.Sink = nil }},
		{"no detector", func(d *Deps, _ *Options) { d.Detector = nil }},
		{"no annotator", func(d *Deps, _ *Options) { d.Annotator = nil }},
		{"no transcoder", func(d *Deps, _ *Options) { d.Transcoder = nil }},
		{"no store", func(d *Deps, _ *Options) { d.Store = nil }},
		{"no result dir", func(_ *Deps, o *Options) { o.ResultDir = "" }},
		{"annotator filter mismatch", func(d *Deps, o *Options) {
			d.Annotator = annotate.New(vision.NewClassFilter(2))
			o.ClassFilter = vision.DefaultClassFilter()
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps, opts := full, Options{ResultDir: t.TempDir()}
			tt.edit(&deps, &opts)
			if _, err := New(deps, opts); err == nil {
				t.Error("expected error")
			}
		})
	}

	o, err := New(full, Options{ResultDir: "out"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if o.opts.Codec != DefaultCodec {
		t.Errorf("Codec = %q", o.opts.Codec)
	}
	if !o.opts.ClassFilter.Contains(vision.PersonClassID) {
		t.Error("default filter should include person")
	}
	if got := o.ResultPath("abc"); got != filepath.Join("out", "abc.mp4") {
		t.Errorf("ResultPath = %q", got)
	}
	if got := o.IntermediatePath("abc"); got != filepath.Join("out", "abc_raw.mp4") {
		t.Errorf("IntermediatePath = %q", got)
	}
}

func ExampleKindOf() {
	err := fmt.Errorf("wrapped: %w", newError(KindTranscodeFailure, "vid", -1, errors.New("exit 1")))
	fmt.Println(KindOf(err), KindOf(err).Fatal())
	// Output: TranscodeFailure false
}

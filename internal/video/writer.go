package video

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"object-detection/internal/pipeline"
	"object-detection/internal/vision"
)

// ErrWriterClosed is returned by Write after Close.
var ErrWriterClosed = errors.New("video writer is closed")

// DefaultCodec is the fourcc used for intermediate files.
const DefaultCodec = "mp4v"

// Encoder creates intermediate video files.
type Encoder struct{}

var _ pipeline.SinkOpener = Encoder{}

// Create implements pipeline.SinkOpener.
func (Encoder) Create(path string, info vision.StreamInfo, codec string) (pipeline.FrameSink, error) {
	return CreateWriter(path, info, codec)
}

// Writer appends frames to a video container.
type Writer struct {
	mu     sync.Mutex
	w      *gocv.VideoWriter
	path   string
	info   vision.StreamInfo
	next   int
	closed bool
}

var _ pipeline.FrameSink = (*Writer)(nil)

// CreateWriter opens path for writing, replacing any existing file. The
// container uses the source dimensions and frame rate.
func CreateWriter(path string, info vision.StreamInfo, codec string) (*Writer, error) {
	if !info.Valid() {
		return nil, errors.Errorf("invalid stream geometry %s", info)
	}
	if len(codec) != 4 {
		return nil, errors.Errorf("codec %q is not a fourcc", codec)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create output directory for '%s'", path)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "failed to replace '%s'", path)
	}

	w, err := gocv.VideoWriterFile(path, codec, info.FPS, info.Width, info.Height, true)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create video writer '%s'", path)
	}
	if !w.IsOpened() {
		_ = w.Close()
		return nil, errors.Errorf("video writer '%s' did not open (codec %s)", path, codec)
	}

	return &Writer{w: w, path: path, info: info}, nil
}

// Path returns the output file path.
func (w *Writer) Path() string {
	return w.path
}

// Write appends one frame. Frames must arrive in index order starting at 0
// and match the container geometry.
func (w *Writer) Write(frame vision.Frame) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWriterClosed
	}
	if frame.Index != w.next {
		return errors.Errorf("frame %d written out of order, expected %d", frame.Index, w.next)
	}
	if frame.Width() != w.info.Width || frame.Height() != w.info.Height {
		return errors.Errorf("frame %d is %dx%d, container is %dx%d",
			frame.Index, frame.Width(), frame.Height(), w.info.Width, w.info.Height)
	}

	mat, err := MatFromRGBA(frame.Image)
	if err != nil {
		return errors.Wrapf(err, "frame %d", frame.Index)
	}
	defer mat.Close()

	if err := w.w.Write(mat); err != nil {
		return errors.Wrapf(err, "failed to encode frame %d", frame.Index)
	}
	w.next++
	return nil
}

func (w *Writer) written() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.next
}

// Close finalizes the container. It is safe to call more than once.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	return errors.Wrapf(w.w.Close(), "failed to finalize '%s'", w.path)
}

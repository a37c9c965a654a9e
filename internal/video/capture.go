package video

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"object-detection/internal/logging"
	"object-detection/internal/pipeline"
	"object-detection/internal/vision"
)

// ErrNoFrames is returned by Open when a container parses but yields no
// decodable frame.
var ErrNoFrames = errors.New("video contains no readable frames")

// DefaultFPS is used when the container does not report a frame rate.
const DefaultFPS = 25.0

// Opener opens video files for frame-by-frame decoding.
type Opener struct {
	// FallbackFPS replaces a missing or nonsensical container frame rate.
	// Zero means DefaultFPS.
	FallbackFPS float64
}

var _ pipeline.SourceOpener = Opener{}

// Open implements pipeline.SourceOpener.
func (o Opener) Open(ctx context.Context, path string) (pipeline.FrameStream, error) {
	return o.OpenCapture(ctx, path)
}

// OpenCapture opens path and decodes its first frame.
func (o Opener) OpenCapture(ctx context.Context, path string) (*Capture, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrapf(err, "cannot access video '%s'", path)
	}

	src, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open video '%s'", path)
	}
	if !src.IsOpened() {
		_ = src.Close()
		return nil, errors.Errorf("failed to open video '%s'", path)
	}

	c := &Capture{
		src: src,
		buf: gocv.NewMat(),
		info: vision.StreamInfo{
			Width:      int(src.Get(gocv.VideoCaptureFrameWidth)),
			Height:     int(src.Get(gocv.VideoCaptureFrameHeight)),
			FPS:        src.Get(gocv.VideoCaptureFPS),
			FrameCount: int(src.Get(gocv.VideoCaptureFrameCount)),
		},
	}

	first, err := c.read()
	if err != nil {
		_ = c.Close()
		if err == io.EOF {
			return nil, errors.Wrapf(ErrNoFrames, "video '%s'", path)
		}
		return nil, errors.Wrapf(err, "failed to decode first frame of '%s'", path)
	}
	c.pending = &first

	// The decoded frame is authoritative for geometry.
	c.info.Width = first.Width()
	c.info.Height = first.Height()

	if c.info.FPS <= 0 || c.info.FPS > 1000 {
		fallback := o.FallbackFPS
		if fallback <= 0 {
			fallback = DefaultFPS
		}
		logging.Warn("Video %s reports fps=%.2f, using %.2f", path, c.info.FPS, fallback)
		c.info.FPS = fallback
	}

	logging.Debug("Opened %s: %s, ~%d frames", path, c.info, c.info.FrameCount)
	return c, nil
}

// Capture is a single-pass frame stream over one video file.
type Capture struct {
	mu      sync.Mutex
	src     *gocv.VideoCapture
	buf     gocv.Mat
	info    vision.StreamInfo
	pending *vision.Frame
	next    int
	done    bool
	closed  bool
}

var _ pipeline.FrameStream = (*Capture)(nil)

// Info returns the stream properties discovered at open time.
func (c *Capture) Info() vision.StreamInfo {
	return c.info
}

// Next returns the next frame, or io.EOF once the stream is exhausted.
// Exhaustion is permanent.
func (c *Capture) Next(ctx context.Context) (vision.Frame, error) {
	if err := ctx.Err(); err != nil {
		return vision.Frame{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return vision.Frame{}, errors.New("capture is closed")
	}

	if c.pending != nil {
		f := *c.pending
		c.pending = nil
		return f, nil
	}
	return c.read()
}

// read decodes one frame. Callers hold mu or own c exclusively.
func (c *Capture) read() (vision.Frame, error) {
	if c.done {
		return vision.Frame{}, io.EOF
	}

	if ok := c.src.Read(&c.buf); !ok || c.buf.Empty() {
		c.done = true
		return vision.Frame{}, io.EOF
	}

	img, err := RGBAFromMat(c.buf)
	if err != nil {
		return vision.Frame{}, errors.Wrapf(err, "frame %d", c.next)
	}

	f := vision.Frame{Index: c.next, Image: img}
	c.next++
	return f, nil
}

// Close releases the decoder. It is safe to call more than once.
func (c *Capture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	c.pending = nil

	return closeAll(
		errors.Wrap(c.src.Close(), "video capture teardown error"),
		errors.Wrap(c.buf.Close(), "video capture frame buffer teardown error"),
	)
}

// closeAll folds teardown errors into one, skipping nils.
func closeAll(errs ...error) error {
	var final error
	for _, err := range errs {
		if err == nil {
			continue
		}
		if final != nil {
			final = errors.Errorf("%v, %v", final, err)
		} else {
			final = err
		}
	}
	return final
}

package transcoder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"object-detection/internal/logging"
	"object-detection/internal/metrics"
)

// DefaultFFmpeg is the binary looked up on PATH when none is configured.
const DefaultFFmpeg = "ffmpeg"

// waitDelay bounds how long Wait blocks on output pipes after a kill.
const waitDelay = 5 * time.Second

// stderrTail bounds how much ffmpeg output is kept in error messages.
const stderrTail = 2048

// ErrEmptyOutput is returned when ffmpeg exits cleanly without producing a
// usable file.
var ErrEmptyOutput = errors.New("ffmpeg produced no output")

// Transcoder manages ffmpeg processes that convert intermediate videos for
// browser playback.
type Transcoder struct {
	ffmpegPath string
	timeout    time.Duration
	processes  map[string]*exec.Cmd
	processMu  sync.Mutex
}

// New creates a Transcoder. An empty ffmpegPath uses DefaultFFmpeg; a zero
// timeout means no limit beyond the caller's context.
func New(ffmpegPath string, timeout time.Duration) *Transcoder {
	if ffmpegPath == "" {
		ffmpegPath = DefaultFFmpeg
	}
	return &Transcoder{
		ffmpegPath: ffmpegPath,
		timeout:    timeout,
		processes:  make(map[string]*exec.Cmd),
	}
}

// Available reports whether the ffmpeg binary can be found.
func (t *Transcoder) Available() bool {
	_, err := exec.LookPath(t.ffmpegPath)
	return err == nil
}

// Args returns the ffmpeg arguments used to convert input into output.
func Args(input, output string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", input,
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "23",
		"-pix_fmt", "yuv420p",
		"-movflags", "+faststart",
		output,
	}
}

// Transcode converts input into an H.264/yuv420p MP4 at output and waits
// for ffmpeg to exit. On any failure the partial output is removed and the
// input is left untouched.
func (t *Transcoder) Transcode(ctx context.Context, input, output string) error {
	if _, err := os.Stat(input); err != nil {
		return fmt.Errorf("transcode input: %w", err)
	}

	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	start := time.Now()
	metrics.TranscoderJobsInProgress.Inc()
	defer metrics.TranscoderJobsInProgress.Dec()

	err := t.run(ctx, input, output)
	metrics.TranscoderJobDuration.Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		metrics.TranscoderJobsTotal.WithLabelValues("success").Inc()
		logging.Debug("Transcoded %s -> %s in %v", input, output, time.Since(start).Round(time.Millisecond))
		return nil
	case ctx.Err() != nil:
		metrics.TranscoderJobsTotal.WithLabelValues("canceled").Inc()
	default:
		metrics.TranscoderJobsTotal.WithLabelValues("error").Inc()
	}

	if rmErr := os.Remove(output); rmErr != nil && !os.IsNotExist(rmErr) {
		logging.Warn("failed to remove partial transcode %s: %v", output, rmErr)
	}
	return err
}

func (t *Transcoder) run(ctx context.Context, input, output string) error {
	cmd := exec.CommandContext(ctx, t.ffmpegPath, Args(input, output)...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	// Track the process
	t.processMu.Lock()
	t.processes[output] = cmd
	t.processMu.Unlock()

	defer func() {
		t.processMu.Lock()
		delete(t.processes, output)
		t.processMu.Unlock()
	}()

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("ffmpeg interrupted: %w", ctx.Err())
		}
		logging.Error("FFmpeg stderr: %s", tail(stderr.String()))
		return fmt.Errorf("ffmpeg failed: %w: %s", err, tail(stderr.String()))
	}

	info, err := os.Stat(output)
	if err != nil || info.Size() == 0 {
		return fmt.Errorf("%w: %s", ErrEmptyOutput, output)
	}
	return nil
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > stderrTail {
		s = "..." + s[len(s)-stderrTail:]
	}
	return s
}

// Active returns the number of running ffmpeg processes.
func (t *Transcoder) Active() int {
	t.processMu.Lock()
	defer t.processMu.Unlock()
	return len(t.processes)
}

// Cleanup stops all active transcoding processes.
func (t *Transcoder) Cleanup() {
	t.processMu.Lock()
	defer t.processMu.Unlock()

	for path, cmd := range t.processes {
		if cmd.Process != nil {
			logging.Info("Killing transcoding process for: %s", path)
			if err := cmd.Process.Kill(); err != nil {
				logging.Warn("failed to kill transcoding process for %s: %v", path, err)
			}
		}
	}
}

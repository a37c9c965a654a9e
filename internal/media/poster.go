package media

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"

	"github.com/disintegration/imaging"

	"object-detection/internal/logging"
	"object-detection/internal/pipeline"
	"object-detection/internal/vision"
)

// Poster defaults.
const (
	PosterSize    = 320
	PosterQuality = 80
)

type candidate struct {
	frame int
	drawn int
	img   *image.RGBA
}

// PosterWriter is a pipeline.Observer that saves one poster per run.
type PosterWriter struct {
	dir     string
	size    int
	quality int

	mu   sync.Mutex
	best map[string]candidate
}

var _ pipeline.Observer = (*PosterWriter)(nil)

// NewPosterWriter writes posters into dir.
func NewPosterWriter(dir string) *PosterWriter {
	return &PosterWriter{
		dir:     dir,
		size:    PosterSize,
		quality: PosterQuality,
		best:    make(map[string]candidate),
	}
}

// Path returns where the poster for videoID is written.
func (p *PosterWriter) Path(videoID string) string {
	return filepath.Join(p.dir, videoID+".jpg")
}

// OnFrame implements pipeline.Observer.
func (p *PosterWriter) OnFrame(videoID string, f vision.Frame, drawn int) {
	if f.Image == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	cur, ok := p.best[videoID]
	if ok && drawn <= cur.drawn {
		return
	}
	p.best[videoID] = candidate{frame: f.Index, drawn: drawn, img: copyRGBA(f.Image)}
}

// OnState implements pipeline.Observer.
func (p *PosterWriter) OnState(videoID string, s pipeline.State) {
	if !s.Terminal() {
		return
	}

	p.mu.Lock()
	c, ok := p.best[videoID]
	delete(p.best, videoID)
	p.mu.Unlock()

	if s != pipeline.StateDone || !ok {
		return
	}
	path, err := p.Save(videoID, c.img)
	if err != nil {
		logging.Warn("Poster: failed for %s: %v", videoID, err)
		return
	}
	logging.Debug("Poster: saved frame %d (%d boxes) of %s to %s", c.frame, c.drawn, videoID, path)
}

// Save writes img as the poster for videoID, scaled to fit the poster size.
func (p *PosterWriter) Save(videoID string, img image.Image) (string, error) {
	if img == nil {
		return "", fmt.Errorf("no image for poster")
	}
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return "", fmt.Errorf("create poster directory: %w", err)
	}

	thumb := imaging.Fit(img, p.size, p.size, imaging.Lanczos)
	path := p.Path(videoID)
	if err := imaging.Save(thumb, path, imaging.JPEGQuality(p.quality)); err != nil {
		return "", fmt.Errorf("failed to encode poster: %w", err)
	}
	return path, nil
}

// Exists reports whether a poster was written for videoID.
func (p *PosterWriter) Exists(videoID string) bool {
	info, err := os.Stat(p.Path(videoID))
	return err == nil && info.Size() > 0
}

func copyRGBA(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Bounds())
	for y := src.Rect.Min.Y; y < src.Rect.Max.Y; y++ {
		si := src.PixOffset(src.Rect.Min.X, y)
		di := dst.PixOffset(dst.Rect.Min.X, y)
		copy(dst.Pix[di:di+4*src.Rect.Dx()], src.Pix[si:si+4*src.Rect.Dx()])
	}
	return dst
}

package video

import (
	"image"
	"image/draw"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// MatFromRGBA converts an RGBA image into a new 8-bit BGR Mat. The caller
// owns the returned Mat and must Close it.
func MatFromRGBA(img *image.RGBA) (gocv.Mat, error) {
	if img == nil {
		return gocv.NewMat(), errors.New("nil image")
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return gocv.NewMat(), errors.Errorf("empty image %dx%d", w, h)
	}

	packed := img
	if img.Stride != 4*w || b.Min != (image.Point{}) {
		packed = image.NewRGBA(image.Rect(0, 0, w, h))
		draw.Draw(packed, packed.Bounds(), img, b.Min, draw.Src)
	}

	rgba, err := gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8UC4, packed.Pix)
	if err != nil {
		return gocv.NewMat(), errors.Wrap(err, "failed to wrap RGBA pixels")
	}
	defer rgba.Close()

	bgr := gocv.NewMat()
	gocv.CvtColor(rgba, &bgr, gocv.ColorRGBAToBGR)
	return bgr, nil
}

// RGBAFromMat converts an 8-bit BGR Mat into a new RGBA image.
func RGBAFromMat(m gocv.Mat) (*image.RGBA, error) {
	if m.Empty() {
		return nil, errors.New("empty mat")
	}
	if m.Type() != gocv.MatTypeCV8UC3 {
		return nil, errors.Errorf("unsupported mat type %v, want CV8UC3", m.Type())
	}

	rgba := gocv.NewMat()
	defer rgba.Close()
	gocv.CvtColor(m, &rgba, gocv.ColorBGRToRGBA)

	img := image.NewRGBA(image.Rect(0, 0, m.Cols(), m.Rows()))
	if n := copy(img.Pix, rgba.ToBytes()); n != len(img.Pix) {
		return nil, errors.Errorf("short pixel copy: %d of %d bytes", n, len(img.Pix))
	}
	return img, nil
}

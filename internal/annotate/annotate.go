package annotate

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"object-detection/internal/vision"
)

// Default overlay style.
var (
	DefaultColor     = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	DefaultThickness = 2
)

// labelGap is the vertical space between a label's descent and the box top.
const labelGap = 4

// Annotator draws boxes and labels for filtered detections.
type Annotator struct {
	Filter    vision.ClassFilter
	Color     color.RGBA
	Thickness int
	Face      font.Face
}

// New returns an Annotator using the default style.
func New(filter vision.ClassFilter) *Annotator {
	if filter == nil {
		filter = vision.DefaultClassFilter()
	}
	return &Annotator{
		Filter:    filter,
		Color:     DefaultColor,
		Thickness: DefaultThickness,
		Face:      basicfont.Face7x13,
	}
}

// ClassFilter returns the classes a draws.
func (a *Annotator) ClassFilter() vision.ClassFilter {
	return a.Filter
}

// Label returns the text drawn for a detection.
func Label(d vision.Detection) string {
	return fmt.Sprintf("%s: %.2f", vision.DisplayName(d.ClassID), d.Confidence)
}

// Annotate draws every filtered detection onto img and returns how many
// were drawn. Detections entirely outside the frame are skipped.
func (a *Annotator) Annotate(img *image.RGBA, dets []vision.Detection) int {
	if img == nil {
		return 0
	}

	drawn := 0
	for _, d := range dets {
		if !a.Filter.Contains(d.ClassID) {
			continue
		}
		r := d.Box.Rect(img.Bounds())
		if r.Empty() {
			continue
		}
		a.drawBox(img, r)
		a.drawLabel(img, r.Min, Label(d))
		drawn++
	}
	return drawn
}

func (a *Annotator) thickness() int {
	if a.Thickness <= 0 {
		return 1
	}
	return a.Thickness
}

// drawBox strokes the inside edge of r.
func (a *Annotator) drawBox(img *image.RGBA, r image.Rectangle) {
	t := a.thickness()
	src := image.NewUniform(a.Color)
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+t),
		image.Rect(r.Min.X, r.Max.Y-t, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+t, r.Max.Y),
		image.Rect(r.Max.X-t, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(img, e.Intersect(r), src, image.Point{}, draw.Src)
	}
}

func (a *Annotator) face() font.Face {
	if a.Face == nil {
		return basicfont.Face7x13
	}
	return a.Face
}

// LabelOrigin returns the baseline origin for a label anchored at the
// top-left corner of a box, clamped so the text stays within bounds.
func LabelOrigin(face font.Face, bounds image.Rectangle, corner image.Point, text string) image.Point {
	m := face.Metrics()
	ascent, descent := m.Ascent.Ceil(), m.Descent.Ceil()
	width := font.MeasureString(face, text).Ceil()

	x := corner.X
	if x+width > bounds.Max.X {
		x = bounds.Max.X - width
	}
	if x < bounds.Min.X {
		x = bounds.Min.X
	}

	y := corner.Y - labelGap - descent
	if y-ascent < bounds.Min.Y {
		y = bounds.Min.Y + ascent
	}
	if y+descent > bounds.Max.Y {
		y = bounds.Max.Y - descent
	}
	return image.Pt(x, y)
}

func (a *Annotator) drawLabel(img *image.RGBA, corner image.Point, text string) {
	face := a.face()
	origin := LabelOrigin(face, img.Bounds(), corner, text)
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(a.Color),
		Face: face,
		Dot:  fixed.P(origin.X, origin.Y),
	}
	d.DrawString(text)
}

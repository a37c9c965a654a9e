package vision

import (
	"fmt"
	"image"
)

// Frame is one decoded picture from a video stream. Index is zero-based and
// strictly increasing within a stream. Image is owned by the stage currently
// holding the frame; stages may mutate it in place.
type Frame struct {
	Index int
	Image *image.RGBA
}

// Width returns the frame width in pixels.
func (f Frame) Width() int {
	if f.Image == nil {
		return 0
	}
	return f.Image.Bounds().Dx()
}

// Height returns the frame height in pixels.
func (f Frame) Height() int {
	if f.Image == nil {
		return 0
	}
	return f.Image.Bounds().Dy()
}

// StreamInfo describes the intrinsic properties of a video discovered when it
// is opened.
type StreamInfo struct {
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	FPS        float64 `json:"fps"`
	FrameCount int     `json:"frame_count"` // container estimate, may be 0
}

// Valid reports whether the stream has usable dimensions and frame rate.
func (s StreamInfo) Valid() bool {
	return s.Width > 0 && s.Height > 0 && s.FPS > 0
}

func (s StreamInfo) String() string {
	return fmt.Sprintf("%dx%d@%.2f", s.Width, s.Height, s.FPS)
}

// BBox is an axis-aligned box in source-frame pixel coordinates.
type BBox struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Width returns the box width, never negative.
func (b BBox) Width() float64 {
	if b.X2 < b.X1 {
		return 0
	}
	return b.X2 - b.X1
}

// Height returns the box height, never negative.
func (b BBox) Height() float64 {
	if b.Y2 < b.Y1 {
		return 0
	}
	return b.Y2 - b.Y1
}

// Area returns the box area.
func (b BBox) Area() float64 {
	return b.Width() * b.Height()
}

// IoU returns the intersection over union of two boxes.
func (b BBox) IoU(o BBox) float64 {
	inter := BBox{
		X1: max(b.X1, o.X1),
		Y1: max(b.Y1, o.Y1),
		X2: min(b.X2, o.X2),
		Y2: min(b.Y2, o.Y2),
	}.Area()
	if inter == 0 {
		return 0
	}
	union := b.Area() + o.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// Rect returns the box as integer pixel coordinates clipped to bounds.
// The result is empty when the box lies outside bounds.
func (b BBox) Rect(bounds image.Rectangle) image.Rectangle {
	r := image.Rect(int(b.X1), int(b.Y1), int(b.X2), int(b.Y2))
	return r.Intersect(bounds)
}

// Detection is a single raw detector output for one frame.
type Detection struct {
	Box        BBox    `json:"bbox"`
	Confidence float64 `json:"confidence"`
	ClassID    int     `json:"class_id"`
}

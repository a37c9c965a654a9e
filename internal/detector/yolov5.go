package detector

import (
	"fmt"
	"math"

	"object-detection/internal/vision"
)

// Letterbox maps between a source frame and the square model input it was
// scaled and padded into, preserving aspect ratio.
type Letterbox struct {
	SrcW, SrcH int
	Size       int
	Scale      float64
	PadX, PadY int
	ScaledW    int
	ScaledH    int
}

// NewLetterbox computes the letterbox geometry for a srcW×srcH frame fitted
// into a size×size input.
func NewLetterbox(srcW, srcH, size int) Letterbox {
	scale := math.Min(float64(size)/float64(srcW), float64(size)/float64(srcH))
	sw := int(math.Round(float64(srcW) * scale))
	sh := int(math.Round(float64(srcH) * scale))
	return Letterbox{
		SrcW:    srcW,
		SrcH:    srcH,
		Size:    size,
		Scale:   scale,
		PadX:    (size - sw) / 2,
		PadY:    (size - sh) / 2,
		ScaledW: sw,
		ScaledH: sh,
	}
}

// Unmap converts a center-format box in model input pixels into a corner
// box in source pixels, clipped to the source frame.
func (l Letterbox) Unmap(cx, cy, w, h float64) vision.BBox {
	clamp := func(v, hi float64) float64 {
		return math.Max(0, math.Min(v, hi))
	}
	x1 := (cx - w/2 - float64(l.PadX)) / l.Scale
	y1 := (cy - h/2 - float64(l.PadY)) / l.Scale
	x2 := (cx + w/2 - float64(l.PadX)) / l.Scale
	y2 := (cy + h/2 - float64(l.PadY)) / l.Scale
	return vision.BBox{
		X1: clamp(x1, float64(l.SrcW)),
		Y1: clamp(y1, float64(l.SrcH)),
		X2: clamp(x2, float64(l.SrcW)),
		Y2: clamp(y2, float64(l.SrcH)),
	}
}

// DecodeYOLOv5 turns a flattened YOLOv5 output tensor of shape
// [1, N, 5+classes] into candidate detections. Each row is
// cx, cy, w, h, objectness, then per-class scores; the reported confidence
// is objectness × best class score. Rows under confThreshold are skipped.
// The result still needs NMS.
func DecodeYOLOv5(out []float32, attrs int, lb Letterbox, confThreshold float64) ([]vision.Detection, error) {
	if attrs < 6 {
		return nil, fmt.Errorf("yolov5 output has %d attributes per row, want at least 6", attrs)
	}
	if len(out)%attrs != 0 {
		return nil, fmt.Errorf("yolov5 output length %d is not a multiple of %d", len(out), attrs)
	}

	var dets []vision.Detection
	for off := 0; off < len(out); off += attrs {
		row := out[off : off+attrs]
		obj := float64(row[4])
		if obj < confThreshold {
			continue
		}

		best, bestScore := 0, float32(0)
		for c, s := range row[5:] {
			if s > bestScore {
				best, bestScore = c, s
			}
		}

		conf := obj * float64(bestScore)
		if conf < confThreshold {
			continue
		}

		dets = append(dets, vision.Detection{
			Box:        lb.Unmap(float64(row[0]), float64(row[1]), float64(row[2]), float64(row[3])),
			Confidence: conf,
			ClassID:    best,
		})
	}
	return dets, nil
}

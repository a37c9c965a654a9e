package database

import (
	"time"

	"object-detection/internal/mediatypes"
	"object-detection/internal/vision"
)

// Video is an uploaded source file and the outcome of its latest run.
type Video struct {
	ID              string                 `json:"id"`
	Filename        string                 `json:"filename"`
	FilePath        string                 `json:"filepath"`
	Width           int                    `json:"width"`
	Height          int                    `json:"height"`
	FPS             float64                `json:"fps"`
	Status          mediatypes.VideoStatus `json:"status"`
	ResultPath      string                 `json:"result_path,omitempty"`
	PosterPath      string                 `json:"poster_path,omitempty"`
	DetectionCount  int                    `json:"detection_count"`
	FramesProcessed int                    `json:"frames_processed"`
	Error           string                 `json:"error,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

// Detection is one stored detection record. BBox is x1, y1, x2, y2 in
// source-frame pixels.
type Detection struct {
	ID         int64      `json:"id,omitempty"`
	VideoID    string     `json:"video_id"`
	Frame      int        `json:"frame"`
	BBox       [4]float64 `json:"bbox"`
	Confidence float64    `json:"confidence"`
	ClassID    int        `json:"class"`
	ClassName  string     `json:"class_name"`
}

// NewDetection builds a record from a raw detection on a given frame.
func NewDetection(videoID string, frame int, d vision.Detection) Detection {
	return Detection{
		VideoID:    videoID,
		Frame:      frame,
		BBox:       [4]float64{d.Box.X1, d.Box.Y1, d.Box.X2, d.Box.Y2},
		Confidence: d.Confidence,
		ClassID:    d.ClassID,
		ClassName:  vision.ClassName(d.ClassID),
	}
}

// Box returns the record's bounding box.
func (d Detection) Box() vision.BBox {
	return vision.BBox{X1: d.BBox[0], Y1: d.BBox[1], X2: d.BBox[2], Y2: d.BBox[3]}
}

// RunOutcome is what a finished pipeline run writes back to its video row.
type RunOutcome struct {
	Status          mediatypes.VideoStatus
	Width           int
	Height          int
	FPS             float64
	ResultPath      string
	PosterPath      string
	DetectionCount  int
	FramesProcessed int
	Error           string
}

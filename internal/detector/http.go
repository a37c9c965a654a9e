package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/jpeg"
	"io"
	"net/http"
	"strconv"
	"time"

	"object-detection/internal/vision"
)

// HTTPDetector sends each frame as a JPEG to a remote inference service.
//
// Request:  POST <URL>, Content-Type image/jpeg, X-Frame-Index header.
// Response: {"detections":[{"bbox":[x1,y1,x2,y2],"confidence":0.91,"class_id":0}]}
// with boxes in the pixel space of the posted image.
type HTTPDetector struct {
	url     string
	client  *http.Client
	quality int
}

// HTTPOptions configures an HTTPDetector.
type HTTPOptions struct {
	URL         string
	Timeout     time.Duration
	JPEGQuality int
	Client      *http.Client
}

type httpResponse struct {
	Detections []httpDetection `json:"detections"`
}

type httpDetection struct {
	BBox       []float64 `json:"bbox"`
	Confidence float64   `json:"confidence"`
	ClassID    int       `json:"class_id"`
}

// NewHTTPDetector creates a detector backed by a remote service.
func NewHTTPDetector(opts HTTPOptions) (*HTTPDetector, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("detector URL is required")
	}
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	quality := opts.JPEGQuality
	if quality <= 0 || quality > 100 {
		quality = 90
	}
	return &HTTPDetector{url: opts.URL, client: client, quality: quality}, nil
}

// Name implements Detector.
func (d *HTTPDetector) Name() string {
	return "http"
}

// Detect implements Detector.
func (d *HTTPDetector) Detect(ctx context.Context, frame vision.Frame) ([]vision.Detection, error) {
	if frame.Image == nil {
		return nil, Fail(d.Name(), frame.Index, fmt.Errorf("empty frame"))
	}

	var body bytes.Buffer
	if err := jpeg.Encode(&body, frame.Image, &jpeg.Options{Quality: d.quality}); err != nil {
		return nil, Fail(d.Name(), frame.Index, fmt.Errorf("encode frame: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, &body)
	if err != nil {
		return nil, Fail(d.Name(), frame.Index, err)
	}
	req.Header.Set("Content-Type", "image/jpeg")
	req.Header.Set("X-Frame-Index", strconv.Itoa(frame.Index))

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, Fail(d.Name(), frame.Index, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, Fail(d.Name(), frame.Index, fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(msg)))
	}

	var parsed httpResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, Fail(d.Name(), frame.Index, fmt.Errorf("decode response: %w", err))
	}

	dets := make([]vision.Detection, 0, len(parsed.Detections))
	for i, hd := range parsed.Detections {
		if len(hd.BBox) != 4 {
			return nil, Fail(d.Name(), frame.Index, fmt.Errorf("detection %d: bbox has %d values, want 4", i, len(hd.BBox)))
		}
		dets = append(dets, vision.Detection{
			Box:        vision.BBox{X1: hd.BBox[0], Y1: hd.BBox[1], X2: hd.BBox[2], Y2: hd.BBox[3]},
			Confidence: hd.Confidence,
			ClassID:    hd.ClassID,
		})
	}
	return dets, nil
}

// Close implements Detector.
func (d *HTTPDetector) Close() error {
	d.client.CloseIdleConnections()
	return nil
}

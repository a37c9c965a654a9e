package yolo

import (
	"context"
	"image"
	"image/color"
	"os"
	"sync"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"object-detection/internal/detector"
	"object-detection/internal/logging"
	"object-detection/internal/video"
	"object-detection/internal/vision"
)

const (
	// DefaultInputSize is the square input resolution of the stock weights.
	DefaultInputSize = 640
	// DefaultConfidence matches the reference YOLOv5 inference threshold.
	DefaultConfidence = 0.25
	// DefaultIoU is the NMS overlap threshold.
	DefaultIoU = 0.45
)

var padColor = color.RGBA{R: 114, G: 114, B: 114, A: 0}

// Options configures a Detector.
type Options struct {
	ModelPath     string
	InputSize     int
	ConfThreshold float64
	NMSThreshold  float64
}

// Detector is a detector.Detector backed by cv::dnn.
type Detector struct {
	mu   sync.Mutex
	net  gocv.Net
	opts Options
}

var _ detector.Detector = (*Detector)(nil)

// New loads the ONNX model at opts.ModelPath.
func New(opts Options) (*Detector, error) {
	if opts.InputSize <= 0 {
		opts.InputSize = DefaultInputSize
	}
	if opts.ConfThreshold <= 0 {
		opts.ConfThreshold = DefaultConfidence
	}
	if opts.NMSThreshold <= 0 {
		opts.NMSThreshold = DefaultIoU
	}

	if _, err := os.Stat(opts.ModelPath); err != nil {
		return nil, errors.Wrapf(err, "model file '%s' is not accessible", opts.ModelPath)
	}

	net := gocv.ReadNetFromONNX(opts.ModelPath)
	if net.Empty() {
		_ = net.Close()
		return nil, errors.Errorf("failed to load model '%s'", opts.ModelPath)
	}
	_ = net.SetPreferableBackend(gocv.NetBackendDefault)
	_ = net.SetPreferableTarget(gocv.NetTargetCPU)

	logging.Info("Loaded YOLO model %s (input %d, conf %.2f, iou %.2f)",
		opts.ModelPath, opts.InputSize, opts.ConfThreshold, opts.NMSThreshold)

	return &Detector{net: net, opts: opts}, nil
}

// Name implements detector.Detector.
func (d *Detector) Name() string {
	return "yolo"
}

// Detect implements detector.Detector.
func (d *Detector) Detect(ctx context.Context, frame vision.Frame) ([]vision.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, detector.Fail(d.Name(), frame.Index, err)
	}

	dets, err := d.infer(frame)
	if err != nil {
		return nil, detector.Fail(d.Name(), frame.Index, err)
	}
	return dets, nil
}

func (d *Detector) infer(frame vision.Frame) ([]vision.Detection, error) {
	bgr, err := video.MatFromRGBA(frame.Image)
	if err != nil {
		return nil, err
	}
	defer bgr.Close()

	size := d.opts.InputSize
	lb := detector.NewLetterbox(bgr.Cols(), bgr.Rows(), size)

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(bgr, &resized, image.Pt(lb.ScaledW, lb.ScaledH), 0, 0, gocv.InterpolationLinear)

	padded := gocv.NewMat()
	defer padded.Close()
	gocv.CopyMakeBorder(resized, &padded,
		lb.PadY, size-lb.ScaledH-lb.PadY,
		lb.PadX, size-lb.ScaledW-lb.PadX,
		gocv.BorderConstant, padColor)

	blob := gocv.BlobFromImage(padded, 1.0/255.0, image.Pt(size, size), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.mu.Lock()
	d.net.SetInput(blob, "")
	out := d.net.Forward("")
	d.mu.Unlock()
	defer out.Close()

	dims := out.Size()
	if len(dims) < 2 {
		return nil, errors.Errorf("unexpected output shape %v", dims)
	}

	data, err := out.DataPtrFloat32()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read output tensor")
	}

	candidates, err := detector.DecodeYOLOv5(data, dims[len(dims)-1], lb, d.opts.ConfThreshold)
	if err != nil {
		return nil, err
	}
	return detector.NMS(candidates, d.opts.ConfThreshold, d.opts.NMSThreshold), nil
}

// Close releases the network.
func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}

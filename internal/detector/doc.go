// Package detector defines the contract between the pipeline and an
// object-detection model, plus the backends that do not need OpenCV.
//
// A Detector takes one decoded frame and returns zero or more raw
// detections with boxes in source-frame pixel space. Backends:
//
//   - yolo (subpackage): YOLOv5 ONNX weights run in-process through the
//     OpenCV DNN module.
//   - HTTPDetector: posts each frame as JPEG to a remote inference service.
//
// Model failures are returned as *Failure so the orchestrator can skip the
// frame and keep going. Instrument wraps any Detector with latency and
// per-class metrics.
package detector

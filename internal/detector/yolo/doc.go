// Package yolo runs YOLOv5 ONNX models in-process through the OpenCV DNN
// module.
//
// Frames are letterboxed into the square network input, normalized to
// [0,1] RGB, and the raw output rows are decoded and suppressed with
// detector.DecodeYOLOv5 and detector.NMS. The network is loaded once and
// shared; inference calls are serialized because a cv::dnn::Net is not safe
// for concurrent use.
package yolo

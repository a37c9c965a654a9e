// Package vision holds the value types shared by every stage of the
// detection pipeline: decoded frames, raw detections, stream properties
// and the class-name table used to filter and label detections.
//
// The package is free of cgo so that the orchestrator, the annotator and
// their tests can run without OpenCV installed.
package vision

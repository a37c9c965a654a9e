// Package recorder buffers the detections of one pipeline run and writes
// them to the store in a single bulk call once the run has finished.
package recorder

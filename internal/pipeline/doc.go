// Package pipeline turns one uploaded video into an annotated, browser
// playable artifact and a set of stored detection records.
//
// A run is a single blocking pass:
//
//	open source -> for each frame: detect, annotate, write -> close sink
//	            -> transcode -> flush detections -> done
//
// The collaborators (frame source, frame sink, detector, annotator,
// transcoder and detection store) are interfaces so the orchestrator and
// its tests do not depend on OpenCV or ffmpeg. Concrete implementations live
// in internal/video, internal/detector, internal/annotate and
// internal/transcoder.
//
// Failures are classified by Kind. UnreadableVideo and EncodeFailure abort
// the run. DetectionFailure is absorbed per frame, while TranscodeFailure
// and PersistFailure mark the Result as degraded but still return it.
package pipeline

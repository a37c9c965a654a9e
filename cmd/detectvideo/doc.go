// Command detectvideo runs the detection pipeline from the command line.
//
// It reads the same environment as the server (DATABASE_DIR, RESULT_DIR,
// DETECTOR_BACKEND, MODEL_PATH, FFMPEG_PATH, ...) so runs started here are
// visible through the HTTP API and vice versa.
//
// Usage:
//
//	detectvideo process --input clip.mp4 [--id ID] [--keep-intermediate]
//	detectvideo detections --id ID
//	detectvideo videos
//
// process registers the input as a video when the id is new, runs it to
// completion and prints the run result as JSON. A run that ends degraded
// still exits 0; a failed run exits 1.
package main

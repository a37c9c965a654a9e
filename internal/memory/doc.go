// Package memory sizes the Go heap limit to the container.
//
// A pipeline run holds decoded frames in Go memory while OpenCV buffers
// and the ffmpeg child process live outside the Go heap. Configure sets
// GOMEMLIMIT to a fraction of the container limit so the garbage collector
// works harder before the container is OOM-killed.
//
// Environment variables:
//   - GOMEMLIMIT: if set, it takes precedence and is only reported
//   - MEMORY_LIMIT: container memory limit in bytes (Kubernetes Downward API)
//   - MEMORY_RATIO: fraction of MEMORY_LIMIT given to the Go heap (default 0.6)
package memory

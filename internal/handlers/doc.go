// Package handlers provides the HTTP request handlers for the detection
// service API.
//
// It includes handlers for:
//   - Video upload and listing
//   - Running the detection pipeline, synchronously or as a queued job
//   - Querying stored detections
//   - Health checks and build information
package handlers

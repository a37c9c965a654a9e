package mediatypes

import (
	"path/filepath"
	"strings"
)

// VideoStatus is the processing state of an uploaded video.
type VideoStatus string

const (
	// StatusUploaded means the file is stored but has never been processed.
	StatusUploaded VideoStatus = "uploaded"
	// StatusProcessing means a pipeline run is in progress.
	StatusProcessing VideoStatus = "processing"
	// StatusDone means the last run produced a browser-playable artifact and
	// persisted its detections.
	StatusDone VideoStatus = "done"
	// StatusDegraded means the last run finished but transcoding or
	// persistence failed; the artifact may be the intermediate encode.
	StatusDegraded VideoStatus = "degraded"
	// StatusFailed means the last run aborted.
	StatusFailed VideoStatus = "failed"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []VideoStatus{StatusUploaded, StatusProcessing, StatusDone, StatusDegraded, StatusFailed}

// Valid reports whether s is a known status.
func (s VideoStatus) Valid() bool {
	for _, v := range AllStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// UploadExtensions maps file extensions to whether they are accepted for upload.
var UploadExtensions = map[string]bool{
	".mp4": true,
	".avi": true,
	".mov": true,
}

// MimeTypes maps file extensions to their MIME types.
var MimeTypes = map[string]string{
	".mp4":  "video/mp4",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// Ext returns the lowercase extension of name including the leading dot.
func Ext(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

// IsUploadable reports whether a file with this name may be uploaded.
func IsUploadable(name string) bool {
	return UploadExtensions[Ext(name)]
}

// GetMimeType returns the MIME type for a given file extension.
// The extension should be lowercase and include the leading dot (e.g., ".mp4").
// Returns "application/octet-stream" if the extension is not recognized.
func GetMimeType(ext string) string {
	if mime, ok := MimeTypes[ext]; ok {
		return mime
	}
	return "application/octet-stream"
}

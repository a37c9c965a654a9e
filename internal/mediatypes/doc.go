// Package mediatypes provides shared type definitions for uploaded videos
// across the detection service.
//
// This package exists as a dependency-free foundation that can be imported by
// other packages without creating import cycles.
//
// # Video Status
//
// VideoStatus tracks an upload through processing:
//
//	uploaded -> processing -> done | degraded | failed
//
// A video can be processed again from any terminal status.
//
// # Upload Formats
//
// Only .mp4, .avi and .mov files are accepted:
//
//	if !mediatypes.IsUploadable(header.Filename) {
//	    // reject with 400
//	}
package mediatypes

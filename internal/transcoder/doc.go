// Package transcoder re-encodes intermediate pipeline output into
// browser-playable H.264 MP4 using FFmpeg.
//
// Transcoding is synchronous: Transcode returns only after the ffmpeg
// process has exited and the output file has been checked. FFmpeg must be
// installed and available in the system PATH, or configured explicitly.
package transcoder

package pipeline

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindUnreadableVideo
	KindDetectionFailure
	KindEncodeFailure
	KindTranscodeFailure
	KindPersistFailure
)

// Sentinels for errors.Is against *Error values.
var (
	ErrUnreadableVideo  = errors.New("unreadable video")
	ErrDetectionFailure = errors.New("detection failure")
	ErrEncodeFailure    = errors.New("encode failure")
	ErrTranscodeFailure = errors.New("transcode failure")
	ErrPersistFailure   = errors.New("persist failure")
)

func (k Kind) String() string {
	switch k {
	case KindUnreadableVideo:
		return "UnreadableVideo"
	case KindDetectionFailure:
		return "DetectionFailure"
	case KindEncodeFailure:
		return "EncodeFailure"
	case KindTranscodeFailure:
		return "TranscodeFailure"
	case KindPersistFailure:
		return "PersistFailure"
	default:
		return "Unknown"
	}
}

// Label is the snake_case name used as a metric label.
func (k Kind) Label() string {
	switch k {
	case KindUnreadableVideo:
		return "unreadable_video"
	case KindDetectionFailure:
		return "detection_failure"
	case KindEncodeFailure:
		return "encode_failure"
	case KindTranscodeFailure:
		return "transcode_failure"
	case KindPersistFailure:
		return "persist_failure"
	default:
		return "unknown"
	}
}

// Fatal reports whether a failure of this kind aborts the run.
func (k Kind) Fatal() bool {
	return k == KindUnreadableVideo || k == KindEncodeFailure
}

func (k Kind) sentinel() error {
	switch k {
	case KindUnreadableVideo:
		return ErrUnreadableVideo
	case KindDetectionFailure:
		return ErrDetectionFailure
	case KindEncodeFailure:
		return ErrEncodeFailure
	case KindTranscodeFailure:
		return ErrTranscodeFailure
	case KindPersistFailure:
		return ErrPersistFailure
	default:
		return nil
	}
}

// Error is a classified pipeline failure. Frame is -1 when the failure is
// not tied to a frame.
type Error struct {
	Kind    Kind
	VideoID string
	Frame   int
	Err     error
}

func newError(kind Kind, videoID string, frame int, err error) *Error {
	return &Error{Kind: kind, VideoID: videoID, Frame: frame, Err: err}
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s for video %s", e.Kind, e.VideoID)
	if e.Frame >= 0 {
		msg += fmt.Sprintf(" at frame %d", e.Frame)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnknown
}

package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func TestErrorIs(t *testing.T) {
	kinds := []struct {
		kind     Kind
		sentinel error
		fatal    bool
		label    string
	}{
		{KindUnreadableVideo, ErrUnreadableVideo, true, "unreadable_video"},
		{KindDetectionFailure, ErrDetectionFailure, false, "detection_failure"},
		{KindEncodeFailure, ErrEncodeFailure, true, "encode_failure"},
		{KindTranscodeFailure, ErrTranscodeFailure, false, "transcode_failure"},
		{KindPersistFailure, ErrPersistFailure, false, "persist_failure"},
	}

	for _, tt := range kinds {
		t.Run(tt.kind.String(), func(t *testing.T) {
			cause := errors.New("boom")
			err := fmt.Errorf("outer: %w", newError(tt.kind, "vid", 3, cause))

			if !errors.Is(err, tt.sentinel) {
				t.Errorf("errors.Is(%v, sentinel) = false", err)
			}
			if !errors.Is(err, cause) {
				t.Error("cause not reachable through Unwrap")
			}
			for _, other := range kinds {
				if other.kind != tt.kind && errors.Is(err, other.sentinel) {
					t.Errorf("matched sentinel of %s", other.kind)
				}
			}
			if KindOf(err) != tt.kind {
				t.Errorf("KindOf = %s", KindOf(err))
			}
			if tt.kind.Fatal() != tt.fatal {
				t.Errorf("Fatal() = %v", tt.kind.Fatal())
			}
			if tt.kind.Label() != tt.label {
				t.Errorf("Label() = %q", tt.kind.Label())
			}
		})
	}
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		err  *Error
		want string
	}{
		{newError(KindEncodeFailure, "abc", 7, errors.New("disk full")), "EncodeFailure for video abc at frame 7: disk full"},
		{newError(KindUnreadableVideo, "abc", -1, errors.New("no frames")), "UnreadableVideo for video abc: no frames"},
		{newError(KindPersistFailure, "abc", -1, nil), "PersistFailure for video abc"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestKindOfPlainError(t *testing.T) {
	if KindOf(errors.New("x")) != KindUnknown {
		t.Error("plain error should be KindUnknown")
	}
	if KindOf(nil) != KindUnknown {
		t.Error("nil should be KindUnknown")
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to State
		want     bool
	}{
		{StateIdle, StateOpened, true},
		{StateOpened, StateLooping, true},
		{StateLooping, StateEncoded, true},
		{StateEncoded, StateTranscoding, true},
		{StateTranscoding, StatePersisting, true},
		{StatePersisting, StateDone, true},
		{StateIdle, StateLooping, false},
		{StateLooping, StateDone, false},
		{StateLooping, StateErrored, true},
		{StateIdle, StateErrored, true},
		{StateDone, StateErrored, false},
		{StateErrored, StateOpened, false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestStateNames(t *testing.T) {
	if StateTranscoding.String() != "Transcoding" || StateTranscoding.Label() != "transcoding" {
		t.Errorf("got %q / %q", StateTranscoding.String(), StateTranscoding.Label())
	}
	if State(99).String() != "Unknown" {
		t.Error("out of range state should be Unknown")
	}
	b, err := json.Marshal(StateDone)
	if err != nil || string(b) != `"done"` {
		t.Errorf("MarshalJSON = %s, %v", b, err)
	}
}

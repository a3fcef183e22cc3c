package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestEncodeWAVWritesHeader(t *testing.T) {
	pcm := []byte{1, 0, 2, 0, 3, 0, 4, 0}

	wav := EncodeWAV(pcm, GetDefaultEncodingInfo())

	if len(wav) != wavHeaderSize+len(pcm) {
		t.Fatalf("expected %d bytes, got %d", wavHeaderSize+len(pcm), len(wav))
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" || string(wav[36:40]) != "data" {
		t.Fatalf("expected RIFF/WAVE markers, got %q", wav[:40])
	}
	if got := binary.LittleEndian.Uint32(wav[24:28]); got != DefaultSampleRate {
		t.Fatalf("expected sample rate %d, got %d", DefaultSampleRate, got)
	}
	if got := binary.LittleEndian.Uint32(wav[28:32]); got != DefaultSampleRate*2 {
		t.Fatalf("expected byte rate %d, got %d", DefaultSampleRate*2, got)
	}
	if got := binary.LittleEndian.Uint32(wav[40:44]); got != uint32(len(pcm)) {
		t.Fatalf("expected data size %d, got %d", len(pcm), got)
	}
}

func TestClipReleaseDropsBytes(t *testing.T) {
	clip := NewClip([]byte{1, 2, 3}, ClipFormatMP3)
	if !strings.HasPrefix(clip.ID, "clip-") {
		t.Fatalf("expected clip id prefix, got %q", clip.ID)
	}

	clip.Release()

	if !clip.Released() {
		t.Fatalf("expected clip to be released")
	}
	if _, err := clip.Bytes(); !errors.Is(err, ErrClipReleased) {
		t.Fatalf("expected ErrClipReleased, got %v", err)
	}
}

func TestMediaErrorMessagesAreDistinct(t *testing.T) {
	reasons := []error{
		ErrPermissionDenied,
		ErrDeviceNotFound,
		ErrAborted,
		ErrDeviceBusy,
		ErrOverconstrained,
		ErrInsecureContext,
		ErrInvalidRequest,
	}

	seen := map[string]error{}
	for _, reason := range reasons {
		message := MediaErrorMessage(fmt.Errorf("failed to start capture: %w", reason))
		if other, ok := seen[message]; ok {
			t.Fatalf("expected distinct messages, %v and %v share %q", reason, other, message)
		}
		seen[message] = reason
	}

	if message := MediaErrorMessage(errors.New("driver exploded")); !strings.Contains(message, "driver exploded") {
		t.Fatalf("expected fallback message to name the error, got %q", message)
	}
}

func TestUserGestureContext(t *testing.T) {
	if IsUserGesture(context.Background()) {
		t.Fatalf("expected plain context to carry no gesture")
	}
	if !IsUserGesture(WithUserGesture(context.Background())) {
		t.Fatalf("expected gesture context to be detected")
	}
}

package miniaudio

import (
	"context"
	"errors"
	"testing"

	"github.com/koscakluka/ema-chat/core/audio"
)

func TestPlayRequiresGestureWhileSuspended(t *testing.T) {
	client := &Client{}
	client.suspended.Store(true)
	clip := audio.NewClip([]byte{0xff, 0xfb}, audio.ClipFormatWAV)

	err := client.Play(context.Background(), clip, func() {})
	if !errors.Is(err, audio.ErrPlaybackNotAllowed) {
		t.Fatalf("expected ErrPlaybackNotAllowed, got %v", err)
	}

	err = client.Play(audio.WithUserGesture(context.Background()), clip, func() {})
	if !errors.Is(err, audio.ErrUnsupportedClip) {
		t.Fatalf("expected gesture to pass the policy check and hit the format check, got %v", err)
	}
	if client.suspended.Load() {
		t.Fatalf("expected gesture to resume the client")
	}
}

func TestWithAutoplaySkipsGestureRequirement(t *testing.T) {
	client := &Client{}
	client.suspended.Store(true)
	WithAutoplay()(client)

	err := client.Play(context.Background(), audio.NewClip(nil, audio.ClipFormatWAV), func() {})
	if errors.Is(err, audio.ErrPlaybackNotAllowed) {
		t.Fatalf("expected autoplay client to accept plays without a gesture")
	}
}

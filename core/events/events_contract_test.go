package events

import "testing"

func TestConstructorsEmitExpectedKinds(t *testing.T) {
	testCases := []struct {
		name     string
		event    Event
		expected Kind
	}{
		{name: "recognition", event: NewRecognition("hello"), expected: KindRecognition},
		{name: "text delta", event: NewTextDelta("Hi"), expected: KindTextDelta},
		{name: "audio chunk", event: NewAudioChunk("AAAA"), expected: KindAudioChunk},
		{name: "stream error", event: NewStreamError("boom"), expected: KindStreamError},
		{name: "playback started", event: NewPlaybackStarted("clip-1"), expected: KindPlaybackStarted},
		{name: "playback ended", event: NewPlaybackEnded("clip-1"), expected: KindPlaybackEnded},
		{name: "playback blocked", event: NewPlaybackBlocked("clip-1"), expected: KindPlaybackBlocked},
		{name: "playback skipped", event: NewPlaybackSkipped("clip-1", "decode"), expected: KindPlaybackSkipped},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if got := testCase.event.Kind(); got != testCase.expected {
				t.Fatalf("expected kind %q, got %q", testCase.expected, got)
			}
			if testCase.event.Timestamp().IsZero() {
				t.Fatalf("expected timestamp to be set")
			}
		})
	}
}

func TestStreamKindsAreDistinct(t *testing.T) {
	seen := map[Kind]bool{}
	for _, kind := range []Kind{KindRecognition, KindTextDelta, KindAudioChunk, KindStreamError} {
		if seen[kind] {
			t.Fatalf("expected stream kinds to be distinct, %q repeated", kind)
		}
		seen[kind] = true
	}
}

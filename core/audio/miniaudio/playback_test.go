package miniaudio

import (
	"sync"
	"testing"
	"time"
)

func TestProcessMarksFiresOncePositionIsPlayed(t *testing.T) {
	client := playbackClient{}
	fired := make(chan string, 2)
	client.marks = []playbackMark{
		{name: "first", position: 100, callback: func(name string) { fired <- name }},
		{name: "second", position: 300, callback: func(name string) { fired <- name }},
	}

	client.processMarks(200)

	select {
	case name := <-fired:
		if name != "first" {
			t.Fatalf("expected first mark to fire, got %q", name)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected first mark to fire")
	}
	if len(client.marks) != 1 || client.marks[0].position != 100 {
		t.Fatalf("expected second mark to move to position 100, got %+v", client.marks)
	}

	select {
	case name := <-fired:
		t.Fatalf("expected second mark to wait, got %q", name)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestProcessAudioConsumesBufferAndPadsSilence(t *testing.T) {
	client := playbackClient{leftoverAudio: []byte{1, 2, 3, 4, 5, 6}}
	process := client.processAudio(4)

	output := make([]byte, 4)
	process(output, nil, 1)
	if string(output) != string([]byte{1, 2, 3, 4}) {
		t.Fatalf("expected first frame, got %v", output)
	}

	output = []byte{9, 9, 9, 9}
	process(output, nil, 1)
	if string(output) != string([]byte{5, 6, 0, 0}) {
		t.Fatalf("expected tail padded with silence, got %v", output)
	}
	if len(client.leftoverAudio) != 0 {
		t.Fatalf("expected buffer to be drained, got %d bytes", len(client.leftoverAudio))
	}
}

func TestClearBufferDropsMarks(t *testing.T) {
	client := playbackClient{leftoverAudio: []byte{1, 2}}
	var wg sync.WaitGroup
	_ = client.Mark("clip", func(string) { wg.Done() })

	client.ClearBuffer()

	if len(client.marks) != 0 || len(client.leftoverAudio) != 0 {
		t.Fatalf("expected buffer and marks to be cleared")
	}
}

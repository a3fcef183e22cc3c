package miniaudio

import (
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
)

type playbackClient struct {
	audioContext *malgo.AllocatedContext
	device       *malgo.Device
	config       malgo.DeviceConfig

	leftoverAudio []byte
	marks         []playbackMark

	mu      sync.Mutex
	audioMu sync.Mutex
	marksMu sync.Mutex
}

func (c *playbackClient) Init(audioContext *malgo.AllocatedContext) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.audioContext = audioContext
}

// Configure (re)creates the output device when the clip format differs from
// the current one. Pending audio is dropped on a format change.
func (c *playbackClient) Configure(sampleRate uint32, channels int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.audioContext == nil {
		return fmt.Errorf("device not initialized")
	}
	if c.device != nil && c.config.SampleRate == sampleRate && c.config.Playback.Channels == uint32(channels) {
		return nil
	}

	if c.device != nil {
		c.device.Uninit()
		c.device = nil
		c.ClearBuffer()
	}

	format := malgo.FormatS16
	bytesPerFrame := malgo.SampleSizeInBytes(format) * channels

	c.config = malgo.DefaultDeviceConfig(malgo.Playback)
	c.config.SampleRate = sampleRate
	c.config.Playback.Format = format
	c.config.Playback.Channels = uint32(channels)
	c.config.Alsa.NoMMap = 1
	c.config.PeriodSizeInFrames = sampleRate / 10 // ~100ms of audio
	c.config.Periods = 4

	var err error
	if c.device, err = malgo.InitDevice(
		c.audioContext.Context,
		c.config,
		malgo.DeviceCallbacks{Data: c.processAudio(bytesPerFrame)},
	); err != nil {
		return err
	}

	return nil
}

func (c *playbackClient) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device == nil {
		return fmt.Errorf("device not initialized")
	} else if c.device.IsStarted() {
		return nil
	}

	if err := c.device.Start(); err != nil {
		return fmt.Errorf("failed to start playback device: %w", err)
	}

	return nil
}

func (c *playbackClient) SendAudio(audio []byte) error {
	if c.device == nil {
		return fmt.Errorf("device not initialized")
	} else if !c.device.IsStarted() {
		return fmt.Errorf("device not started")
	}

	c.audioMu.Lock()
	defer c.audioMu.Unlock()
	c.leftoverAudio = append(c.leftoverAudio, audio...)
	return nil
}

func (c *playbackClient) ClearBuffer() {
	c.audioMu.Lock()
	c.marksMu.Lock()
	defer c.audioMu.Unlock()
	defer c.marksMu.Unlock()
	c.leftoverAudio = nil
	c.marks = nil
}

// Mark registers callback to run once everything sent so far has been played.
func (c *playbackClient) Mark(mark string, callback func(string)) error {
	c.audioMu.Lock()
	position := len(c.leftoverAudio)
	c.audioMu.Unlock()

	c.marksMu.Lock()
	defer c.marksMu.Unlock()
	c.marks = append(c.marks, playbackMark{
		name:     mark,
		position: position,
		callback: callback,
	})
	return nil
}

func (c *playbackClient) Uninit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.device == nil {
		return nil
	}

	c.device.Uninit()
	c.device = nil

	return nil
}

type playbackMark struct {
	name     string
	position int
	callback func(string)
}

func (c *playbackClient) processAudio(bytesPerFrame int) malgo.DataProc {
	return func(pOutput, _ []byte, frameCount uint32) {
		need := int(frameCount) * bytesPerFrame
		c.processMarks(need)

		c.audioMu.Lock()
		defer c.audioMu.Unlock()
		if len(c.leftoverAudio) == 0 {
			return
		}

		if len(c.leftoverAudio) < need {
			n := copy(pOutput, c.leftoverAudio)
			clear(pOutput[n:])
			c.leftoverAudio = nil
			return
		}

		_ = copy(pOutput, c.leftoverAudio[:need])
		c.leftoverAudio = c.leftoverAudio[need:]
	}
}

func (c *playbackClient) processMarks(until int) {
	c.marksMu.Lock()
	defer c.marksMu.Unlock()

	passedMarks := 0
	for i, mark := range c.marks {
		if mark.position >= until {
			c.marks[i].position -= until
		} else {
			passedMarks++
		}
	}
	if passedMarks == 0 {
		return
	}

	toCall := c.marks[:passedMarks]
	c.marks = c.marks[passedMarks:]
	go func() {
		for _, mark := range toCall {
			mark.callback(mark.name)
		}
	}()
}

package miniaudio

import (
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/koscakluka/ema-chat/core/audio"
)

type captureClient struct {
	audioContext *malgo.AllocatedContext
	device       *malgo.Device
	config       malgo.DeviceConfig
	encodingInfo audio.EncodingInfo

	recording []byte

	mu sync.Mutex
}

func (c *captureClient) Init(audioContext *malgo.AllocatedContext, encodingInfo audio.EncodingInfo) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sampleRate := uint32(encodingInfo.SampleRate)
	channels := encodingInfo.Channels
	format := malgo.FormatS16
	bytesPerFrame := malgo.SampleSizeInBytes(format) * channels

	c.config = malgo.DefaultDeviceConfig(malgo.Capture)
	c.config.SampleRate = sampleRate
	c.config.Capture.Format = format
	c.config.Capture.Channels = uint32(channels)
	c.config.Alsa.NoMMap = 1
	c.config.PerformanceProfile = malgo.LowLatency
	c.config.PeriodSizeInFrames = 480
	c.config.Periods = 3

	c.audioContext = audioContext
	c.encodingInfo = encodingInfo

	var err error
	c.device, err = malgo.InitDevice(c.audioContext.Context, c.config, malgo.DeviceCallbacks{
		Data: func(_, pInput []byte, frameCount uint32) {
			n := int(frameCount) * bytesPerFrame
			if len(pInput) < n || n == 0 {
				return
			}
			c.mu.Lock()
			c.recording = append(c.recording, pInput[:n]...)
			c.mu.Unlock()
		},
	})
	if err != nil {
		return fmt.Errorf("%w: failed to initialize capture device: %w", audio.ErrDeviceNotFound, err)
	}

	return nil
}

func (c *captureClient) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device == nil {
		return fmt.Errorf("%w: device not initialized", audio.ErrDeviceNotFound)
	} else if c.device.IsStarted() {
		return nil
	}

	c.recording = nil
	if err := c.device.Start(); err != nil {
		return fmt.Errorf("%w: failed to start capture device: %w", audio.ErrDeviceBusy, err)
	}

	return nil
}

// Stop ends the capture and hands over the raw PCM recorded since Start.
func (c *captureClient) Stop() ([]byte, error) {
	c.mu.Lock()
	device := c.device
	c.mu.Unlock()
	if device == nil {
		return nil, fmt.Errorf("device not initialized")
	}

	// The data callback takes mu, so the device is stopped without holding it.
	if device.IsStarted() {
		if err := device.Stop(); err != nil {
			return nil, fmt.Errorf("failed to stop device: %w", err)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	recording := c.recording
	c.recording = nil
	return recording, nil
}

func (c *captureClient) EncodingInfo() audio.EncodingInfo {
	return c.encodingInfo
}

func (c *captureClient) Uninit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.device != nil {
		c.device.Uninit()
		c.device = nil
	}

	c.recording = nil
	return nil
}

package miniaudio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/gen2brain/malgo"
	"github.com/hajimehoshi/go-mp3"
	"github.com/koscakluka/ema-chat/core/audio"
)

// mp3 frames are always decoded to 16 bit stereo.
const decodedChannels = 2

type Client struct {
	// audioContext is only saved to be able to uninitialize it, it is an
	// ownership thing
	audioContext *malgo.AllocatedContext
	playbackClient
	captureClient

	// suspended mirrors a platform autoplay policy: until the first play
	// requested by a user gesture, playback is refused.
	suspended atomic.Bool
}

type ClientOption func(*Client)

// WithAutoplay lets clips start without a prior user gesture.
func WithAutoplay() ClientOption {
	return func(c *Client) {
		c.suspended.Store(false)
	}
}

func NewClient(opts ...ClientOption) (*Client, error) {
	audioCtx, err := malgo.InitContext(
		nil,
		malgo.ContextConfig{},
		func(message string) { logger.Debug("malgo", "message", message) },
	)
	if err != nil {
		return nil, fmt.Errorf("%w: malgo InitContext failed: %w", audio.ErrDeviceNotFound, err)
	}

	client := Client{audioContext: audioCtx}
	client.suspended.Store(true)
	for _, opt := range opts {
		opt(&client)
	}

	client.playbackClient.Init(audioCtx)

	if err := client.captureClient.Init(audioCtx, audio.GetDefaultEncodingInfo()); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to initialize capture client: %w", err)
	}

	return &client, nil
}

// Play decodes clip and starts it on the output device. onEnded is called
// from a device goroutine once the last frame has been played.
func (c *Client) Play(ctx context.Context, clip *audio.Clip, onEnded func()) error {
	if c.suspended.Load() {
		if !audio.IsUserGesture(ctx) {
			return audio.ErrPlaybackNotAllowed
		}
		c.suspended.Store(false)
	}

	if clip.Format != audio.ClipFormatMP3 {
		return fmt.Errorf("%w: %s", audio.ErrUnsupportedClip, clip.Format)
	}
	data, err := clip.Bytes()
	if err != nil {
		return err
	}

	decoder, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to decode clip: %w", err)
	}
	pcm, err := io.ReadAll(decoder)
	if err != nil {
		return fmt.Errorf("failed to decode clip: %w", err)
	}

	if err := c.playbackClient.Configure(uint32(decoder.SampleRate()), decodedChannels); err != nil {
		return fmt.Errorf("failed to configure playback device: %w", err)
	}
	if err := c.playbackClient.Start(); err != nil {
		return err
	}
	if err := c.playbackClient.SendAudio(pcm); err != nil {
		return err
	}
	clipID := clip.ID
	return c.playbackClient.Mark(clipID, func(string) {
		logger.Debug("clip played", "clip", clipID)
		onEnded()
	})
}

// Stop drops queued audio without reporting it as played.
func (c *Client) Stop() error {
	c.playbackClient.ClearBuffer()
	return nil
}

func (c *Client) StartRecording(_ context.Context) error {
	return c.captureClient.Start()
}

// StopRecording ends the capture and returns the recording as a WAV file.
func (c *Client) StopRecording() ([]byte, error) {
	pcm, err := c.captureClient.Stop()
	if err != nil {
		return nil, err
	}
	return audio.EncodeWAV(pcm, c.captureClient.EncodingInfo()), nil
}

func (c *Client) Close() {
	_ = c.captureClient.Uninit()
	_ = c.playbackClient.Uninit()
	_ = c.audioContext.Uninit()
	c.audioContext.Free()
}

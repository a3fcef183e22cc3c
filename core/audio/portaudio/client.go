package portaudio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/koscakluka/ema-chat/core/audio"
)

// Client records the default input device through PortAudio.
type Client struct {
	bufferSize int
	stream     *portaudio.Stream
	in         []int16

	mu        sync.Mutex
	recording bytes.Buffer
	cancel    context.CancelFunc
	done      chan error
}

func NewClient(bufferSize int) (*Client, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: failed to initialize PortAudio: %w", audio.ErrDeviceNotFound, err)
	}

	in := make([]int16, bufferSize)
	stream, err := portaudio.OpenDefaultStream(audio.DefaultChannels, 0, audio.DefaultSampleRate, bufferSize, in)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("%w: failed to open PortAudio stream: %w", audio.ErrDeviceBusy, err)
	}

	return &Client{
		bufferSize: bufferSize,
		stream:     stream,
		in:         in,
	}, nil
}

func (c *Client) StartRecording(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		return nil
	}

	if err := c.stream.Start(); err != nil {
		return fmt.Errorf("%w: failed to start PortAudio stream: %w", audio.ErrDeviceBusy, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan error, 1)
	c.recording.Reset()
	go func() { c.done <- c.capture(ctx) }()
	return nil
}

func (c *Client) capture(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
			if err := c.stream.Read(); err != nil {
				logger.Warn("failed to read from PortAudio stream", "error", err)
				continue
			}

			c.mu.Lock()
			_ = binary.Write(&c.recording, binary.LittleEndian, c.in)
			c.mu.Unlock()
		}
	}
}

// StopRecording ends the capture and returns the recording as a WAV file.
func (c *Client) StopRecording() ([]byte, error) {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.mu.Unlock()
	if cancel == nil {
		return nil, fmt.Errorf("not recording")
	}

	cancel()
	if err := <-done; err != nil {
		return nil, err
	}
	if err := c.stream.Stop(); err != nil {
		return nil, fmt.Errorf("failed to stop PortAudio stream: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return audio.EncodeWAV(bytes.Clone(c.recording.Bytes()), c.EncodingInfo()), nil
}

func (c *Client) Close() {
	c.stream.Close()
	portaudio.Terminate()
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return audio.EncodingInfo{
		SampleRate: audio.DefaultSampleRate,
		Channels:   audio.DefaultChannels,
		Format:     audio.EncodingLinear16,
	}
}

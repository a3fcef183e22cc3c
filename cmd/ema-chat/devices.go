package main

import (
	"context"
	"errors"
	"fmt"

	voicechat "github.com/koscakluka/ema-chat/core"
	"github.com/koscakluka/ema-chat/core/audio"
	"github.com/koscakluka/ema-chat/core/audio/miniaudio"
	"github.com/koscakluka/ema-chat/core/audio/portaudio"
	"github.com/rs/zerolog/log"
)

const portaudioBufferSize = 1024

var errNoAudioDevice = fmt.Errorf("%w: audio is disabled", audio.ErrDeviceNotFound)

type recorder interface {
	StartRecording(ctx context.Context) error
	StopRecording() ([]byte, error)
}

type devices struct {
	player   voicechat.Player
	recorder recorder
	closers  []func()
	// openErr is reported when the user tries to record.
	openErr error
}

// openDevices opens the configured audio backend. A device that cannot be
// opened leaves the client usable for text, the error surfaces once the
// user asks for the microphone.
func openDevices(backendName string) *devices {
	d := &devices{}

	switch backendName {
	case audioBackendNone:
		d.openErr = errNoAudioDevice

	case audioBackendPortaudio:
		// PortAudio only records here, playback stays on miniaudio.
		player, err := miniaudio.NewClient()
		if err != nil {
			log.Warn().Err(err).Msg("Failed to open playback device")
		} else {
			d.player = player
			d.closers = append(d.closers, player.Close)
		}

		rec, err := portaudio.NewClient(portaudioBufferSize)
		if err != nil {
			d.openErr = err
			break
		}
		d.recorder = rec
		d.closers = append(d.closers, rec.Close)

	case audioBackendMiniaudio, "":
		client, err := miniaudio.NewClient()
		if err != nil {
			d.openErr = fmt.Errorf("%w: %w", audio.ErrDeviceNotFound, err)
			break
		}
		d.player = client
		d.recorder = client
		d.closers = append(d.closers, client.Close)

	default:
		d.openErr = fmt.Errorf("%w: unknown audio backend %q", audio.ErrInvalidRequest, backendName)
	}

	if d.openErr != nil && !errors.Is(d.openErr, errNoAudioDevice) {
		log.Warn().Err(d.openErr).Str("backend", backendName).Msg("Audio unavailable")
	}
	return d
}

func (d *devices) startRecording(ctx context.Context) error {
	if d.recorder == nil {
		return d.openErr
	}
	return d.recorder.StartRecording(ctx)
}

func (d *devices) stopRecording() ([]byte, error) {
	if d.recorder == nil {
		return nil, d.openErr
	}
	return d.recorder.StopRecording()
}

func (d *devices) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

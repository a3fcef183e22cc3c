package voicechat

import "github.com/koscakluka/ema-chat/core/events"

type eventEmitter func(events.Event)

func noopEventEmitter(events.Event) {}

func newCallbackEventEmitter(opts sessionCallbacks) eventEmitter {
	return func(event events.Event) {
		switch typedEvent := event.(type) {
		case events.PlaybackStarted:
			if opts.onPlaybackStarted != nil {
				opts.onPlaybackStarted(typedEvent.ClipID)
			}
		case events.PlaybackBlocked:
			if opts.onPlaybackBlocked != nil {
				opts.onPlaybackBlocked(typedEvent.ClipID)
			}
		}

		if opts.onPlaybackEvent != nil {
			opts.onPlaybackEvent(event)
		}
	}
}

package voicechat

import (
	"time"

	"github.com/koscakluka/ema-chat/core/conversations"
	"github.com/koscakluka/ema-chat/core/events"
)

const DefaultSystemPrompt = "You are a helpful AI assistant."

type SessionOption func(*Session)

type sessionCallbacks struct {
	onTranscript      func(conversationID string, messages []conversations.Message)
	onLoading         func(conversationID string, loading bool)
	onStreamFinished  func(conversationID string)
	onConversations   func(list conversations.List, activeID string)
	onPlaybackStarted func(clipID string)
	onPlaybackBlocked func(clipID string)
	onPlaybackEvent   func(events.Event)
}

// WithPlayer sets the device audio clips are played on. Without a player
// clips are queued but never played.
func WithPlayer(player Player) SessionOption {
	return func(s *Session) {
		s.player = player
	}
}

func WithDefaultSystemPrompt(prompt string) SessionOption {
	return func(s *Session) {
		s.defaultSystemPrompt = prompt
	}
}

func WithPlaybackSettleDelay(d time.Duration) SessionOption {
	return func(s *Session) {
		s.queueOptions = append(s.queueOptions, WithSettleDelay(d))
	}
}

func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) {
		s.now = now
	}
}

// WithTranscriptCallback is called after every transcript change, including
// the ones made while streaming.
func WithTranscriptCallback(callback func(conversationID string, messages []conversations.Message)) SessionOption {
	return func(s *Session) {
		s.callbacks.onTranscript = callback
	}
}

func WithLoadingCallback(callback func(conversationID string, loading bool)) SessionOption {
	return func(s *Session) {
		s.callbacks.onLoading = callback
	}
}

// WithStreamFinishedCallback is called once a turn has ended, successfully or
// not, so input can be handed back to the user.
func WithStreamFinishedCallback(callback func(conversationID string)) SessionOption {
	return func(s *Session) {
		s.callbacks.onStreamFinished = callback
	}
}

// WithConversationsCallback is called when conversations are created,
// switched, renamed or deleted.
func WithConversationsCallback(callback func(list conversations.List, activeID string)) SessionOption {
	return func(s *Session) {
		s.callbacks.onConversations = callback
	}
}

func WithPlaybackStartedCallback(callback func(clipID string)) SessionOption {
	return func(s *Session) {
		s.callbacks.onPlaybackStarted = callback
	}
}

// WithPlaybackBlockedCallback is called when a clip needs a manual play
// action before it can start.
func WithPlaybackBlockedCallback(callback func(clipID string)) SessionOption {
	return func(s *Session) {
		s.callbacks.onPlaybackBlocked = callback
	}
}

// WithPlaybackCallback receives every playback event.
func WithPlaybackCallback(callback func(events.Event)) SessionOption {
	return func(s *Session) {
		s.callbacks.onPlaybackEvent = callback
	}
}

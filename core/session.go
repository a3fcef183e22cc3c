package voicechat

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/koscakluka/ema-chat/core/audio"
	"github.com/koscakluka/ema-chat/core/backend"
	"github.com/koscakluka/ema-chat/core/conversations"
	"github.com/koscakluka/ema-chat/core/events"
	"github.com/koscakluka/ema-chat/core/settings"
	"github.com/koscakluka/ema-chat/core/storage"
	"github.com/koscakluka/ema-chat/core/stream"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	textTransportApology  = "Sorry, something went wrong while processing your message."
	voiceTransportApology = "Sorry, something went wrong while processing your voice input."
)

var (
	ErrStreamActive         = errors.New("a response is still streaming for this conversation")
	ErrEmptyMessage         = errors.New("message is empty")
	ErrEmptyRecording       = errors.New("recording is empty")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrNotLoaded            = errors.New("session not loaded")
	ErrUnknownModel         = errors.New("unknown model")
	ErrUnknownVoice         = errors.New("unknown voice")
)

// Session is the application state of the chat client: the conversations,
// the active one, the user settings and the turns streaming in.
//
// Every mutation is persisted immediately. A conversation accepts a new turn
// only while no other turn is streaming into it.
type Session struct {
	mu sync.Mutex

	backend           *backend.Client
	slots             storage.Store
	conversationStore *conversations.Store
	player            Player
	queue             *PlaybackQueue
	queueOptions      []PlaybackQueueOption

	list      conversations.List
	activeID  string
	settings  settings.Settings
	streaming map[string]bool
	loaded    bool

	defaultSystemPrompt string
	now                 func() time.Time
	callbacks           sessionCallbacks
}

func NewSession(client *backend.Client, slots storage.Store, opts ...SessionOption) *Session {
	s := &Session{
		backend:             client,
		slots:               slots,
		conversationStore:   conversations.NewStore(slots),
		settings:            settings.Default(),
		streaming:           map[string]bool{},
		defaultSystemPrompt: DefaultSystemPrompt,
		now:                 time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.queue = NewPlaybackQueue(s.player, append(s.queueOptions, withPlaybackEmitter(newCallbackEventEmitter(s.callbacks)))...)
	return s
}

// Load restores settings and conversations and activates the most recently
// updated conversation, creating one when none can be restored.
func (s *Session) Load(ctx context.Context) error {
	loadedSettings, err := settings.Load(ctx, s.slots)
	if err != nil {
		return err
	}

	list, err := s.conversationStore.Load(ctx)
	if errors.Is(err, conversations.ErrCorruptSlot) {
		logger.Warn("starting with a fresh conversation list", "error", err)
		list = conversations.List{}
	} else if err != nil {
		return err
	}

	s.mu.Lock()
	s.settings = loadedSettings
	s.list = list
	if recent, ok := list.MostRecent(); ok {
		s.activeID = recent.ID
	} else {
		s.newConversationLocked(s.defaultSystemPrompt)
	}
	s.loaded = true
	s.mu.Unlock()

	s.queue.SetEnabled(loadedSettings.EnableVoiceResponse)
	s.notifyConversations()
	return nil
}

// SendText sends a typed message in the active conversation and blocks until
// the reply has been streamed. Transport failures end up in the transcript,
// only precondition failures are returned.
func (s *Session) SendText(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}

	s.mu.Lock()
	conversation, opts, err := s.beginTurnLocked()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	reconciler := NewTextTurn(conversation.Messages, text, s.reconcilerOptions(conversation.ID)...)
	s.commitLocked(ctx, conversation.ID, reconciler.Transcript())
	s.mu.Unlock()

	s.notifyTranscript(conversation.ID, reconciler.Transcript())
	ctx, span := tracer.Start(ctx, "send text")
	defer span.End()
	span.SetAttributes(attribute.String("conversation.id", conversation.ID))

	turn := s.backend.StreamText(text, opts)
	s.consume(ctx, conversation.ID, reconciler, turn, textTransportApology)
	return nil
}

// SendAudio sends a recorded clip in the active conversation and blocks until
// the reply has been streamed.
func (s *Session) SendAudio(ctx context.Context, recording []byte) error {
	if len(recording) == 0 {
		return ErrEmptyRecording
	}

	s.mu.Lock()
	conversation, opts, err := s.beginTurnLocked()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	reconciler := NewVoiceTurn(conversation.Messages, VoiceInputPlaceholder, s.reconcilerOptions(conversation.ID)...)
	s.commitLocked(ctx, conversation.ID, reconciler.Transcript())
	s.mu.Unlock()

	s.notifyTranscript(conversation.ID, reconciler.Transcript())
	ctx, span := tracer.Start(ctx, "send audio")
	defer span.End()
	span.SetAttributes(
		attribute.String("conversation.id", conversation.ID),
		attribute.Int("request.audio_bytes", len(recording)),
	)

	turn := s.backend.StreamAudio(recording, opts)
	s.consume(ctx, conversation.ID, reconciler, turn, voiceTransportApology)
	return nil
}

// beginTurnLocked claims the active conversation for a new turn. The history
// sent along excludes the message being sent.
func (s *Session) beginTurnLocked() (conversations.Conversation, backend.Options, error) {
	if !s.loaded {
		return conversations.Conversation{}, backend.Options{}, ErrNotLoaded
	}
	conversation, ok := s.list.Find(s.activeID)
	if !ok {
		return conversations.Conversation{}, backend.Options{}, ErrConversationNotFound
	}
	if s.streaming[conversation.ID] {
		return conversations.Conversation{}, backend.Options{}, ErrStreamActive
	}
	s.streaming[conversation.ID] = true

	opts := backend.Options{
		History:             conversation.Messages,
		SystemPrompt:        conversation.SystemPrompt,
		Model:               s.settings.SelectedModel,
		EnableVoiceResponse: s.settings.EnableVoiceResponse,
		Voice:               s.settings.SelectedVoice,
	}
	return conversation, opts, nil
}

// reconcilerOptions routes audio to the queue only while the conversation
// is the active one.
func (s *Session) reconcilerOptions(conversationID string) []ReconcilerOption {
	return []ReconcilerOption{
		WithReconcilerClock(s.now),
		WithAudioSink(func(chunk events.AudioChunk) {
			s.mu.Lock()
			active := s.activeID == conversationID
			s.mu.Unlock()
			if !active {
				return
			}
			if err := s.queue.Enqueue(chunk.Data); err != nil {
				logger.Warn("dropping audio chunk", "error", err)
			}
		}),
	}
}

func (s *Session) consume(ctx context.Context, conversationID string, reconciler *Reconciler, turn *backend.Stream, apology string) {
	s.notifyLoading(conversationID, true)
	defer func() {
		transcript := reconciler.Finish()

		s.mu.Lock()
		s.commitLocked(context.WithoutCancel(ctx), conversationID, transcript)
		delete(s.streaming, conversationID)
		s.mu.Unlock()

		s.notifyTranscript(conversationID, transcript)
		s.notifyLoading(conversationID, false)
		if s.callbacks.onStreamFinished != nil {
			s.callbacks.onStreamFinished(conversationID)
		}
	}()

	for event, err := range turn.Events(ctx) {
		if errors.Is(err, stream.ErrMalformedLine) {
			continue
		} else if err != nil {
			logger.Error("turn stream failed", "conversation", conversationID, "error", err)
			reconciler.AppendNotice(apology)
			return
		}

		changed, err := reconciler.Apply(event)
		if err != nil {
			logger.Warn("event after end of turn", "kind", event.Kind(), "error", err)
			continue
		}
		if !changed {
			continue
		}

		transcript := reconciler.Transcript()
		s.mu.Lock()
		s.commitLocked(ctx, conversationID, transcript)
		s.mu.Unlock()
		s.notifyTranscript(conversationID, transcript)
	}
}

// ReportMediaError records a failed attempt to capture audio as an assistant
// message in the active conversation.
func (s *Session) ReportMediaError(ctx context.Context, mediaErr error) error {
	s.mu.Lock()
	conversation, ok := s.list.Find(s.activeID)
	if !ok {
		s.mu.Unlock()
		return ErrConversationNotFound
	}
	if s.streaming[conversation.ID] {
		s.mu.Unlock()
		return ErrStreamActive
	}

	logger.Warn("media access failed", "error", mediaErr)
	messages := append(slices.Clone(conversation.Messages), conversations.NewAssistantMessage(audio.MediaErrorMessage(mediaErr), s.now()))
	s.commitLocked(ctx, conversation.ID, messages)
	transcript, _ := s.list.Find(conversation.ID)
	s.mu.Unlock()

	s.notifyTranscript(conversation.ID, transcript.Messages)
	return nil
}

// commitLocked stores messages as the transcript of a conversation. A
// conversation deleted while its turn was streaming stays deleted.
func (s *Session) commitLocked(ctx context.Context, conversationID string, messages []conversations.Message) {
	conversation, ok := s.list.Find(conversationID)
	if !ok {
		return
	}
	s.list = s.list.Upsert(conversation.WithMessages(messages, s.now()))
	s.persistLocked(ctx)
}

func (s *Session) persistLocked(ctx context.Context) {
	if err := s.conversationStore.Save(ctx, s.list); err != nil {
		logger.Error("failed to persist conversations", "error", err)
	}
}

// NewConversation starts an empty conversation that keeps the system prompt
// of the active one.
func (s *Session) NewConversation(ctx context.Context) conversations.Conversation {
	s.mu.Lock()
	systemPrompt := s.defaultSystemPrompt
	if active, ok := s.list.Find(s.activeID); ok {
		systemPrompt = active.SystemPrompt
	}
	conversation := s.newConversationLocked(systemPrompt)
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.queue.Clear()
	s.notifyConversations()
	return conversation
}

func (s *Session) newConversationLocked(systemPrompt string) conversations.Conversation {
	conversation := conversations.New(systemPrompt, s.now())
	s.list = s.list.Upsert(conversation)
	s.activeID = conversation.ID
	return conversation
}

func (s *Session) SwitchConversation(ctx context.Context, id string) error {
	s.mu.Lock()
	if _, ok := s.list.Find(id); !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrConversationNotFound, id)
	}
	if id == s.activeID {
		s.mu.Unlock()
		return nil
	}
	s.persistLocked(ctx)
	s.activeID = id
	s.mu.Unlock()

	s.queue.Clear()
	s.notifyConversations()
	return nil
}

// DeleteConversation removes a conversation. Deleting the active one switches
// to the first remaining conversation, or to a new one when none is left.
func (s *Session) DeleteConversation(ctx context.Context, id string) error {
	s.mu.Lock()
	if _, ok := s.list.Find(id); !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrConversationNotFound, id)
	}
	s.list = s.list.Remove(id)
	wasActive := id == s.activeID
	if wasActive {
		if len(s.list) > 0 {
			s.activeID = s.list[0].ID
		} else {
			s.newConversationLocked(s.defaultSystemPrompt)
		}
	}
	s.persistLocked(ctx)
	s.mu.Unlock()

	if wasActive {
		s.queue.Clear()
	}
	s.notifyConversations()
	return nil
}

// ClearHistory empties the transcript of the active conversation.
func (s *Session) ClearHistory(ctx context.Context) error {
	s.mu.Lock()
	conversation, ok := s.list.Find(s.activeID)
	if !ok {
		s.mu.Unlock()
		return ErrConversationNotFound
	}
	if s.streaming[conversation.ID] {
		s.mu.Unlock()
		return ErrStreamActive
	}
	s.commitLocked(ctx, conversation.ID, []conversations.Message{})
	s.mu.Unlock()

	s.queue.Clear()
	s.notifyTranscript(conversation.ID, []conversations.Message{})
	s.notifyConversations()
	return nil
}

func (s *Session) SetSystemPrompt(ctx context.Context, prompt string) error {
	s.mu.Lock()
	conversation, ok := s.list.Find(s.activeID)
	if !ok {
		s.mu.Unlock()
		return ErrConversationNotFound
	}
	conversation.SystemPrompt = prompt
	conversation.UpdatedAt = s.now()
	s.list = s.list.Upsert(conversation)
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.notifyConversations()
	return nil
}

func (s *Session) SetVoiceResponse(ctx context.Context, enabled bool) error {
	err := s.updateSettings(ctx, func(current *settings.Settings) error {
		current.EnableVoiceResponse = enabled
		return nil
	})
	if err == nil {
		s.queue.SetEnabled(enabled)
	}
	return err
}

func (s *Session) SetVoice(ctx context.Context, voice string) error {
	return s.updateSettings(ctx, func(current *settings.Settings) error {
		if !settings.IsKnownVoice(voice) {
			return fmt.Errorf("%w: %q", ErrUnknownVoice, voice)
		}
		current.SelectedVoice = voice
		return nil
	})
}

func (s *Session) SetModel(ctx context.Context, model string) error {
	return s.updateSettings(ctx, func(current *settings.Settings) error {
		if !settings.IsKnownModel(model) {
			return fmt.Errorf("%w: %q", ErrUnknownModel, model)
		}
		current.SelectedModel = model
		return nil
	})
}

func (s *Session) updateSettings(ctx context.Context, update func(*settings.Settings) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated := s.settings
	if err := update(&updated); err != nil {
		return err
	}
	if err := settings.Save(ctx, s.slots, updated); err != nil {
		return err
	}
	s.settings = updated
	return nil
}

// ObserveUserGesture tells the session the user has interacted with the
// client, which lets queued audio start.
func (s *Session) ObserveUserGesture() {
	s.queue.ObserveUserGesture()
}

// ManualPlay resumes playback that was blocked waiting for a user gesture.
func (s *Session) ManualPlay(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "manual play")
	defer span.End()
	if err := s.queue.ManualPlay(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (s *Session) PlaybackState() PlaybackState {
	return s.queue.State()
}

func (s *Session) Active() conversations.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	conversation, _ := s.list.Find(s.activeID)
	return conversation
}

func (s *Session) Conversations() conversations.List {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append(conversations.List{}, s.list...)
}

func (s *Session) Settings() settings.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

func (s *Session) IsStreaming(conversationID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streaming[conversationID]
}

// Close stops playback and drops queued audio. The storage is owned by the
// caller.
func (s *Session) Close() {
	s.queue.Clear()
}

func (s *Session) notifyTranscript(conversationID string, messages []conversations.Message) {
	if s.callbacks.onTranscript != nil {
		s.callbacks.onTranscript(conversationID, messages)
	}
}

func (s *Session) notifyLoading(conversationID string, loading bool) {
	if s.callbacks.onLoading != nil {
		s.callbacks.onLoading(conversationID, loading)
	}
}

func (s *Session) notifyConversations() {
	if s.callbacks.onConversations == nil {
		return
	}
	s.mu.Lock()
	list, activeID := append(conversations.List{}, s.list...), s.activeID
	s.mu.Unlock()
	s.callbacks.onConversations(list, activeID)
}

package voicechat

import (
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/koscakluka/ema-chat/core/conversations"
	"github.com/koscakluka/ema-chat/core/events"
)

const (
	VoiceInputPlaceholder = "Processing voice input..."
	streamErrorPrefix     = "An error occurred: "
)

var ErrTurnFinished = errors.New("turn already finished")

// Reconciler applies the events of one streamed turn to a transcript.
//
// At most one user message (awaiting its recognition) and one assistant
// message (receiving text) are open at a time. Both are tracked by index, so
// messages appended in between, such as error notices, do not redirect text.
type Reconciler struct {
	transcript []conversations.Message

	isTextInputSession   bool
	hasOpenAssistantTurn bool
	hasCorrectedUserTurn bool
	assistantText        strings.Builder

	openUserIndex      int
	openAssistantIndex int
	finished           bool

	onAudio func(events.AudioChunk)
	now     func() time.Time
}

type ReconcilerOption func(*Reconciler)

// WithAudioSink receives the audio chunks of the turn. Without one they are
// dropped.
func WithAudioSink(onAudio func(events.AudioChunk)) ReconcilerOption {
	return func(r *Reconciler) {
		r.onAudio = onAudio
	}
}

func WithReconcilerClock(now func() time.Time) ReconcilerOption {
	return func(r *Reconciler) {
		r.now = now
	}
}

func newReconciler(transcript []conversations.Message, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		transcript:         slices.Clone(transcript),
		openUserIndex:      -1,
		openAssistantIndex: -1,
		now:                time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewTextTurn starts a typed turn. The user message is appended frozen.
func NewTextTurn(transcript []conversations.Message, text string, opts ...ReconcilerOption) *Reconciler {
	r := newReconciler(transcript, opts...)
	r.isTextInputSession = true
	r.transcript = append(r.transcript, conversations.NewUserMessage(text, r.now()))
	return r
}

// NewVoiceTurn starts a spoken turn. The user message holds placeholder until
// the first recognition replaces it.
func NewVoiceTurn(transcript []conversations.Message, placeholder string, opts ...ReconcilerOption) *Reconciler {
	r := newReconciler(transcript, opts...)
	r.transcript = append(r.transcript, conversations.NewUserMessage(placeholder, r.now()))
	r.openUserIndex = len(r.transcript) - 1
	return r
}

// Apply applies one event and reports whether the transcript changed.
func (r *Reconciler) Apply(event events.Event) (bool, error) {
	if r.finished {
		return false, ErrTurnFinished
	}

	switch e := event.(type) {
	case events.Recognition:
		return r.applyRecognition(e.Text), nil
	case events.TextDelta:
		return r.applyTextDelta(e.Text), nil
	case events.AudioChunk:
		if r.onAudio != nil {
			r.onAudio(e)
		}
		return false, nil
	case events.StreamError:
		r.AppendNotice(streamErrorPrefix + e.Message)
		return true, nil
	default:
		return false, nil
	}
}

// applyRecognition corrects the open user message once. Recognition in a
// text turn, a second recognition, and recognition arriving after the
// assistant started answering are ignored.
func (r *Reconciler) applyRecognition(text string) bool {
	if r.isTextInputSession || r.hasCorrectedUserTurn || r.hasOpenAssistantTurn || r.openUserIndex < 0 {
		return false
	}

	r.transcript[r.openUserIndex].Content = text
	r.hasCorrectedUserTurn = true
	r.openUserIndex = -1
	return true
}

// applyTextDelta opens the assistant message on the first text delta. Only
// text opens it, so a voice turn shows no reply until the model writes.
func (r *Reconciler) applyTextDelta(text string) bool {
	if !r.hasOpenAssistantTurn {
		r.transcript = append(r.transcript, conversations.NewAssistantMessage("", r.now()))
		r.openAssistantIndex = len(r.transcript) - 1
		r.hasOpenAssistantTurn = true
	}

	r.assistantText.WriteString(text)
	r.transcript[r.openAssistantIndex].Content = r.assistantText.String()
	return true
}

// AppendNotice adds a standalone assistant message without touching the
// open turns.
func (r *Reconciler) AppendNotice(content string) {
	r.transcript = append(r.transcript, conversations.NewAssistantMessage(content, r.now()))
}

// Finish freezes the transcript. The stream ending is the only completion
// signal, whatever is open stays as the final content.
func (r *Reconciler) Finish() []conversations.Message {
	r.finished = true
	r.openUserIndex = -1
	r.openAssistantIndex = -1
	return r.Transcript()
}

func (r *Reconciler) Transcript() []conversations.Message {
	return slices.Clone(r.transcript)
}

func (r *Reconciler) HasOpenAssistantTurn() bool {
	return r.hasOpenAssistantTurn && !r.finished
}

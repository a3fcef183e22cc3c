package events

const (
	// KindRecognition identifies the finalized transcription of the user's spoken input.
	KindRecognition Kind = "stream.recognition"
	// KindTextDelta identifies an incremental assistant text fragment.
	KindTextDelta Kind = "stream.text_delta"
	// KindAudioChunk identifies one synthesized speech segment of the assistant turn.
	KindAudioChunk Kind = "stream.audio_chunk"
	// KindStreamError identifies a failure notice reported by the backend.
	KindStreamError Kind = "stream.error"
)

// Recognition carries the finalized transcription of the user's voice input.
type Recognition struct {
	Base
	Text string
}

// NewRecognition creates a recognition event.
func NewRecognition(text string) Recognition {
	return Recognition{Base: NewBase(KindRecognition), Text: text}
}

// TextDelta carries an append-only piece of assistant output.
type TextDelta struct {
	Base
	Text string
}

// NewTextDelta creates a text delta event.
func NewTextDelta(text string) TextDelta {
	return TextDelta{Base: NewBase(KindTextDelta), Text: text}
}

// AudioChunk carries one base64 encoded compressed audio clip.
type AudioChunk struct {
	Base
	Data string
}

// NewAudioChunk creates an audio chunk event.
func NewAudioChunk(data string) AudioChunk {
	return AudioChunk{Base: NewBase(KindAudioChunk), Data: data}
}

// StreamError carries a human-readable failure description sent by the backend.
type StreamError struct {
	Base
	Message string
}

// NewStreamError creates a stream error event.
func NewStreamError(message string) StreamError {
	return StreamError{Base: NewBase(KindStreamError), Message: message}
}

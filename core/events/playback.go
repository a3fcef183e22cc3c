package events

const (
	// KindPlaybackStarted identifies the start of a queued clip.
	KindPlaybackStarted Kind = "playback.started"
	// KindPlaybackEnded identifies natural completion of a queued clip.
	KindPlaybackEnded Kind = "playback.ended"
	// KindPlaybackBlocked identifies a clip waiting on a manual play action.
	KindPlaybackBlocked Kind = "playback.blocked"
	// KindPlaybackSkipped identifies a clip dropped after a playback failure.
	KindPlaybackSkipped Kind = "playback.skipped"
)

// PlaybackStarted marks the start of clip playback.
type PlaybackStarted struct {
	Base
	ClipID string
}

// NewPlaybackStarted creates a playback started event.
func NewPlaybackStarted(clipID string) PlaybackStarted {
	return PlaybackStarted{Base: NewBase(KindPlaybackStarted), ClipID: clipID}
}

// PlaybackEnded marks the completion of clip playback.
type PlaybackEnded struct {
	Base
	ClipID string
}

// NewPlaybackEnded creates a playback ended event.
func NewPlaybackEnded(clipID string) PlaybackEnded {
	return PlaybackEnded{Base: NewBase(KindPlaybackEnded), ClipID: clipID}
}

// PlaybackBlocked marks a clip the platform refused to start without a user
// gesture. The clip stays at the head of the queue.
type PlaybackBlocked struct {
	Base
	ClipID string
}

// NewPlaybackBlocked creates a playback blocked event.
func NewPlaybackBlocked(clipID string) PlaybackBlocked {
	return PlaybackBlocked{Base: NewBase(KindPlaybackBlocked), ClipID: clipID}
}

// PlaybackSkipped marks a clip that was discarded because it could not be played.
type PlaybackSkipped struct {
	Base
	ClipID string
	Reason string
}

// NewPlaybackSkipped creates a playback skipped event.
func NewPlaybackSkipped(clipID, reason string) PlaybackSkipped {
	return PlaybackSkipped{Base: NewBase(KindPlaybackSkipped), ClipID: clipID, Reason: reason}
}

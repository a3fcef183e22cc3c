// Package events defines the typed event contract shared by the stream parser,
// the transcript reconciler and the playback queue.
//
// Event kinds are grouped by namespace:
//
//   - stream.*
//   - playback.*
//
// stream events
//
// These form the input alphabet of the transcript reconciler. Each one is
// decoded from a single wire line.
//
//   - Recognition (stream.recognition): finalized transcription of the user's
//     spoken input; corrects the open user message of a voice turn.
//   - TextDelta (stream.text_delta): append-only assistant text fragment.
//   - AudioChunk (stream.audio_chunk): base64 encoded speech clip; routed to
//     playback and never stored in the transcript.
//   - StreamError (stream.error): failure notice from the backend; the stream
//     is still read afterwards.
//
// playback events
//
//   - PlaybackStarted (playback.started): a queued clip started playing.
//   - PlaybackEnded (playback.ended): a clip finished and was released.
//   - PlaybackBlocked (playback.blocked): the platform refused to start the head
//     clip without a user gesture; a manual play action is required.
//   - PlaybackSkipped (playback.skipped): the head clip failed for another
//     reason and was dropped.
package events

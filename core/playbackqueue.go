package voicechat

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/koscakluka/ema-chat/core/audio"
	"github.com/koscakluka/ema-chat/core/events"
)

const DefaultSettleDelay = 100 * time.Millisecond

var ErrInvalidClip = errors.New("invalid audio clip")

// Player renders one clip at a time.
type Player interface {
	// Play starts clip and calls onEnded once it has been fully played. An
	// error wrapping audio.ErrPlaybackNotAllowed means the platform wants a
	// user gesture first.
	Play(ctx context.Context, clip *audio.Clip, onEnded func()) error
	// Stop drops whatever is playing without calling onEnded.
	Stop() error
}

type PlaybackState int

const (
	PlaybackIdle PlaybackState = iota
	PlaybackPlaying
	PlaybackBlocked
)

func (s PlaybackState) String() string {
	switch s {
	case PlaybackIdle:
		return "idle"
	case PlaybackPlaying:
		return "playing"
	case PlaybackBlocked:
		return "blocked"
	default:
		return fmt.Sprintf("PlaybackState(%d)", int(s))
	}
}

// PlaybackQueue plays audio clips in arrival order, never more than one at a
// time.
//
// Nothing starts until a user gesture has been observed. When the player
// refuses to start the head clip for lack of a gesture the queue is Blocked
// and keeps that clip until ManualPlay succeeds.
type PlaybackQueue struct {
	mu sync.Mutex

	player      Player
	clips       []*audio.Clip
	state       PlaybackState
	settleDelay time.Duration
	settleTimer *time.Timer

	enabled             bool
	userGestureObserved bool

	// generation invalidates callbacks of clips dropped by Clear.
	generation int

	emit eventEmitter
}

type PlaybackQueueOption func(*PlaybackQueue)

func WithSettleDelay(d time.Duration) PlaybackQueueOption {
	return func(q *PlaybackQueue) {
		q.settleDelay = d
	}
}

func withPlaybackEmitter(emit eventEmitter) PlaybackQueueOption {
	return func(q *PlaybackQueue) {
		q.emit = emit
	}
}

func NewPlaybackQueue(player Player, opts ...PlaybackQueueOption) *PlaybackQueue {
	q := &PlaybackQueue{
		player:      player,
		settleDelay: DefaultSettleDelay,
		enabled:     true,
		emit:        noopEventEmitter,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue decodes a base64 clip and appends it. It is a no-op while voice
// responses are disabled.
func (q *PlaybackQueue) Enqueue(data string) error {
	q.mu.Lock()
	if !q.enabled {
		q.mu.Unlock()
		return nil
	}
	q.mu.Unlock()

	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidClip, err)
	}
	if len(decoded) == 0 {
		return fmt.Errorf("%w: empty clip", ErrInvalidClip)
	}
	clip := audio.NewClip(decoded, audio.ClipFormatMP3)

	q.mu.Lock()
	if !q.enabled {
		q.mu.Unlock()
		clip.Release()
		return nil
	}
	q.clips = append(q.clips, clip)
	start := q.userGestureObserved && q.state == PlaybackIdle
	head, generation := q.reserveHeadLocked(start)
	q.mu.Unlock()

	if head != nil {
		q.play(context.Background(), head, generation)
	}
	return nil
}

// ObserveUserGesture records that the user has interacted with the client and
// starts any waiting clip.
func (q *PlaybackQueue) ObserveUserGesture() {
	q.mu.Lock()
	if q.userGestureObserved {
		q.mu.Unlock()
		return
	}
	q.userGestureObserved = true
	head, generation := q.reserveHeadLocked(q.state == PlaybackIdle)
	q.mu.Unlock()

	if head != nil {
		q.play(context.Background(), head, generation)
	}
}

// ManualPlay retries the head clip on behalf of the user. It is the way out of
// the Blocked state.
func (q *PlaybackQueue) ManualPlay(ctx context.Context) error {
	q.mu.Lock()
	q.userGestureObserved = true
	if q.state == PlaybackPlaying {
		q.mu.Unlock()
		return nil
	}
	head, generation := q.reserveHeadLocked(true)
	q.mu.Unlock()

	if head == nil {
		return nil
	}
	return q.play(audio.WithUserGesture(ctx), head, generation)
}

// SetEnabled toggles voice responses. Disabling drops every pending clip.
func (q *PlaybackQueue) SetEnabled(enabled bool) {
	q.mu.Lock()
	q.enabled = enabled
	q.mu.Unlock()
	if !enabled {
		q.Clear()
	}
}

// Clear stops playback and releases every queued clip.
func (q *PlaybackQueue) Clear() {
	q.mu.Lock()
	q.generation++
	if q.settleTimer != nil {
		q.settleTimer.Stop()
		q.settleTimer = nil
	}
	clips := q.clips
	q.clips = nil
	wasPlaying := q.state == PlaybackPlaying
	q.state = PlaybackIdle
	q.mu.Unlock()

	for _, clip := range clips {
		clip.Release()
	}
	if wasPlaying && q.player != nil {
		if err := q.player.Stop(); err != nil {
			logger.Warn("failed to stop player", "error", err)
		}
	}
}

func (q *PlaybackQueue) State() PlaybackState {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state
}

func (q *PlaybackQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.clips)
}

func (q *PlaybackQueue) UserGestureObserved() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.userGestureObserved
}

// reserveHeadLocked marks the queue Playing before the player is called, so
// no other path can start a second clip meanwhile.
func (q *PlaybackQueue) reserveHeadLocked(start bool) (*audio.Clip, int) {
	if !start || len(q.clips) == 0 || q.player == nil {
		return nil, 0
	}
	q.state = PlaybackPlaying
	return q.clips[0], q.generation
}

// play must be called without holding mu. Once a gesture has been observed
// every clip is started with it, including those queued later.
func (q *PlaybackQueue) play(ctx context.Context, clip *audio.Clip, generation int) error {
	q.mu.Lock()
	if q.userGestureObserved {
		ctx = audio.WithUserGesture(ctx)
	}
	q.mu.Unlock()

	err := q.player.Play(ctx, clip, func() { q.ended(clip, generation) })

	q.mu.Lock()
	if generation != q.generation || len(q.clips) == 0 || q.clips[0] != clip {
		q.mu.Unlock()
		return err
	}

	switch {
	case err == nil:
		q.mu.Unlock()
		q.emit(events.NewPlaybackStarted(clip.ID))
		return nil

	case errors.Is(err, audio.ErrPlaybackNotAllowed):
		q.state = PlaybackBlocked
		q.mu.Unlock()
		logger.Info("playback blocked until user gesture", "clip", clip.ID)
		q.emit(events.NewPlaybackBlocked(clip.ID))
		return err

	default:
		q.clips = q.clips[1:]
		next, nextGeneration := q.reserveHeadLocked(true)
		if next == nil {
			q.state = PlaybackIdle
		}
		q.mu.Unlock()

		clip.Release()
		logger.Warn("skipping clip that failed to play", "clip", clip.ID, "error", err)
		q.emit(events.NewPlaybackSkipped(clip.ID, err.Error()))
		if next != nil {
			q.play(context.Background(), next, nextGeneration)
		}
		return err
	}
}

func (q *PlaybackQueue) ended(clip *audio.Clip, generation int) {
	q.mu.Lock()
	if generation != q.generation || len(q.clips) == 0 || q.clips[0] != clip {
		q.mu.Unlock()
		return
	}

	q.clips = q.clips[1:]
	if len(q.clips) == 0 {
		q.state = PlaybackIdle
	} else {
		q.settleTimer = time.AfterFunc(q.settleDelay, func() { q.startAfterSettle(generation) })
	}
	q.mu.Unlock()

	clip.Release()
	q.emit(events.NewPlaybackEnded(clip.ID))
}

func (q *PlaybackQueue) startAfterSettle(generation int) {
	q.mu.Lock()
	if generation != q.generation {
		q.mu.Unlock()
		return
	}
	q.settleTimer = nil
	head, headGeneration := q.reserveHeadLocked(true)
	if head == nil {
		q.state = PlaybackIdle
	}
	q.mu.Unlock()

	if head != nil {
		q.play(context.Background(), head, headGeneration)
	}
}

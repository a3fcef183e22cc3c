package audio

import (
	"sync"

	"github.com/google/uuid"
)

type ClipFormat string

const (
	ClipFormatMP3 ClipFormat = "audio/mpeg"
	ClipFormatWAV ClipFormat = "audio/wav"
)

// Clip is a playable handle owning one decoded audio buffer. Once released
// its bytes are gone and it cannot be played again.
type Clip struct {
	ID     string
	Format ClipFormat

	mu       sync.Mutex
	data     []byte
	released bool
}

func NewClip(data []byte, format ClipFormat) *Clip {
	return &Clip{
		ID:     "clip-" + uuid.NewString(),
		Format: format,
		data:   data,
	}
}

// Bytes returns the clip content, or ErrClipReleased after Release.
func (c *Clip) Bytes() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.released {
		return nil, ErrClipReleased
	}
	return c.data, nil
}

func (c *Clip) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

func (c *Clip) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = nil
	c.released = true
}

func (c *Clip) Released() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.released
}

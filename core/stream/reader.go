package stream

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/koscakluka/ema-chat/core/events"
)

const readBufferSize = 4096

// Events reads r to the end and yields the stream events it carries, in wire
// order.
//
// Errors wrapping ErrMalformedLine are yielded for lines that could not be
// decoded and iteration continues after them. Any other error is terminal.
// A fragment left without a trailing newline when r ends is dropped.
func Events(ctx context.Context, r io.Reader) func(yield func(events.Event, error) bool) {
	return func(yield func(events.Event, error) bool) {
		decoder := LineDecoder{}
		buf := make([]byte, readBufferSize)
		for {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}

			n, err := r.Read(buf)
			if n > 0 {
				for _, line := range decoder.Feed(buf[:n]) {
					event, parseErr := ParseLine(line)
					if parseErr != nil {
						if !yield(nil, parseErr) {
							return
						}
						continue
					}
					if event == nil {
						continue
					}
					if !yield(event, nil) {
						return
					}
				}
			}

			if errors.Is(err, io.EOF) {
				if dropped := decoder.Pending(); dropped > 0 {
					logger.Debug("dropping incomplete final line", "bytes", dropped)
				}
				decoder.End()
				return
			} else if err != nil {
				yield(nil, fmt.Errorf("error reading stream: %w", err))
				return
			}
		}
	}
}

package stream

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/koscakluka/ema-chat/core/events"
)

const (
	dataPrefix = "data: "

	envelopeMessage = "message"
	envelopeError   = "error"

	payloadRecognition = "recognition"
	payloadText        = "text"
	payloadAudio       = "audio"
	payloadError       = "error"

	roleUser = "user"
)

var ErrMalformedLine = errors.New("malformed stream line")

type envelope struct {
	Event *string         `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type payload struct {
	Type    *string `json:"type"`
	Content string  `json:"content"`
	Role    string  `json:"role,omitempty"`
	Error   *string `json:"error,omitempty"`
}

// ParseLine maps one complete line to a stream event.
//
// A nil event with a nil error means the line carries nothing for the
// reconciler: blank lines, comments, unknown payload types and envelope events
// other than message and error. Lines that fail to decode return an error
// wrapping ErrMalformedLine.
func ParseLine(line string) (events.Event, error) {
	trimmed := strings.TrimSpace(line)
	switch {
	case trimmed == "":
		return nil, nil
	case strings.HasPrefix(trimmed, "{"):
		return parseEnvelope(trimmed)
	case strings.HasPrefix(line, dataPrefix):
		return parseBare(strings.TrimPrefix(line, dataPrefix))
	default:
		return nil, nil
	}
}

func parseEnvelope(line string) (events.Event, error) {
	var env envelope
	if err := json.Unmarshal([]byte(line), &env); err != nil {
		return nil, fmt.Errorf("%w: error unmarshalling envelope: %w", ErrMalformedLine, err)
	}
	if env.Event == nil {
		return nil, nil
	}

	data, err := envelopeData(env.Data)
	if err != nil {
		return nil, err
	}

	switch *env.Event {
	case envelopeMessage:
		var p payload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("%w: error unmarshalling message data: %w", ErrMalformedLine, err)
		}
		return p.event(), nil

	case envelopeError:
		var p payload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("%w: error unmarshalling error data: %w", ErrMalformedLine, err)
		}
		return events.NewStreamError(p.errorMessage()), nil

	default:
		return nil, nil
	}
}

// envelopeData unwraps the nested payload. The backend sends it as a JSON
// encoded string, an inline object is tolerated as well.
func envelopeData(raw json.RawMessage) ([]byte, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, fmt.Errorf("%w: envelope has no data", ErrMalformedLine)
	}
	if raw[0] != '"' {
		return raw, nil
	}

	var nested string
	if err := json.Unmarshal(raw, &nested); err != nil {
		return nil, fmt.Errorf("%w: error unmarshalling envelope data: %w", ErrMalformedLine, err)
	}
	return []byte(nested), nil
}

func parseBare(data string) (events.Event, error) {
	var p payload
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("%w: error unmarshalling data: %w", ErrMalformedLine, err)
	}
	return p.event(), nil
}

func (p payload) event() events.Event {
	if p.Type == nil {
		if p.Error != nil {
			return events.NewStreamError(*p.Error)
		}
		return nil
	}

	switch *p.Type {
	case payloadRecognition:
		return events.NewRecognition(p.Content)
	case payloadText:
		// The voice endpoint reports the recognised prompt as user text.
		if p.Role == roleUser {
			return events.NewRecognition(p.Content)
		}
		return events.NewTextDelta(p.Content)
	case payloadAudio:
		return events.NewAudioChunk(p.Content)
	case payloadError:
		return events.NewStreamError(p.errorMessage())
	default:
		return nil
	}
}

func (p payload) errorMessage() string {
	switch {
	case p.Error != nil && *p.Error != "":
		return *p.Error
	case p.Content != "":
		return p.Content
	default:
		return "unknown error"
	}
}

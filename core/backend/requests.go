package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/jinzhu/copier"
	"github.com/koscakluka/ema-chat/core/conversations"
)

// Options are the per-turn preferences sent along with the prompt.
type Options struct {
	History             []conversations.Message
	SystemPrompt        string
	Model               string
	EnableVoiceResponse bool
	Voice               string
}

// voice is only sent when the backend is asked to speak with a chosen voice.
func (o Options) voice() *string {
	if !o.EnableVoiceResponse || o.Voice == "" {
		return nil
	}
	return &o.Voice
}

type historyMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func toHistory(messages []conversations.Message) []historyMessage {
	history := []historyMessage{}
	if len(messages) > 0 {
		copier.Copy(&history, conversations.History(messages))
	}
	return history
}

type textRequestBody struct {
	Text                string           `json:"text"`
	History             []historyMessage `json:"history"`
	SystemPrompt        string           `json:"systemPrompt"`
	Model               string           `json:"model"`
	EnableVoiceResponse bool             `json:"enableVoiceResponse"`
	Voice               *string          `json:"voice,omitempty"`
}

// StreamText starts a text turn.
func (c *Client) StreamText(text string, opts Options) *Stream {
	return &Stream{
		client: c,
		kind:   "text",
		model:  opts.Model,
		build: func(ctx context.Context) (*http.Request, error) {
			body, err := json.Marshal(textRequestBody{
				Text:                text,
				History:             toHistory(opts.History),
				SystemPrompt:        opts.SystemPrompt,
				Model:               opts.Model,
				EnableVoiceResponse: opts.EnableVoiceResponse,
				Voice:               opts.voice(),
			})
			if err != nil {
				return nil, fmt.Errorf("error marshalling JSON: %w", err)
			}

			req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+textStreamPath, bytes.NewReader(body))
			if err != nil {
				return nil, fmt.Errorf("error creating HTTP request: %w", err)
			}
			req.Header.Set("Content-Type", "application/json")
			return req, nil
		},
	}
}

// StreamAudio starts a voice turn with a recorded clip.
func (c *Client) StreamAudio(recording []byte, opts Options) *Stream {
	return &Stream{
		client: c,
		kind:   "audio",
		model:  opts.Model,
		build: func(ctx context.Context) (*http.Request, error) {
			history, err := json.Marshal(toHistory(opts.History))
			if err != nil {
				return nil, fmt.Errorf("error marshalling history: %w", err)
			}

			body := &bytes.Buffer{}
			form := multipart.NewWriter(body)
			audioPart, err := form.CreateFormFile("audio", "recording.wav")
			if err != nil {
				return nil, fmt.Errorf("error creating audio field: %w", err)
			}
			if _, err := audioPart.Write(recording); err != nil {
				return nil, fmt.Errorf("error writing audio field: %w", err)
			}

			fields := [][2]string{
				{"history", string(history)},
				{"systemPrompt", opts.SystemPrompt},
				{"model", opts.Model},
				{"enableVoiceResponse", strconv.FormatBool(opts.EnableVoiceResponse)},
			}
			// The voice form carries the chosen voice even with voice responses off.
			if opts.Voice != "" {
				fields = append(fields, [2]string{"voice", opts.Voice})
			}
			for _, field := range fields {
				if err := form.WriteField(field[0], field[1]); err != nil {
					return nil, fmt.Errorf("error writing %s field: %w", field[0], err)
				}
			}
			if err := form.Close(); err != nil {
				return nil, fmt.Errorf("error closing form: %w", err)
			}

			req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+audioStreamPath, body)
			if err != nil {
				return nil, fmt.Errorf("error creating HTTP request: %w", err)
			}
			req.Header.Set("Content-Type", form.FormDataContentType())
			return req, nil
		},
	}
}

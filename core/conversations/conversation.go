package conversations

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

const (
	titleLength     = 20
	titleEllipsis   = "..."
	newTitle        = "New conversation"
	titleTimeLayout = "2006-01-02 15:04:05"
)

type Conversation struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Messages     []Message `json:"messages"`
	SystemPrompt string    `json:"systemPrompt"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func New(systemPrompt string, now time.Time) Conversation {
	return Conversation{
		ID:           uuid.NewString(),
		Title:        Title(nil, now),
		Messages:     []Message{},
		SystemPrompt: systemPrompt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Title derives a conversation title from its first user message.
func Title(messages []Message, now time.Time) string {
	for _, message := range messages {
		if message.Role != RoleUser || message.Content == "" {
			continue
		}
		runes := []rune(message.Content)
		if len(runes) > titleLength {
			return string(runes[:titleLength]) + titleEllipsis
		}
		return message.Content
	}
	return fmt.Sprintf("%s %s", newTitle, now.Format(titleTimeLayout))
}

// WithMessages returns a copy of c holding messages, with the title and
// update time refreshed.
func (c Conversation) WithMessages(messages []Message, now time.Time) Conversation {
	c.Messages = slices.Clone(messages)
	c.Title = Title(c.Messages, now)
	c.UpdatedAt = now
	return c
}

// IsEmpty reports whether the conversation has no messages yet.
func (c Conversation) IsEmpty() bool {
	return len(c.Messages) == 0
}

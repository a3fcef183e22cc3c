package conversations

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a transcript.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

func NewUserMessage(content string, createdAt time.Time) Message {
	return Message{Role: RoleUser, Content: content, CreatedAt: createdAt}
}

func NewAssistantMessage(content string, createdAt time.Time) Message {
	return Message{Role: RoleAssistant, Content: content, CreatedAt: createdAt}
}

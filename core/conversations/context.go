package conversations

import "slices"

// History returns the messages that give the backend context for the next
// turn. Ordering: oldest -> newest. Messages without content are left out.
func History(messages []Message) []Message {
	history := make([]Message, 0, len(messages))
	for _, message := range messages {
		if message.Content == "" {
			continue
		}
		history = append(history, message)
	}
	return slices.Clip(history)
}

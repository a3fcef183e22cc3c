package conversations

import "slices"

// List is an ordered set of conversations, newest first.
type List []Conversation

func (l List) Find(id string) (Conversation, bool) {
	i := l.index(id)
	if i < 0 {
		return Conversation{}, false
	}
	return l[i], true
}

// Upsert replaces the conversation with the same id in place, or prepends it.
func (l List) Upsert(c Conversation) List {
	if i := l.index(c.ID); i >= 0 {
		updated := slices.Clone(l)
		updated[i] = c
		return updated
	}
	return append(List{c}, l...)
}

func (l List) Remove(id string) List {
	return slices.DeleteFunc(slices.Clone(l), func(c Conversation) bool { return c.ID == id })
}

// MostRecent returns the conversation with the latest update time.
func (l List) MostRecent() (Conversation, bool) {
	if len(l) == 0 {
		return Conversation{}, false
	}
	return slices.MaxFunc(l, func(a, b Conversation) int { return a.UpdatedAt.Compare(b.UpdatedAt) }), true
}

func (l List) index(id string) int {
	return slices.IndexFunc(l, func(c Conversation) bool { return c.ID == id })
}

package conversations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/koscakluka/ema-chat/core/storage"
)

const Slot = "voiceChatConversations"

var ErrCorruptSlot = errors.New("stored conversations are corrupt")

// Store keeps the whole conversation list in a single storage slot.
type Store struct {
	slots storage.Store
}

func NewStore(slots storage.Store) *Store {
	return &Store{slots: slots}
}

// Load returns the persisted conversations. An empty slot yields an empty list.
func (s *Store) Load(ctx context.Context) (List, error) {
	raw, err := s.slots.Get(ctx, Slot)
	if err != nil {
		return nil, fmt.Errorf("failed to read conversations: %w", err)
	}
	if raw == nil {
		return List{}, nil
	}

	var list List
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptSlot, err)
	}
	if list == nil {
		list = List{}
	}
	return list, nil
}

func (s *Store) Save(ctx context.Context, list List) error {
	raw, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("error marshalling conversations: %w", err)
	}
	if err := s.slots.Set(ctx, Slot, raw); err != nil {
		return fmt.Errorf("failed to write conversations: %w", err)
	}
	return nil
}

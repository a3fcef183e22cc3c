package storage

import "context"

// Store persists opaque values under named slots.
type Store interface {
	// Get returns the value stored in slot.
	// Returns nil if the slot is empty (not an error).
	Get(ctx context.Context, slot string) ([]byte, error)

	// Set replaces the value stored in slot.
	Set(ctx context.Context, slot string, value []byte) error

	// Delete empties slot. Deleting an empty slot is not an error.
	Delete(ctx context.Context, slot string) error

	// Close closes the store and releases any resources.
	Close() error
}

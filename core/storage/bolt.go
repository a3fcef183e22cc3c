package storage

import (
	"context"
	"fmt"
	"slices"

	bolt "go.etcd.io/bbolt"
)

var slotsBucket = []byte("slots")

// boltStore keeps every slot as a key in a single bucket of a local bolt file.
type boltStore struct {
	db *bolt.DB
}

func (s *boltStore) Get(_ context.Context, slot string) ([]byte, error) {
	var value []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(slotsBucket)
		if b == nil {
			return nil
		}
		// Values are only valid for the life of the transaction.
		if v := b.Get([]byte(slot)); v != nil {
			value = slices.Clone(v)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read slot %q: %w", slot, err)
	}
	return value, nil
}

func (s *boltStore) Set(_ context.Context, slot string, value []byte) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(slotsBucket)
		if err != nil {
			return err
		}
		return b.Put([]byte(slot), value)
	})
	if err != nil {
		return fmt.Errorf("failed to write slot %q: %w", slot, err)
	}
	return nil
}

func (s *boltStore) Delete(_ context.Context, slot string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(slotsBucket)
		if b == nil {
			return nil
		}
		return b.Delete([]byte(slot))
	})
	if err != nil {
		return fmt.Errorf("failed to delete slot %q: %w", slot, err)
	}
	return nil
}

func (s *boltStore) Close() error {
	return s.db.Close()
}

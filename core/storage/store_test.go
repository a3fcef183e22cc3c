package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/redis/go-redis/v9"
)

func TestStoresRoundTripSlots(t *testing.T) {
	testCases := []struct {
		name string
		open func(t *testing.T) Store
	}{
		{
			name: "memory",
			open: func(t *testing.T) Store {
				store, err := NewStore(StoreTypeMemory)
				if err != nil {
					t.Fatalf("expected memory store, got %v", err)
				}
				return store
			},
		},
		{
			name: "bolt",
			open: func(t *testing.T) Store {
				store, err := NewStore(StoreTypeBolt, WithBoltPath(filepath.Join(t.TempDir(), "state", "chat.bolt")))
				if err != nil {
					t.Fatalf("expected bolt store, got %v", err)
				}
				return store
			},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			ctx := context.Background()
			store := testCase.open(t)
			defer store.Close()

			if value, err := store.Get(ctx, "voiceChatSettings"); err != nil || value != nil {
				t.Fatalf("expected empty slot, got %q, %v", value, err)
			}

			if err := store.Set(ctx, "voiceChatSettings", []byte(`{"selectedModel":"QwQ-32B"}`)); err != nil {
				t.Fatalf("expected set to succeed, got %v", err)
			}
			value, err := store.Get(ctx, "voiceChatSettings")
			if err != nil {
				t.Fatalf("expected get to succeed, got %v", err)
			}
			if string(value) != `{"selectedModel":"QwQ-32B"}` {
				t.Fatalf("expected stored value, got %q", value)
			}

			if err := store.Delete(ctx, "voiceChatSettings"); err != nil {
				t.Fatalf("expected delete to succeed, got %v", err)
			}
			if value, err := store.Get(ctx, "voiceChatSettings"); err != nil || value != nil {
				t.Fatalf("expected deleted slot to be empty, got %q, %v", value, err)
			}
		})
	}
}

func TestBoltStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "chat.bolt")

	store, err := NewStore(StoreTypeBolt, WithBoltPath(path))
	if err != nil {
		t.Fatalf("expected bolt store, got %v", err)
	}
	if err := store.Set(ctx, "voiceChatConversations", []byte("[]")); err != nil {
		t.Fatalf("expected set to succeed, got %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("expected close to succeed, got %v", err)
	}

	reopened, err := NewStore(StoreTypeBolt, WithBoltPath(path))
	if err != nil {
		t.Fatalf("expected reopened bolt store, got %v", err)
	}
	defer reopened.Close()

	value, err := reopened.Get(ctx, "voiceChatConversations")
	if err != nil || string(value) != "[]" {
		t.Fatalf("expected persisted value, got %q, %v", value, err)
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store, _ := NewStore(StoreTypeMemory)

	value := []byte("abc")
	_ = store.Set(ctx, "slot", value)
	value[0] = 'x'

	got, _ := store.Get(ctx, "slot")
	if string(got) != "abc" {
		t.Fatalf("expected store to keep its own copy, got %q", got)
	}
}

func TestMemoryStoreRejectsUseAfterClose(t *testing.T) {
	store, _ := NewStore(StoreTypeMemory)
	_ = store.Close()

	if _, err := store.Get(context.Background(), "slot"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestNewStoreValidatesConfig(t *testing.T) {
	if _, err := NewStore(StoreTypeBolt); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected bolt without path to be invalid, got %v", err)
	}
	if _, err := NewStore(StoreTypeRedis); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected redis without client to be invalid, got %v", err)
	}
	if _, err := NewStore(StoreType("sqlite")); !errors.Is(err, ErrInvalidStoreType) {
		t.Fatalf("expected unknown store type to be rejected, got %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	store, err := NewStore(StoreTypeRedis, WithRedisClient(client))
	if err != nil {
		t.Fatalf("expected redis store to be created without dialing, got %v", err)
	}
	if got := store.(*redisStore).prefix; got != DefaultRedisPrefix {
		t.Fatalf("expected default prefix %q, got %q", DefaultRedisPrefix, got)
	}
	_ = store.Close()
}

package settings

import (
	"context"
	"testing"

	"github.com/koscakluka/ema-chat/core/storage"
)

func TestLoadReturnsDefaultsForEmptySlot(t *testing.T) {
	slots, _ := storage.NewStore(storage.StoreTypeMemory)

	settings, err := Load(context.Background(), slots)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if settings != Default() {
		t.Fatalf("expected defaults, got %+v", settings)
	}
	if !settings.EnableVoiceResponse || settings.SelectedModel != "DeepSeek-V3" || settings.SelectedVoice != "" {
		t.Fatalf("unexpected default values %+v", settings)
	}
}

func TestLoadKeepsDefaultsForMissingFields(t *testing.T) {
	ctx := context.Background()
	slots, _ := storage.NewStore(storage.StoreTypeMemory)
	_ = slots.Set(ctx, Slot, []byte(`{"enableVoiceResponse":false}`))

	settings, err := Load(ctx, slots)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if settings.EnableVoiceResponse {
		t.Fatalf("expected stored voice response flag to win")
	}
	if settings.SelectedModel != DefaultModel {
		t.Fatalf("expected default model, got %q", settings.SelectedModel)
	}
}

func TestLoadIgnoresCorruptSlot(t *testing.T) {
	ctx := context.Background()
	slots, _ := storage.NewStore(storage.StoreTypeMemory)
	_ = slots.Set(ctx, Slot, []byte(`{"selectedModel":`))

	settings, err := Load(ctx, slots)
	if err != nil {
		t.Fatalf("expected corrupt slot to be ignored, got %v", err)
	}
	if settings != Default() {
		t.Fatalf("expected defaults, got %+v", settings)
	}
}

func TestSaveThenLoad(t *testing.T) {
	ctx := context.Background()
	slots, _ := storage.NewStore(storage.StoreTypeMemory)
	want := Settings{EnableVoiceResponse: false, SelectedVoice: "马斯克", SelectedModel: "QwQ-32B"}

	if err := Save(ctx, slots, want); err != nil {
		t.Fatalf("expected save to succeed, got %v", err)
	}
	got, err := Load(ctx, slots)
	if err != nil || got != want {
		t.Fatalf("expected %+v, got %+v, %v", want, got, err)
	}
}

func TestKnownOptions(t *testing.T) {
	if !IsKnownModel("DeepSeek-R1") || IsKnownModel("gpt-4") {
		t.Fatalf("unexpected model membership")
	}
	if !IsKnownVoice("") || !IsKnownVoice("可爱女声") || IsKnownVoice("robot") {
		t.Fatalf("unexpected voice membership")
	}
}

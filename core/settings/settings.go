package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/koscakluka/ema-chat/core/storage"
)

const (
	Slot = "voiceChatSettings"

	DefaultModel = "DeepSeek-V3"
	DefaultVoice = ""
)

var (
	Models = []string{"DeepSeek-V3", "DeepSeek-R1", "Qwen2.5-7B", "Qwen2.5-72B", "QwQ-32B"}
	Voices = []Voice{
		{ID: "", Name: "Default voice"},
		{ID: "可爱女声", Name: "Cute female voice"},
		{ID: "妖娆女声", Name: "Charming female voice"},
		{ID: "马斯克", Name: "Musk"},
	}
)

// Voice is one speech voice the backend can synthesize with.
type Voice struct {
	ID   string
	Name string
}

// Settings are the user preferences sent along with every turn.
type Settings struct {
	EnableVoiceResponse bool   `json:"enableVoiceResponse"`
	SelectedVoice       string `json:"selectedVoice"`
	SelectedModel       string `json:"selectedModel"`
}

func Default() Settings {
	return Settings{
		EnableVoiceResponse: true,
		SelectedVoice:       DefaultVoice,
		SelectedModel:       DefaultModel,
	}
}

// IsKnownModel reports whether model is one of Models.
func IsKnownModel(model string) bool {
	return slices.Contains(Models, model)
}

// IsKnownVoice reports whether voice is the ID of one of Voices.
func IsKnownVoice(voice string) bool {
	return slices.ContainsFunc(Voices, func(v Voice) bool { return v.ID == voice })
}

type storedSettings struct {
	EnableVoiceResponse *bool   `json:"enableVoiceResponse"`
	SelectedVoice       *string `json:"selectedVoice"`
	SelectedModel       *string `json:"selectedModel"`
}

// Load reads the stored settings on top of the defaults. Fields missing from
// the stored value keep their default. A corrupt slot is logged and ignored.
func Load(ctx context.Context, slots storage.Store) (Settings, error) {
	settings := Default()

	raw, err := slots.Get(ctx, Slot)
	if err != nil {
		return settings, fmt.Errorf("failed to read settings: %w", err)
	}
	if raw == nil {
		return settings, nil
	}

	var stored storedSettings
	if err := json.Unmarshal(raw, &stored); err != nil {
		logger.Warn("ignoring corrupt settings", "error", err)
		return settings, nil
	}

	if stored.EnableVoiceResponse != nil {
		settings.EnableVoiceResponse = *stored.EnableVoiceResponse
	}
	if stored.SelectedVoice != nil {
		settings.SelectedVoice = *stored.SelectedVoice
	}
	if stored.SelectedModel != nil {
		settings.SelectedModel = *stored.SelectedModel
	}
	return settings, nil
}

func Save(ctx context.Context, slots storage.Store, settings Settings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshalling settings: %w", err)
	}
	if err := slots.Set(ctx, Slot, raw); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}

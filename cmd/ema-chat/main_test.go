package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/koscakluka/ema-chat/core/conversations"
	"gopkg.in/yaml.v3"
)

func TestReplyPrinterWritesOnlyNewText(t *testing.T) {
	var out bytes.Buffer
	printer := newReplyPrinter(&out)
	printer.from = 2

	history := []conversations.Message{
		{Role: conversations.RoleUser, Content: "earlier"},
		{Role: conversations.RoleAssistant, Content: "old reply"},
	}
	turn := func(messages ...conversations.Message) []conversations.Message {
		return append(append([]conversations.Message{}, history...), messages...)
	}

	printer.print(turn(conversations.Message{Role: conversations.RoleUser, Content: "hi"}))
	printer.print(turn(
		conversations.Message{Role: conversations.RoleUser, Content: "hi"},
		conversations.Message{Role: conversations.RoleAssistant, Content: "Hel"},
	))
	printer.print(turn(
		conversations.Message{Role: conversations.RoleUser, Content: "hi"},
		conversations.Message{Role: conversations.RoleAssistant, Content: "Hello"},
		conversations.Message{Role: conversations.RoleAssistant, Content: "An error occurred: boom"},
	))

	if got, expected := out.String(), "Hello\nAn error occurred: boom"; got != expected {
		t.Fatalf("expected %q, got %q", expected, got)
	}
}

func TestConfigSchemaDescribesEveryKey(t *testing.T) {
	raw, err := configSchema()
	if err != nil {
		t.Fatalf("expected schema, got %v", err)
	}

	var schema struct {
		Properties map[string]json.RawMessage `json:"properties"`
	}
	if err := json.Unmarshal(raw, &schema); err != nil {
		t.Fatalf("expected JSON schema, got %v", err)
	}

	for _, key := range []string{
		"host", "backend-url", "store", "store-path", "redis-addr", "redis-prefix",
		"stream-idle-timeout", "playback-settle-delay", "audio-backend",
		"log-level", "log-format", "log-file", "with-caller",
	} {
		if _, ok := schema.Properties[key]; !ok {
			t.Fatalf("expected schema property %q, got %v", key, schema.Properties)
		}
	}
	if !strings.Contains(string(schema.Properties["store"]), "redis") {
		t.Fatalf("expected store enum in schema, got %s", schema.Properties["store"])
	}
}

func TestConfigFileWritesDurationsAsStrings(t *testing.T) {
	raw, err := yaml.Marshal(newConfigFile(Config{
		Store:               "memory",
		StreamIdleTimeout:   time.Minute,
		PlaybackSettleDelay: 100 * time.Millisecond,
	}))
	if err != nil {
		t.Fatalf("expected YAML, got %v", err)
	}

	for _, expected := range []string{"store: memory", "stream-idle-timeout: 1m0s", "playback-settle-delay: 100ms"} {
		if !strings.Contains(string(raw), expected) {
			t.Fatalf("expected %q in %s", expected, raw)
		}
	}
}

func TestBackendURLFollowsHost(t *testing.T) {
	testCases := []struct {
		config   Config
		expected string
	}{
		{Config{}, "http://localhost:8000"},
		{Config{Host: "10.0.0.7"}, "http://10.0.0.7:8000"},
		{Config{Host: "10.0.0.7", BackendURL: "https://chat.example.com"}, "https://chat.example.com"},
	}
	for _, tc := range testCases {
		if got := tc.config.backendURL(); got != tc.expected {
			t.Fatalf("expected %q, got %q", tc.expected, got)
		}
	}
}

func TestNextConversationWraps(t *testing.T) {
	m := model{
		conversations: conversations.List{{ID: "a"}, {ID: "b"}, {ID: "c"}},
		activeID:      "c",
	}
	if next, ok := m.nextConversation(); !ok || next != "a" {
		t.Fatalf("expected to wrap to the first conversation, got %q", next)
	}

	m.conversations = m.conversations[:1]
	m.activeID = "a"
	if _, ok := m.nextConversation(); ok {
		t.Fatalf("expected no next conversation with a single one")
	}
}

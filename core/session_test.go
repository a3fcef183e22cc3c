package voicechat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/koscakluka/ema-chat/core/audio"
	"github.com/koscakluka/ema-chat/core/backend"
	"github.com/koscakluka/ema-chat/core/conversations"
	"github.com/koscakluka/ema-chat/core/settings"
	"github.com/koscakluka/ema-chat/core/storage"
)

func newTestSession(t *testing.T, handler http.HandlerFunc, opts ...SessionOption) (*Session, storage.Store) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := backend.NewClient(server.URL, backend.WithIdleTimeout(time.Second))
	if err != nil {
		t.Fatalf("expected client, got %v", err)
	}
	slots, err := storage.NewStore(storage.StoreTypeMemory)
	if err != nil {
		t.Fatalf("expected store, got %v", err)
	}

	session := NewSession(client, slots, opts...)
	if err := session.Load(context.Background()); err != nil {
		t.Fatalf("expected load to succeed, got %v", err)
	}
	t.Cleanup(session.Close)
	return session, slots
}

func streamLines(lines ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, line := range lines {
			fmt.Fprint(w, line+"\n\n")
		}
	}
}

func TestSendTextStreamsReplyIntoActiveConversation(t *testing.T) {
	var finished []string
	session, slots := newTestSession(t,
		streamLines(
			`data: {"type":"text","content":"Hello"}`,
			`data: {"type":"text","content":", world"}`,
		),
		WithStreamFinishedCallback(func(id string) { finished = append(finished, id) }),
	)

	if err := session.SendText(context.Background(), "  hi  "); err != nil {
		t.Fatalf("expected send to succeed, got %v", err)
	}

	active := session.Active()
	assertTranscript(t, active.Messages, user("hi"), assistant("Hello, world"))
	if active.Title != "hi" {
		t.Fatalf("expected title from first message, got %q", active.Title)
	}
	if len(finished) != 1 || finished[0] != active.ID {
		t.Fatalf("expected one finished callback, got %v", finished)
	}
	if session.IsStreaming(active.ID) {
		t.Fatalf("expected conversation to accept turns again")
	}

	stored, err := conversations.NewStore(slots).Load(context.Background())
	if err != nil {
		t.Fatalf("expected stored conversations, got %v", err)
	}
	persisted, ok := stored.Find(active.ID)
	if !ok || len(persisted.Messages) != 2 {
		t.Fatalf("expected the finished turn to be persisted, got %+v", persisted)
	}
}

func TestSendTextRejectsEmptyMessage(t *testing.T) {
	session, _ := newTestSession(t, streamLines())

	if err := session.SendText(context.Background(), "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
}

func TestSecondSendWhileStreamingIsRejected(t *testing.T) {
	release := make(chan struct{})
	session, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"type\":\"text\",\"content\":\"partial\"}\n\n")
		w.(http.Flusher).Flush()
		<-release
	})
	activeID := session.Active().ID
	var releaseOnce sync.Once
	defer releaseOnce.Do(func() { close(release) })

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := session.SendText(context.Background(), "first"); err != nil {
			t.Errorf("expected first send to succeed, got %v", err)
		}
	}()
	waitFor(t, func() bool { return session.IsStreaming(activeID) })

	if err := session.SendText(context.Background(), "second"); !errors.Is(err, ErrStreamActive) {
		t.Fatalf("expected ErrStreamActive, got %v", err)
	}
	if err := session.ClearHistory(context.Background()); !errors.Is(err, ErrStreamActive) {
		t.Fatalf("expected ClearHistory to wait for the stream, got %v", err)
	}

	releaseOnce.Do(func() { close(release) })
	wg.Wait()

	assertTranscript(t, session.Active().Messages, user("first"), assistant("partial"))
}

func TestTransportFailureAppendsApology(t *testing.T) {
	session, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	if err := session.SendText(context.Background(), "hi"); err != nil {
		t.Fatalf("expected transport failures to stay in the transcript, got %v", err)
	}

	assertTranscript(t, session.Active().Messages, user("hi"), assistant(textTransportApology))
	if session.IsStreaming(session.Active().ID) {
		t.Fatalf("expected conversation to accept turns again")
	}
}

func TestSendAudioCorrectsPlaceholderAndQueuesAudio(t *testing.T) {
	player := &fakePlayer{}
	var requestVoice string
	session, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat/audio/stream" {
			t.Errorf("expected audio stream path, got %q", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("expected multipart body, got %v", err)
		}
		requestVoice = r.FormValue("voice")
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"type\":\"recognition\",\"content\":\"what time is it\"}\n\n")
		fmt.Fprintf(w, "data: {\"type\":\"audio\",\"content\":%q}\n\n", clipData("mp3"))
		fmt.Fprint(w, "data: {\"type\":\"text\",\"content\":\"Noon.\"}\n\n")
	}, WithPlayer(player))
	session.ObserveUserGesture()

	if err := session.SetVoice(context.Background(), "马斯克"); err != nil {
		t.Fatalf("expected known voice to be accepted, got %v", err)
	}
	if err := session.SendAudio(context.Background(), []byte("RIFF")); err != nil {
		t.Fatalf("expected send to succeed, got %v", err)
	}

	assertTranscript(t, session.Active().Messages, user("what time is it"), assistant("Noon."))
	if got := player.playedClips(); len(got) != 1 || got[0] != "mp3" {
		t.Fatalf("expected the audio chunk to be played, got %v", got)
	}
	if requestVoice != "马斯克" {
		t.Fatalf("expected selected voice in the form, got %q", requestVoice)
	}
}

func TestSendAudioRejectsEmptyRecording(t *testing.T) {
	session, _ := newTestSession(t, streamLines())

	if err := session.SendAudio(context.Background(), nil); !errors.Is(err, ErrEmptyRecording) {
		t.Fatalf("expected ErrEmptyRecording, got %v", err)
	}
}

func TestNewConversationKeepsSystemPrompt(t *testing.T) {
	session, _ := newTestSession(t, streamLines())
	if err := session.SetSystemPrompt(context.Background(), "Be brief."); err != nil {
		t.Fatalf("expected prompt update, got %v", err)
	}
	first := session.Active()

	created := session.NewConversation(context.Background())

	if created.SystemPrompt != "Be brief." {
		t.Fatalf("expected inherited system prompt, got %q", created.SystemPrompt)
	}
	if session.Active().ID != created.ID || created.ID == first.ID {
		t.Fatalf("expected the new conversation to become active")
	}
	if list := session.Conversations(); len(list) != 2 || list[0].ID != created.ID {
		t.Fatalf("expected new conversation first, got %+v", list)
	}
}

func TestDeleteActiveConversationFallsBack(t *testing.T) {
	session, _ := newTestSession(t, streamLines())
	only := session.Active()

	if err := session.DeleteConversation(context.Background(), only.ID); err != nil {
		t.Fatalf("expected delete to succeed, got %v", err)
	}
	replacement := session.Active()
	if replacement.ID == "" || replacement.ID == only.ID {
		t.Fatalf("expected a new conversation after deleting the last one, got %+v", replacement)
	}
	if len(session.Conversations()) != 1 {
		t.Fatalf("expected exactly one conversation, got %d", len(session.Conversations()))
	}

	older := replacement
	newer := session.NewConversation(context.Background())
	if err := session.DeleteConversation(context.Background(), newer.ID); err != nil {
		t.Fatalf("expected delete to succeed, got %v", err)
	}
	if session.Active().ID != older.ID {
		t.Fatalf("expected fallback to the remaining conversation")
	}

	if err := session.DeleteConversation(context.Background(), "missing"); !errors.Is(err, ErrConversationNotFound) {
		t.Fatalf("expected ErrConversationNotFound, got %v", err)
	}
}

func TestClearHistoryEmptiesTranscript(t *testing.T) {
	session, _ := newTestSession(t, streamLines(`data: {"type":"text","content":"Hi"}`))
	_ = session.SendText(context.Background(), "hello")

	if err := session.ClearHistory(context.Background()); err != nil {
		t.Fatalf("expected clear to succeed, got %v", err)
	}
	if messages := session.Active().Messages; len(messages) != 0 {
		t.Fatalf("expected empty transcript, got %+v", messages)
	}
}

func TestSettingsAreValidatedAndPersisted(t *testing.T) {
	session, slots := newTestSession(t, streamLines())

	if err := session.SetModel(context.Background(), "GPT-Nope"); !errors.Is(err, ErrUnknownModel) {
		t.Fatalf("expected ErrUnknownModel, got %v", err)
	}
	if err := session.SetVoice(context.Background(), "nobody"); !errors.Is(err, ErrUnknownVoice) {
		t.Fatalf("expected ErrUnknownVoice, got %v", err)
	}
	if err := session.SetModel(context.Background(), "QwQ-32B"); err != nil {
		t.Fatalf("expected known model to be accepted, got %v", err)
	}
	if err := session.SetVoiceResponse(context.Background(), false); err != nil {
		t.Fatalf("expected voice toggle to succeed, got %v", err)
	}

	stored, err := settings.Load(context.Background(), slots)
	if err != nil {
		t.Fatalf("expected stored settings, got %v", err)
	}
	expected := settings.Settings{EnableVoiceResponse: false, SelectedVoice: "", SelectedModel: "QwQ-32B"}
	if stored != expected {
		t.Fatalf("expected %+v, got %+v", expected, stored)
	}
	if session.Settings() != expected {
		t.Fatalf("expected session settings %+v, got %+v", expected, session.Settings())
	}
}

func TestReportMediaErrorAddsAssistantMessage(t *testing.T) {
	session, _ := newTestSession(t, streamLines())

	if err := session.ReportMediaError(context.Background(), fmt.Errorf("open device: %w", audio.ErrPermissionDenied)); err != nil {
		t.Fatalf("expected report to succeed, got %v", err)
	}

	messages := session.Active().Messages
	if len(messages) != 1 || messages[0].Role != conversations.RoleAssistant {
		t.Fatalf("expected one assistant message, got %+v", messages)
	}
	if !strings.Contains(messages[0].Content, "denied") {
		t.Fatalf("expected permission message, got %q", messages[0].Content)
	}
}

func TestLoadActivatesMostRecentConversation(t *testing.T) {
	slots, err := storage.NewStore(storage.StoreTypeMemory)
	if err != nil {
		t.Fatalf("expected store, got %v", err)
	}
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	old := conversations.New("", base)
	recent := conversations.New("", base.Add(time.Hour))
	if err := conversations.NewStore(slots).Save(context.Background(), conversations.List{old, recent}); err != nil {
		t.Fatalf("expected save to succeed, got %v", err)
	}

	client, err := backend.NewClient("http://localhost:8000")
	if err != nil {
		t.Fatalf("expected client, got %v", err)
	}
	session := NewSession(client, slots)

	if err := session.SendText(context.Background(), "hi"); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("expected ErrNotLoaded before load, got %v", err)
	}
	if err := session.Load(context.Background()); err != nil {
		t.Fatalf("expected load to succeed, got %v", err)
	}
	if session.Active().ID != recent.ID {
		t.Fatalf("expected most recent conversation to be active")
	}
}

func TestLoadRecoversFromCorruptConversations(t *testing.T) {
	slots, _ := storage.NewStore(storage.StoreTypeMemory)
	_ = slots.Set(context.Background(), conversations.Slot, []byte("{not json"))
	client, _ := backend.NewClient("http://localhost:8000")
	session := NewSession(client, slots)

	if err := session.Load(context.Background()); err != nil {
		t.Fatalf("expected corrupt conversations to be replaced, got %v", err)
	}
	if len(session.Conversations()) != 1 {
		t.Fatalf("expected a fresh conversation, got %d", len(session.Conversations()))
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	voicechat "github.com/koscakluka/ema-chat/core"
	"github.com/koscakluka/ema-chat/core/conversations"
	"github.com/koscakluka/ema-chat/core/events"
	"github.com/koscakluka/ema-chat/core/settings"
	"github.com/muesli/reflow/wordwrap"
	"github.com/rs/zerolog/log"
)

const inputHeight = 3

type (
	transcriptMsg struct {
		conversationID string
		messages       []conversations.Message
	}
	loadingMsg struct {
		conversationID string
		loading        bool
	}
	conversationsMsg struct {
		list     conversations.List
		activeID string
	}
	playbackMsg struct {
		event events.Event
	}
	recordingStartedMsg struct{}
	// commandDoneMsg ends a session command run off the UI goroutine.
	commandDoneMsg struct {
		action string
		err    error
	}
)

const updatesBuffer = 64

// sessionUpdates forwards session callbacks, which arrive on stream and
// device goroutines, to the program.
type sessionUpdates chan tea.Msg

func newSessionUpdates() sessionUpdates {
	return make(sessionUpdates, updatesBuffer)
}

func (u sessionUpdates) options() []voicechat.SessionOption {
	return []voicechat.SessionOption{
		voicechat.WithTranscriptCallback(func(conversationID string, messages []conversations.Message) {
			u <- transcriptMsg{conversationID: conversationID, messages: messages}
		}),
		voicechat.WithLoadingCallback(func(conversationID string, loading bool) {
			u <- loadingMsg{conversationID: conversationID, loading: loading}
		}),
		voicechat.WithConversationsCallback(func(list conversations.List, activeID string) {
			u <- conversationsMsg{list: list, activeID: activeID}
		}),
		voicechat.WithPlaybackCallback(func(event events.Event) {
			u <- playbackMsg{event: event}
		}),
	}
}

func (u sessionUpdates) wait() tea.Cmd {
	return func() tea.Msg {
		return <-u
	}
}

type model struct {
	ctx     context.Context
	session *voicechat.Session
	devices *devices
	updates sessionUpdates

	viewport viewport.Model
	textArea textarea.Model
	help     help.Model
	keyMap   KeyMap
	style    *Style

	transcript    []conversations.Message
	conversations conversations.List
	activeID      string

	loading       bool
	recording     bool
	playback      string
	gestureSeen   bool
	warning       string
	width, height int
}

func initialModel(ctx context.Context, session *voicechat.Session, devices *devices, updates sessionUpdates) model {
	active := session.Active()
	ret := model{
		ctx:           ctx,
		session:       session,
		devices:       devices,
		updates:       updates,
		help:          help.New(),
		keyMap:        DefaultKeyMap,
		style:         DefaultStyles(),
		transcript:    active.Messages,
		conversations: session.Conversations(),
		activeID:      active.ID,
		playback:      session.PlaybackState().String(),
	}

	ret.viewport = viewport.New(0, 0)

	ret.textArea = textarea.New()
	ret.textArea.Placeholder = "Type a message, or press ctrl+r to talk..."
	ret.textArea.ShowLineNumbers = false
	ret.textArea.SetHeight(inputHeight)
	ret.textArea.KeyMap.InsertNewline.SetEnabled(false)
	ret.textArea.Focus()

	return ret
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.updates.wait())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if !m.gestureSeen {
			// The first key press is what allows voice replies to start.
			m.gestureSeen = true
			m.session.ObserveUserGesture()
		}
		m.warning = ""

		switch {
		case key.Matches(msg, m.keyMap.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keyMap.SubmitMessage):
			text := strings.TrimSpace(m.textArea.Value())
			if text == "" || m.loading {
				break
			}
			m.textArea.Reset()
			cmds = append(cmds, m.run("send", func() error {
				return m.session.SendText(m.ctx, text)
			}))

		case key.Matches(msg, m.keyMap.ToggleRecording):
			cmds = append(cmds, m.toggleRecording())

		case key.Matches(msg, m.keyMap.ManualPlay):
			cmds = append(cmds, m.run("play", func() error {
				return m.session.ManualPlay(m.ctx)
			}))

		case key.Matches(msg, m.keyMap.NewConversation):
			cmds = append(cmds, m.run("new", func() error {
				m.session.NewConversation(m.ctx)
				return nil
			}))

		case key.Matches(msg, m.keyMap.NextConversation):
			if next, ok := m.nextConversation(); ok {
				cmds = append(cmds, m.run("switch", func() error {
					return m.session.SwitchConversation(m.ctx, next)
				}))
			}

		case key.Matches(msg, m.keyMap.DeleteConversation):
			activeID := m.activeID
			cmds = append(cmds, m.run("delete", func() error {
				return m.session.DeleteConversation(m.ctx, activeID)
			}))

		case key.Matches(msg, m.keyMap.ClearHistory):
			cmds = append(cmds, m.run("clear", func() error {
				return m.session.ClearHistory(m.ctx)
			}))

		case key.Matches(msg, m.keyMap.ToggleVoice):
			enabled := !m.session.Settings().EnableVoiceResponse
			cmds = append(cmds, m.run("voice", func() error {
				return m.session.SetVoiceResponse(m.ctx, enabled)
			}))

		case key.Matches(msg, m.keyMap.ScrollUp), key.Matches(msg, m.keyMap.ScrollDown):
			m.viewport, cmd = m.viewport.Update(msg)
			cmds = append(cmds, cmd)

		default:
			m.textArea, cmd = m.textArea.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()

	case transcriptMsg:
		if msg.conversationID == m.activeID {
			m.transcript = msg.messages
			m.refreshTranscript()
		}
		cmds = append(cmds, m.updates.wait())

	case loadingMsg:
		if msg.conversationID == m.activeID {
			m.loading = msg.loading
		}
		cmds = append(cmds, m.updates.wait())

	case conversationsMsg:
		m.conversations = msg.list
		if m.activeID != msg.activeID {
			m.activeID = msg.activeID
			m.loading = m.session.IsStreaming(msg.activeID)
		}
		if active, ok := msg.list.Find(msg.activeID); ok {
			m.transcript = active.Messages
		}
		m.refreshTranscript()
		cmds = append(cmds, m.updates.wait())

	case playbackMsg:
		m.playback = m.session.PlaybackState().String()
		if _, blocked := msg.event.(events.PlaybackBlocked); blocked {
			m.warning = "Voice reply waiting, press ctrl+p to play it."
		}
		cmds = append(cmds, m.updates.wait())

	case recordingStartedMsg:
		m.recording = true

	case commandDoneMsg:
		if msg.action == "record" {
			m.recording = false
		}
		switch {
		case errors.Is(msg.err, voicechat.ErrStreamActive):
			m.warning = "Wait for the reply to finish first."
		case msg.err != nil:
			log.Warn().Err(msg.err).Str("action", msg.action).Msg("Command failed")
			m.warning = fmt.Sprintf("%s failed: %v", msg.action, msg.err)
		}
	}

	return m, tea.Batch(cmds...)
}

// run executes a session command off the UI goroutine. Sends block until
// the reply has been streamed.
func (m model) run(action string, command func() error) tea.Cmd {
	return func() tea.Msg {
		return commandDoneMsg{action: action, err: command()}
	}
}

func (m *model) toggleRecording() tea.Cmd {
	if m.recording {
		m.recording = false
		return m.run("record", func() error {
			recording, err := m.devices.stopRecording()
			if err != nil {
				return err
			}
			return m.session.SendAudio(m.ctx, recording)
		})
	}

	if m.loading {
		m.warning = "Wait for the reply to finish first."
		return nil
	}
	return func() tea.Msg {
		if err := m.devices.startRecording(m.ctx); err != nil {
			if reportErr := m.session.ReportMediaError(m.ctx, err); reportErr != nil {
				return commandDoneMsg{action: "record", err: reportErr}
			}
			return commandDoneMsg{action: "record"}
		}
		return recordingStartedMsg{}
	}
}

func (m model) nextConversation() (string, bool) {
	if len(m.conversations) < 2 {
		return "", false
	}
	i := slices.IndexFunc(m.conversations, func(c conversations.Conversation) bool { return c.ID == m.activeID })
	return m.conversations[(i+1)%len(m.conversations)].ID, true
}

func (m *model) layout() {
	headerHeight := lipgloss.Height(m.headerView())
	footerHeight := lipgloss.Height(m.statusView()) + lipgloss.Height(m.help.View(m.keyMap))
	inputFrameWidth, inputFrameHeight := m.style.Input.GetFrameSize()

	m.textArea.SetWidth(m.width - inputFrameWidth)
	m.viewport.Width = m.width
	m.viewport.Height = max(m.height-headerHeight-footerHeight-inputHeight-inputFrameHeight, 1)
	m.help.Width = m.width
	m.refreshTranscript()
}

func (m *model) refreshTranscript() {
	if m.width == 0 {
		return
	}
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderTranscript())
	if atBottom || m.loading {
		m.viewport.GotoBottom()
	}
}

func (m model) renderTranscript() string {
	var b strings.Builder
	for _, message := range m.transcript {
		style := m.style.AssistantMessage
		label := "assistant"
		if message.Role == conversations.RoleUser {
			style = m.style.UserMessage
			label = "you"
		}

		frame, _ := style.GetFrameSize()
		content := wordwrap.String(message.Content, max(m.width-frame, 10))
		b.WriteString(m.style.Role.Render(fmt.Sprintf("%s · %s", label, message.CreatedAt.Local().Format("15:04"))))
		b.WriteString("\n")
		b.WriteString(style.Width(max(m.width-frame, 10)).Render(content))
		b.WriteString("\n")
	}
	return b.String()
}

func (m model) headerView() string {
	title := "New conversation"
	if active, ok := m.conversations.Find(m.activeID); ok {
		title = active.Title
	}
	position := slices.IndexFunc(m.conversations, func(c conversations.Conversation) bool { return c.ID == m.activeID }) + 1
	return m.style.Header.Render(fmt.Sprintf("%s (%d/%d)", title, position, len(m.conversations)))
}

func (m model) statusView() string {
	current := m.session.Settings()
	voice := "off"
	if current.EnableVoiceResponse {
		voice = voiceName(current.SelectedVoice)
	}

	parts := []string{
		"model " + current.SelectedModel,
		"voice " + voice,
		"audio " + m.playback,
	}
	if m.loading {
		parts = append(parts, "thinking...")
	}
	if m.recording {
		parts = append(parts, "● recording")
	}

	status := m.style.Status.Render(strings.Join(parts, " | "))
	if m.warning != "" {
		status += m.style.Warning.Render(m.warning)
	}
	return status
}

func voiceName(id string) string {
	for _, voice := range settings.Voices {
		if voice.ID == id {
			return voice.Name
		}
	}
	return id
}

func (m model) View() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		m.headerView(),
		m.viewport.View(),
		m.statusView(),
		m.style.Input.Render(m.textArea.View()),
		m.help.View(m.keyMap),
	)
}

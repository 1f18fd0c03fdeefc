package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/chatwire/chatwire/internal/client"
)

// typingIdle is how long after the last keystroke we report typing stopped.
const typingIdle = 2 * time.Second

// relayEventMsg wraps a controller event for the Bubble Tea loop.
type relayEventMsg struct{ ev client.Event }

// tickMsg drives the idle check for our own typing indicator.
type tickMsg time.Time

// Model is the root Bubble Tea model for the chat client.
type Model struct {
	ctrl *client.Controller
	keys KeyMap

	width  int
	height int

	viewport viewport.Model
	input    textinput.Model
	ready    bool

	myName  string
	lines   []string
	typing  map[string]bool
	state   client.State
	attempt int
	lastErr error

	composing bool
	lastKeyAt time.Time
	quitting  bool
}

// New creates the root model. The controller must already be constructed;
// Init issues the connect.
func New(ctrl *client.Controller) Model {
	input := textinput.New()
	input.Placeholder = "say something..."
	input.CharLimit = 512
	input.Focus()

	return Model{
		ctrl:   ctrl,
		keys:   DefaultKeyMap(),
		input:  input,
		typing: make(map[string]bool),
		state:  client.StateIdle,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		func() tea.Msg {
			if err := m.ctrl.Connect(); err != nil {
				return relayEventMsg{ev: client.StateEvent{State: client.StateFailed, Err: err}}
			}
			return nil
		},
		waitForEvent(m.ctrl.Events()),
		tick(),
	)
}

func waitForEvent(events <-chan client.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return relayEventMsg{ev: ev}
	}
}

func tick() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		chrome := 4 // header, typing line, input border and field
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-chrome)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - chrome
		}
		m.viewport.SetContent(strings.Join(m.lines, "\n"))
		m.viewport.GotoBottom()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case relayEventMsg:
		m = m.handleRelayEvent(msg.ev)
		return m, waitForEvent(m.ctrl.Events())

	case tickMsg:
		if m.composing && time.Since(m.lastKeyAt) > typingIdle {
			m.composing = false
			m.ctrl.SendTyping(false)
		}
		return m, tick()
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		m.ctrl.Disconnect()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Send):
		body := strings.TrimSpace(m.input.Value())
		if body == "" {
			return m, nil
		}
		if body == "/quit" {
			m.quitting = true
			m.ctrl.Disconnect()
			return m, tea.Quit
		}
		if err := m.ctrl.SendChat(body); err != nil {
			m = m.appendLine(styleSystem.Render("cannot send: " + err.Error()))
			return m, nil
		}
		m.input.Reset()
		if m.composing {
			m.composing = false
			m.ctrl.SendTyping(false)
		}
		return m, nil
	}

	// Any other key is composing activity.
	if !m.composing && m.state == client.StateOpen {
		m.composing = true
		m.ctrl.SendTyping(true)
	}
	m.lastKeyAt = time.Now()

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleRelayEvent(ev client.Event) Model {
	switch ev := ev.(type) {
	case client.StateEvent:
		m.state = ev.State
		m.attempt = ev.Attempt
		m.lastErr = ev.Err
		switch ev.State {
		case client.StateOpen:
			m = m.appendLine(styleSystem.Render("connected"))
		case client.StateReconnecting:
			m = m.appendLine(styleSystem.Render(
				fmt.Sprintf("connection lost, retrying (%d)...", ev.Attempt)))
		case client.StateFailed:
			m = m.appendLine(styleSystem.Render("connection lost, please restart the client"))
		case client.StateClosed:
			if !m.quitting {
				m = m.appendLine(styleSystem.Render("disconnected"))
			}
		}

	case client.IdentityEvent:
		m.myName = ev.DisplayName
		m = m.appendLine(styleSystem.Render("you are " + ev.DisplayName))

	case client.HistoryEvent:
		for _, msg := range ev.Messages {
			m = m.appendLine(formatChatLine(msg))
		}

	case client.ChatEvent:
		m = m.appendLine(formatChatLine(ev))

	case client.PresenceEvent:
		delete(m.typing, ev.DisplayName)
		m = m.appendLine(styleSystem.Render(ev.Text))

	case client.TypingEvent:
		if ev.Active {
			m.typing[ev.DisplayName] = true
		} else {
			delete(m.typing, ev.DisplayName)
		}
	}
	return m
}

func (m Model) appendLine(line string) Model {
	m.lines = append(m.lines, line)
	if m.ready {
		m.viewport.SetContent(strings.Join(m.lines, "\n"))
		m.viewport.GotoBottom()
	}
	return m
}

func (m Model) View() string {
	if !m.ready {
		return "Connecting..."
	}
	sections := []string{
		m.headerView(),
		m.viewport.View(),
		typingLine(m.typing),
		styleInput.Width(m.width).Render(m.input.View()),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) headerView() string {
	name := m.myName
	if name == "" {
		name = "(unnamed)"
	}
	return styleHeader.Render("chatwire ") +
		styleDimmed.Render(name+" ") +
		statusBadge(m.state, m.attempt)
}

func statusBadge(state client.State, attempt int) string {
	switch state {
	case client.StateOpen:
		return styleStatusOnline.Render("● online")
	case client.StateConnecting:
		return styleStatusRetry.Render("◌ connecting")
	case client.StateReconnecting:
		return styleStatusRetry.Render(fmt.Sprintf("◌ reconnecting (%d)", attempt))
	case client.StateFailed:
		return styleStatusDown.Render("✗ connection lost")
	default:
		return styleStatusDown.Render("○ offline")
	}
}

// formatChatLine renders one chat message with the sender colored by name.
func formatChatLine(ev client.ChatEvent) string {
	stamp := ev.SentAt
	if stamp.IsZero() {
		stamp = time.Now()
	}
	return styleDimmed.Render(stamp.Local().Format("15:04")) + " " +
		senderStyle(ev.Sender).Render(ev.Sender) + " " + ev.Body
}

// typingLine summarizes who is typing right now.
func typingLine(typing map[string]bool) string {
	if len(typing) == 0 {
		return " "
	}
	names := make([]string, 0, len(typing))
	for name := range typing {
		names = append(names, name)
	}
	sort.Strings(names)

	var text string
	switch len(names) {
	case 1:
		text = names[0] + " is typing..."
	case 2:
		text = names[0] + " and " + names[1] + " are typing..."
	default:
		text = "several people are typing..."
	}
	return styleTyping.Render(text)
}

package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/helmwright/helmwright/internal/notify"
	"github.com/helmwright/helmwright/internal/state"
	"github.com/helmwright/helmwright/tui/theme"
)

type pane int

const (
	chatPane pane = iota
	plansPane
	pendingPane
)

// Messages delivered by the background channel readers.
type (
	storeUpdateMsg  state.Update
	notificationMsg notify.Notification
	opResultMsg     struct{ err error }
	engineStoppedMsg struct{ err error }
)

// Dashboard is the watch session's bubbletea model.
type Dashboard struct {
	eng           Engine
	updates       chan state.Update
	notifications <-chan notify.Notification

	keys  KeyMap
	theme *theme.Theme

	chat  viewport.Model
	diff  viewport.Model
	input textinput.Model

	focus         pane
	planCursor    int
	pendingCursor int
	showDiff      bool
	showHelp      bool

	width  int
	height int

	statusLine string
	finalErr   error
}

// NewDashboard creates the dashboard model over a running engine.
func NewDashboard(eng Engine, notifications <-chan notify.Notification) *Dashboard {
	input := textinput.New()
	input.Placeholder = "Describe the chart change you want..."
	input.CharLimit = 2000

	return &Dashboard{
		eng:           eng,
		updates:       eng.Store().Subscribe(),
		notifications: notifications,
		keys:          DefaultKeyMap(),
		theme:         theme.DefaultTheme,
		chat:          viewport.New(0, 0),
		diff:          viewport.New(0, 0),
		input:         input,
	}
}

// Init starts the channel readers.
func (m *Dashboard) Init() tea.Cmd {
	return tea.Batch(m.waitForUpdate(), m.waitForNotification())
}

func (m *Dashboard) waitForUpdate() tea.Cmd {
	return func() tea.Msg {
		u, ok := <-m.updates
		if !ok {
			return nil
		}
		return storeUpdateMsg(u)
	}
}

func (m *Dashboard) waitForNotification() tea.Cmd {
	return func() tea.Msg {
		n, ok := <-m.notifications
		if !ok {
			return nil
		}
		return notificationMsg(n)
	}
}

// Update handles messages.
func (m *Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.refreshChat()
		return m, nil

	case storeUpdateMsg:
		m.refreshChat()
		m.clampCursors()
		return m, m.waitForUpdate()

	case notificationMsg:
		m.applyNotification(notify.Notification(msg))
		return m, m.waitForNotification()

	case opResultMsg:
		if msg.err != nil {
			m.statusLine = m.theme.Error.Render(msg.err.Error())
		}
		return m, nil

	case engineStoppedMsg:
		m.finalErr = msg.err
		if msg.err != nil {
			m.statusLine = m.theme.Error.Render(msg.err.Error())
		}
		return m, tea.Quit

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *Dashboard) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// The prompt input captures everything except escape
	if m.input.Focused() {
		switch msg.Type {
		case tea.KeyEsc:
			m.input.Blur()
			return m, nil
		case tea.KeyEnter:
			prompt := m.input.Value()
			m.input.SetValue("")
			m.input.Blur()
			if prompt == "" {
				return m, nil
			}
			return m, m.submitPrompt(prompt)
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil

	case key.Matches(msg, m.keys.Prompt):
		m.input.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.NextPane):
		m.focus = (m.focus + 1) % 3
		m.showDiff = false
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
		return m, nil

	case key.Matches(msg, m.keys.ToggleDiff):
		if m.focus == pendingPane {
			m.toggleDiff()
		}
		return m, nil

	case key.Matches(msg, m.keys.Accept):
		return m, m.acceptSelected(false)

	case key.Matches(msg, m.keys.ForceAccept):
		return m, m.acceptSelected(true)

	case key.Matches(msg, m.keys.Reject):
		return m, m.rejectSelected()
	}

	if m.focus == chatPane {
		var cmd tea.Cmd
		m.chat, cmd = m.chat.Update(msg)
		return m, cmd
	}
	if m.showDiff {
		var cmd tea.Cmd
		m.diff, cmd = m.diff.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Dashboard) moveCursor(delta int) {
	switch m.focus {
	case chatPane:
		if delta < 0 {
			m.chat.LineUp(1)
		} else {
			m.chat.LineDown(1)
		}
	case plansPane:
		m.planCursor += delta
	case pendingPane:
		m.pendingCursor += delta
		if m.showDiff {
			m.toggleDiff() // re-render for the new selection
			m.showDiff = true
		}
	}
	m.clampCursors()
}

func (m *Dashboard) clampCursors() {
	if n := len(m.eng.Store().Plans()); m.planCursor >= n {
		m.planCursor = n - 1
	}
	if m.planCursor < 0 {
		m.planCursor = 0
	}
	if n := m.eng.Pending().Len(); m.pendingCursor >= n {
		m.pendingCursor = n - 1
	}
	if m.pendingCursor < 0 {
		m.pendingCursor = 0
	}
}

func (m *Dashboard) selectedPendingPath() (string, bool) {
	pending := m.eng.Pending().List()
	if len(pending) == 0 || m.pendingCursor >= len(pending) {
		return "", false
	}
	return pending[m.pendingCursor].FilePath, true
}

func (m *Dashboard) toggleDiff() {
	if m.showDiff {
		m.showDiff = false
		return
	}
	filePath, ok := m.selectedPendingPath()
	if !ok {
		return
	}
	lines, err := m.eng.Pending().Diff(filePath)
	if err != nil {
		m.statusLine = m.theme.Error.Render(err.Error())
		return
	}
	m.diff.SetContent(m.renderDiff(lines))
	m.diff.GotoTop()
	m.showDiff = true
}

func (m *Dashboard) submitPrompt(prompt string) tea.Cmd {
	return func() tea.Msg {
		return opResultMsg{err: m.eng.SubmitPrompt(context.Background(), prompt)}
	}
}

func (m *Dashboard) acceptSelected(force bool) tea.Cmd {
	filePath, ok := m.selectedPendingPath()
	if !ok {
		return nil
	}
	m.showDiff = false
	return func() tea.Msg {
		return opResultMsg{err: m.eng.AcceptPending(context.Background(), filePath, force)}
	}
}

func (m *Dashboard) rejectSelected() tea.Cmd {
	filePath, ok := m.selectedPendingPath()
	if !ok {
		return nil
	}
	m.showDiff = false
	return func() tea.Msg {
		return opResultMsg{err: m.eng.RejectPending(filePath)}
	}
}

func (m *Dashboard) applyNotification(n notify.Notification) {
	switch n.Command {
	case notify.CommandConnectionStatus:
		// The status line in the header reads the store directly
	case notify.CommandFileChangePending:
		m.statusLine = m.theme.Warning.Render("New change awaiting review: " + n.FilePath)
	case notify.CommandFileChangeApplied:
		if n.Status == notify.OutcomeAccepted {
			m.statusLine = m.theme.Success.Render("Applied " + n.FilePath)
		} else {
			m.statusLine = m.theme.Muted.Render("Rejected " + n.FilePath)
		}
	case notify.CommandOpenFile:
		m.statusLine = m.theme.Info.Render("Updated " + n.FilePath)
	case notify.CommandOperationFailed:
		m.statusLine = m.theme.Error.Render(n.Message)
	}
	m.clampCursors()
}

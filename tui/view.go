package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/helmwright/helmwright/internal/artifact"
	"github.com/helmwright/helmwright/internal/state"
)

const (
	diffHeight  = 12
	listMaxRows = 5
)

// layout recomputes viewport sizes from the terminal dimensions.
func (m *Dashboard) layout() {
	if m.width == 0 || m.height == 0 {
		return
	}

	m.input.Width = m.width - 4
	m.diff.Width = m.width
	m.diff.Height = diffHeight

	// header + plans + pending + input + status + footer
	fixed := 1 + m.listHeight(len(m.eng.Store().Plans())) + m.listHeight(m.eng.Pending().Len()) + 3
	if m.showDiff {
		fixed += diffHeight
	}

	m.chat.Width = m.width
	m.chat.Height = m.height - fixed
	if m.chat.Height < 3 {
		m.chat.Height = 3
	}
}

// listHeight is the rendered height of a section: title plus rows, where an
// empty section still shows its one-line placeholder.
func (m *Dashboard) listHeight(n int) int {
	if n == 0 {
		return 2
	}
	if n > listMaxRows {
		n = listMaxRows
	}
	return n + 1
}

// refreshChat re-renders the transcript into the chat viewport and keeps it
// pinned to the bottom, where the newest exchange streams in.
func (m *Dashboard) refreshChat() {
	atBottom := m.chat.AtBottom()
	m.chat.SetContent(m.renderChat())
	if atBottom {
		m.chat.GotoBottom()
	}
}

func (m *Dashboard) renderChat() string {
	messages := m.eng.Store().Messages()
	if len(messages) == 0 {
		return m.theme.Muted.Render("No messages yet. Press i to write a prompt.")
	}

	var b strings.Builder
	for i, msg := range messages {
		if i > 0 {
			b.WriteString("\n")
		}
		if msg.Prompt != "" {
			b.WriteString(m.theme.ChatUser.Render("you"))
			b.WriteString("  ")
			b.WriteString(msg.Prompt)
			b.WriteString("\n")
		}
		if msg.Response != "" {
			b.WriteString(m.theme.ChatAssistant.Render("assistant"))
			b.WriteString("  ")
			b.WriteString(msg.Response)
			if msg.IsComplete == nil || !*msg.IsComplete {
				b.WriteString(m.theme.Muted.Render(" ▍"))
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m *Dashboard) renderPlans() string {
	plans := m.eng.Store().Plans()

	title := "Plans"
	if m.focus == plansPane {
		title = m.theme.Highlight.Render(title)
	} else {
		title = m.theme.Bold.Render(title)
	}

	if len(plans) == 0 {
		return title + "\n" + m.theme.Muted.Render("  none")
	}

	var b strings.Builder
	b.WriteString(title)
	start := windowStart(m.planCursor, len(plans))
	for i := start; i < len(plans) && i < start+listMaxRows; i++ {
		p := plans[i]
		line := fmt.Sprintf("  %s  %s  %s", p.ID, m.renderPlanStatus(p.Status), p.Description)
		if m.focus == plansPane && i == m.planCursor {
			line = m.theme.Selected.Render(line)
		}
		b.WriteString("\n")
		b.WriteString(line)
	}
	return b.String()
}

func (m *Dashboard) renderPlanStatus(status string) string {
	switch status {
	case state.PlanStatusApplied:
		return m.theme.Success.Render(status)
	case state.PlanStatusRejected:
		return m.theme.Error.Render(status)
	case state.PlanStatusReview:
		return m.theme.Warning.Render(status)
	default:
		return m.theme.Muted.Render(status)
	}
}

func (m *Dashboard) renderPending() string {
	pending := m.eng.Pending().List()

	title := "Pending changes"
	if m.focus == pendingPane {
		title = m.theme.Highlight.Render(title)
	} else {
		title = m.theme.Bold.Render(title)
	}

	if len(pending) == 0 {
		return title + "\n" + m.theme.Muted.Render("  none")
	}

	var b strings.Builder
	b.WriteString(title)
	start := windowStart(m.pendingCursor, len(pending))
	for i := start; i < len(pending) && i < start+listMaxRows; i++ {
		p := pending[i]
		line := "  " + p.FilePath
		if m.eng.Pending().IsDirty(p.AbsPath) {
			line += "  " + m.theme.Warning.Render("edited locally")
		}
		if m.focus == pendingPane && i == m.pendingCursor {
			line = m.theme.Selected.Render(line)
		}
		b.WriteString("\n")
		b.WriteString(line)
	}
	return b.String()
}

// windowStart scrolls a list window so the cursor stays visible.
func windowStart(cursor, total int) int {
	if total <= listMaxRows {
		return 0
	}
	start := cursor - listMaxRows + 1
	if start < 0 {
		start = 0
	}
	if start > total-listMaxRows {
		start = total - listMaxRows
	}
	return start
}

func (m *Dashboard) renderDiff(lines []artifact.DiffLine) string {
	var b strings.Builder
	for _, line := range lines {
		switch line.Op {
		case '+':
			b.WriteString(m.theme.DiffAdd.Render("+" + line.Text))
		case '-':
			b.WriteString(m.theme.DiffRemove.Render("-" + line.Text))
		default:
			b.WriteString(m.theme.DiffContext.Render(" " + line.Text))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Dashboard) renderHeader() string {
	ws := m.eng.Store().ActiveWorkspace()
	if ws == "" {
		ws = "(no workspace)"
	}

	var conn string
	switch status := m.eng.Store().ConnectionStatus(); status {
	case state.StatusConnected:
		conn = m.theme.Success.Render("● connected")
	case state.StatusConnecting, state.StatusReconnecting:
		conn = m.theme.Warning.Render("● " + string(status))
	default:
		conn = m.theme.Error.Render("● disconnected")
	}

	left := m.theme.Title.Render("helmwright") + "  " + m.theme.Muted.Render(ws)
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(conn)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + conn
}

func (m *Dashboard) renderFooter() string {
	if m.showHelp {
		bindings := []struct{ keys, desc string }{
			{"tab", "switch pane"},
			{"i", "prompt"},
			{"enter/d", "diff"},
			{"a", "accept"},
			{"A", "force accept"},
			{"r", "reject"},
			{"q", "quit"},
		}
		parts := make([]string, 0, len(bindings))
		for _, b := range bindings {
			parts = append(parts, m.theme.Bold.Render(b.keys)+" "+m.theme.Muted.Render(b.desc))
		}
		return strings.Join(parts, "  ")
	}
	return m.theme.Muted.Render("? help  q quit")
}

// View renders the dashboard.
func (m *Dashboard) View() string {
	if m.width == 0 {
		return "loading..."
	}

	sections := []string{
		m.renderHeader(),
		m.chat.View(),
		m.renderPlans(),
		m.renderPending(),
	}

	if m.showDiff {
		sections = append(sections, m.diff.View())
	}

	prompt := m.theme.Muted.Render("i to prompt")
	if m.input.Focused() {
		prompt = "> " + m.input.View()
	}
	sections = append(sections, prompt)

	status := m.statusLine
	if status == "" {
		status = " "
	}
	sections = append(sections, status, m.renderFooter())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

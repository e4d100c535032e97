package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

const listPaneWidth = 42

func (m *Model) View() string {
	if m.width == 0 {
		return "loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderTabBar())
	b.WriteString("\n")

	switch {
	case m.mode == modeAgents:
		b.WriteString(m.renderAgentPicker())
	case m.mode == modeConfirm && m.pending != nil:
		b.WriteString(m.renderConfirm())
	case m.mode == modeEdit:
		b.WriteString(m.renderEditor())
	case m.tabs.Active() == "chat":
		b.WriteString(m.renderChat())
	default:
		b.WriteString(m.renderQueue())
	}

	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	return b.String()
}

func (m *Model) renderTabBar() string {
	queueLabel := "1 Queue"
	if m.queue.Badge() {
		queueLabel += " " + badgeStyle.Render("new")
	}
	chatLabel := "2 Chat"

	queueTab := tabInactiveStyle.Render(queueLabel)
	chatTab := tabInactiveStyle.Render(chatLabel)
	if m.tabs.Active() == "chat" {
		chatTab = tabActiveStyle.Render(chatLabel)
	} else {
		queueTab = tabActiveStyle.Render(queueLabel)
	}

	agent := mutedStyle.Render("agent: " + m.agents.Current())
	return lipgloss.JoinHorizontal(lipgloss.Top, queueTab, " ", chatTab, "   ", agent)
}

func (m *Model) renderQueue() string {
	list := m.renderDraftList()
	detail := m.renderDraftDetail()
	body := lipgloss.JoinHorizontal(lipgloss.Top, list, "  ", detail)

	if m.mode == modeSearch {
		return body + "\n" + "search: " + m.searchInput.View()
	}
	search := m.searchInput.Value()
	footer := fmt.Sprintf("filter: %s", m.queue.Filter())
	if search != "" {
		footer += "  search: " + search
	}
	return body + "\n" + mutedStyle.Render(footer)
}

func (m *Model) renderDraftList() string {
	drafts := m.queue.Drafts()
	st := m.queue.Stats()

	var b strings.Builder
	b.WriteString(sectionStyle.Render(fmt.Sprintf("Drafts (%d pending / %d total)", st.Pending, st.Total)))
	b.WriteString("\n")

	if len(drafts) == 0 {
		b.WriteString(mutedStyle.Render("no drafts match"))
		return lipgloss.NewStyle().Width(listPaneWidth).Render(b.String())
	}

	visible := m.visibleRows()
	start := m.listOffset
	if m.cursor < start {
		start = m.cursor
	}
	if m.cursor >= start+visible {
		start = m.cursor - visible + 1
	}
	m.listOffset = start
	end := min(start+visible, len(drafts))

	for i := start; i < end; i++ {
		d := drafts[i]
		line := fmt.Sprintf("%s %s", statusDot(d.Status), truncate(d.Subject, listPaneWidth-12))
		line += " " + mutedStyle.Render(truncate(d.FromAddress, 18))
		if i == m.cursor {
			b.WriteString(listSelectedStyle.Render("> " + line))
		} else {
			b.WriteString(listNormalStyle.Render("  " + line))
		}
		b.WriteString("\n")
	}
	return lipgloss.NewStyle().Width(listPaneWidth).Render(b.String())
}

func (m *Model) renderDraftDetail() string {
	d, ok := m.cursorDraft()
	if !ok {
		return mutedStyle.Render("select a draft")
	}
	width := max(m.width-listPaneWidth-6, 30)

	var b strings.Builder
	b.WriteString(detailTitleStyle.Render(d.Subject))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("from %s  ·  %s  ·  ", d.FromAddress, time.UnixMilli(d.ReceivedAt).Format("Jan 2 15:04"))))
	b.WriteString(statusBadge(d.Status))
	b.WriteString("\n\n")
	b.WriteString(sectionStyle.Render("Original message"))
	b.WriteString("\n")
	b.WriteString(truncate(d.OriginalBody, width*6))
	b.WriteString("\n\n")
	b.WriteString(sectionStyle.Render("Draft response"))
	b.WriteString("\n")
	body := d.DraftResponse
	if d.FinalResponse != "" {
		body = d.FinalResponse
	}
	b.WriteString(truncate(body, width*8))
	return lipgloss.NewStyle().Width(width).Render(b.String())
}

func (m *Model) renderChat() string {
	msgs := m.chat.Messages()
	var b strings.Builder
	b.WriteString(sectionStyle.Render("Chat with " + m.chat.Agent()))
	b.WriteString("\n\n")

	visible := m.visibleRows()
	start := max(len(msgs)-visible/2, 0)
	for _, msg := range msgs[start:] {
		switch msg.Role {
		case "user":
			b.WriteString(chatUserStyle.Render("you: "))
		default:
			b.WriteString(chatAssistantStyle.Render(msg.AgentID + ": "))
		}
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.mode == modeChatInput {
		b.WriteString(m.chatInput.View())
	} else {
		b.WriteString(mutedStyle.Render("press i to type"))
	}
	return b.String()
}

func (m *Model) renderAgentPicker() string {
	var b strings.Builder
	b.WriteString(detailTitleStyle.Render("Switch agent"))
	b.WriteString("\n\n")
	for i, a := range m.agents.Agents() {
		line := fmt.Sprintf("%s %s", a.Icon, a.Name)
		if a.Role != "" {
			line += "  " + mutedStyle.Render(a.Role)
		}
		if st, ok := m.agents.StatsFor(a.ID); ok {
			line += "  " + mutedStyle.Render(fmt.Sprintf("%d unread · %d sent today", st.Unread, st.SentToday))
		} else if m.agents.Failed(a.ID) {
			line += "  " + toastStyles["error"].Render("stats unavailable")
		}
		if a.ID == m.agents.Current() {
			line += " " + connUpStyle.Render("●")
		}
		if i == m.agentCursor {
			b.WriteString(listSelectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("enter to select · esc to close"))
	return modalStyle.Render(b.String())
}

func (m *Model) renderConfirm() string {
	var b strings.Builder
	b.WriteString(detailTitleStyle.Render(m.pending.title))
	b.WriteString("\n\n")
	b.WriteString(m.pending.message)
	b.WriteString("\n\n")
	b.WriteString(mutedStyle.Render("y to confirm · n or esc to cancel"))
	return modalStyle.Render(b.String())
}

func (m *Model) renderEditor() string {
	var b strings.Builder
	b.WriteString(detailTitleStyle.Render("Edit response"))
	b.WriteString("\n\n")
	b.WriteString(m.editArea.View())
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("ctrl+d to send · esc to cancel"))
	return modalStyle.Render(b.String())
}

func (m *Model) renderStatusBar() string {
	primary := connDownStyle.Render("● queue")
	if m.gw != nil && m.gw.PrimaryConnected() {
		primary = connUpStyle.Render("● queue")
	}
	secondary := connDownStyle.Render("● chat")
	if m.gw != nil && m.gw.SecondaryConnected() {
		secondary = connUpStyle.Render("● chat")
	}

	voicePart := "voice off"
	if m.voice != nil && m.voice.AutoPlay() {
		voicePart = fmt.Sprintf("voice %s %.1fx", m.voiceName(), m.prefs.Get().PlaybackSpeed)
	}
	if m.speaking {
		voicePart = fmt.Sprintf("speaking %s 🔊", m.voiceName())
	}

	parts := []string{primary, secondary, voicePart, m.tabs.Fragment()}
	for _, t := range m.toasts {
		parts = append(parts, toastStyles[t.level].Render(t.text))
	}
	return statusBarStyle.Render(strings.Join(parts, "  "))
}

// voiceName is the configured voice for the current agent, shown so a switch
// is visible without opening the picker.
func (m *Model) voiceName() string {
	if m.voice == nil || m.agents == nil {
		return ""
	}
	if name := m.voice.VoiceName(m.agents.Current()); name != "" {
		return name
	}
	return "?"
}

func (m *Model) visibleRows() int {
	rows := m.height - 8
	if rows < 5 {
		rows = 5
	}
	return rows
}

func statusDot(status string) string {
	if s, ok := statusStyle[status]; ok {
		return s.Render("●")
	}
	return "●"
}

func statusBadge(status string) string {
	if s, ok := statusStyle[status]; ok {
		return s.Render(strings.ToUpper(status))
	}
	return status
}

func truncate(s string, n int) string {
	if n <= 3 {
		n = 3
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

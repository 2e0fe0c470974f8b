// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/orion-chat/internal/model"
	"github.com/jeranaias/orion-chat/internal/ui/styles"
	"github.com/jeranaias/orion-chat/internal/util"
)

// View renders the chat screen.
func (m Model) View() string {
	if !m.ready {
		return "\n  Starting Orion..."
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.viewport.View(),
		m.renderTyping(),
		m.renderInput(),
		m.renderStatusBar(),
	)
}

// =============================================================================
// MESSAGES
// =============================================================================

// renderMessages renders the whole conversation for the viewport.
func (m Model) renderMessages() string {
	var b strings.Builder
	for i, msg := range m.conv.Messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(m.renderMessage(msg))
	}
	return b.String()
}

func (m Model) renderMessage(msg *model.Message) string {
	header := m.renderSender(msg)
	if m.cfg.UI.ShowTimestamps {
		header += "  " + m.theme.Timestamp.Render(msg.FormattedTime())
	}

	var body string
	switch {
	case msg.IsUser():
		body = m.theme.UserBubble.Render(msg.Text)
	case msg.Failed:
		body = m.theme.ErrorText.Render(styles.StatusIndicators.Error + " " + msg.Text)
	case msg.IsEmpty() && msg.Final:
		body = m.theme.TypingText.Render(styles.StatusIndicators.Warning + " No reply")
	case msg.IsEmpty():
		return header
	case msg.Final:
		body = m.theme.BotBubble.Render(m.renderFinal(msg))
	default:
		body = m.theme.BotBubble.Render(m.renderMarkdown(msg.Text))
	}
	return header + "\n" + body
}

func (m Model) renderSender(msg *model.Message) string {
	if msg.IsUser() {
		name := msg.Sender.DisplayName()
		if m.cfg.UI.UserName != "" {
			name = m.cfg.UI.UserName
		}
		return m.theme.UserName.Render(name)
	}
	return m.theme.BotName.Render(msg.Sender.DisplayName())
}

// renderFinal renders a final reply once and caches it by message ID.
func (m Model) renderFinal(msg *model.Message) string {
	if out, ok := m.rendered[msg.ID]; ok {
		return out
	}
	out := m.renderMarkdown(msg.Text)
	m.rendered[msg.ID] = out
	return out
}

func (m Model) renderMarkdown(text string) string {
	if m.renderer == nil {
		return text
	}
	return m.renderer.Render(text)
}

// =============================================================================
// CHROME
// =============================================================================

func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("Orion")
	host := m.theme.Timestamp.Render(m.endpointHost())
	gap := m.width - lipgloss.Width(title) - lipgloss.Width(host) - m.theme.Header.GetHorizontalFrameSize()
	if gap < 1 {
		gap = 1
	}
	return m.theme.Header.Width(m.width).Render(title + strings.Repeat(" ", gap) + host)
}

// renderTyping shows the typing indicator until the first chunk arrives.
func (m Model) renderTyping() string {
	if !m.Typing() {
		return ""
	}
	return " " + m.spinner.View() + " " + m.theme.TypingText.Render("Orion is typing...")
}

func (m Model) renderInput() string {
	return m.theme.InputContainer.Width(max(m.width-2, 10)).Render(m.input.View())
}

func (m Model) renderStatusBar() string {
	status := util.TruncateWidth(m.status, max(m.width-2, 10))

	var text string
	switch {
	case status != "" && m.statusErr:
		text = m.theme.StatusWarn.Render(status)
	case status != "":
		text = m.theme.StatusOK.Render(status)
	default:
		text = m.renderHelp()
	}
	return m.theme.StatusBar.Width(m.width).Render(text)
}

func (m Model) renderHelp() string {
	parts := make([]string, 0, 4)
	for _, b := range m.keys.ShortHelp() {
		h := b.Help()
		parts = append(parts, m.theme.ShortcutKey.Render(h.Key)+" "+h.Desc)
	}
	return strings.Join(parts, "  ")
}

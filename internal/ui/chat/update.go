// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/orion-chat/internal/orion"
	"github.com/jeranaias/orion-chat/internal/stream"
	"github.com/jeranaias/orion-chat/internal/ui/styles"
)

// Layout rows outside the viewport: header, typing line, input box (3) and
// status bar.
const reservedRows = 6

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case sendStartedMsg:
		return m.handleSendStarted(msg)

	case sendFailedMsg:
		return m.handleSendFailed(msg)

	case chunkMsg:
		return m.handleChunk(msg)

	case renderTickMsg:
		m.tickScheduled = false
		if m.dirty && m.active != nil {
			m.dirty = false
			m.refresh()
		}
		return m, nil

	case spinner.TickMsg:
		if !m.Typing() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case clipboardMsg:
		if msg.err != nil {
			m.setStatus("Failed to copy: "+msg.err.Error(), true)
		} else {
			m.setStatus(fmt.Sprintf("Copied reply to clipboard (%d chars)", msg.chars), false)
		}
		return m, nil

	case ConfigReloadedMsg:
		return m.handleConfigReloaded(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// LAYOUT
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(m.width, m.height)

	m.viewport.Width = max(m.width, 1)
	m.viewport.Height = max(m.height-reservedRows, 1)

	// Input box border and padding plus the "> " prompt.
	m.input.Width = max(m.width-8, 10)

	if m.renderer != nil {
		if err := m.renderer.SetWidth(m.theme.ContentWidth()); err != nil {
			m.logger.Warn("renderer resize failed", "error", err)
		}
	}
	m.rendered = make(map[string]string)
	m.ready = true
	m.refresh()
	return m, nil
}

// refresh re-renders the message list into the viewport.
func (m *Model) refresh() {
	m.viewport.SetContent(m.renderMessages())
	if m.follow {
		m.viewport.GotoBottom()
	}
}

// =============================================================================
// KEYS
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.active != nil {
			m.active.cancel()
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Cancel):
		if m.active == nil {
			return m, tea.Quit
		}
		m.active.cancel()
		m.setStatus("Canceling...", false)
		return m, nil

	case key.Matches(msg, m.keys.Copy):
		return m.copyLastReply()

	case key.Matches(msg, m.keys.ClearInput):
		m.input.Reset()
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		return m.submit()

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.ViewUp()
		m.follow = false
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.ViewDown()
		m.follow = m.viewport.AtBottom()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit sends the input as a new message. Blank input is ignored.
func (m Model) submit() (tea.Model, tea.Cmd) {
	text := m.input.Value()
	if strings.TrimSpace(text) == "" {
		return m, nil
	}
	if m.active != nil {
		m.setStatus("A reply is in progress; ctrl+c cancels it", true)
		return m, nil
	}

	_, reply, err := m.conv.Submit(text)
	if err != nil {
		m.setStatus(err.Error(), true)
		return m, nil
	}

	ex := stream.NewExchange(m.conv.SetText, stream.WithErrorText(m.errorText))
	m.active = newSession(m.baseCtx, reply.ID, ex)
	m.logger.Debug("message submitted", "id", reply.ID, "length", len(text))

	m.input.Reset()
	m.setStatus("", false)
	m.follow = true
	m.dirty = false
	m.refresh()

	return m, tea.Batch(
		sendCmd(m.active.ctx, m.send, reply.ID, text),
		m.spinner.Tick,
	)
}

func (m Model) copyLastReply() (tea.Model, tea.Cmd) {
	last := m.conv.LastReply()
	if last == nil || last.IsEmpty() {
		m.setStatus("No reply to copy", true)
		return m, nil
	}
	return m, copyCmd(last.Text)
}

// =============================================================================
// STREAMING
// =============================================================================

func (m Model) isCurrent(id string) bool {
	return m.active != nil && m.active.id == id
}

func (m Model) handleSendStarted(msg sendStartedMsg) (tea.Model, tea.Cmd) {
	if !m.isCurrent(msg.id) {
		// The exchange already ended (canceled before the headers came in).
		msg.reply.End(stream.Result{State: stream.StateCanceled, Err: context.Canceled})
		msg.reply.Close()
		return m, nil
	}
	m.active.reply = msg.reply
	return m, readCmd(m.active.ctx, msg.reply, msg.id)
}

func (m Model) handleSendFailed(msg sendFailedMsg) (tea.Model, tea.Cmd) {
	if !m.isCurrent(msg.id) {
		return m, nil
	}
	m.active.fail(msg.err)
	return m.finishExchange()
}

func (m Model) handleChunk(msg chunkMsg) (tea.Model, tea.Cmd) {
	if !m.isCurrent(msg.id) {
		return m, nil
	}
	s := m.active

	switch {
	case msg.err == nil:
		s.ex.Step(msg.chunk)
		return m, tea.Batch(readCmd(s.ctx, s.reply, s.id), m.scheduleRender())
	case errors.Is(msg.err, io.EOF):
		s.ex.Complete()
	default:
		s.fail(msg.err)
	}
	return m.finishExchange()
}

// scheduleRender re-renders now if the frame budget allows, otherwise marks
// the view dirty and schedules one deferred render.
func (m *Model) scheduleRender() tea.Cmd {
	if m.limiter.Allow() {
		m.dirty = false
		m.refresh()
		return nil
	}
	m.dirty = true
	if m.tickScheduled {
		return nil
	}
	m.tickScheduled = true
	interval := time.Duration(float64(time.Second) / float64(m.limiter.Limit()))
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return renderTickMsg{}
	})
}

// finishExchange records the result in the conversation. It runs exactly
// once per exchange, after the exchange reached a terminal state.
func (m Model) finishExchange() (tea.Model, tea.Cmd) {
	s := m.active
	m.active = nil
	res := s.end()

	switch res.State {
	case stream.StateFailed:
		m.conv.Fail(res.Text)
		m.setStatus(styles.StatusIndicators.Error+" Reply failed", true)
		m.logger.Warn("reply failed", "id", s.id, "temporary", orion.IsTemporary(res.Err), "error", res.Err)
	case stream.StateCanceled:
		m.conv.Finalize()
		m.setStatus(styles.StatusIndicators.Warning+" Reply canceled", false)
	default:
		m.conv.Finalize()
		if m.status == "Canceling..." {
			m.setStatus("", false)
		}
	}

	m.dirty = false
	m.refresh()
	return m, nil
}

// =============================================================================
// CONFIG RELOAD
// =============================================================================

func (m Model) handleConfigReloaded(msg ConfigReloadedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.logger.Warn("config reload failed", "error", msg.Err)
		m.setStatus("Config reload failed: "+msg.Err.Error(), true)
		return m, nil
	}
	cfg := msg.Config
	if cfg == nil {
		return m, nil
	}

	// The exchange in progress keeps its client; the next one uses the new
	// endpoint settings.
	client := orion.NewFromConfig(cfg, orion.WithLogger(m.logger))
	m.send = clientSender(client)
	m.endpoint = client.Endpoint()
	m.errorText = client.ErrorText()
	m.limiter.SetLimit(fpsLimit(cfg.UI.RenderFPS))

	if cfg.UI.Theme != m.cfg.UI.Theme {
		m.theme = styles.NewTheme(cfg.UI.Theme)
		m.theme.SetSize(m.width, m.height)
		m.spinner.Style = m.theme.Spinner
		m.renderer = newRenderer(cfg.UI.Theme, m.theme.ContentWidth())
	}
	m.cfg = cfg
	m.rendered = make(map[string]string)
	m.refresh()

	m.logger.Info("config reloaded", "endpoint", m.endpoint, "theme", cfg.UI.Theme)
	m.setStatus(styles.StatusIndicators.Success+" Config reloaded", false)
	return m, nil
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// tui.go - Starts the full-screen chat UI.

package cli

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/orion-chat/internal/config"
	"github.com/jeranaias/orion-chat/internal/logging"
	"github.com/jeranaias/orion-chat/internal/ui/chat"
)

// RunTUI runs the chat TUI until the user quits or ctx is done. Edits to the
// config file are picked up while it runs and apply from the next message.
func RunTUI(ctx context.Context, cfg *config.Config, args Args) error {
	logger := logging.WithComponent("tui")
	cfg = ApplyArgs(cfg, args)

	m := chat.New(chat.Options{
		Config:  cfg,
		Context: ctx,
		Logger:  logger,
	})
	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	if path, err := config.ActivePath(); err == nil {
		watcher, err := config.NewWatcher(path, config.DefaultDebounce, func(reloaded *config.Config, err error) {
			if err == nil {
				reloaded = ApplyArgs(reloaded, args)
			}
			p.Send(chat.ConfigReloadedMsg{Config: reloaded, Err: err})
		})
		if err == nil {
			if err := watcher.Watch(); err != nil {
				logger.Warn("config watch unavailable", "path", path, "error", err)
			}
			defer watcher.Close()
		} else {
			logger.Warn("config watch unavailable", "path", path, "error", err)
		}
	}

	if _, err := p.Run(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return NewCommandError("tui", "run", "terminal UI stopped", err)
	}
	return nil
}

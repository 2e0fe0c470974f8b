// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/orion-chat/internal/orion"
)

// sendFunc submits a message and returns the open reply.
type sendFunc func(ctx context.Context, message string) (replyStream, error)

func clientSender(c *orion.Client) sendFunc {
	return func(ctx context.Context, message string) (replyStream, error) {
		reply, err := c.Send(ctx, message)
		if err != nil {
			return nil, err
		}
		return reply, nil
	}
}

// writeClipboard is replaced in tests.
var writeClipboard = clipboard.WriteAll

// =============================================================================
// COMMAND CREATORS
// =============================================================================

// sendCmd posts the message and reports whether a body came back.
func sendCmd(ctx context.Context, send sendFunc, id, message string) tea.Cmd {
	return func() tea.Msg {
		reply, err := send(ctx, message)
		if err != nil {
			return sendFailedMsg{id: id, err: err}
		}
		return sendStartedMsg{id: id, reply: reply}
	}
}

// readCmd performs exactly one body read.
func readCmd(ctx context.Context, reply replyStream, id string) tea.Cmd {
	return func() tea.Msg {
		chunk, err := reply.Next(ctx)
		return chunkMsg{id: id, chunk: chunk, err: err}
	}
}

func copyCmd(text string) tea.Cmd {
	return func() tea.Msg {
		return clipboardMsg{chars: len([]rune(text)), err: writeClipboard(text)}
	}
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/orion-chat/internal/config"
	"github.com/jeranaias/orion-chat/internal/stream"
)

// =============================================================================
// STREAMING MESSAGES
// =============================================================================

// replyStream is an open reply body. *orion.Reply implements it.
type replyStream interface {
	stream.ChunkSource
	Close() error
	End(res stream.Result)
}

// sendStartedMsg signals that the response headers arrived.
type sendStartedMsg struct {
	id    string
	reply replyStream
}

// sendFailedMsg signals that the request never produced a body.
type sendFailedMsg struct {
	id  string
	err error
}

// chunkMsg delivers one body read: a chunk, io.EOF or a read error.
type chunkMsg struct {
	id    string
	chunk string
	err   error
}

// renderTickMsg asks for a deferred re-render of the streaming reply.
type renderTickMsg struct{}

// =============================================================================
// OTHER MESSAGES
// =============================================================================

// ConfigReloadedMsg carries a config reloaded from disk while the TUI runs.
type ConfigReloadedMsg struct {
	Config *config.Config
	Err    error
}

// clipboardMsg reports the result of a copy.
type clipboardMsg struct {
	chars int
	err   error
}

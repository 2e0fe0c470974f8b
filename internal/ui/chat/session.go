// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	"github.com/jeranaias/orion-chat/internal/stream"
)

// session is the exchange in progress. It is owned by the update loop and
// shared by pointer across model copies.
type session struct {
	id     string // ID of the pending bot message
	ctx    context.Context
	cancel context.CancelFunc
	ex     *stream.Exchange
	reply  replyStream // nil until the headers arrive
}

func newSession(parent context.Context, id string, ex *stream.Exchange) *session {
	ctx, cancel := context.WithCancel(parent)
	return &session{id: id, ctx: ctx, cancel: cancel, ex: ex}
}

// typing reports whether no chunk has arrived yet.
func (s *session) typing() bool {
	return s.ex.State() == stream.StatePending
}

// fail ends the exchange after a send or read error. An error caused by our
// own cancellation ends it as canceled instead.
func (s *session) fail(err error) {
	if ctxErr := s.ctx.Err(); ctxErr != nil {
		s.ex.Cancel(ctxErr)
		return
	}
	s.ex.Abort(err)
}

// end releases the reply and the context and returns the final result.
// The exchange must be in a terminal state.
func (s *session) end() stream.Result {
	res := s.ex.Result()
	if s.reply != nil {
		s.reply.End(res)
		s.reply.Close()
	}
	s.cancel()
	return res
}

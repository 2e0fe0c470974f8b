// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import "strings"

// =============================================================================
// FRAMING CONSTANTS
// =============================================================================

const (
	// LineTerminator separates logical lines in the reply stream.
	LineTerminator = "\n"

	// DoneSentinel is the line the service sends to mark the end of a reply.
	// Its absence plus end of stream means the same thing.
	DoneSentinel = "data: [DONE]"

	// DataPrefix is the SSE envelope in front of each payload line.
	DataPrefix = "data:"
)

// =============================================================================
// LINE REASSEMBLER
// =============================================================================

// LineReassembler turns a sequence of text chunks into complete lines.
//
// Chunks are cut wherever the transport happened to cut them, so a line can
// arrive in several pieces and one chunk can carry several lines. The
// reassembler keeps exactly one pending fragment: everything after the last
// terminator seen so far. Emitted lines re-joined with LineTerminator, followed
// by the pending fragment, always equal the text fed so far.
//
// Whitespace-only lines are returned like any other line; filtering them is
// the Accumulator's job.
type LineReassembler struct {
	pending strings.Builder
}

// NewLineReassembler creates an empty reassembler.
func NewLineReassembler() *LineReassembler {
	return &LineReassembler{}
}

// Feed appends a chunk and returns the lines it completed, in arrival order.
// An empty chunk completes nothing.
func (r *LineReassembler) Feed(chunk string) []string {
	if chunk == "" {
		return nil
	}
	if !strings.Contains(chunk, LineTerminator) {
		r.pending.WriteString(chunk)
		return nil
	}

	r.pending.WriteString(chunk)
	pieces := strings.Split(r.pending.String(), LineTerminator)

	// The last piece is never terminated; it may be empty.
	last := pieces[len(pieces)-1]
	r.pending.Reset()
	r.pending.WriteString(last)

	return pieces[:len(pieces)-1]
}

// Pending returns the unterminated fragment held since the last terminator.
func (r *LineReassembler) Pending() string {
	return r.pending.String()
}

// Flush ends the stream. If the pending fragment holds anything other than
// whitespace or the done sentinel, it is returned as one final line.
// The pending fragment is cleared either way.
func (r *LineReassembler) Flush() (string, bool) {
	rest := r.pending.String()
	r.pending.Reset()

	trimmed := strings.TrimSpace(rest)
	if trimmed == "" || trimmed == DoneSentinel {
		return "", false
	}
	return rest, true
}

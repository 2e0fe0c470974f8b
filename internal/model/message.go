// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/orion-chat/internal/util"
)

// TimeLayout formats message timestamps, e.g. "October 17, 2026 at 3:04 PM".
const TimeLayout = "January 2, 2006 at 3:04 PM"

// =============================================================================
// SENDER TYPE
// =============================================================================

// Sender is the author of a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// String returns the string representation of the sender.
func (s Sender) String() string {
	return string(s)
}

// DisplayName returns a human-readable name for the sender.
func (s Sender) DisplayName() string {
	switch s {
	case SenderUser:
		return "You"
	case SenderBot:
		return "Orion"
	default:
		return string(s)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is a single entry in a conversation.
type Message struct {
	ID     string    `json:"id"`
	Sender Sender    `json:"sender"`
	Text   string    `json:"text"`
	Time   time.Time `json:"time"`

	// Final is set once the bot reply will not change again.
	Final bool `json:"final"`
	// Failed marks a reply whose text is the error message.
	Failed bool `json:"failed,omitempty"`
}

func newMessage(sender Sender, text string, at time.Time) *Message {
	return &Message{
		ID:     uuid.NewString(),
		Sender: sender,
		Text:   text,
		Time:   at,
	}
}

// FormattedTime returns the timestamp in TimeLayout.
func (m *Message) FormattedTime() string {
	return m.Time.Format(TimeLayout)
}

// IsUser reports whether the user sent the message.
func (m *Message) IsUser() bool {
	return m.Sender == SenderUser
}

// IsEmpty returns true if the message has no text.
func (m *Message) IsEmpty() bool {
	return m.Text == ""
}

// Streaming reports whether the message is a bot reply still in progress.
func (m *Message) Streaming() bool {
	return m.Sender == SenderBot && !m.Final
}

// Preview returns the text truncated to maxWidth terminal cells.
func (m *Message) Preview(maxWidth int) string {
	return util.TruncateWidth(m.Text, maxWidth)
}

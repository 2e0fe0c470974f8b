// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxMessages is the maximum number of messages to keep in conversation history.
// When exceeded, old messages are pruned to prevent unbounded memory growth.
const MaxMessages = 1000

// Greeting is the bot's opening message.
const Greeting = "Hi, how can I help you?"

var (
	// ErrExchangeActive indicates a reply is still streaming.
	ErrExchangeActive = errors.New("a reply is already in progress")

	// ErrBlankMessage indicates the input was empty or whitespace.
	ErrBlankMessage = errors.New("message is blank")
)

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds the chat history. At most one bot reply is in progress
// at a time. It is not safe for concurrent use; the UI owns it.
type Conversation struct {
	ID        string     `json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Messages  []*Message `json:"messages"`

	pending  *Message
	greeting string
	now      func() time.Time
}

// Option configures a Conversation.
type Option func(*Conversation)

// WithGreeting seeds the conversation with a final bot message.
func WithGreeting(text string) Option {
	return func(c *Conversation) {
		c.greeting = text
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Conversation) {
		if now != nil {
			c.now = now
		}
	}
}

// NewConversation creates an empty conversation.
func NewConversation(opts ...Option) *Conversation {
	c := &Conversation{
		ID:       uuid.NewString(),
		Messages: make([]*Message, 0),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.CreatedAt = c.now()
	c.UpdatedAt = c.CreatedAt
	if c.greeting != "" {
		msg := newMessage(SenderBot, c.greeting, c.CreatedAt)
		msg.Final = true
		c.Messages = append(c.Messages, msg)
	}
	return c
}

// =============================================================================
// EXCHANGE LIFECYCLE
// =============================================================================

// AddUser appends a user message. Blank text is rejected with ErrBlankMessage
// and nothing is added; the text itself is stored as typed.
func (c *Conversation) AddUser(text string) (*Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrBlankMessage
	}
	if c.pending != nil {
		return nil, ErrExchangeActive
	}
	msg := newMessage(SenderUser, text, c.now())
	c.add(msg)
	return msg, nil
}

// StartReply appends an empty bot reply and makes it the pending entry.
func (c *Conversation) StartReply() (*Message, error) {
	if c.pending != nil {
		return nil, ErrExchangeActive
	}
	msg := newMessage(SenderBot, "", c.now())
	c.add(msg)
	c.pending = msg
	return msg, nil
}

// Submit adds the user's message and an empty reply in one step.
func (c *Conversation) Submit(text string) (user, reply *Message, err error) {
	user, err = c.AddUser(text)
	if err != nil {
		return nil, nil, err
	}
	reply, err = c.StartReply()
	return user, reply, err
}

// SetText replaces the pending reply's text. It does nothing when no reply
// is pending.
func (c *Conversation) SetText(text string) {
	if c.pending == nil {
		return
	}
	c.pending.Text = text
	c.UpdatedAt = c.now()
}

// Finalize marks the pending reply final with its current text.
func (c *Conversation) Finalize() *Message {
	msg := c.pending
	if msg == nil {
		return nil
	}
	msg.Final = true
	c.pending = nil
	c.UpdatedAt = c.now()
	return msg
}

// Fail replaces the pending reply's text with errorText and finalizes it.
func (c *Conversation) Fail(errorText string) *Message {
	msg := c.pending
	if msg == nil {
		return nil
	}
	msg.Text = errorText
	msg.Failed = true
	return c.Finalize()
}

// Pending returns the reply in progress, or nil.
func (c *Conversation) Pending() *Message {
	return c.pending
}

// Active reports whether a reply is in progress.
func (c *Conversation) Active() bool {
	return c.pending != nil
}

// =============================================================================
// HISTORY
// =============================================================================

func (c *Conversation) add(msg *Message) {
	c.Messages = append(c.Messages, msg)
	c.UpdatedAt = c.now()
	c.pruneOldMessages()
}

// Last returns the most recent message, or nil if empty.
func (c *Conversation) Last() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// LastReply returns the most recent final, non-failed bot reply, or nil.
func (c *Conversation) LastReply() *Message {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		m := c.Messages[i]
		if m.Sender == SenderBot && m.Final && !m.Failed {
			return m
		}
	}
	return nil
}

// ByID returns the message with the given ID, or nil.
func (c *Conversation) ByID(id string) *Message {
	for _, m := range c.Messages {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	return len(c.Messages)
}

// Clear removes all messages. A pending reply cannot be cleared.
func (c *Conversation) Clear() error {
	if c.pending != nil {
		return ErrExchangeActive
	}
	c.Messages = c.Messages[:0]
	c.UpdatedAt = c.now()
	return nil
}

// pruneOldMessages drops the oldest messages beyond MaxMessages. The pending
// reply is always the newest message and is never pruned.
func (c *Conversation) pruneOldMessages() {
	if len(c.Messages) <= MaxMessages {
		return
	}
	excess := len(c.Messages) - MaxMessages
	kept := make([]*Message, MaxMessages)
	copy(kept, c.Messages[excess:])
	c.Messages = kept
}

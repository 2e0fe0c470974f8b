// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// # Key Types
//
//   - Conversation: ordered chat history with at most one reply in progress
//   - Message: one entry, sent by the user or the bot, with a uuid ID
//   - Sender: who wrote a message (user or bot)
//
// # Usage
//
//	conv := model.NewConversation(model.WithGreeting(model.Greeting))
//	user, reply, err := conv.Submit("What is Go?")
//	conv.SetText("Go is ...")   // replaced on every stream update
//	conv.Finalize()
//
// A bot reply is created empty when the user submits, its text is replaced
// (never appended) while the answer streams in, and it is finalized exactly
// once: with the final answer, or with an error text.
package model

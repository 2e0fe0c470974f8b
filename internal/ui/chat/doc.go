// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat implements the interactive chat screen as a Bubble Tea model.

# Layout

	+--------------------------------------------------+
	| Orion                    orionai-8c8j.onrender.com |  header
	| Orion  October 17, 2026 at 9:30 AM               |
	| | Hi, how can I help you?                        |  viewport
	| You                                              |
	| | What is Go?                                    |
	| Orion                                            |
	|  / Orion is typing...                            |  typing indicator
	| > _                                              |  input
	| enter send  ctrl+c cancel/quit  ctrl+y copy      |  status bar
	+--------------------------------------------------+

# Streaming

Submitting a message starts one exchange. The HTTP request and every body
read run as separate tea.Cmds; each read returns a chunkMsg which the update
loop feeds to the exchange and then schedules the next read. The update loop
is therefore the only place the conversation is touched, and at most one read
is outstanding at a time.

Re-rendering a streaming reply is throttled with a golang.org/x/time/rate
limiter at ui.render_fps. Final replies are rendered with glamour and cached
by message ID.

# Keys

	enter    send the message (blank input is ignored)
	ctrl+c   cancel the reply in progress, or quit when idle
	ctrl+y   copy the last reply to the clipboard
	esc      clear the input
	pgup     scroll up (stops following new output)
	pgdown   scroll down
	ctrl+q   quit
*/
package chat

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream turns a chunked reply stream from the Orion service into the
// text shown for the in-progress bot message.
//
// The pipeline is:
//
//	bytes -> DecodingSource -> chunk -> LineReassembler -> line
//	      -> Accumulator -> answer buffer -> Normalize -> display text
//
// # Key Types
//
//   - LineReassembler: splits arbitrarily sized chunks into complete lines,
//     holding the trailing partial line across calls
//   - Accumulator: strips SSE framing, concatenates payloads into the answer
//     buffer and publishes the normalized display text after every line
//   - Exchange: drives one request/response exchange over a ChunkSource and
//     owns its terminal state (complete, failed, canceled)
//
// # Upstream framing
//
// The service is expected to send newline-delimited events, each optionally
// prefixed with "data: ", optionally terminated by the line "data: [DONE]".
// A service that switches to length-prefixed or binary framing needs a new
// reassembler; nothing here tries to detect that.
//
// # Concurrency
//
// Nothing in this package is safe for concurrent use. One exchange is driven
// from one goroutine; in the TUI that goroutine is the Bubble Tea update loop
// and every chunk read is a tea.Cmd, so each read is a suspend point.
package stream

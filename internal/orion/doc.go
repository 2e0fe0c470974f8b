// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package orion is the HTTP client for the Orion chat service.
//
// A chat exchange is a single POST of {"message": "..."} to the service
// endpoint. The reply body is a text stream of newline-delimited events,
// usually framed as "data: <text>" and optionally closed by "data: [DONE]".
// The body is handed to the caller as a stream.ChunkSource; decoding and
// display formatting live in package stream.
//
// Usage:
//
//	client := orion.New(orion.WithEndpoint(cfg.Endpoint.URL))
//	res, err := client.Ask(ctx, "hello", func(text string) { fmt.Println(text) })
//
// Hosts that deliver chunks one at a time (the TUI) use Send and read the
// returned Reply themselves:
//
//	reply, err := client.Send(ctx, "hello")
//	defer reply.Close()
//	chunk, err := reply.Next(ctx)
//
// Every exchange runs inside an OpenTelemetry span named "orion.exchange".
// With no tracer provider installed the span is a no-op.
package orion

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package telemetry installs the OpenTelemetry tracer provider.
//
// When log.traces is on, every chat exchange produces one "orion.exchange"
// span, written as JSON next to the logs: stderr for the line commands and
// the log file for the TUI. When it is off the global provider stays the
// no-op default and spans cost nothing.
package telemetry

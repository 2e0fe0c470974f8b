// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the commands of the orion
// binary.
//
// # Key Types
//
//   - Command: which subcommand to run
//   - Args: parsed global and command-specific flags
//   - ArgParser: flag/positional splitter shared by every command
//   - CommandError, ValidationError: structured errors mapped to exit codes
//
// # Usage
//
//	cmd, args, err := cli.Parse(os.Args[1:])
//	switch cmd {
//	case cli.CmdAsk:
//	    err = cli.RunAsk(ctx, cfg, args, os.Stdout, os.Stderr)
//	case cli.CmdChat:
//	    err = cli.RunChat(ctx, cfg, args, os.Stdout, os.Stderr)
//	// ...
//	}
//	os.Exit(cli.GetExitCode(err))
//
// # Commands
//
//   - (none), tui: full-screen chat (internal/ui/chat)
//   - ask: one question, reply on stdout; rendered markdown on a terminal,
//     plain text when piped
//   - chat: line-editing REPL for terminals without a full-screen UI
//   - config: show, get, set, keys, path, toml
//   - mock: local mock service for offline use and demos
//   - version, help
//
// Commands return errors rather than printing them; main displays the error
// and exits with GetExitCode.
package cli

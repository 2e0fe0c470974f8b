// orion - chat with the Orion assistant from your terminal.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jeranaias/orion-chat/internal/cli"
	"github.com/jeranaias/orion-chat/internal/config"
	"github.com/jeranaias/orion-chat/internal/logging"
	"github.com/jeranaias/orion-chat/internal/telemetry"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	cmd, args, err := cli.Parse(argv)
	if err != nil {
		cli.DisplayError(os.Stderr, err, args.JSON)
		return cli.GetExitCode(err)
	}

	switch cmd {
	case cli.CmdHelp:
		cli.PrintUsage(os.Stdout)
		return cli.ExitSuccess
	case cli.CmdVersion:
		cli.PrintVersion(os.Stdout, args.JSON)
		return cli.ExitSuccess
	}

	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	cfg := config.Global()

	effective := cli.ApplyArgs(cfg, args)
	logOut, closeLog, err := setupLogging(cmd, effective)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging to stderr: %v\n", err)
	}
	defer closeLog()

	shutdownTraces, err := telemetry.Init(telemetry.Config{
		Enabled:        effective.Log.Traces,
		ServiceVersion: Version,
		Output:         logOut,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: tracing disabled: %v\n", err)
	} else {
		defer shutdownTraces(context.Background())
	}

	ctx, stop := signal.NotifyContext(context.Background(), shutdownSignals(cmd)...)
	defer stop()

	switch cmd {
	case cli.CmdTUI:
		err = cli.RunTUI(ctx, cfg, args)
	case cli.CmdAsk:
		err = cli.RunAsk(ctx, cfg, args, os.Stdout, os.Stderr)
	case cli.CmdChat:
		err = cli.RunChat(ctx, cfg, args, os.Stdout, os.Stderr)
	case cli.CmdConfig:
		err = cli.RunConfig(cfg, args, os.Stdout)
	case cli.CmdMock:
		err = cli.RunMock(ctx, args, os.Stdout)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		cli.DisplayError(os.Stderr, err, args.JSON)
	}
	return cli.GetExitCode(err)
}

// shutdownSignals returns the signals that end the command. The TUI and the
// chat REPL handle Ctrl+C themselves: it cancels the reply in flight.
func shutdownSignals(cmd cli.Command) []os.Signal {
	switch cmd {
	case cli.CmdTUI, cli.CmdChat:
		return []os.Signal{syscall.SIGTERM}
	default:
		return []os.Signal{os.Interrupt, syscall.SIGTERM}
	}
}

// setupLogging installs the process logger and returns where it writes. The
// TUI owns the terminal, so it logs to a file; everything else logs to stderr.
func setupLogging(cmd cli.Command, cfg *config.Config) (io.Writer, func(), error) {
	opts := logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stderr,
	}
	closeFn := func() {}

	// Replies go to stdout in ask and chat; routine exchange logs would
	// interleave with them on the same terminal.
	switch cmd {
	case cli.CmdAsk, cli.CmdChat, cli.CmdConfig:
		if logging.ParseLevel(opts.Level) == slog.LevelInfo {
			opts.Level = "warn"
		}
	}

	if cmd == cli.CmdTUI {
		opts.Output = io.Discard
		path, err := cfg.LogPath()
		if err == nil {
			var f *os.File
			if f, err = logging.OpenFile(path); err == nil {
				opts.Output = f
				closeFn = func() { f.Close() }
			}
		}
		logging.Setup(opts)
		return opts.Output, closeFn, err
	}

	logging.Setup(opts)
	return opts.Output, closeFn, nil
}

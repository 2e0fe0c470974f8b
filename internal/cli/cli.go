// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Command-line parsing and dispatch for orion.
//
// Commands:
//
//	orion                     Start the interactive TUI (default)
//	orion ask "question"      Ask once and print the reply
//	orion chat                Line-based chat session
//	orion config [sub]        Show or edit configuration
//	orion mock                Run a local mock Orion service
//	orion version             Show version information

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"strings"
	"time"

	"github.com/jeranaias/orion-chat/internal/config"
	"github.com/jeranaias/orion-chat/internal/mockserver"
)

// Version information, set at build time via ldflags.
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// =============================================================================
// COMMANDS
// =============================================================================

// Command identifies which subcommand to run.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdChat
	CmdConfig
	CmdMock
	CmdVersion
	CmdHelp
)

// String returns the command name.
func (c Command) String() string {
	switch c {
	case CmdTUI:
		return "tui"
	case CmdAsk:
		return "ask"
	case CmdChat:
		return "chat"
	case CmdConfig:
		return "config"
	case CmdMock:
		return "mock"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	default:
		return "unknown"
	}
}

// Args holds everything parsed from the command line.
type Args struct {
	// Global flags
	Quiet    bool
	Verbose  bool
	JSON     bool
	Endpoint string // overrides endpoint.url for this run

	// ask
	Query string
	Raw   bool // print the answer without markdown normalization or rendering

	// config
	Subcommand string
	ConfigKey  string
	ConfigVal  string

	// mock
	Addr     string
	Delay    time.Duration
	MaxSplit int
	Seed     uint64
	HasSeed  bool
}

// boolFlags are the flags that never take a value.
var boolFlags = []string{"q", "quiet", "v", "verbose", "json", "raw", "h", "help", "version"}

// =============================================================================
// PARSING
// =============================================================================

// Parse parses argv (without the program name). Unknown words are treated as
// a question for ask, so `orion what is go` works like `orion ask what is go`.
func Parse(argv []string) (Command, Args, error) {
	p := NewArgParser(argv, boolFlags...)

	args := Args{
		Quiet:    p.BoolFlag("q", "quiet"),
		Verbose:  p.BoolFlag("v", "verbose"),
		JSON:     p.BoolFlag("json"),
		Raw:      p.BoolFlag("raw"),
		Endpoint: p.Flag("endpoint", "e"),
	}

	if p.BoolFlag("h", "help") {
		return CmdHelp, args, nil
	}
	if p.BoolFlag("version") {
		return CmdVersion, args, nil
	}

	switch p.Subcommand() {
	case "", "tui":
		return CmdTUI, args, nil
	case "ask":
		args.Query = JoinPositionalArgs(p, 1)
		return CmdAsk, args, nil
	case "chat":
		return CmdChat, args, nil
	case "config":
		args.Subcommand = p.Positional(1)
		args.ConfigKey = p.Positional(2)
		args.ConfigVal = JoinPositionalArgs(p, 3)
		return CmdConfig, args, nil
	case "mock":
		err := parseMockArgs(p, &args)
		return CmdMock, args, err
	case "version":
		return CmdVersion, args, nil
	case "help":
		return CmdHelp, args, nil
	default:
		args.Query = JoinPositionalArgs(p, 0)
		return CmdAsk, args, nil
	}
}

func parseMockArgs(p *ArgParser, args *Args) error {
	args.Addr = p.FlagOrDefault("addr", mockserver.DefaultAddr)

	var err error
	if args.Delay, err = p.FlagDuration("delay", 0); err != nil {
		return err
	}
	if args.MaxSplit, err = p.FlagInt("max-split", mockserver.DefaultMaxSplit); err != nil {
		return err
	}
	if args.MaxSplit < 1 {
		return NewValidationErrorWithExample("max-split", fmt.Sprint(args.MaxSplit), "must be at least 1", "--max-split 4")
	}
	if p.HasFlag("seed") {
		seed, err := p.FlagInt("seed", 0)
		if err != nil {
			return err
		}
		args.Seed = uint64(seed)
		args.HasSeed = true
	}
	return nil
}

// =============================================================================
// USAGE AND VERSION
// =============================================================================

const usageText = `orion - chat with the Orion assistant from your terminal

USAGE:
  orion [command] [flags]

COMMANDS:
  (none), tui             Start the interactive chat TUI
  ask <question>          Ask once and print the reply
  chat                    Line-based chat session (no full-screen UI)
  config show             Show the current configuration
  config get <key>        Print one setting (e.g. ui.theme)
  config set <key> <val>  Change one setting and save it
  config keys             List all setting keys
  config path             Print the config file path
  config toml             Print the settings as a TOML file
  mock                    Run a local mock Orion service
  version                 Show version information
  help                    Show this help

GLOBAL FLAGS:
  -e, --endpoint <url>    Chat endpoint for this run
  -q, --quiet             Only print the reply
  -v, --verbose           Debug logging
      --json              JSON output (ask, config, errors)

ASK FLAGS:
      --raw               Print the answer exactly as streamed

MOCK FLAGS:
      --addr <host:port>  Listen address (default 127.0.0.1:8089)
      --delay <dur>       Pause between body writes (e.g. 50ms)
      --max-split <n>     Largest write size in bytes (default 7)
      --seed <n>          Fixed seed for reproducible splits

ENVIRONMENT:
  ORION_ENDPOINT, ORION_THEME, ORION_WORD_WRAP, ORION_LOG_LEVEL,
  ORION_LOG_FORMAT, ORION_ERROR_MESSAGE, ORION_TRACES, ORION_CONFIG_DIR,
  NO_COLOR

EXAMPLES:
  orion ask "What is a goroutine?"
  orion --endpoint http://127.0.0.1:8089/chat chat
  echo "Summarize this" | orion ask
  orion config set ui.theme light
`

// PrintUsage writes the help text.
func PrintUsage(w io.Writer) {
	fmt.Fprint(w, usageText)
}

// PrintVersion writes version information.
func PrintVersion(w io.Writer, jsonMode bool) {
	if jsonMode {
		json.NewEncoder(w).Encode(map[string]string{
			"version": Version,
			"commit":  GitCommit,
			"built":   BuildDate,
			"go":      runtime.Version(),
		})
		return
	}
	fmt.Fprintf(w, "orion %s\n", Version)
	fmt.Fprintf(w, "  commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  built:  %s\n", BuildDate)
	fmt.Fprintf(w, "  go:     %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// ApplyArgs returns a copy of cfg with the command-line overrides applied.
func ApplyArgs(cfg *config.Config, args Args) *config.Config {
	if cfg == nil {
		cfg = config.Default()
	}
	out := cfg.Clone()
	if s := strings.TrimSpace(args.Endpoint); s != "" {
		out.Endpoint.URL = s
	}
	if args.Verbose {
		out.Log.Level = "debug"
	}
	return out
}

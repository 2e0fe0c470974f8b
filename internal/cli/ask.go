// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - One-shot questions from the command line.
//
// Usage:
//
//	orion ask "What is a goroutine?"
//	echo "Explain this log line" | orion ask
//	orion ask --raw "List three colors"
//	orion ask --json "Hello"

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jeranaias/orion-chat/internal/config"
	"github.com/jeranaias/orion-chat/internal/orion"
	"github.com/jeranaias/orion-chat/internal/render"
	"github.com/jeranaias/orion-chat/internal/stream"
	"github.com/jeranaias/orion-chat/internal/util"
)

// maxStdinQuestion caps how much piped input becomes the question.
const maxStdinQuestion = 1 << 20

var (
	// askInput is read for the question when none is given and stdin is
	// not a terminal.
	askInput io.Reader = os.Stdin

	// stdinIsTTY reports whether stdin is interactive.
	stdinIsTTY = IsTTY
)

// AskOutput is the --json form of an ask result.
type AskOutput struct {
	Question     string `json:"question"`
	Reply        string `json:"reply"`
	State        string `json:"state"`
	Lines        int    `json:"lines"`
	Bytes        int    `json:"bytes"`
	FirstChunkMS int64  `json:"first_chunk_ms"`
	DurationMS   int64  `json:"duration_ms"`
	Error        string `json:"error,omitempty"`
}

// =============================================================================
// ASK
// =============================================================================

// RunAsk sends one question and writes the reply to out. The typing line and
// status notes go to errOut.
//
// A failed exchange still prints the error text as the reply and returns an
// error for the exit code. A canceled exchange prints the partial reply.
func RunAsk(ctx context.Context, cfg *config.Config, args Args, out, errOut io.Writer) error {
	question, err := askQuestion(args)
	if err != nil {
		return err
	}

	cfg = ApplyArgs(cfg, args)
	client := orion.NewFromConfig(cfg)

	var opts []stream.ExchangeOption
	if args.Raw {
		opts = append(opts, stream.WithRawOutput())
	}

	progress := newProgressLine(errOut, !args.Quiet && !args.JSON && isTerminalWriter(errOut))
	res, err := client.Ask(ctx, question, progress.update, opts...)
	progress.clear()
	if err != nil {
		return err
	}

	if args.JSON {
		if err := writeAskJSON(out, question, res); err != nil {
			return err
		}
		return resultError(res)
	}

	switch res.State {
	case stream.StateFailed:
		fmt.Fprintln(out, res.Text)
	case stream.StateCanceled:
		if res.Text != "" {
			writeReply(out, cfg, res.Text, args.Raw)
		}
		if !args.Quiet {
			fmt.Fprintln(errOut, WarningStyle.Render("[!] Reply canceled"))
		}
	default:
		writeReply(out, cfg, res.Text, args.Raw)
	}
	return resultError(res)
}

// askQuestion returns the question from the arguments or piped stdin.
func askQuestion(args Args) (string, error) {
	question := strings.TrimSpace(args.Query)
	if question == "" && !stdinIsTTY() {
		data, err := io.ReadAll(io.LimitReader(askInput, maxStdinQuestion))
		if err != nil {
			return "", NewCommandError("ask", "read", "could not read stdin", err)
		}
		question = strings.TrimSpace(string(data))
	}
	if question == "" {
		return "", NewValidationErrorWithExample("question", "", "is required", `orion ask "What is a goroutine?"`)
	}
	return question, nil
}

// resultError maps a finished exchange to the command's error.
func resultError(res stream.Result) error {
	switch res.State {
	case stream.StateFailed:
		return NewCommandError("ask", "stream", "no reply from Orion", res.Err)
	case stream.StateCanceled:
		return res.Err
	default:
		return nil
	}
}

// writeReply prints text, rendered as markdown when out is a terminal.
func writeReply(w io.Writer, cfg *config.Config, text string, raw bool) {
	if !raw && isTerminalWriter(w) {
		width := cfg.UI.WordWrap
		if width <= 0 {
			width = GetTerminalWidth()
		}
		if r, err := render.New(render.ResolveStyle(cfg.UI.Theme), width); err == nil {
			text = r.Render(text)
		}
	}
	fmt.Fprintln(w, text)
}

func writeAskJSON(w io.Writer, question string, res stream.Result) error {
	output := AskOutput{
		Question:     question,
		Reply:        res.Text,
		State:        res.State.String(),
		Lines:        res.Lines,
		Bytes:        res.Bytes,
		FirstChunkMS: res.FirstChunk.Milliseconds(),
		DurationMS:   res.Duration.Milliseconds(),
	}
	if res.Err != nil {
		output.Error = res.Err.Error()
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

// =============================================================================
// TYPING LINE
// =============================================================================

// progressLine shows a one-line preview of the reply while it streams.
type progressLine struct {
	w       io.Writer
	enabled bool
	width   int
	shown   bool
}

func newProgressLine(w io.Writer, enabled bool) *progressLine {
	p := &progressLine{w: w, enabled: enabled, width: GetTerminalWidth() - 1}
	if enabled {
		fmt.Fprint(p.w, DimStyle.Render("Orion is typing..."))
		p.shown = true
	}
	return p
}

// update redraws the line with the tail of text.
func (p *progressLine) update(text string) {
	if !p.enabled {
		return
	}
	tail := strings.TrimSpace(text)
	if i := strings.LastIndexByte(tail, '\n'); i >= 0 {
		tail = tail[i+1:]
	}
	fmt.Fprint(p.w, "\r\x1b[K"+DimStyle.Render(util.TruncateWidth(tail, p.width)))
	p.shown = true
}

func (p *progressLine) clear() {
	if p.shown {
		fmt.Fprint(p.w, "\r\x1b[K")
		p.shown = false
	}
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Line-based chat session for terminals without a full-screen UI.
//
// USABILITY: Arrow keys walk the input history; Ctrl+C during a reply
// cancels it and keeps what arrived; Ctrl+C or Ctrl+D at the prompt exits.
//
// Commands inside the session:
//
//	/help          Show the commands
//	/clear         Forget the conversation
//	/copy          Copy the last reply to the clipboard
//	/endpoint      Show the chat endpoint
//	/quit, /exit   Leave (plain "exit" and "quit" work too)

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"

	"github.com/atotto/clipboard"
	"github.com/peterh/liner"

	"github.com/jeranaias/orion-chat/internal/config"
	"github.com/jeranaias/orion-chat/internal/model"
	"github.com/jeranaias/orion-chat/internal/orion"
	"github.com/jeranaias/orion-chat/internal/render"
	"github.com/jeranaias/orion-chat/internal/stream"
)

const chatPrompt = "you> "

// copyToClipboard is replaced in tests.
var copyToClipboard = clipboard.WriteAll

// lineReader is the part of liner the session uses.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

// =============================================================================
// SESSION
// =============================================================================

// chatSession is one run of `orion chat`.
type chatSession struct {
	client   *orion.Client
	conv     *model.Conversation
	renderer *render.Renderer // nil when out is not a terminal
	out      io.Writer
	errOut   io.Writer
	quiet    bool
	live     bool // show the typing line

	mu     sync.Mutex
	cancel context.CancelFunc
}

func newChatSession(cfg *config.Config, args Args, out, errOut io.Writer) *chatSession {
	s := &chatSession{
		client: orion.NewFromConfig(cfg),
		conv:   model.NewConversation(model.WithGreeting(model.Greeting)),
		out:    out,
		errOut: errOut,
		quiet:  args.Quiet,
		live:   !args.Quiet && isTerminalWriter(errOut),
	}
	if isTerminalWriter(out) {
		width := cfg.UI.WordWrap
		if width <= 0 {
			width = GetTerminalWidth()
		}
		if r, err := render.New(render.ResolveStyle(cfg.UI.Theme), width); err == nil {
			s.renderer = r
		}
	}
	return s
}

// RunChat runs an interactive chat session until the user leaves.
func RunChat(ctx context.Context, cfg *config.Config, args Args, out, errOut io.Writer) error {
	cfg = ApplyArgs(cfg, args)
	s := newChatSession(cfg, args, out, errOut)

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	// Outside Prompt the terminal is in cooked mode, so Ctrl+C arrives as a
	// signal. It cancels the reply in flight, if any.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	done := make(chan struct{})
	defer func() {
		signal.Stop(sigChan)
		close(done)
	}()
	go func() {
		for {
			select {
			case <-sigChan:
				s.cancelReply()
			case <-done:
				return
			}
		}
	}()

	return s.loop(ctx, line)
}

// loop reads lines until exit, EOF or Ctrl+C at the prompt.
func (s *chatSession) loop(ctx context.Context, in lineReader) error {
	if !s.quiet {
		fmt.Fprintln(s.out, DimStyle.Render("Connected to "+s.client.Endpoint()+". Type /help for commands."))
		s.printReply(s.conv.Last())
	}

	for {
		input, err := in.Prompt(chatPrompt)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(s.out)
				return nil
			}
			return NewCommandError("chat", "read", "input failed", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		in.AppendHistory(input)

		if strings.HasPrefix(input, "/") {
			if !s.command(input) {
				return nil
			}
			continue
		}
		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			return nil
		}

		s.respond(ctx, input)
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// command runs a slash command. It returns false when the session should end.
func (s *chatSession) command(input string) bool {
	name, _, _ := strings.Cut(strings.ToLower(input), " ")
	switch name {
	case "/quit", "/exit", "/q":
		return false
	case "/help", "/?":
		fmt.Fprintln(s.out, "/help  /clear  /copy  /endpoint  /quit")
	case "/clear":
		s.conv.Clear()
		fmt.Fprintln(s.out, SuccessStyle.Render("[OK]")+" Conversation cleared")
	case "/copy":
		last := s.conv.LastReply()
		if last == nil || strings.TrimSpace(last.Text) == "" {
			fmt.Fprintln(s.out, WarningStyle.Render("[!]")+" Nothing to copy")
			break
		}
		if err := copyToClipboard(last.Text); err != nil {
			fmt.Fprintln(s.errOut, ErrorStyle.Render("[X]")+" Copy failed: "+err.Error())
			break
		}
		fmt.Fprintln(s.out, SuccessStyle.Render("[OK]")+" Copied last reply")
	case "/endpoint":
		fmt.Fprintln(s.out, s.client.Endpoint())
	default:
		fmt.Fprintln(s.errOut, ErrorStyle.Render("[X]")+" Unknown command "+name+" (try /help)")
	}
	return true
}

// respond runs one exchange and prints the reply.
func (s *chatSession) respond(ctx context.Context, input string) {
	if _, _, err := s.conv.Submit(input); err != nil {
		fmt.Fprintln(s.errOut, ErrorStyle.Render("[X]")+" "+err.Error())
		return
	}

	exCtx, cancel := context.WithCancel(ctx)
	s.setCancel(cancel)
	defer func() {
		s.setCancel(nil)
		cancel()
	}()

	progress := newProgressLine(s.errOut, s.live)
	res, err := s.client.Ask(exCtx, input, func(text string) {
		s.conv.SetText(text)
		progress.update(text)
	})
	progress.clear()

	var msg *model.Message
	switch {
	case err != nil:
		msg = s.conv.Fail(s.client.ErrorText())
	case res.State == stream.StateFailed:
		msg = s.conv.Fail(res.Text)
	default:
		msg = s.conv.Finalize()
	}
	s.printReply(msg)

	if res.State == stream.StateCanceled && !s.quiet {
		fmt.Fprintln(s.errOut, WarningStyle.Render("[!] Reply canceled"))
	}
}

func (s *chatSession) printReply(msg *model.Message) {
	if msg == nil {
		return
	}
	text := msg.Text
	switch {
	case msg.Failed:
		text = ErrorStyle.Render(text)
	case strings.TrimSpace(text) == "":
		text = WarningStyle.Render("[!] No reply")
	case s.renderer != nil:
		text = "\n" + s.renderer.Render(text)
	}
	fmt.Fprintf(s.out, "%s %s\n\n", PromptStyle.Render("Orion>"), text)
}

// =============================================================================
// CANCELLATION
// =============================================================================

func (s *chatSession) setCancel(cancel context.CancelFunc) {
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
}

// cancelReply cancels the reply in flight. It reports whether there was one.
func (s *chatSession) cancelReply() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel == nil {
		return false
	}
	s.cancel()
	s.cancel = nil
	return true
}

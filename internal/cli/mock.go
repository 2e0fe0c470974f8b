// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// mock.go - The `orion mock` command: a local stand-in for the Orion service.
//
// Usage:
//
//	orion mock --addr 127.0.0.1:8089 --delay 40ms
//	orion --endpoint http://127.0.0.1:8089/chat

package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/jeranaias/orion-chat/internal/logging"
	"github.com/jeranaias/orion-chat/internal/mockserver"
)

// RunMock serves the mock endpoint until ctx is done.
func RunMock(ctx context.Context, args Args, out io.Writer) error {
	opts := []mockserver.Option{
		mockserver.WithDelay(args.Delay),
		mockserver.WithMaxSplit(args.MaxSplit),
		mockserver.WithLogger(logging.WithComponent("mock")),
	}
	if args.HasSeed {
		opts = append(opts, mockserver.WithSeed(args.Seed))
	}
	srv := mockserver.New(opts...)

	addr := args.Addr
	if addr == "" {
		addr = mockserver.DefaultAddr
	}
	if !args.Quiet {
		fmt.Fprintf(out, "%s Mock Orion on http://%s/chat (Ctrl+C to stop)\n", SuccessStyle.Render("[OK]"), addr)
		fmt.Fprintln(out, DimStyle.Render("Knobs: ?delay=ms  ?status=503  ?fail=1"))
	}

	if err := srv.ListenAndServe(ctx, addr); err != nil {
		return NewCommandError("mock", "serve", "server stopped", err)
	}
	return nil
}

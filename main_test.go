// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/orion-chat/internal/cli"
	"github.com/jeranaias/orion-chat/internal/config"
	"github.com/jeranaias/orion-chat/internal/logging"
)

func TestRun_HelpAndVersion(t *testing.T) {
	assert.Equal(t, cli.ExitSuccess, run([]string{"help"}))
	assert.Equal(t, cli.ExitSuccess, run([]string{"--version"}))
}

func TestRun_UsageError(t *testing.T) {
	assert.Equal(t, cli.ExitUsageError, run([]string{"mock", "--max-split", "0"}))
}

func TestShutdownSignals(t *testing.T) {
	assert.Equal(t, []os.Signal{syscall.SIGTERM}, shutdownSignals(cli.CmdChat))
	assert.Equal(t, []os.Signal{syscall.SIGTERM}, shutdownSignals(cli.CmdTUI))
	assert.Contains(t, shutdownSignals(cli.CmdAsk), os.Interrupt)
}

func TestVersionSynced(t *testing.T) {
	assert.Equal(t, Version, cli.Version)
}

func TestSetupLogging_Output(t *testing.T) {
	t.Cleanup(func() { logging.SetLogger(logging.Discard()) })

	out, closeLog, err := setupLogging(cli.CmdAsk, config.Default())
	require.NoError(t, err)
	closeLog()
	assert.Equal(t, os.Stderr, out)

	cfg := config.Default()
	cfg.Log.File = filepath.Join(t.TempDir(), "orion.log")
	out, closeLog, err = setupLogging(cli.CmdTUI, cfg)
	require.NoError(t, err)
	defer closeLog()

	f, ok := out.(*os.File)
	require.True(t, ok, "the TUI logs to a file")
	assert.Equal(t, cfg.Log.File, f.Name())
}

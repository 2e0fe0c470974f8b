// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for orion.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - EndpointConfig: The chat service URL and transport knobs
//   - UIConfig: Theme, wrap width, render rate
//   - LogConfig: Level, format and log file
//   - Watcher: Reloads the config file when it changes
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (ORION_*), including those from .env files
//   - ~/.orion/config.toml
//   - ~/.orion/config.json
//   - Built-in defaults
//
// # Usage
//
//	_ = config.LoadDotEnv()
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	url := cfg.Endpoint.URL
package config

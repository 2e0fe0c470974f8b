// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - The `orion config` command.
//
// Usage:
//
//	orion config [show]          Effective settings (file, env and flags)
//	orion config get ui.theme    One setting
//	orion config set ui.theme light
//	orion config keys            All keys
//	orion config path            Config file path
//	orion config toml            Effective settings as a TOML file

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/orion-chat/internal/config"
)

// RunConfig runs a config subcommand. cfg is the effective configuration.
func RunConfig(cfg *config.Config, args Args, out io.Writer) error {
	cfg = ApplyArgs(cfg, args)

	switch args.Subcommand {
	case "", "show", "list":
		return showConfig(cfg, args.JSON, out)

	case "get":
		if args.ConfigKey == "" {
			return NewValidationErrorWithExample("key", "", "is required", "orion config get ui.theme")
		}
		val, err := cfg.Get(args.ConfigKey)
		if err != nil {
			return NewValidationError("key", args.ConfigKey, err.Error())
		}
		if args.JSON {
			return json.NewEncoder(out).Encode(map[string]interface{}{args.ConfigKey: val})
		}
		fmt.Fprintln(out, val)
		return nil

	case "set":
		if args.ConfigKey == "" {
			return NewValidationErrorWithExample("key", "", "is required", "orion config set ui.theme light")
		}
		path, err := setConfigValue(args.ConfigKey, args.ConfigVal)
		if err != nil {
			return err
		}
		if !args.Quiet {
			fmt.Fprintf(out, "%s %s = %s (%s)\n", SuccessStyle.Render("[OK]"), args.ConfigKey, args.ConfigVal, path)
		}
		return nil

	case "keys":
		for _, k := range config.Keys() {
			fmt.Fprintln(out, k)
		}
		return nil

	case "path":
		path, err := config.ActivePath()
		if err != nil {
			return NewCommandError("config", "path", "no config directory", err)
		}
		fmt.Fprintln(out, path)
		return nil

	case "toml":
		return toml.NewEncoder(out).Encode(cfg)

	default:
		return NewValidationErrorWithExample("config subcommand", args.Subcommand,
			"must be show, get, set, keys, path or toml", "orion config get ui.theme")
	}
}

func showConfig(cfg *config.Config, jsonMode bool, out io.Writer) error {
	if jsonMode {
		fmt.Fprintln(out, cfg.String())
		return nil
	}

	path, _ := config.ActivePath()
	fmt.Fprintln(out, TitleStyle.Render("Orion configuration"))
	fmt.Fprintln(out, DimStyle.Render(path))
	fmt.Fprintln(out, RenderSeparator())
	for _, k := range config.Keys() {
		val, err := cfg.Get(k)
		if err != nil {
			continue
		}
		fmt.Fprintln(out, RenderKeyValue(k, fmt.Sprint(val)))
	}
	return nil
}

// setConfigValue changes one key in the config file and saves it. Environment
// overrides are not applied, so they never leak into the file.
func setConfigValue(key, value string) (string, error) {
	path, err := config.ActivePath()
	if err != nil {
		return "", NewCommandError("config", "set", "no config directory", err)
	}

	cfg := config.Default()
	if _, statErr := os.Stat(path); statErr == nil {
		if strings.HasSuffix(path, ".json") {
			err = config.LoadJSON(cfg, path)
		} else {
			err = config.LoadTOML(cfg, path)
		}
		if err != nil {
			return "", NewCommandError("config", "set", "could not read "+path, err)
		}
	} else if !errors.Is(statErr, os.ErrNotExist) {
		return "", NewCommandError("config", "set", "could not read "+path, statErr)
	}

	if err := cfg.Set(key, value); err != nil {
		return "", NewValidationError(key, value, err.Error())
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return "", fmt.Errorf("invalid config: %w", err)
	}

	if strings.HasSuffix(path, ".json") {
		err = config.SaveJSON(cfg, path)
	} else {
		err = config.SaveTOML(cfg, path)
	}
	if err != nil {
		return "", NewCommandError("config", "set", "could not save", err)
	}
	return path, nil
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package orion

import (
	"time"

	"github.com/jeranaias/orion-chat/internal/config"
)

// NewFromConfig creates a client for the endpoint section of cfg. Extra
// options are applied after the config values.
func NewFromConfig(cfg *config.Config, opts ...Option) *Client {
	if cfg == nil {
		cfg = config.Default()
	}
	ep := cfg.Endpoint
	base := []Option{
		WithEndpoint(ep.URL),
		WithConnectTimeout(time.Duration(ep.ConnectTimeoutSecs) * time.Second),
		WithChunkSize(ep.ReadChunkBytes),
		WithErrorText(ep.ErrorMessage),
	}
	return New(append(base, opts...)...)
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package orion

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jeranaias/orion-chat/internal/config"
	"github.com/jeranaias/orion-chat/internal/logging"
	"github.com/jeranaias/orion-chat/internal/stream"
)

func TestNewFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Endpoint.URL = "http://localhost:8089/chat"
	cfg.Endpoint.ReadChunkBytes = 128
	cfg.Endpoint.ErrorMessage = "no luck"

	c := NewFromConfig(cfg, WithLogger(logging.Discard()))

	assert.Equal(t, "http://localhost:8089/chat", c.Endpoint())
	assert.Equal(t, "no luck", c.ErrorText())
	assert.Equal(t, 128, c.chunkSize)
	assert.Same(t, sharedStreamingClient, c.httpClient, "default timeout keeps the shared client")
}

func TestNewFromConfig_Nil(t *testing.T) {
	c := NewFromConfig(nil, WithLogger(logging.Discard()))
	assert.Equal(t, DefaultEndpoint, c.Endpoint())
	assert.Equal(t, stream.DefaultErrorText, c.ErrorText())
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/jeranaias/orion-chat/internal/logging"
)

// restoreGlobal puts back the tracer provider a test replaced.
func restoreGlobal(t *testing.T) {
	t.Helper()
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
}

func TestInit_Disabled(t *testing.T) {
	restoreGlobal(t)
	before := otel.GetTracerProvider()

	shutdown, err := Init(Config{Enabled: false})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
	assert.Equal(t, before, otel.GetTracerProvider())
}

func TestInit_ExportsSpans(t *testing.T) {
	restoreGlobal(t)
	var buf bytes.Buffer

	shutdown, err := Init(Config{
		Enabled:        true,
		ServiceVersion: "1.2.3",
		Output:         &buf,
		Logger:         logging.Discard(),
	})
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "orion.exchange")
	span.End()
	require.NoError(t, shutdown(context.Background()))

	out := buf.String()
	assert.Contains(t, out, `"Name":"orion.exchange"`)
	assert.Contains(t, out, DefaultServiceName)
	assert.Contains(t, out, "1.2.3")
}

func TestNewProvider_LeavesGlobalAlone(t *testing.T) {
	restoreGlobal(t)
	before := otel.GetTracerProvider()

	var buf bytes.Buffer
	tp, err := NewProvider(Config{Output: &buf, ServiceName: "orion-test"})
	require.NoError(t, err)
	defer tp.Shutdown(context.Background())

	assert.Equal(t, before, otel.GetTracerProvider())
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveStyle(t *testing.T) {
	assert.Equal(t, StyleDark, ResolveStyle("dark"))
	assert.Equal(t, StyleLight, ResolveStyle("LIGHT"))
	assert.Contains(t, []string{StyleDark, StyleLight, StyleNoTTY}, ResolveStyle("auto"))
}

func TestRender_Markdown(t *testing.T) {
	r, err := New(StyleDark, 60)
	require.NoError(t, err)

	raw := r.Render("### 1. Setup\n- **Tip:** run it")
	assert.False(t, strings.HasPrefix(raw, "\n"))
	assert.False(t, strings.HasSuffix(raw, "\n"))

	out := ansi.Strip(raw)
	assert.Contains(t, out, "Setup")
	assert.Contains(t, out, "Tip: run it")
	assert.NotContains(t, out, "**", "strong emphasis is styled, not spelled out")
}

func TestRender_NoTTYKeepsMarkers(t *testing.T) {
	r, err := New(StyleNoTTY, 60)
	require.NoError(t, err)

	out := r.Render("- **Tip:** run it")
	assert.Contains(t, out, "**Tip:**")
	assert.NotContains(t, out, "\x1b[")
}

func TestRender_Empty(t *testing.T) {
	r, err := New(StyleNoTTY, 0)
	require.NoError(t, err)

	assert.Equal(t, "", r.Render(""))
	assert.Equal(t, DefaultWidth, r.Width())
}

func TestRender_Wraps(t *testing.T) {
	r, err := New(StyleNoTTY, 30)
	require.NoError(t, err)

	out := r.Render(strings.Repeat("word ", 30))
	for _, line := range strings.Split(out, "\n") {
		assert.LessOrEqual(t, len(strings.TrimRight(line, " ")), 30)
	}

	require.NoError(t, r.SetWidth(50))
	assert.Equal(t, 50, r.Width())
}

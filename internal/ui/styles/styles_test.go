// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestNewTheme(t *testing.T) {
	theme := NewTheme("dark")
	if theme == nil {
		t.Fatal("NewTheme() returned nil")
	}
	if !theme.IsDark {
		t.Error("dark setting should force a dark background")
	}

	if NewTheme("light").IsDark {
		t.Error("light setting should force a light background")
	}
}

func TestThemeStylesRender(t *testing.T) {
	theme := NewTheme("auto")

	styles := []struct {
		name  string
		style lipgloss.Style
	}{
		{"Header", theme.Header},
		{"UserBubble", theme.UserBubble},
		{"BotBubble", theme.BotBubble},
		{"ErrorText", theme.ErrorText},
		{"InputContainer", theme.InputContainer},
		{"StatusBar", theme.StatusBar},
	}

	for _, s := range styles {
		rendered := s.style.Render("test")
		if !strings.Contains(rendered, "test") {
			t.Errorf("%s style lost its content: %q", s.name, rendered)
		}
	}
}

func TestContentWidth(t *testing.T) {
	theme := NewTheme("dark")

	tests := []struct {
		width int
		want  func(int) bool
	}{
		{10, func(w int) bool { return w == 20 }},
		{100, func(w int) bool { return w > 90 && w < 100 }},
	}

	for _, tt := range tests {
		theme.SetSize(tt.width, 40)
		if got := theme.ContentWidth(); !tt.want(got) {
			t.Errorf("ContentWidth() at width %d = %d", tt.width, got)
		}
	}
}

func TestStatusIndicatorsASCII(t *testing.T) {
	for _, s := range []string{
		StatusIndicators.Error,
		StatusIndicators.Warning,
		StatusIndicators.Pending,
		StatusIndicators.Success,
	} {
		for _, r := range s {
			if r > 127 {
				t.Errorf("indicator %q is not ASCII", s)
			}
		}
	}
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render turns reply markdown into styled terminal text with glamour.
package render

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
)

// DefaultWidth is the wrap width when the terminal width is unknown.
const DefaultWidth = 80

// Glamour standard style names.
const (
	StyleDark  = "dark"
	StyleLight = "light"
	StyleNoTTY = "notty"
)

// ResolveStyle maps a theme setting (auto, dark, light) to a glamour style.
// "auto" asks the terminal for its background and falls back to the plain
// style when the output has no color support.
func ResolveStyle(theme string) string {
	switch strings.ToLower(theme) {
	case "dark":
		return StyleDark
	case "light":
		return StyleLight
	}
	if termenv.ColorProfile() == termenv.Ascii {
		return StyleNoTTY
	}
	if termenv.HasDarkBackground() {
		return StyleDark
	}
	return StyleLight
}

// =============================================================================
// RENDERER
// =============================================================================

// Renderer renders markdown at a fixed wrap width. It is safe for concurrent
// use; SetWidth rebuilds the underlying glamour renderer.
type Renderer struct {
	mu    sync.Mutex
	style string
	width int
	tr    *glamour.TermRenderer
}

// New creates a renderer for a glamour style name (see ResolveStyle).
// width <= 0 selects DefaultWidth.
func New(style string, width int) (*Renderer, error) {
	r := &Renderer{style: style}
	if err := r.SetWidth(width); err != nil {
		return nil, err
	}
	return r, nil
}

// SetWidth changes the wrap width. A no-op when the width is unchanged.
func (r *Renderer) SetWidth(width int) error {
	if width <= 0 {
		width = DefaultWidth
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tr != nil && width == r.width {
		return nil
	}

	tr, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(r.style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return err
	}
	r.tr = tr
	r.width = width
	return nil
}

// Width returns the wrap width.
func (r *Renderer) Width() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.width
}

// Render returns md styled for the terminal, without glamour's surrounding
// blank lines. On a render error the input is returned unchanged.
func (r *Renderer) Render(md string) string {
	if strings.TrimSpace(md) == "" {
		return md
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	out, err := r.tr.Render(md)
	if err != nil {
		return md
	}
	return strings.Trim(out, "\n")
}

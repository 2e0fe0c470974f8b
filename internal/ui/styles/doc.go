// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the colors and lipgloss styles of the chat screen.

All colors are lipgloss AdaptiveColor values, so the same palette works on
light and dark terminals. NewTheme takes the ui.theme setting: "dark" and
"light" force the background, "auto" asks the terminal through termenv.

	theme := styles.NewTheme(cfg.UI.Theme)
	theme.SetSize(msg.Width, msg.Height)
	header := theme.Header.Render("Orion")

Failed replies use ErrorText together with StatusIndicators.Error so the
state never depends on color alone.
*/
package styles

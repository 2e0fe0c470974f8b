// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small string and file helpers.
//
// String widths are measured in terminal cells with go-runewidth, so wide
// (CJK, emoji) characters count as two columns.
//
//	display := util.TruncateWidth(reply, 60)
//	err := util.AtomicWriteFile(path, data, 0600)
package util

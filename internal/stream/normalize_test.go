// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "numbered headings",
			input: "1. First Thing: do X\n2. Second Thing: do Y",
			want:  "### 1. First Thing do X\n### 2. Second Thing do Y",
		},
		{
			name:  "labelled bold bullet",
			input: "- **Label :**content",
			want:  "- **Label:**content",
		},
		{
			name:  "bullet after prose",
			input: "Tips - **Speed :** fast",
			want:  "Tips\n- **Speed:**fast",
		},
		{
			name:  "double spaces",
			input: "a  b   c",
			want:  "a b c",
		},
		{
			name:  "zero width no-break spaces collapse",
			input: "abc\uFEFF\uFEFFdef",
			want:  "abc def",
		},
		{
			name:  "zero width no-break spaces trimmed",
			input: "\uFEFFhello\uFEFF",
			want:  "hello",
		},
		{
			name:  "full width colon at end",
			input: "3- Setup：",
			want:  "### 3. Setup",
		},
		{
			name:  "colon without following space is not a heading",
			input: "1. Time:10am",
			want:  "1. Time:10am",
		},
		{
			name:  "numbered list spacing",
			input: "intro\n1 .Mix\n2 .Bake",
			want:  "intro\n1. Mix\n2. Bake",
		},
		{
			name:  "emphasis whitespace",
			input: "** bold **",
			want:  "**bold**",
		},
		{
			name:  "glued words",
			input: "HelloWorld andMore",
			want:  "Hello World and More",
		},
		{
			name:  "blank line before heading collapses",
			input: "Intro:\n\n2. Next: go",
			want:  "Intro: ### 2. Next go",
		},
		{
			name:  "trim",
			input: "  padded  ",
			want:  "padded",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
		{
			name:  "plain prose untouched",
			input: "Hello world",
			want:  "Hello world",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNormalize_HeadingsOnOwnLines(t *testing.T) {
	out := Normalize("1. First Thing: do X\n2. Second Thing: do Y")

	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "### 1. First Thing"))
	assert.True(t, strings.HasPrefix(lines[1], "### 2. Second Thing"))
	assert.True(t, strings.HasSuffix(lines[0], "do X"))
	assert.True(t, strings.HasSuffix(lines[1], "do Y"))
}

// A heading is only recognised once its colon arrives, so the display for
// the same prefix changes as more text accumulates.
func TestNormalize_LateColonReformatsEarlierText(t *testing.T) {
	before := Normalize("1. Getting Started ")
	after := Normalize("1. Getting Started : install it ")

	assert.Equal(t, "1. Getting Started", before)
	assert.Equal(t, "### 1. Getting Started install it", after)
}

func TestNormalize_Deterministic(t *testing.T) {
	input := "1.Intro: helloWorld - ** Note : ** read  this\n2 .Step"
	first := Normalize(input)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Normalize(input))
	}
}

func TestRuleOrder(t *testing.T) {
	assert.Equal(t, []string{
		"heading",
		"bold-bullet",
		"emphasis-open",
		"emphasis-close",
		"numbered-list",
		"word-boundary",
		"collapse-space",
		"trim",
	}, RuleNames())
}

func TestNormalizeWith_Subset(t *testing.T) {
	rules := []Rule{
		{Name: "upper", Apply: strings.ToUpper},
		{Name: "trim", Apply: strings.TrimSpace},
	}
	assert.Equal(t, "ABC", NormalizeWith(rules, "  abc "))
	assert.Equal(t, " abc ", NormalizeWith(nil, " abc "))
}

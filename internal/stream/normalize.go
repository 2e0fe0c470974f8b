// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"strings"
	"time"
	"unicode"

	"github.com/dlclark/regexp2"
)

// =============================================================================
// REWRITE RULES
// =============================================================================

// The service answers in loosely structured prose ("1. Setup: do X - **Tip :**
// ..."). Normalize rewrites it into markdown the renderer understands.
//
// The rules are textual rewrites applied to the whole string in a fixed
// order. Later rules see the output of earlier ones and some of them undo
// parts of earlier output (the whitespace collapse eats the blank line the
// heading rule inserts), so the order is part of the contract.
//
// regexp2 is used instead of regexp because the heading rule needs a
// lookahead and the emphasis rule a lookbehind, which RE2 does not support.

// lineChar matches any character except a line break.
const lineChar = `[^\n\r\u2028\u2029]`

// space is what `\s` means in a rule pattern: regexp2's whitespace class plus
// U+FEFF (zero width no-break space).
const space = `[\s\uFEFF]`

// compileRule compiles a rule pattern with `\s` widened to space.
func compileRule(pattern string) *regexp2.Regexp {
	re := regexp2.MustCompile(strings.ReplaceAll(pattern, `\s`, space), regexp2.None)
	re.MatchTimeout = ruleTimeout
	return re
}

// isSpace is unicode.IsSpace plus U+FEFF.
func isSpace(r rune) bool {
	return r == '\uFEFF' || unicode.IsSpace(r)
}

func trimSpace(s string) string {
	return strings.TrimFunc(s, isSpace)
}

// ruleTimeout bounds a single rule on pathological input.
const ruleTimeout = 250 * time.Millisecond

// Rule is one named rewrite step of the normalizer.
type Rule struct {
	Name  string
	Apply func(string) string
}

// regexRule builds a Rule that replaces every match of pattern with repl
// (.NET substitution syntax: $1, $2).
func regexRule(name, pattern, repl string) Rule {
	re := compileRule(pattern)
	return Rule{
		Name: name,
		Apply: func(s string) string {
			out, err := re.Replace(s, repl, -1, -1)
			if err != nil {
				// Timeout: leave the text as it was.
				return s
			}
			return out
		},
	}
}

// regexFuncRule is regexRule with a computed replacement.
func regexFuncRule(name, pattern string, fn func(regexp2.Match) string) Rule {
	re := compileRule(pattern)
	return Rule{
		Name: name,
		Apply: func(s string) string {
			out, err := re.ReplaceFunc(s, fn, -1, -1)
			if err != nil {
				return s
			}
			return out
		},
	}
}

// Rules is the ordered rewrite pipeline used by Normalize.
var Rules = []Rule{
	// "1. Title:" / "1-Title：" at the start of the text or of a line becomes a
	// level-3 heading. The colon must be followed by whitespace or end the text.
	regexFuncRule("heading",
		`(?:^|\n)([0-9]+)\s*[.\-]?\s*(`+lineChar+`*?)(\s*[:：])(?=\s|\z)`,
		func(m regexp2.Match) string {
			num := m.GroupByNumber(1).String()
			title := trimSpace(m.GroupByNumber(2).String())
			return "\n### " + num + ". " + title
		}),

	// "- ** Label : **" becomes a line-leading bullet "- **Label:**".
	regexRule("bold-bullet",
		`\s*-\s*\*\*\s*(`+lineChar+`*?)\s*[:：]\s*\*\*`,
		"\n- **$1:**"),

	// No whitespace just inside emphasis markers.
	regexRule("emphasis-open", `\*\*\s+`, "**"),
	// The bullet's own "- " before an opening marker is not inside the emphasis.
	regexRule("emphasis-close", `(?<!(?:^|\n)-\s*)\s+\*\*`, "**"),

	// "2 .Text" / "2.   Text" at a line start become "2. Text".
	regexRule("numbered-list", `(^|\n)\s*([0-9]+)\s*\.\s*`, "\n$2. "),

	// "wordWord" glued by the stream becomes "word Word".
	regexRule("word-boundary", `([a-z])([A-Z])`, "$1 $2"),

	regexRule("collapse-space", `\s{2,}`, " "),

	{Name: "trim", Apply: trimSpace},
}

// =============================================================================
// NORMALIZE
// =============================================================================

// Normalize rewrites accumulated answer text into display markdown by applying
// Rules in order. It is deterministic but not idempotent: feeding its output
// back in may change it again.
func Normalize(text string) string {
	return NormalizeWith(Rules, text)
}

// NormalizeWith applies the given rules in order.
func NormalizeWith(rules []Rule, text string) string {
	for _, r := range rules {
		text = r.Apply(text)
	}
	return text
}

// RuleNames lists the pipeline's rule names in order.
func RuleNames() []string {
	names := make([]string, len(Rules))
	for i, r := range Rules {
		names[i] = r.Name
	}
	return names
}

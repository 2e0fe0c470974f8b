// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"strings"
	"unicode"
)

// DefaultErrorText replaces the bot entry when the exchange fails.
const DefaultErrorText = "😓 Oops! Something went wrong while fetching the response. Please try again."

// SetTextFunc receives the full replacement text for the bot entry.
type SetTextFunc func(text string)

// CleanLine strips surrounding whitespace and the "data:" envelope from one
// logical line. It reports false for lines that carry no payload: blank lines
// and the done sentinel. Lines without the envelope are returned as-is.
func CleanLine(line string) (string, bool) {
	line = strings.TrimSpace(line)
	if line == "" || line == DoneSentinel {
		return "", false
	}
	if rest, found := strings.CutPrefix(line, DataPrefix); found {
		return strings.TrimLeftFunc(rest, unicode.IsSpace), true
	}
	return line, true
}

// =============================================================================
// ACCUMULATOR
// =============================================================================

// Accumulator owns the answer buffer of one exchange.
//
// Every payload line is appended followed by a single space, the whole buffer
// is normalized, and the result replaces the bot entry's text. The display
// is recomputed from the full buffer each time because later text can change
// how earlier text is formatted: a heading is only recognised once its colon
// has arrived. Normalizing once per completed line (never per partial chunk)
// keeps every intermediate display value built from whole lines.
type Accumulator struct {
	answer    strings.Builder
	display   string
	setText   SetTextFunc
	normalize func(string) string

	updates   int
	finalized bool
}

// NewAccumulator creates an accumulator that publishes through setText.
// A nil setText is allowed; Display still tracks the current value.
func NewAccumulator(setText SetTextFunc) *Accumulator {
	if setText == nil {
		setText = func(string) {}
	}
	return &Accumulator{
		setText:   setText,
		normalize: Normalize,
	}
}

// WithNormalizer replaces the display formatter. Used by callers that want
// the raw answer (normalize = strings.TrimSpace) instead of markdown.
func (a *Accumulator) WithNormalizer(fn func(string) string) *Accumulator {
	if fn != nil {
		a.normalize = fn
	}
	return a
}

// Process handles one logical line. It reports whether the line carried
// payload and triggered a display update. After the accumulator is
// finalized every line is ignored.
func (a *Accumulator) Process(line string) bool {
	if a.finalized {
		return false
	}
	payload, ok := CleanLine(line)
	if !ok {
		return false
	}

	a.answer.WriteString(payload)
	a.answer.WriteByte(' ')
	a.publish(a.normalize(a.answer.String()))
	return true
}

// Finish ends the exchange successfully. The residual line (from
// LineReassembler.Flush, may be empty) goes through the same path as every
// other line, the answer buffer is trimmed and one final update is published.
// Finish returns the final display text.
func (a *Accumulator) Finish(residual string) string {
	if a.finalized {
		return a.display
	}
	if payload, ok := CleanLine(residual); ok {
		a.answer.WriteString(payload)
		a.answer.WriteByte(' ')
	}

	trimmed := strings.TrimSpace(a.answer.String())
	a.answer.Reset()
	a.answer.WriteString(trimmed)

	a.finalized = true
	a.publish(a.normalize(trimmed))
	return a.display
}

// Fail ends the exchange with a transport failure. The bot entry is replaced
// by message (DefaultErrorText when empty); partial text is never left as
// the final value. The answer buffer keeps what arrived, for logging.
func (a *Accumulator) Fail(message string) {
	if a.finalized {
		return
	}
	if message == "" {
		message = DefaultErrorText
	}
	a.finalized = true
	a.publish(message)
}

// Abandon ends the exchange without another update. The bot entry keeps the
// last published value, which was built from whole lines only.
func (a *Accumulator) Abandon() string {
	a.finalized = true
	return a.display
}

func (a *Accumulator) publish(text string) {
	a.display = text
	a.updates++
	a.setText(text)
}

// Answer returns the raw answer buffer.
func (a *Accumulator) Answer() string {
	return a.answer.String()
}

// Display returns the last published text.
func (a *Accumulator) Display() string {
	return a.display
}

// Updates returns how many times the display was published.
func (a *Accumulator) Updates() int {
	return a.updates
}

// Finalized reports whether the exchange has reached a terminal state.
func (a *Accumulator) Finalized() bool {
	return a.finalized
}

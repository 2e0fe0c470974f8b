// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// EXCHANGE STATE
// =============================================================================

// State is the lifecycle of one exchange.
type State int

const (
	// StatePending: request sent, nothing received yet.
	StatePending State = iota
	// StateStreaming: at least one chunk received.
	StateStreaming
	// StateComplete: the stream ended; the display holds the final answer.
	StateComplete
	// StateFailed: the transport failed; the display holds the error text.
	StateFailed
	// StateCanceled: the caller gave up; the display keeps the last partial.
	StateCanceled
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateStreaming:
		return "streaming"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	case StateCanceled:
		return "canceled"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether no further input is accepted.
func (s State) Terminal() bool {
	return s == StateComplete || s == StateFailed || s == StateCanceled
}

// ExchangeError is a failed exchange, carrying any answer text that arrived
// before the failure.
type ExchangeError struct {
	Partial string
	Err     error
}

// Error implements the error interface.
func (e *ExchangeError) Error() string {
	if e.Partial != "" {
		return fmt.Sprintf("exchange failed (partial answer: %d chars): %v", len(e.Partial), e.Err)
	}
	return fmt.Sprintf("exchange failed: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *ExchangeError) Unwrap() error {
	return e.Err
}

// Result summarizes a finished exchange.
type Result struct {
	State  State
	Text   string // final display text
	Answer string // raw answer buffer (trimmed when complete)
	Lines  int    // payload lines appended
	Bytes  int    // decoded bytes received
	Err    error  // *ExchangeError when failed, context error when canceled

	FirstChunk time.Duration // time to first chunk, zero if none arrived
	Duration   time.Duration
}

// =============================================================================
// EXCHANGE
// =============================================================================

// Exchange is one request/response round: one reassembler, one accumulator,
// one bot entry.
//
// Step, Complete, Abort and Cancel are the suspend-point API: a host that
// receives chunks asynchronously (the TUI) calls Step once per delivered chunk
// and one of the terminal methods at the end. Run drives a ChunkSource in a
// loop for hosts that can block.
type Exchange struct {
	lines *LineReassembler
	acc   *Accumulator

	errorText string
	state     State
	payload   int
	bytes     int
	err       error

	started    time.Time
	firstChunk time.Time
	ended      time.Time
	now        func() time.Time
}

// ExchangeOption configures an Exchange.
type ExchangeOption func(*Exchange)

// WithErrorText sets the text shown when the exchange fails.
func WithErrorText(text string) ExchangeOption {
	return func(e *Exchange) {
		if text != "" {
			e.errorText = text
		}
	}
}

// WithRawOutput publishes the answer buffer as-is instead of normalized
// markdown. The final value is still trimmed.
func WithRawOutput() ExchangeOption {
	return func(e *Exchange) {
		e.acc.WithNormalizer(func(s string) string { return s })
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) ExchangeOption {
	return func(e *Exchange) {
		if now != nil {
			e.now = now
		}
	}
}

// NewExchange starts an exchange that publishes display text through setText.
func NewExchange(setText SetTextFunc, opts ...ExchangeOption) *Exchange {
	e := &Exchange{
		lines:     NewLineReassembler(),
		acc:       NewAccumulator(setText),
		errorText: DefaultErrorText,
		state:     StatePending,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.started = e.now()
	return e
}

// Step delivers one chunk. It returns the number of lines that updated the
// display. Chunks after a terminal state are ignored.
func (e *Exchange) Step(chunk string) int {
	if e.state.Terminal() {
		return 0
	}
	if e.state == StatePending {
		e.state = StateStreaming
		e.firstChunk = e.now()
	}
	e.bytes += len(chunk)

	updated := 0
	for _, line := range e.lines.Feed(chunk) {
		if e.acc.Process(line) {
			updated++
		}
	}
	e.payload += updated
	return updated
}

// Complete ends the stream: the pending fragment is flushed as a final line
// and the display receives its final value.
func (e *Exchange) Complete() Result {
	if !e.state.Terminal() {
		residual, _ := e.lines.Flush()
		if _, ok := CleanLine(residual); ok {
			e.payload++
		}
		e.acc.Finish(residual)
		e.finish(StateComplete, nil)
	}
	return e.Result()
}

// Abort ends the exchange with a transport failure. The display is replaced
// by the error text.
func (e *Exchange) Abort(err error) Result {
	if !e.state.Terminal() {
		if err == nil {
			err = errors.New("stream aborted")
		}
		e.acc.Fail(e.errorText)
		e.finish(StateFailed, &ExchangeError{Partial: e.acc.Answer(), Err: err})
	}
	return e.Result()
}

// Cancel ends the exchange because the caller gave up. The display keeps the
// last value published from complete lines; the pending fragment is dropped.
func (e *Exchange) Cancel(cause error) Result {
	if !e.state.Terminal() {
		if cause == nil {
			cause = context.Canceled
		}
		e.acc.Abandon()
		e.lines.Flush()
		e.finish(StateCanceled, cause)
	}
	return e.Result()
}

func (e *Exchange) finish(state State, err error) {
	e.state = state
	e.err = err
	e.ended = e.now()
}

// Run reads src until it ends, fails, or ctx is done, and returns the result.
// It must be called at most once and from a single goroutine.
func (e *Exchange) Run(ctx context.Context, src ChunkSource) Result {
	for {
		chunk, err := src.Next(ctx)
		if err != nil {
			switch {
			case isEOF(err):
				return e.Complete()
			case ctx.Err() != nil:
				return e.Cancel(ctx.Err())
			default:
				return e.Abort(err)
			}
		}
		e.Step(chunk)
	}
}

// State returns the current lifecycle state.
func (e *Exchange) State() State {
	return e.state
}

// Display returns the text currently shown for the bot entry.
func (e *Exchange) Display() string {
	return e.acc.Display()
}

// Answer returns the raw answer buffer.
func (e *Exchange) Answer() string {
	return e.acc.Answer()
}

// Result returns a snapshot of the exchange.
func (e *Exchange) Result() Result {
	r := Result{
		State:  e.state,
		Text:   e.acc.Display(),
		Answer: e.acc.Answer(),
		Lines:  e.payload,
		Bytes:  e.bytes,
		Err:    e.err,
	}
	if !e.firstChunk.IsZero() {
		r.FirstChunk = e.firstChunk.Sub(e.started)
	}
	end := e.ended
	if end.IsZero() {
		end = e.now()
	}
	r.Duration = end.Sub(e.started)
	return r
}

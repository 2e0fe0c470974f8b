// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// funcSource adapts a function to ChunkSource.
type funcSource func(ctx context.Context) (string, error)

func (f funcSource) Next(ctx context.Context) (string, error) {
	return f(ctx)
}

// fakeClock advances by step on every call.
func fakeClock(step time.Duration) func() time.Time {
	t := time.Date(2026, 10, 17, 15, 4, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(step)
		return t
	}
}

// =============================================================================
// STATE TESTS
// =============================================================================

func TestState_String(t *testing.T) {
	assert.Equal(t, "pending", StatePending.String())
	assert.Equal(t, "streaming", StateStreaming.String())
	assert.Equal(t, "complete", StateComplete.String())
	assert.Equal(t, "failed", StateFailed.String())
	assert.Equal(t, "canceled", StateCanceled.String())
	assert.Equal(t, "state(42)", State(42).String())
}

func TestState_Terminal(t *testing.T) {
	assert.False(t, StatePending.Terminal())
	assert.False(t, StateStreaming.Terminal())
	assert.True(t, StateComplete.Terminal())
	assert.True(t, StateFailed.Terminal())
	assert.True(t, StateCanceled.Terminal())
}

// =============================================================================
// RUN TESTS
// =============================================================================

func TestExchange_RunSplitChunks(t *testing.T) {
	rec := &recorder{}
	ex := NewExchange(rec.set)

	res := ex.Run(context.Background(), NewSliceSource(
		"data: Hel", "lo\ndata: wor", "ld\ndata: [DO", "NE]\n",
	))

	require.Equal(t, StateComplete, res.State)
	assert.NoError(t, res.Err)
	assert.Equal(t, "Hello world", res.Text)
	assert.Equal(t, "Hello world", res.Answer)
	assert.Equal(t, 2, res.Lines)
	assert.Equal(t, len("data: Hello\ndata: world\ndata: [DONE]\n"), res.Bytes)
	assert.Equal(t, []string{"Hello", "Hello world", "Hello world"}, rec.calls)
}

func TestExchange_RunResidualWithoutTerminator(t *testing.T) {
	rec := &recorder{}
	ex := NewExchange(rec.set)

	res := ex.Run(context.Background(), NewSliceSource("data: Hello\ndata: world"))

	require.Equal(t, StateComplete, res.State)
	assert.Equal(t, "Hello world", res.Text)
	assert.Equal(t, 2, res.Lines)
	assert.Equal(t, []string{"Hello", "Hello world"}, rec.calls)
}

func TestExchange_RunEmptyStream(t *testing.T) {
	rec := &recorder{}
	ex := NewExchange(rec.set)

	res := ex.Run(context.Background(), NewSliceSource())

	assert.Equal(t, StateComplete, res.State)
	assert.Equal(t, "", res.Text)
	assert.Equal(t, 0, res.Lines)
	assert.Zero(t, res.FirstChunk)
	assert.Equal(t, []string{""}, rec.calls)
}

// The same bytes split differently must produce the same final text.
func TestExchange_FinalTextIndependentOfChunking(t *testing.T) {
	body := "data: 1. Setup: install it\n\ndata: - **Tip :** run  fast\ndata: doneNow\ndata: [DONE]\n"

	want := NewExchange(nil).Run(context.Background(), NewSliceSource(body)).Text
	require.NotEmpty(t, want)

	for size := 1; size <= 9; size++ {
		var chunks []string
		for i := 0; i < len(body); i += size {
			end := i + size
			if end > len(body) {
				end = len(body)
			}
			chunks = append(chunks, body[i:end])
		}
		got := NewExchange(nil).Run(context.Background(), NewSliceSource(chunks...)).Text
		assert.Equal(t, want, got, "chunk size %d", size)
	}
}

func TestExchange_RunFailureMidStream(t *testing.T) {
	rec := &recorder{}
	ex := NewExchange(rec.set)
	reset := errors.New("connection reset")

	src := &SliceSource{Chunks: []string{"data: Hello\n", "data: wor"}, Err: reset}
	res := ex.Run(context.Background(), src)

	require.Equal(t, StateFailed, res.State)
	assert.Equal(t, DefaultErrorText, res.Text)
	assert.Equal(t, DefaultErrorText, rec.last())
	assert.NotContains(t, res.Text, "Hello")

	var exErr *ExchangeError
	require.True(t, errors.As(res.Err, &exErr))
	assert.Equal(t, "Hello ", exErr.Partial)
	assert.True(t, errors.Is(res.Err, reset))
	assert.Contains(t, res.Err.Error(), "connection reset")
}

func TestExchange_CustomErrorText(t *testing.T) {
	ex := NewExchange(nil, WithErrorText("service unavailable"))

	res := ex.Run(context.Background(), &SliceSource{Err: errors.New("dial tcp: refused")})

	assert.Equal(t, StateFailed, res.State)
	assert.Equal(t, "service unavailable", res.Text)
}

func TestExchange_RunCanceled(t *testing.T) {
	rec := &recorder{}
	ex := NewExchange(rec.set)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	src := funcSource(func(ctx context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "data: Hello\ndata: par", nil
		}
		cancel()
		return "", ctx.Err()
	})

	res := ex.Run(ctx, src)

	require.Equal(t, StateCanceled, res.State)
	assert.True(t, errors.Is(res.Err, context.Canceled))
	assert.Equal(t, "Hello", res.Text)
	assert.Equal(t, []string{"Hello"}, rec.calls)
	assert.NotEqual(t, DefaultErrorText, res.Text)
}

// =============================================================================
// STEP TESTS
// =============================================================================

func TestExchange_StepTransitions(t *testing.T) {
	ex := NewExchange(nil)
	assert.Equal(t, StatePending, ex.State())

	assert.Equal(t, 0, ex.Step("data: Hel"))
	assert.Equal(t, StateStreaming, ex.State())
	assert.Equal(t, "", ex.Display())

	assert.Equal(t, 1, ex.Step("lo\n"))
	assert.Equal(t, "Hello", ex.Display())
	assert.Equal(t, "Hello ", ex.Answer())

	res := ex.Complete()
	assert.Equal(t, StateComplete, res.State)

	// Terminal: further input and terminal calls are ignored.
	assert.Equal(t, 0, ex.Step("data: more\n"))
	assert.Equal(t, StateComplete, ex.Abort(errors.New("late")).State)
	assert.Equal(t, StateComplete, ex.Cancel(nil).State)
	assert.Equal(t, "Hello", ex.Display())
}

func TestExchange_AbortNilError(t *testing.T) {
	ex := NewExchange(nil)
	res := ex.Abort(nil)

	assert.Equal(t, StateFailed, res.State)
	require.Error(t, res.Err)
	assert.Equal(t, "exchange failed: stream aborted", res.Err.Error())
}

func TestExchange_CancelNilCause(t *testing.T) {
	res := NewExchange(nil).Cancel(nil)
	assert.Equal(t, StateCanceled, res.State)
	assert.ErrorIs(t, res.Err, context.Canceled)
}

func TestExchange_RawOutput(t *testing.T) {
	ex := NewExchange(nil, WithRawOutput())

	ex.Step("data: 1. Setup: go\ndata: helloWorld\n")
	assert.Equal(t, "1. Setup: go helloWorld ", ex.Display())

	res := ex.Complete()
	assert.Equal(t, "1. Setup: go helloWorld", res.Text)
}

func TestExchange_Timings(t *testing.T) {
	ex := NewExchange(nil, WithClock(fakeClock(time.Second)))

	ex.Step("data: a\n")
	res := ex.Complete()

	// started at +1s, first chunk at +2s, ended at +3s.
	assert.Equal(t, time.Second, res.FirstChunk)
	assert.Equal(t, 2*time.Second, res.Duration)
}

func TestExchangeError_Message(t *testing.T) {
	err := &ExchangeError{Partial: strings.Repeat("x", 5), Err: errors.New("boom")}
	assert.Equal(t, "exchange failed (partial answer: 5 chars): boom", err.Error())
}

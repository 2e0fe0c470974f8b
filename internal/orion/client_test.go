// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package orion

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/jeranaias/orion-chat/internal/logging"
	"github.com/jeranaias/orion-chat/internal/stream"
)

// chunkedHandler writes each part as a separate flushed write.
func chunkedHandler(t *testing.T, parts ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		flusher := w.(http.Flusher)
		for _, p := range parts {
			io.WriteString(w, p)
			flusher.Flush()
		}
	}
}

func newTestClient(url string) *Client {
	return New(WithEndpoint(url), WithLogger(logging.Discard()))
}

// =============================================================================
// SEND TESTS
// =============================================================================

func TestSend_PostsMessage(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		io.WriteString(w, "data: ok\n")
	}))
	defer server.Close()

	reply, err := newTestClient(server.URL).Send(context.Background(), "hello there")
	require.NoError(t, err)
	defer reply.Close()

	assert.Equal(t, "hello there", got.Message)
	assert.Equal(t, http.StatusOK, reply.Status)

	body, err := io.ReadAll(readerOf(reply))
	require.NoError(t, err)
	assert.Equal(t, "data: ok\n", string(body))
}

func TestSend_EmptyMessage(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Send(context.Background(), "   \n")
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.False(t, called, "blank messages must not be submitted")
}

func TestSend_NoEndpoint(t *testing.T) {
	_, err := New(WithEndpoint(""), WithLogger(logging.Discard())).Send(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrNoEndpoint)
}

func TestSend_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Send(context.Background(), "hi")

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusServiceUnavailable, httpErr.Status)
	assert.Equal(t, "model overloaded", httpErr.Body)
	assert.True(t, httpErr.Temporary())
	assert.True(t, IsTemporary(err))
	assert.Contains(t, err.Error(), "503")
}

func TestHTTPError_Temporary(t *testing.T) {
	assert.False(t, (&HTTPError{Status: 400}).Temporary())
	assert.True(t, (&HTTPError{Status: 429}).Temporary())
	assert.True(t, (&HTTPError{Status: 502}).Temporary())
	assert.Equal(t, "orion: HTTP 404 Not Found", (&HTTPError{Status: 404}).Error())
}

func TestSend_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := newTestClient(url).Send(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request failed")
}

// =============================================================================
// ASK TESTS
// =============================================================================

func TestAsk_StreamsReply(t *testing.T) {
	server := httptest.NewServer(chunkedHandler(t,
		"data: Hel", "lo\ndata: wor", "ld\n", "data: [DONE]\n",
	))
	defer server.Close()

	var updates []string
	res, err := newTestClient(server.URL).Ask(context.Background(), "hi", func(text string) {
		updates = append(updates, text)
	})

	require.NoError(t, err)
	assert.Equal(t, stream.StateComplete, res.State)
	assert.Equal(t, "Hello world", res.Text)
	assert.Equal(t, 2, res.Lines)
	require.NotEmpty(t, updates)
	assert.Equal(t, "Hello world", updates[len(updates)-1])
}

// =============================================================================
// TRACING TESTS
// =============================================================================

// newTracedClient returns a client whose spans land in the returned recorder.
func newTracedClient(url string) (*Client, *tracetest.SpanRecorder) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	return New(WithEndpoint(url), WithLogger(logging.Discard()), WithTracerProvider(tp)), recorder
}

func spanAttrs(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	attrs := make(map[attribute.Key]attribute.Value)
	for _, kv := range span.Attributes() {
		attrs[kv.Key] = kv.Value
	}
	return attrs
}

func TestAsk_RecordsExchangeSpan(t *testing.T) {
	server := httptest.NewServer(chunkedHandler(t, "data: Hel", "lo\ndata: wor", "ld\n"))
	defer server.Close()

	client, recorder := newTracedClient(server.URL)
	res, err := client.Ask(context.Background(), "hi", nil)
	require.NoError(t, err)
	require.Equal(t, stream.StateComplete, res.State)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "orion.exchange", span.Name())
	assert.Equal(t, codes.Ok, span.Status().Code)

	attrs := spanAttrs(span)
	assert.Equal(t, "complete", attrs["orion.state"].AsString())
	assert.Equal(t, int64(2), attrs["orion.lines"].AsInt64())
	assert.Equal(t, int64(res.Bytes), attrs["orion.bytes"].AsInt64())
	assert.Equal(t, server.URL, attrs["orion.endpoint"].AsString())
	assert.Equal(t, int64(2), attrs["orion.message_length"].AsInt64())
}

func TestAsk_FailedExchangeSpan(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client, recorder := newTracedClient(server.URL)
	res, err := client.Ask(context.Background(), "hi", nil)
	require.NoError(t, err)
	require.Equal(t, stream.StateFailed, res.State)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
}

func TestReply_CloseEndsSpan(t *testing.T) {
	server := httptest.NewServer(chunkedHandler(t, "data: x\n"))
	defer server.Close()

	client, recorder := newTracedClient(server.URL)
	reply, err := client.Send(context.Background(), "hi")
	require.NoError(t, err)
	assert.Empty(t, recorder.Ended())

	require.NoError(t, reply.Close())
	require.Len(t, recorder.Ended(), 1)

	// End after Close does not end the span twice.
	reply.End(stream.Result{State: stream.StateComplete})
	assert.Len(t, recorder.Ended(), 1)
}

func TestAsk_FormatsMarkdown(t *testing.T) {
	server := httptest.NewServer(chunkedHandler(t,
		"data: 1. First Thing: do X\n",
		"\n",
		"data: - **Label :** content\n",
	))
	defer server.Close()

	res, err := newTestClient(server.URL).Ask(context.Background(), "hi", nil)
	require.NoError(t, err)
	assert.Equal(t, "### 1. First Thing do X\n- **Label:**content", res.Text)
}

func TestAsk_ServerErrorShowsErrorText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	var last string
	res, err := newTestClient(server.URL).Ask(context.Background(), "hi", func(text string) { last = text })

	require.NoError(t, err)
	assert.Equal(t, stream.StateFailed, res.State)
	assert.Equal(t, stream.DefaultErrorText, res.Text)
	assert.Equal(t, stream.DefaultErrorText, last)

	var httpErr *HTTPError
	assert.True(t, errors.As(res.Err, &httpErr))
}

func TestAsk_CustomErrorText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := New(WithEndpoint(server.URL), WithLogger(logging.Discard()), WithErrorText("try later"))
	res, err := client.Ask(context.Background(), "hi", nil)

	require.NoError(t, err)
	assert.Equal(t, "try later", res.Text)
	assert.Equal(t, "try later", client.ErrorText())
}

func TestAsk_BodyCutMidStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, "data: Hello\n")
		w.(http.Flusher).Flush()
		panic(http.ErrAbortHandler)
	}))
	defer server.Close()

	res, err := newTestClient(server.URL).Ask(context.Background(), "hi", nil)

	require.NoError(t, err)
	assert.Equal(t, stream.StateFailed, res.State)
	assert.Equal(t, stream.DefaultErrorText, res.Text)

	var exErr *stream.ExchangeError
	require.True(t, errors.As(res.Err, &exErr))
	assert.Equal(t, "Hello ", exErr.Partial)
}

func TestAsk_Canceled(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "data: partial\n")
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan stream.Result, 1)
	go func() {
		res, _ := newTestClient(server.URL).Ask(ctx, "hi", func(text string) {
			if text == "partial" {
				cancel()
			}
		})
		done <- res
	}()

	select {
	case res := <-done:
		assert.Equal(t, stream.StateCanceled, res.State)
		assert.Equal(t, "partial", res.Text)
		assert.ErrorIs(t, res.Err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Ask did not return after cancel")
	}
}

func TestAsk_EmptyMessage(t *testing.T) {
	res, err := newTestClient("http://127.0.0.1:1").Ask(context.Background(), "", nil)
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Equal(t, stream.StatePending, res.State)
}

func TestNew_Defaults(t *testing.T) {
	c := New()
	assert.Equal(t, DefaultEndpoint, c.Endpoint())
	assert.Equal(t, stream.DefaultErrorText, c.ErrorText())
	assert.Same(t, sharedStreamingClient, c.httpClient)

	c = New(WithConnectTimeout(3 * time.Second))
	assert.NotSame(t, sharedStreamingClient, c.httpClient)
}

// readerOf adapts a reply to io.Reader for whole-body assertions.
func readerOf(r *Reply) io.Reader {
	pr, pw := io.Pipe()
	go func() {
		for {
			chunk, err := r.Next(context.Background())
			if err != nil {
				if errors.Is(err, io.EOF) {
					pw.Close()
				} else {
					pw.CloseWithError(err)
				}
				return
			}
			io.WriteString(pw, chunk)
		}
	}()
	return pr
}

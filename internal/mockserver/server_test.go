// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mockserver

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/orion-chat/internal/logging"
	"github.com/jeranaias/orion-chat/internal/orion"
	"github.com/jeranaias/orion-chat/internal/stream"
)

func newTestServer(t *testing.T, opts ...Option) *httptest.Server {
	t.Helper()
	opts = append([]Option{WithSeed(7), WithLogger(logging.Discard())}, opts...)
	server := httptest.NewServer(New(opts...).Handler())
	t.Cleanup(server.Close)
	return server
}

func newClient(url string) *orion.Client {
	return orion.New(orion.WithEndpoint(url+"/chat"), orion.WithLogger(logging.Discard()))
}

func TestEventStream(t *testing.T) {
	got := EventStream([]string{"Hello", "", "world"})
	assert.Equal(t, "data: Hello\ndata: \ndata: world\ndata: [DONE]\n", got)
}

func TestSplit_Reassembles(t *testing.T) {
	s := New(WithSeed(1), WithMaxSplit(3), WithLogger(logging.Discard()))
	body := EventStream([]string{"Grüße 😀", "done"})

	pieces := s.split(body)
	assert.Equal(t, body, strings.Join(pieces, ""))
	for _, p := range pieces {
		assert.NotEmpty(t, p)
		assert.LessOrEqual(t, len(p), 3)
	}
}

func TestHealthz(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestChat_RejectsBadRequests(t *testing.T) {
	server := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", "{"},
		{"blank message", `{"message":"  "}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(server.URL+"/chat", "application/json", strings.NewReader(tt.body))
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestChat_StreamsBody(t *testing.T) {
	server := newTestServer(t, WithReply(func(msg string) []string {
		return []string{"you said " + msg}
	}))

	resp, err := http.Post(server.URL+"/chat", "application/json", strings.NewReader(`{"message":"hi"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	assert.Equal(t, "data: you said hi\ndata: [DONE]\n", string(body))
}

// =============================================================================
// END-TO-END WITH THE CLIENT
// =============================================================================

func TestAsk_DefaultReply(t *testing.T) {
	server := newTestServer(t, WithMaxSplit(2))

	var updates int
	res, err := newClient(server.URL).Ask(context.Background(), "hello", func(string) { updates++ })

	require.NoError(t, err)
	assert.Equal(t, stream.StateComplete, res.State)
	assert.Equal(t, "### 1. Echo hello\n- **Tip:**served by the orion mock server.", res.Text)
	// "data: " with no text still counts as a payload line.
	assert.Equal(t, 3, res.Lines)
	assert.Equal(t, 4, updates, "one per payload line plus the final update")
}

func TestAsk_MultiByteSplit(t *testing.T) {
	server := newTestServer(t, WithMaxSplit(1), WithReply(func(string) []string {
		return []string{"Grüße 😀 done"}
	}))

	res, err := newClient(server.URL).Ask(context.Background(), "hi", nil)
	require.NoError(t, err)
	assert.Equal(t, "Grüße 😀 done", res.Text)
}

func TestAsk_StatusKnob(t *testing.T) {
	server := newTestServer(t)

	client := orion.New(orion.WithEndpoint(server.URL+"/chat?status=503"), orion.WithLogger(logging.Discard()))
	res, err := client.Ask(context.Background(), "hi", nil)

	require.NoError(t, err)
	assert.Equal(t, stream.StateFailed, res.State)
	assert.Equal(t, stream.DefaultErrorText, res.Text)

	var httpErr *orion.HTTPError
	require.True(t, errors.As(res.Err, &httpErr))
	assert.Equal(t, http.StatusServiceUnavailable, httpErr.Status)
}

func TestAsk_FailKnob(t *testing.T) {
	server := newTestServer(t)

	client := orion.New(orion.WithEndpoint(server.URL+"/chat?fail=1"), orion.WithLogger(logging.Discard()))
	res, err := client.Ask(context.Background(), "hello", nil)

	require.NoError(t, err)
	assert.Equal(t, stream.StateFailed, res.State)
	assert.Equal(t, stream.DefaultErrorText, res.Text)
}

func TestListenAndServe_Shutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- New(WithLogger(logging.Discard())).ListenAndServe(ctx, addr)
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package orion

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jeranaias/orion-chat/internal/logging"
	"github.com/jeranaias/orion-chat/internal/stream"
)

// Configuration constants.
const (
	// DefaultEndpoint is the public Orion chat endpoint.
	DefaultEndpoint = "https://orionai-8c8j.onrender.com/chat"

	// DefaultConnectTimeout bounds dialing and the TLS handshake. The body
	// itself has no timeout; it is controlled by the caller's context.
	DefaultConnectTimeout = 10 * time.Second

	// maxErrorBody caps how much of a non-2xx body is kept for the error.
	maxErrorBody = 512

	tracerName = "github.com/jeranaias/orion-chat/internal/orion"
)

// PERFORMANCE: Connection pooling reduces TCP handshake overhead.
// SECURITY: TLS 1.2+ enforced.
func newTransport(connectTimeout time.Duration) *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   connectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: connectTimeout,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}
}

// sharedStreamingClient is used when no connect timeout or HTTP client is
// configured. No client timeout: streaming is context-controlled.
var sharedStreamingClient = &http.Client{
	Transport: newTransport(DefaultConnectTimeout),
}

// chatRequest is the request body.
type chatRequest struct {
	Message string `json:"message"`
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to one Orion endpoint. It is safe for concurrent use; each
// Send is an independent exchange.
type Client struct {
	endpoint   string
	httpClient *http.Client
	chunkSize  int
	errorText  string
	logger     *slog.Logger
	tracer     trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint sets the chat URL.
func WithEndpoint(url string) Option {
	return func(c *Client) {
		c.endpoint = strings.TrimSpace(url)
	}
}

// WithHTTPClient replaces the shared streaming client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithConnectTimeout uses a dedicated transport with the given dial and TLS
// handshake timeout.
func WithConnectTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 && d != DefaultConnectTimeout {
			c.httpClient = &http.Client{Transport: newTransport(d)}
		}
	}
}

// WithChunkSize sets the read size for the response body.
func WithChunkSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.chunkSize = n
		}
	}
}

// WithErrorText sets the text shown in place of the reply when an exchange
// fails.
func WithErrorText(text string) Option {
	return func(c *Client) {
		if text != "" {
			c.errorText = text
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTracerProvider sets the tracer provider used for exchange spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) {
		if tp != nil {
			c.tracer = tp.Tracer(tracerName)
		}
	}
}

// New creates a client for DefaultEndpoint unless WithEndpoint is given.
func New(opts ...Option) *Client {
	c := &Client{
		endpoint:   DefaultEndpoint,
		httpClient: sharedStreamingClient,
		chunkSize:  stream.DefaultChunkSize,
		errorText:  stream.DefaultErrorText,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logging.WithComponent("orion")
	}
	if c.tracer == nil {
		c.tracer = otel.Tracer(tracerName)
	}
	return c
}

// Endpoint returns the configured chat URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// ErrorText returns the text shown when an exchange fails.
func (c *Client) ErrorText() string {
	return c.errorText
}

// =============================================================================
// SEND
// =============================================================================

// Send posts message and returns the streaming reply. The caller must Close
// the reply and should call End with the exchange result.
//
// A blank message returns ErrEmptyMessage without touching the network.
// A non-2xx status returns *HTTPError.
func (c *Client) Send(ctx context.Context, message string) (*Reply, error) {
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}
	if c.endpoint == "" {
		return nil, ErrNoEndpoint
	}

	ctx, span := c.tracer.Start(ctx, "orion.exchange",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("orion.endpoint", c.endpoint),
			attribute.Int("orion.message_length", len(message)),
		))

	resp, err := c.post(ctx, message)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.End()
		c.logger.Warn("request failed", "endpoint", c.endpoint, "error", err)
		return nil, err
	}

	c.logger.Debug("response headers received",
		"status", resp.StatusCode,
		"content_type", resp.Header.Get("Content-Type"))

	return &Reply{
		source: stream.NewDecodingSource(resp.Body, c.chunkSize),
		body:   resp.Body,
		span:   span,
		logger: c.logger,
		Status: resp.StatusCode,
	}, nil
}

func (c *Client) post(ctx context.Context, message string) (*http.Response, error) {
	payload, err := json.Marshal(chatRequest{Message: message})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
		return nil, &HTTPError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if resp.Body == nil || resp.Body == http.NoBody {
		if resp.Body != nil {
			resp.Body.Close()
		}
		return nil, ErrNoBody
	}
	return resp, nil
}

// =============================================================================
// ASK
// =============================================================================

// Ask runs one complete exchange: it sends message, streams the reply through
// a stream.Exchange and publishes every display update through setText.
//
// The returned error is non-nil only when nothing was submitted (a blank
// message). Transport failures and cancellation are reported in the Result,
// whose Text then holds the error text or the last partial answer.
func (c *Client) Ask(ctx context.Context, message string, setText stream.SetTextFunc, opts ...stream.ExchangeOption) (stream.Result, error) {
	if strings.TrimSpace(message) == "" {
		return stream.Result{}, ErrEmptyMessage
	}

	opts = append([]stream.ExchangeOption{stream.WithErrorText(c.errorText)}, opts...)
	ex := stream.NewExchange(setText, opts...)

	reply, err := c.Send(ctx, message)
	if err != nil {
		if ctx.Err() != nil {
			return ex.Cancel(ctx.Err()), nil
		}
		return ex.Abort(err), nil
	}
	defer reply.Close()

	res := ex.Run(ctx, reply)
	reply.End(res)
	return res, nil
}

// =============================================================================
// REPLY
// =============================================================================

// Reply is an open response stream. It implements stream.ChunkSource.
type Reply struct {
	Status int

	source *stream.DecodingSource
	body   io.Closer
	span   trace.Span
	logger *slog.Logger

	closeOnce sync.Once
	endOnce   sync.Once
}

// Next returns the next decoded chunk of the body, or io.EOF at the end.
func (r *Reply) Next(ctx context.Context) (string, error) {
	return r.source.Next(ctx)
}

// Close releases the response body. It is safe to call more than once.
// A span that End never saw is ended here without a result.
func (r *Reply) Close() error {
	var err error
	r.closeOnce.Do(func() {
		err = r.body.Close()
		r.endOnce.Do(func() {
			r.span.SetStatus(codes.Unset, "closed before the exchange ended")
			r.span.End()
		})
	})
	return err
}

// End records the exchange result on the span and logs it. Only the first
// call has any effect.
func (r *Reply) End(res stream.Result) {
	r.endOnce.Do(func() {
		r.span.SetAttributes(
			attribute.String("orion.state", res.State.String()),
			attribute.Int("orion.lines", res.Lines),
			attribute.Int("orion.bytes", res.Bytes),
			attribute.Int64("orion.first_chunk_ms", res.FirstChunk.Milliseconds()),
		)

		switch res.State {
		case stream.StateFailed:
			r.span.RecordError(res.Err)
			r.span.SetStatus(codes.Error, "stream failed")
			r.logger.Warn("exchange failed", "lines", res.Lines, "bytes", res.Bytes, "error", res.Err)
		case stream.StateCanceled:
			r.span.SetStatus(codes.Unset, "canceled")
			r.logger.Info("exchange canceled", "lines", res.Lines, "bytes", res.Bytes)
		default:
			r.span.SetStatus(codes.Ok, "")
			r.logger.Info("exchange complete",
				"lines", res.Lines,
				"bytes", res.Bytes,
				"first_chunk", res.FirstChunk,
				"duration", res.Duration)
		}
		r.span.End()
	})
}

// IsTemporary reports whether err is a transport or server failure that a
// user might reasonably retry by hand.
func IsTemporary(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Temporary()
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"context"
	"errors"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultChunkSize is the read size used when none is configured.
const DefaultChunkSize = 4096

// ChunkSource delivers decoded text chunks. Next blocks until a chunk is
// available and returns io.EOF once the stream has ended. Any other error is
// a transport failure. Zero-length chunks are allowed.
type ChunkSource interface {
	Next(ctx context.Context) (string, error)
}

// =============================================================================
// DECODING SOURCE
// =============================================================================

// DecodingSource reads raw bytes and decodes them as UTF-8.
//
// A multi-byte character split across two reads is held back until it is
// complete, so chunks never end in half a rune. Invalid bytes decode to
// U+FFFD and a leading byte order mark is dropped.
type DecodingSource struct {
	r       io.Reader
	buf     []byte
	pending error
}

// NewDecodingSource wraps r. chunkSize <= 0 selects DefaultChunkSize.
func NewDecodingSource(r io.Reader, chunkSize int) *DecodingSource {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &DecodingSource{
		r:   transform.NewReader(r, unicode.UTF8BOM.NewDecoder()),
		buf: make([]byte, chunkSize),
	}
}

// Next returns the next decoded chunk.
func (s *DecodingSource) Next(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.pending != nil {
		return "", s.pending
	}

	n, err := s.r.Read(s.buf)
	if err != nil {
		if n > 0 {
			// Deliver the data now and the error on the next call.
			s.pending = err
			return string(s.buf[:n]), nil
		}
		s.pending = err
		return "", err
	}
	return string(s.buf[:n]), nil
}

// =============================================================================
// STRING SOURCE
// =============================================================================

// SliceSource replays a fixed list of chunks, then ends with Err (io.EOF
// when nil). It is the in-memory counterpart of DecodingSource.
type SliceSource struct {
	Chunks []string
	Err    error

	pos int
}

// NewSliceSource creates a source that yields chunks and then io.EOF.
func NewSliceSource(chunks ...string) *SliceSource {
	return &SliceSource{Chunks: chunks}
}

// Next returns the next chunk.
func (s *SliceSource) Next(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.pos < len(s.Chunks) {
		c := s.Chunks[s.pos]
		s.pos++
		return c, nil
	}
	if s.Err != nil {
		return "", s.Err
	}
	return "", io.EOF
}

// isEOF reports whether err marks a clean end of stream.
func isEOF(err error) bool {
	return errors.Is(err, io.EOF)
}

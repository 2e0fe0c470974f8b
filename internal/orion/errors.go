// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package orion

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrEmptyMessage indicates a blank message; nothing is sent.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrNoBody indicates the service answered without a response body.
	ErrNoBody = errors.New("response has no body")

	// ErrNoEndpoint indicates the client has no endpoint configured.
	ErrNoEndpoint = errors.New("endpoint not configured")
)

// HTTPError is a non-2xx answer from the service.
type HTTPError struct {
	Status int
	Body   string // first bytes of the response body, for logs
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	text := http.StatusText(e.Status)
	if e.Body != "" {
		return fmt.Sprintf("orion: HTTP %d %s: %s", e.Status, text, e.Body)
	}
	return fmt.Sprintf("orion: HTTP %d %s", e.Status, text)
}

// Temporary reports whether retrying later might succeed. The client itself
// never retries.
func (e *HTTPError) Temporary() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package snapshot implements a client for the market snapshot endpoint.
//
// The endpoint answers GET with {"data": object|null, ...}. A null or empty
// data object means the backend has nothing yet and is not an error.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/bcem/marketmail/internal/models"
)

// maxErrorBody caps how much of a failed response is kept for messages.
const maxErrorBody = 512

// StatusError is returned when the endpoint answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("snapshot fetch failed (HTTP %d)", e.StatusCode)
	}
	return fmt.Sprintf("snapshot fetch failed (HTTP %d): %s", e.StatusCode, e.Body)
}

// DecodeError is returned when the response body is not the expected JSON.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode snapshot response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// envelope is the top-level response shape.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

// Client fetches snapshots over HTTP.
type Client struct {
	httpClient *http.Client
	url        string
	userAgent  string
}

// NewClient creates a snapshot client for url. A nil httpClient uses
// http.DefaultClient; timeouts are applied per call by the caller's context.
func NewClient(httpClient *http.Client, url, userAgent string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		httpClient: httpClient,
		url:        url,
		userAgent:  userAgent,
	}
}

// URL returns the endpoint this client polls.
func (c *Client) URL() string { return c.url }

// Fetch retrieves the current snapshot. It returns nil, nil when the backend
// has no data yet.
func (c *Client) Fetch(ctx context.Context) (*models.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch snapshot: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, &DecodeError{Err: err}
	}

	snap, err := models.DecodeSnapshot(env.Data)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	return snap, nil
}

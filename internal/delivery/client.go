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

// Package delivery posts report payloads to the submission endpoint.
//
// Any 2xx answer is success, whatever the body looks like (some relays reply
// with plain text). Any other status is a RejectedError. Failures to get an
// answer at all are TransportErrors.
package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/bcem/marketmail/internal/models"
)

const maxBody = 4096

// Receipt describes a successful delivery.
type Receipt struct {
	StatusCode int
	// Message is the server's message field, or its plain-text body.
	Message string
}

// RejectedError is a non-2xx answer from the delivery endpoint.
type RejectedError struct {
	StatusCode int
	// Detail is the server-provided reason, if any.
	Detail string
}

func (e *RejectedError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("delivery failed (HTTP %d)", e.StatusCode)
}

// TransportError means the endpoint could not be reached or did not answer.
type TransportError struct {
	Timeout bool
	Err     error
}

func (e *TransportError) Error() string {
	if e.Timeout {
		return "Delivery service did not respond in time"
	}
	return "Cannot reach delivery service"
}

func (e *TransportError) Unwrap() error { return e.Err }

// Client sends payloads to the delivery endpoint.
type Client struct {
	httpClient *http.Client
	url        string
	userAgent  string
}

// NewClient creates a delivery client. httpClient may carry authentication
// (e.g. an oauth2 client-credentials transport); nil uses http.DefaultClient.
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

// URL returns the submission endpoint.
func (c *Client) URL() string { return c.url }

// Send POSTs p as JSON.
func (c *Client) Send(ctx context.Context, p *models.Payload) (*Receipt, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if p.SubmissionID != "" {
		req.Header.Set("X-Request-ID", p.SubmissionID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Timeout: isTimeout(err), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil && resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		// The status line already arrived; a truncated body does not undo it.
		slog.Warn("delivery response body unreadable", "status", resp.StatusCode, "error", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		slog.Debug("delivery rejected", "status", resp.StatusCode, "body", string(raw))
		return nil, &RejectedError{StatusCode: resp.StatusCode, Detail: reason(raw)}
	}

	return &Receipt{StatusCode: resp.StatusCode, Message: message(raw)}, nil
}

// response covers the shapes relays reply with.
type response struct {
	Detail  string `json:"detail"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// reason extracts the server's reason from a failed response body.
func reason(raw []byte) string {
	var r response
	if err := json.Unmarshal(raw, &r); err != nil {
		return ""
	}
	return firstNonEmpty(r.Detail, r.Message, r.Error)
}

// message extracts a success message, falling back to the plain-text body.
func message(raw []byte) string {
	var r response
	if err := json.Unmarshal(raw, &r); err == nil {
		return firstNonEmpty(r.Message, r.Detail)
	}
	return strings.TrimSpace(string(raw))
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

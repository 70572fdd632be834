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

// Package models defines the data structures shared across marketmail.
package models

import (
	"encoding/json"
	"fmt"
)

// Snapshot is the most recent market sentiment data fetched from the backend.
//
// A Snapshot is immutable once decoded. Raw keeps every key the backend sent
// so richer payloads can merge the full snapshot without knowing its schema.
type Snapshot struct {
	SentimentScore  *float64 `json:"average_sentiment_score,omitempty"`
	MarketDate      string   `json:"market_date,omitempty"`
	ReceivedTime    string   `json:"received_time,omitempty"`
	RiskAssessment  string   `json:"risk_assessment,omitempty"`
	MessageContent  string   `json:"message_content,omitempty"`
	TrendDirection  string   `json:"trend_direction,omitempty"`
	ConfidenceLevel string   `json:"confidence_level,omitempty"`

	raw map[string]json.RawMessage
}

// DecodeSnapshot decodes the backend's data object. It returns nil, nil when
// the object is null or has no keys: that means "no data yet", not an error.
func DecodeSnapshot(data json.RawMessage) (*Snapshot, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode data object: %w", err)
	}
	if len(raw) == 0 {
		return nil, nil
	}

	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode snapshot fields: %w", err)
	}
	s.raw = raw
	return &s, nil
}

// Raw returns a copy of every key/value the backend sent.
func (s *Snapshot) Raw() map[string]json.RawMessage {
	if s == nil {
		return nil
	}
	out := make(map[string]json.RawMessage, len(s.raw))
	for k, v := range s.raw {
		out[k] = v
	}
	return out
}

// Present reports whether s carries data.
func (s *Snapshot) Present() bool {
	return s != nil && len(s.raw) > 0
}

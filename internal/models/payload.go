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

package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// SentimentSummary is the classified sentiment attached to a payload.
type SentimentSummary struct {
	Score *float64 `json:"score"`
	Text  string   `json:"text"`
	Emoji string   `json:"emoji,omitempty"`
}

// Payload is the JSON body POSTed to the delivery endpoint.
//
// When Snapshot is set, every snapshot key is merged into the top level of
// the body. Payload fields win on key collisions.
type Payload struct {
	RecipientEmail         string `json:"recipient_email"`
	SenderName             string `json:"sender_name,omitempty"`
	Subject                string `json:"subject"`
	Priority               string `json:"priority,omitempty"`
	MailType               string `json:"mail_type,omitempty"`
	CustomMessage          string `json:"custom_message"`
	IncludeCharts          bool   `json:"include_charts"`
	IncludeRecommendations bool   `json:"include_recommendations"`
	IncludeRiskWarning     bool   `json:"include_risk_warning"`

	Sentiment       *SentimentSummary `json:"sentiment_analysis,omitempty"`
	ReportContent   string            `json:"report_content,omitempty"`
	ClientTimestamp string            `json:"client_timestamp,omitempty"`
	Source          string            `json:"source,omitempty"`
	SubmissionID    string            `json:"submission_id,omitempty"`

	Snapshot *Snapshot `json:"-"`
}

// payloadFields breaks the MarshalJSON recursion.
type payloadFields Payload

// MarshalJSON encodes the payload, merging snapshot keys when present.
func (p Payload) MarshalJSON() ([]byte, error) {
	own, err := json.Marshal(payloadFields(p))
	if err != nil {
		return nil, err
	}
	if !p.Snapshot.Present() {
		return own, nil
	}

	merged := p.Snapshot.Raw()
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(own, &fields); err != nil {
		return nil, fmt.Errorf("merge payload fields: %w", err)
	}
	for k, v := range fields {
		merged[k] = v
	}
	return json.Marshal(merged)
}

// Delivery status constants.
const (
	DeliverySucceeded = "succeeded"
	DeliveryFailed    = "failed"
)

// Delivery is the audit record of one submission outcome.
type Delivery struct {
	ID             string    `json:"id"`
	Recipient      string    `json:"recipient"`
	Subject        string    `json:"subject"`
	Status         string    `json:"status"`
	Reason         string    `json:"reason,omitempty"`
	SentimentScore *float64  `json:"sentiment_score,omitempty"`
	SnapshotTime   string    `json:"snapshot_time,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

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
	"testing"
)

// TestDecodeSnapshot_EmptyMeansNoData verifies that null and {} are not errors.
func TestDecodeSnapshot_EmptyMeansNoData(t *testing.T) {
	for _, in := range []string{"", "null", "{}"} {
		s, err := DecodeSnapshot(json.RawMessage(in))
		if err != nil {
			t.Errorf("DecodeSnapshot(%q) error = %v", in, err)
		}
		if s != nil {
			t.Errorf("DecodeSnapshot(%q) = %+v, want nil", in, s)
		}
		if s.Present() {
			t.Errorf("nil snapshot reported present")
		}
	}
}

func TestDecodeSnapshot_Fields(t *testing.T) {
	in := `{"average_sentiment_score":0.45,"received_time":"09:00","message_content":"short text","extra":[1,2]}`
	s, err := DecodeSnapshot(json.RawMessage(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.SentimentScore == nil || *s.SentimentScore != 0.45 {
		t.Errorf("SentimentScore = %v, want 0.45", s.SentimentScore)
	}
	if s.ReceivedTime != "09:00" {
		t.Errorf("ReceivedTime = %q", s.ReceivedTime)
	}
	if _, ok := s.Raw()["extra"]; !ok {
		t.Error("raw map should keep unknown keys")
	}
	if !s.Present() {
		t.Error("snapshot should be present")
	}
}

func TestDecodeSnapshot_NotAnObject(t *testing.T) {
	if _, err := DecodeSnapshot(json.RawMessage(`[1,2,3]`)); err == nil {
		t.Error("expected error for array data")
	}
	if _, err := DecodeSnapshot(json.RawMessage(`{"average_sentiment_score":"high"}`)); err == nil {
		t.Error("expected error for non-numeric score")
	}
}

// TestPayload_MergesSnapshot verifies snapshot keys are merged at the top
// level and payload fields win on collision.
func TestPayload_MergesSnapshot(t *testing.T) {
	snap, err := DecodeSnapshot(json.RawMessage(`{"market_date":"2026-10-19","subject":"from snapshot"}`))
	if err != nil {
		t.Fatal(err)
	}

	p := Payload{RecipientEmail: "a@b.com", Subject: "Report", Snapshot: snap}
	body, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatal(err)
	}
	if got["recipient_email"] != "a@b.com" {
		t.Errorf("recipient_email = %v", got["recipient_email"])
	}
	if got["market_date"] != "2026-10-19" {
		t.Errorf("market_date = %v, want merged snapshot key", got["market_date"])
	}
	if got["subject"] != "Report" {
		t.Errorf("subject = %v, payload field should win", got["subject"])
	}
}

func TestPayload_WithoutSnapshot(t *testing.T) {
	body, err := json.Marshal(Payload{RecipientEmail: "a@b.com", Subject: "Report"})
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatal(err)
	}
	if _, ok := got["market_date"]; ok {
		t.Error("no snapshot keys expected")
	}
	if got["include_charts"] != false {
		t.Errorf("include_charts = %v, want false", got["include_charts"])
	}
}

func TestFormState_FillDate(t *testing.T) {
	f := FormState{Subject: "Report - {date}", SenderName: "Desk"}.FillDate("2026-10-19")
	if f.Subject != "Report - 2026-10-19" {
		t.Errorf("Subject = %q", f.Subject)
	}
	if f.SenderName != "Desk" {
		t.Errorf("SenderName = %q", f.SenderName)
	}
}

func TestNext(t *testing.T) {
	if got := Next(Priorities, PriorityNormal); got != PriorityHigh {
		t.Errorf("Next(normal) = %q", got)
	}
	if got := Next(Priorities, PriorityHigh); got != PriorityLow {
		t.Errorf("Next(high) = %q, want wrap to low", got)
	}
	if got := Next(MailTypes, "bogus"); got != MailDaily {
		t.Errorf("Next(bogus) = %q, want daily", got)
	}
}

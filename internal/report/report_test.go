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

package report

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/bcem/marketmail/internal/models"
)

var now = time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)

func TestSubject(t *testing.T) {
	tests := []struct {
		mailType string
		want     string
	}{
		{models.MailDaily, "Daily Market Analysis Report - 2026-10-19"},
		{models.MailWeekly, "Weekly Market Analysis Report - 2026-10-19"},
		{models.MailAlert, "Market Alert - 2026-10-19"},
		{"unknown", "Daily Market Analysis Report - 2026-10-19"},
	}
	for _, tt := range tests {
		if got := Subject(tt.mailType, "2006-01-02", now); got != tt.want {
			t.Errorf("Subject(%q) = %q, want %q", tt.mailType, got, tt.want)
		}
	}
}

func TestSwitchSubject(t *testing.T) {
	const pristine = "Market Analysis Report - 2026-10-19"
	weekly := "Weekly Market Analysis Report - 2026-10-19"
	tests := []struct {
		name    string
		subject string
		want    string
	}{
		{"pristine default follows", pristine, weekly},
		{"old type default follows", "Daily Market Analysis Report - 2026-10-19", weekly},
		{"blank follows", "  ", weekly},
		{"typed subject kept", "Desk notes", "Desk notes"},
	}
	for _, tt := range tests {
		got := SwitchSubject(tt.subject, pristine, models.MailDaily, models.MailWeekly, "2006-01-02", now)
		if got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestBuild_WithSnapshot(t *testing.T) {
	snap, err := models.DecodeSnapshot(json.RawMessage(`{"average_sentiment_score":0.45,"received_time":"09:00","message_content":"gold rallies","risk_assessment":"moderate"}`))
	if err != nil {
		t.Fatal(err)
	}
	form := models.FormState{
		SenderName:             "Desk",
		MailType:               models.MailAlert,
		CustomMessage:          "see attached",
		IncludeRecommendations: true,
		IncludeRiskWarning:     true,
	}

	out := Build(form, snap, now)

	for _, want := range []string{
		"Important Market Alert",
		"From: Desk",
		"+0.450 (positive)",
		"Data received: 09:00",
		"Risk assessment: moderate",
		"gold rallies",
		"see attached",
		"Recommendations:",
		"Risk warning:",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestBuild_OptionalSectionsOff(t *testing.T) {
	out := Build(models.FormState{MailType: models.MailDaily}, nil, now)

	if !strings.Contains(out, "n/a (unknown)") {
		t.Errorf("expected unknown sentiment line:\n%s", out)
	}
	for _, absent := range []string{"Recommendations:", "Risk warning:", "Note from sender:", "From:"} {
		if strings.Contains(out, absent) {
			t.Errorf("report should not contain %q", absent)
		}
	}
}

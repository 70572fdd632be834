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


package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/bcem/marketmail/internal/config"
	"github.com/bcem/marketmail/internal/models"
	"github.com/bcem/marketmail/internal/report"
)

var testNow = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

// resetSendFlags clears parsed flag state between tests.
func resetSendFlags(t *testing.T) {
	t.Helper()
	sendCmd.Flags().VisitAll(func(f *pflag.Flag) {
		if err := f.Value.Set(f.DefValue); err != nil {
			t.Fatal(err)
		}
		f.Changed = false
	})
}

func TestDefaultsFrom(t *testing.T) {
	got := defaultsFrom(config.FormDefaults{
		SenderName:    "Desk {date}",
		Subject:       "Report - {date}",
		Priority:      models.PriorityHigh,
		MailType:      models.MailWeekly,
		IncludeCharts: true,
	}).FillDate("2026-10-19")

	if got.Subject != "Report - 2026-10-19" || got.SenderName != "Desk 2026-10-19" {
		t.Errorf("placeholders not filled: %+v", got)
	}
	if got.Priority != models.PriorityHigh || got.MailType != models.MailWeekly || !got.IncludeCharts {
		t.Errorf("defaults not copied: %+v", got)
	}
	if got.Recipient != "" {
		t.Errorf("recipient = %q, want empty", got.Recipient)
	}
}

func TestSendForm_OnlyChangedFlagsOverride(t *testing.T) {
	base := models.FormState{
		Subject:    "Default subject",
		SenderName: "Desk",
		Priority:   models.PriorityLow,
		MailType:   models.MailDaily,
	}

	resetSendFlags(t)
	if err := sendCmd.ParseFlags([]string{"--to", "a@b.com", "--risk-warning", "--subject", "Desk notes", "--type", "alert"}); err != nil {
		t.Fatal(err)
	}
	got := sendForm(sendCmd, base, "2006-01-02", testNow)

	if got.Recipient != "a@b.com" {
		t.Errorf("recipient = %q", got.Recipient)
	}
	if got.MailType != models.MailAlert || !got.IncludeRiskWarning {
		t.Errorf("flags not applied: %+v", got)
	}
	if got.Subject != "Desk notes" {
		t.Errorf("explicit subject replaced: %q", got.Subject)
	}
	if got.Priority != models.PriorityLow || got.SenderName != "Desk" {
		t.Errorf("unset flags overrode defaults: %+v", got)
	}
}

func TestSendForm_TypeWithoutSubjectUsesTypeDefault(t *testing.T) {
	base := models.FormState{
		Subject:  "Market Analysis Report - 2026-10-19",
		MailType: models.MailDaily,
	}

	resetSendFlags(t)
	if err := sendCmd.ParseFlags([]string{"--to", "a@b.com", "--type", "weekly"}); err != nil {
		t.Fatal(err)
	}
	got := sendForm(sendCmd, base, "2006-01-02", testNow)

	if want := report.Subject(models.MailWeekly, "2006-01-02", testNow); got.Subject != want {
		t.Errorf("subject = %q, want %q", got.Subject, want)
	}

	resetSendFlags(t)
	if err := sendCmd.ParseFlags([]string{"--to", "a@b.com"}); err != nil {
		t.Fatal(err)
	}
	if got := sendForm(sendCmd, base, "2006-01-02", testNow); got.Subject != base.Subject {
		t.Errorf("subject without --type = %q, want configured default", got.Subject)
	}
}

func TestSetupLogging(t *testing.T) {
	var buf bytes.Buffer
	if err := setupLogging(&config.Config{LogLevel: "loud"}, &buf); err == nil {
		t.Error("expected error for unknown level")
	}
	if err := setupLogging(&config.Config{LogLevel: "debug"}, &buf); err != nil {
		t.Fatal(err)
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	defer rootCmd.SetArgs(nil)

	if err := rootCmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "marketmail version dev") {
		t.Errorf("output = %q", out.String())
	}
	if userAgent() != "marketmail/dev" {
		t.Errorf("user agent = %q", userAgent())
	}
}

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

// Package report renders the plain-text report body that accompanies a
// delivery payload.
package report

import (
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/bcem/marketmail/internal/models"
	"github.com/bcem/marketmail/internal/sentiment"
)

const (
	header = `+------------------------------------------+
|          MARKET ANALYSIS REPORT          |
+------------------------------------------+`
	footer = `+------------------------------------------+
|  Generated automatically by marketmail.  |
+------------------------------------------+`
	divider   = "--------------------------------------------------"
	signature = "Market Analysis System | automated sentiment reporting"
)

// kind holds per-mail-type wording.
type kind struct {
	Subject  string
	Greeting string
	Intro    string
}

var kinds = map[string]kind{
	models.MailDaily: {
		Subject:  "Daily Market Analysis Report - {date}",
		Greeting: "Daily Market Analysis Report",
		Intro:    "Here is today's market analysis summary:",
	},
	models.MailWeekly: {
		Subject:  "Weekly Market Analysis Report - {date}",
		Greeting: "Weekly Market Analysis Report",
		Intro:    "Here is this week's market analysis summary:",
	},
	models.MailAlert: {
		Subject:  "Market Alert - {date}",
		Greeting: "Important Market Alert",
		Intro:    "A significant market change was detected:",
	},
}

func kindOf(mailType string) kind {
	if k, ok := kinds[mailType]; ok {
		return k
	}
	return kinds[models.MailDaily]
}

// Subject returns the default subject for a mail type with the date filled in.
func Subject(mailType, layout string, now time.Time) string {
	return strings.ReplaceAll(kindOf(mailType).Subject, models.DatePlaceholder, now.Format(layout))
}

// SwitchSubject returns the subject to keep when the mail type changes from
// one type to another. A subject that is blank, equal to pristine (the
// untouched default) or equal to the old type's default follows the new
// type; anything the user typed is kept.
func SwitchSubject(subject, pristine, from, to, layout string, now time.Time) string {
	trimmed := strings.TrimSpace(subject)
	if trimmed == "" || subject == pristine || subject == Subject(from, layout, now) {
		return Subject(to, layout, now)
	}
	return subject
}

var body = template.Must(template.New("report").Parse(`{{.Header}}

{{.Kind.Greeting}}
{{.Kind.Intro}}

Generated: {{.Generated}}
{{- if .From}}
From: {{.From}}
{{- end}}
{{.Divider}}
Sentiment: {{.Score}} ({{.Label}}) {{.Emoji}}
{{- with .Snap}}
{{- if .MarketDate}}
Market date: {{.MarketDate}}
{{- end}}
{{- if .ReceivedTime}}
Data received: {{.ReceivedTime}}
{{- end}}
{{- if .TrendDirection}}
Trend: {{.TrendDirection}}
{{- end}}
{{- if .ConfidenceLevel}}
Confidence: {{.ConfidenceLevel}}
{{- end}}
{{- if .RiskAssessment}}
Risk assessment: {{.RiskAssessment}}
{{- end}}
{{- if .MessageContent}}
{{$.Divider}}
{{.MessageContent}}
{{- end}}
{{- end}}
{{- if .Form.CustomMessage}}
{{.Divider}}
Note from sender:
{{.Form.CustomMessage}}
{{- end}}
{{- if .Form.IncludeRecommendations}}
{{.Divider}}
Recommendations:
{{.Recommendation}}
{{- end}}
{{- if .Form.IncludeRiskWarning}}
{{.Divider}}
Risk warning: market analysis is informational only and is not investment
advice. Past sentiment does not predict future prices.
{{- end}}
{{.Divider}}
{{.Signature}}

{{.Footer}}
`))

type data struct {
	Header, Footer, Divider, Signature string

	Kind      kind
	Form      models.FormState
	Snap      *models.Snapshot
	Generated string
	From      string

	Score, Label, Emoji string
	Recommendation      string
}

// Build renders the report body for form and snap at now. snap may be nil.
func Build(form models.FormState, snap *models.Snapshot, now time.Time) string {
	var score *float64
	if snap != nil {
		score = snap.SentimentScore
	}
	label := sentiment.Classify(score)

	d := data{
		Header:         header,
		Footer:         footer,
		Divider:        divider,
		Signature:      signature,
		Kind:           kindOf(form.MailType),
		Form:           form,
		Snap:           snap,
		Generated:      now.Format("2006-01-02 15:04:05"),
		From:           form.SenderName,
		Score:          formatScore(score),
		Label:          string(label),
		Emoji:          sentiment.Emoji(label),
		Recommendation: recommendation(sentiment.ClassOf(score)),
	}

	var sb strings.Builder
	if err := body.Execute(&sb, d); err != nil {
		// Only reachable on a template bug; fall back to the essentials.
		return fmt.Sprintf("%s\n\nSentiment: %s (%s)\n", d.Kind.Greeting, d.Score, d.Label)
	}
	return sb.String()
}

func formatScore(score *float64) string {
	if score == nil {
		return "n/a"
	}
	return fmt.Sprintf("%+.3f", *score)
}

func recommendation(c sentiment.Class) string {
	switch c {
	case sentiment.ClassPositive:
		return "Sentiment is constructive. Consider holding positions and watching for overextension."
	case sentiment.ClassNegative:
		return "Sentiment is weak. Consider reducing exposure and tightening stops."
	case sentiment.ClassNeutral:
		return "Sentiment is balanced. Wait for a clearer signal before acting."
	default:
		return "No sentiment score is available. Wait for the next data refresh."
	}
}

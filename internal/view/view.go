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

// Package view projects controller state into a render-ready model. It does
// no I/O and never mutates its input.
package view

import (
	"fmt"
	"time"

	"github.com/bcem/marketmail/internal/controller"
	"github.com/bcem/marketmail/internal/preview"
	"github.com/bcem/marketmail/internal/sentiment"
)

const (
	EmptyText  = "Awaiting market data"
	RetryHint  = "Press ctrl+r to retry"
	SendLabel  = "Send report"
	SendingTxt = "Sending…"
)

// Options controls projection details that are not part of the state.
type Options struct {
	Expanded bool
	Now      time.Time
	// PreviewLength is the preview size in runes. Zero means
	// preview.DefaultLength; negative disables truncation.
	PreviewLength int
}

// Badge is the connection indicator.
type Badge struct {
	Status controller.ConnectionStatus `json:"status"`
	Text   string                      `json:"text"`
}

// Sentiment is the classified score.
type Sentiment struct {
	Score string          `json:"score"`
	Label sentiment.Label `json:"label"`
	Class sentiment.Class `json:"class"`
	Emoji string          `json:"emoji"`
}

// Row is one labelled data value.
type Row struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Content is the message preview.
type Content struct {
	Text      string `json:"text"`
	Truncated bool   `json:"truncated"`
	Expanded  bool   `json:"expanded"`
	Toggle    string `json:"toggle,omitempty"`
}

// SubmitControl is the send button.
type SubmitControl struct {
	Enabled bool   `json:"enabled"`
	Label   string `json:"label"`
}

// Model is everything a renderer needs.
type Model struct {
	Connection Badge `json:"connection"`
	HasData    bool  `json:"has_data"`

	Sentiment Sentiment `json:"sentiment"`
	Rows      []Row     `json:"rows,omitempty"`
	Content   Content   `json:"content"`

	// Exactly one of Empty and Error is set when there is no data.
	Empty     string `json:"empty,omitempty"`
	Error     string `json:"error,omitempty"`
	RetryHint string `json:"retry_hint,omitempty"`

	Submit       SubmitControl            `json:"submit"`
	Problems     []string                 `json:"problems,omitempty"`
	Phase        string                   `json:"phase"`
	Notification *controller.Notification `json:"notification,omitempty"`
	Stats        controller.Stats         `json:"stats"`
	LastFetch    string                   `json:"last_fetch,omitempty"`
}

var badgeText = map[controller.ConnectionStatus]string{
	controller.ConnLoading:   "Connecting…",
	controller.ConnConnected: "Live",
	controller.ConnWaiting:   "Waiting for data",
	controller.ConnError:     "Connection error",
}

// Project builds the view model for st.
func Project(st controller.State, opts Options) Model {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	if opts.PreviewLength == 0 {
		opts.PreviewLength = preview.DefaultLength
	}

	m := Model{
		Connection:   Badge{Status: st.Connection, Text: badgeText[st.Connection]},
		HasData:      st.Snapshot.Present(),
		Phase:        string(st.Phase),
		Notification: st.Notification,
		Stats:        st.Stats,
		Problems:     st.Validation.Problems,
		Submit:       SubmitControl{Enabled: st.CanSubmit(), Label: SendLabel},
	}
	if st.Phase == controller.PhaseSending {
		m.Submit.Label = SendingTxt
	}
	if !st.LastFetch.IsZero() {
		m.LastFetch = st.LastFetch.Format("15:04:05")
	}

	if !m.HasData {
		if st.Connection == controller.ConnError {
			m.Error = st.ConnectionErr
			m.RetryHint = RetryHint
		} else {
			m.Empty = EmptyText
		}
		m.Sentiment = project(nil)
		return m
	}

	snap := st.Snapshot
	m.Sentiment = project(snap.SentimentScore)

	received := snap.ReceivedTime
	if age := Age(snap.ReceivedTime, opts.Now); age != "" {
		received += " (" + age + ")"
	}
	m.Rows = appendRow(m.Rows, "Sentiment", fmt.Sprintf("%s %s %s", m.Sentiment.Score, m.Sentiment.Label, m.Sentiment.Emoji))
	m.Rows = appendRow(m.Rows, "Market date", snap.MarketDate)
	m.Rows = appendRow(m.Rows, "Received", received)
	m.Rows = appendRow(m.Rows, "Risk", snap.RiskAssessment)
	m.Rows = appendRow(m.Rows, "Trend", snap.TrendDirection)
	m.Rows = appendRow(m.Rows, "Confidence", snap.ConfidenceLevel)

	p := preview.Split(snap.MessageContent, opts.PreviewLength)
	m.Content = Content{
		Text:      p.Text(opts.Expanded),
		Truncated: p.Truncated,
		Expanded:  opts.Expanded && p.Truncated,
		Toggle:    p.ToggleLabel(opts.Expanded),
	}
	return m
}

func project(score *float64) Sentiment {
	label := sentiment.Classify(score)
	s := Sentiment{
		Score: "n/a",
		Label: label,
		Class: sentiment.ClassOf(score),
		Emoji: sentiment.Emoji(label),
	}
	if score != nil {
		s.Score = fmt.Sprintf("%+.3f", *score)
	}
	return s
}

func appendRow(rows []Row, label, value string) []Row {
	if value == "" {
		return rows
	}
	return append(rows, Row{Label: label, Value: value})
}

var receivedLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// Age renders how long ago received was, relative to now. received may be a
// full timestamp or a bare HH:MM / HH:MM:SS taken as today in now's zone.
// It returns "" when received cannot be parsed.
func Age(received string, now time.Time) string {
	t, ok := parseReceived(received, now)
	if !ok {
		return ""
	}
	d := now.Sub(t)
	switch {
	case d < 0:
		return ""
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

func parseReceived(s string, now time.Time) (time.Time, bool) {
	for _, layout := range receivedLayouts {
		if t, err := time.ParseInLocation(layout, s, now.Location()); err == nil {
			return t, true
		}
	}
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := now.Date()
			return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), 0, now.Location()), true
		}
	}
	return time.Time{}, false
}

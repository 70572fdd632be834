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

import "strings"

// DatePlaceholder is replaced with today's date when defaults are applied.
const DatePlaceholder = "{date}"

// Priority constants.
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
)

// Priorities is the cycle order used by the dashboard.
var Priorities = []string{PriorityLow, PriorityNormal, PriorityHigh}

// Mail type constants.
const (
	MailDaily  = "daily"
	MailWeekly = "weekly"
	MailAlert  = "alert"
)

// MailTypes is the cycle order used by the dashboard.
var MailTypes = []string{MailDaily, MailWeekly, MailAlert}

// FormState is the set of user-editable report fields.
type FormState struct {
	Recipient              string
	SenderName             string
	Subject                string
	CustomMessage          string
	Priority               string
	MailType               string
	IncludeCharts          bool
	IncludeRecommendations bool
	IncludeRiskWarning     bool
}

// FillDate replaces the date placeholder in subject and sender name.
func (f FormState) FillDate(date string) FormState {
	f.Subject = strings.ReplaceAll(f.Subject, DatePlaceholder, date)
	f.SenderName = strings.ReplaceAll(f.SenderName, DatePlaceholder, date)
	return f
}

// Next returns the element after current in values, wrapping around.
// Unknown values restart the cycle.
func Next(values []string, current string) string {
	for i, v := range values {
		if v == current {
			return values[(i+1)%len(values)]
		}
	}
	return values[0]
}

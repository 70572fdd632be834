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

// Package sentiment maps a signed sentiment score onto discrete labels.
//
// Bands (upper bound inclusive above zero, lower bound inclusive below):
//
//	score > 0.6           extremely positive
//	0.3 < score <= 0.6    positive
//	0.1 < score <= 0.3    slightly positive
//	-0.1 <= score <= 0.1  neutral
//	-0.3 <= score < -0.1  slightly negative
//	-0.6 <= score < -0.3  negative
//	score < -0.6          extremely negative
//
// A missing score is Unknown, never Neutral.
package sentiment

import "math"

// Label is a discrete sentiment band.
type Label string

const (
	ExtremelyPositive Label = "extremely positive"
	Positive          Label = "positive"
	SlightlyPositive  Label = "slightly positive"
	Neutral           Label = "neutral"
	SlightlyNegative  Label = "slightly negative"
	Negative          Label = "negative"
	ExtremelyNegative Label = "extremely negative"
	Unknown           Label = "unknown"
)

// Class is the coarse polarity used for styling.
type Class string

const (
	ClassPositive Class = "positive"
	ClassNeutral  Class = "neutral"
	ClassNegative Class = "negative"
	ClassUnknown  Class = "unknown"
)

// Classify returns the label for score. nil and NaN map to Unknown.
func Classify(score *float64) Label {
	if score == nil || math.IsNaN(*score) {
		return Unknown
	}
	return ClassifyValue(*score)
}

// ClassifyValue returns the label for a known score.
func ClassifyValue(s float64) Label {
	switch {
	case math.IsNaN(s):
		return Unknown
	case s > 0.6:
		return ExtremelyPositive
	case s > 0.3:
		return Positive
	case s > 0.1:
		return SlightlyPositive
	case s >= -0.1:
		return Neutral
	case s >= -0.3:
		return SlightlyNegative
	case s >= -0.6:
		return Negative
	default:
		return ExtremelyNegative
	}
}

// ClassOf returns the coarse polarity of score (neutral band is ±0.1).
func ClassOf(score *float64) Class {
	if score == nil || math.IsNaN(*score) {
		return ClassUnknown
	}
	switch {
	case *score > 0.1:
		return ClassPositive
	case *score < -0.1:
		return ClassNegative
	default:
		return ClassNeutral
	}
}

var emojis = map[Label]string{
	ExtremelyPositive: "🚀📈💚",
	Positive:          "📈🟢😊",
	SlightlyPositive:  "📊🟡🙂",
	Neutral:           "➡️⚪😑",
	SlightlyNegative:  "📊🟡😐",
	Negative:          "📉🔴😟",
	ExtremelyNegative: "💥📉😱",
	Unknown:           "❔",
}

// Emoji returns the market emoji for a label.
func Emoji(l Label) string {
	return emojis[l]
}

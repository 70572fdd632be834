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

package sentiment

import (
	"fmt"
	"math"
	"testing"
)

func ptr(f float64) *float64 { return &f }

// TestClassify_Boundaries checks every band edge plus values just either side.
func TestClassify_Boundaries(t *testing.T) {
	const eps = 1e-9

	tests := []struct {
		score float64
		want  Label
	}{
		{0.6 + eps, ExtremelyPositive},
		{0.6, Positive},
		{0.6 - eps, Positive},
		{0.3 + eps, Positive},
		{0.3, SlightlyPositive},
		{0.3 - eps, SlightlyPositive},
		{0.1 + eps, SlightlyPositive},
		{0.1, Neutral},
		{0.1 - eps, Neutral},
		{0, Neutral},
		{-0.1 + eps, Neutral},
		{-0.1, Neutral},
		{-0.1 - eps, SlightlyNegative},
		{-0.3 + eps, SlightlyNegative},
		{-0.3, SlightlyNegative},
		{-0.3 - eps, Negative},
		{-0.6 + eps, Negative},
		{-0.6, Negative},
		{-0.6 - eps, ExtremelyNegative},
		{1, ExtremelyPositive},
		{-1, ExtremelyNegative},
		{5, ExtremelyPositive},
		{-5, ExtremelyNegative},
		{math.Inf(1), ExtremelyPositive},
		{math.Inf(-1), ExtremelyNegative},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%g", tt.score), func(t *testing.T) {
			if got := Classify(ptr(tt.score)); got != tt.want {
				t.Errorf("Classify(%g) = %q, want %q", tt.score, got, tt.want)
			}
		})
	}
}

// TestClassify_Unknown verifies missing and NaN scores are never neutral.
func TestClassify_Unknown(t *testing.T) {
	if got := Classify(nil); got != Unknown {
		t.Errorf("Classify(nil) = %q, want unknown", got)
	}
	if got := Classify(ptr(math.NaN())); got != Unknown {
		t.Errorf("Classify(NaN) = %q, want unknown", got)
	}
	if got := ClassOf(nil); got != ClassUnknown {
		t.Errorf("ClassOf(nil) = %q, want unknown", got)
	}
}

func TestClassOf(t *testing.T) {
	tests := []struct {
		score float64
		want  Class
	}{
		{0.45, ClassPositive},
		{0.1, ClassNeutral},
		{-0.1, ClassNeutral},
		{-0.11, ClassNegative},
	}
	for _, tt := range tests {
		if got := ClassOf(ptr(tt.score)); got != tt.want {
			t.Errorf("ClassOf(%g) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestEmoji_EveryLabel(t *testing.T) {
	for _, l := range []Label{ExtremelyPositive, Positive, SlightlyPositive, Neutral, SlightlyNegative, Negative, ExtremelyNegative, Unknown} {
		if Emoji(l) == "" {
			t.Errorf("no emoji for %q", l)
		}
	}
}

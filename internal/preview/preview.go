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

// Package preview splits long free text into a visible head and a hidden
// remainder for display. It never alters the text: Head+Rest is always the
// original string.
package preview

import "unicode/utf8"

// DefaultLength is the preview threshold in characters.
const DefaultLength = 280

// Preview is a display split of a piece of text.
type Preview struct {
	Head      string
	Rest      string
	Truncated bool
}

// Split cuts text after threshold characters (runes). Text at or under the
// threshold, or a threshold <= 0, yields Head == text.
func Split(text string, threshold int) Preview {
	if threshold <= 0 || utf8.RuneCountInString(text) <= threshold {
		return Preview{Head: text}
	}

	n := 0
	for i := range text {
		if n == threshold {
			return Preview{Head: text[:i], Rest: text[i:], Truncated: true}
		}
		n++
	}
	return Preview{Head: text}
}

// Full reconstructs the original text.
func (p Preview) Full() string {
	return p.Head + p.Rest
}

// Text returns what should be shown for the given toggle state.
func (p Preview) Text(expanded bool) string {
	if expanded {
		return p.Full()
	}
	return p.Head
}

// ToggleLabel returns the caption for the expand/collapse control, or ""
// when there is nothing to toggle.
func (p Preview) ToggleLabel(expanded bool) string {
	switch {
	case !p.Truncated:
		return ""
	case expanded:
		return "show less"
	default:
		return "...show full content"
	}
}

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

package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/bcem/marketmail/internal/controller"
	"github.com/bcem/marketmail/internal/sentiment"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("141"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	focusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

func panelStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(0, 1).
		Width(max(width-4, 20))
}

func statusStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Background(lipgloss.Color("235")).
		Padding(0, 1).
		Width(max(width, 20))
}

func buttonStyle(enabled, focused bool) lipgloss.Style {
	s := lipgloss.NewStyle().Padding(0, 2).Bold(true)
	switch {
	case !enabled:
		return s.Foreground(lipgloss.Color("241")).Background(lipgloss.Color("236"))
	case focused:
		return s.Foreground(lipgloss.Color("0")).Background(lipgloss.Color("39"))
	default:
		return s.Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62"))
	}
}

func badgeStyle(status controller.ConnectionStatus) lipgloss.Style {
	s := lipgloss.NewStyle().Padding(0, 1).Bold(true).Foreground(lipgloss.Color("0"))
	switch status {
	case controller.ConnConnected:
		return s.Background(lipgloss.Color("10"))
	case controller.ConnWaiting:
		return s.Background(lipgloss.Color("11"))
	case controller.ConnError:
		return s.Background(lipgloss.Color("9"))
	default:
		return s.Background(lipgloss.Color("245"))
	}
}

func sentimentStyle(c sentiment.Class) lipgloss.Style {
	switch c {
	case sentiment.ClassPositive:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	case sentiment.ClassNegative:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	case sentiment.ClassNeutral:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	default:
		return dimStyle
	}
}

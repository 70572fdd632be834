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
	"fmt"
	"strings"
	"time"

	"github.com/bcem/marketmail/internal/controller"
	"github.com/bcem/marketmail/internal/view"
)

func (m *Model) View() string {
	vm := view.Project(m.state, view.Options{
		Expanded:      m.expanded,
		Now:           time.Now(),
		PreviewLength: m.opts.PreviewLength,
	})

	var b strings.Builder
	b.WriteString(renderHeader(vm))
	b.WriteString("\n")
	b.WriteString(panelStyle(m.width).Render(renderData(vm)))
	b.WriteString("\n")
	b.WriteString(panelStyle(m.width).Render(m.renderForm(vm)))
	b.WriteString("\n")
	if n := vm.Notification; n != nil {
		b.WriteString(renderNotification(n))
		b.WriteString("\n")
	}
	b.WriteString(statusStyle(m.width).Render(renderStatus(vm)))
	return b.String()
}

func renderHeader(vm view.Model) string {
	title := titleStyle.Render("Market Report Mailer")
	badge := badgeStyle(vm.Connection.Status).Render(vm.Connection.Text)
	line := title + "  " + badge
	if vm.LastFetch != "" {
		line += dimStyle.Render("  updated " + vm.LastFetch)
	}
	return line
}

func renderData(vm view.Model) string {
	if !vm.HasData {
		if vm.Error != "" {
			return errorStyle.Render(vm.Error) + "\n" + dimStyle.Render(vm.RetryHint)
		}
		return dimStyle.Render(vm.Empty)
	}

	var b strings.Builder
	for _, r := range vm.Rows {
		value := r.Value
		if r.Label == "Sentiment" {
			value = sentimentStyle(vm.Sentiment.Class).Render(value)
		}
		b.WriteString(labelStyle.Render(r.Label) + value + "\n")
	}
	if vm.Content.Text != "" {
		b.WriteString("\n" + vm.Content.Text)
		if vm.Content.Toggle != "" {
			b.WriteString(" " + dimStyle.Render("["+vm.Content.Toggle+" ctrl+e]"))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m *Model) renderForm(vm view.Model) string {
	labels := []string{"Recipient", "Subject", "Sender", "Message"}

	var b strings.Builder
	for i := 0; i < textFields; i++ {
		b.WriteString(m.fieldLabel(i, labels[i]) + m.inputs[i].View() + "\n")
	}
	b.WriteString(m.fieldLabel(fieldPriority, "Priority") + m.form.Priority + "\n")
	b.WriteString(m.fieldLabel(fieldMailType, "Mail type") + m.form.MailType + "\n")
	b.WriteString(m.fieldLabel(fieldCharts, "Charts") + checkbox(m.form.IncludeCharts) + "\n")
	b.WriteString(m.fieldLabel(fieldRecommendations, "Advice") + checkbox(m.form.IncludeRecommendations) + "\n")
	b.WriteString(m.fieldLabel(fieldRiskWarning, "Risk note") + checkbox(m.form.IncludeRiskWarning) + "\n\n")

	b.WriteString(buttonStyle(vm.Submit.Enabled, m.focus == fieldSubmit).Render(vm.Submit.Label))
	if !vm.Submit.Enabled && len(vm.Problems) > 0 && vm.Phase != string(controller.PhaseSending) {
		b.WriteString("  " + dimStyle.Render(strings.Join(vm.Problems, "; ")))
	}
	return b.String()
}

func (m *Model) fieldLabel(i int, label string) string {
	if m.focus == i {
		return focusStyle.Width(14).Render("> " + label)
	}
	return labelStyle.Render("  " + label)
}

func checkbox(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}

func renderNotification(n *controller.Notification) string {
	text := n.Title + ": " + n.Message
	if n.Kind == controller.NotifyError {
		return errorStyle.Render(text) + dimStyle.Render("  (esc to dismiss)")
	}
	return successStyle.Render(text)
}

func renderStatus(vm view.Model) string {
	return fmt.Sprintf("sent %d (today %d)  failed %d  |  tab move  ctrl+s send  ctrl+r refresh  ctrl+e expand  esc dismiss  ctrl+c quit",
		vm.Stats.Sent, vm.Stats.SentToday, vm.Stats.Failed)
}

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

// Package tui is the terminal dashboard. It renders controller state and
// forwards edits and commands; it holds no business logic of its own.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bcem/marketmail/internal/controller"
	"github.com/bcem/marketmail/internal/delivery"
	"github.com/bcem/marketmail/internal/models"
	"github.com/bcem/marketmail/internal/report"
)

// Controller is what the dashboard needs from the form controller.
type Controller interface {
	Subscribe() (<-chan controller.State, func())
	SetForm(f models.FormState)
	Submit(ctx context.Context) (*delivery.Receipt, error)
	Refresh(ctx context.Context) error
	Dismiss()
}

// Options tunes the dashboard.
type Options struct {
	PreviewLength int
	// DateLayout formats the date in per-type default subjects.
	DateLayout string
	Now        func() time.Time
}

const (
	fieldRecipient = iota
	fieldSubject
	fieldSender
	fieldMessage
	fieldPriority
	fieldMailType
	fieldCharts
	fieldRecommendations
	fieldRiskWarning
	fieldSubmit
	fieldCount
)

// textFields is the number of leading fields backed by a textinput.
const textFields = fieldMessage + 1

// stateMsg carries a controller state update.
type stateMsg controller.State

// actionDoneMsg reports the end of a submit or refresh command.
type actionDoneMsg struct {
	action string
	err    error
}

// Model is the bubbletea model.
type Model struct {
	ctx  context.Context
	ctrl Controller
	opts Options

	updates     <-chan controller.State
	unsubscribe func()

	state   controller.State
	loaded  bool
	formRev uint64
	form    models.FormState
	// pristineSubject is the subject as the controller last set it.
	pristineSubject string

	inputs   []textinput.Model
	focus    int
	expanded bool
	width    int
}

// New creates the dashboard model and subscribes to ctrl.
func New(ctx context.Context, ctrl Controller, opts Options) *Model {
	if opts.DateLayout == "" {
		opts.DateLayout = "2006-01-02"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	updates, unsubscribe := ctrl.Subscribe()

	m := &Model{
		ctx:         ctx,
		ctrl:        ctrl,
		opts:        opts,
		updates:     updates,
		unsubscribe: unsubscribe,
		width:       80,
	}

	placeholders := []string{"recipient@example.com", "Report subject", "Sender name", "Optional message"}
	for i := 0; i < textFields; i++ {
		in := textinput.New()
		in.Placeholder = placeholders[i]
		in.Prompt = ""
		in.CharLimit = 512
		m.inputs = append(m.inputs, in)
	}
	m.inputs[fieldMessage].CharLimit = 4000
	m.inputs[fieldRecipient].Focus()

	// The subscription always starts with the current state.
	select {
	case st, ok := <-updates:
		if ok {
			m.applyState(st)
		}
	default:
	}
	return m
}

// Run starts the program and blocks until the user quits or ctx ends.
func Run(ctx context.Context, ctrl Controller, opts Options) error {
	m := New(ctx, ctrl, opts)
	defer m.unsubscribe()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.listen())
}

// listen waits for the next state update.
func (m *Model) listen() tea.Cmd {
	ch := m.updates
	return func() tea.Msg {
		st, ok := <-ch
		if !ok {
			return nil
		}
		return stateMsg(st)
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stateMsg:
		m.applyState(controller.State(msg))
		return m, m.listen()

	case actionDoneMsg:
		if msg.err != nil {
			slog.Debug("dashboard action finished", "action", msg.action, "error", msg.err)
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		for i := range m.inputs {
			m.inputs[i].Width = max(msg.Width-24, 10)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "tab", "down":
		return m, m.setFocus((m.focus + 1) % fieldCount)
	case "shift+tab", "up":
		return m, m.setFocus((m.focus + fieldCount - 1) % fieldCount)
	case "ctrl+s":
		return m, m.submit()
	case "ctrl+r":
		return m, m.refresh()
	case "ctrl+e":
		m.expanded = !m.expanded
		return m, nil
	case "esc":
		m.ctrl.Dismiss()
		return m, nil
	}

	if m.focus < textFields {
		if msg.Type == tea.KeyEnter {
			return m, m.setFocus(m.focus + 1)
		}
		var cmd tea.Cmd
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
		m.pushForm()
		return m, cmd
	}

	switch msg.String() {
	case "enter", " ", "right", "left":
	default:
		return m, nil
	}

	switch m.focus {
	case fieldPriority:
		m.form.Priority = models.Next(models.Priorities, m.form.Priority)
	case fieldMailType:
		from := m.form.MailType
		m.form.MailType = models.Next(models.MailTypes, from)
		subject := report.SwitchSubject(m.inputs[fieldSubject].Value(), m.pristineSubject,
			from, m.form.MailType, m.opts.DateLayout, m.opts.Now())
		m.inputs[fieldSubject].SetValue(subject)
	case fieldCharts:
		m.form.IncludeCharts = !m.form.IncludeCharts
	case fieldRecommendations:
		m.form.IncludeRecommendations = !m.form.IncludeRecommendations
	case fieldRiskWarning:
		m.form.IncludeRiskWarning = !m.form.IncludeRiskWarning
	case fieldSubmit:
		if msg.String() == "enter" {
			return m, m.submit()
		}
		return m, nil
	}
	m.pushForm()
	return m, nil
}

func (m *Model) setFocus(i int) tea.Cmd {
	if m.focus < textFields {
		m.inputs[m.focus].Blur()
	}
	m.focus = i
	if i < textFields {
		return m.inputs[i].Focus()
	}
	return nil
}

// pushForm copies the inputs into the form and hands it to the controller.
func (m *Model) pushForm() {
	m.form.Recipient = m.inputs[fieldRecipient].Value()
	m.form.Subject = m.inputs[fieldSubject].Value()
	m.form.SenderName = m.inputs[fieldSender].Value()
	m.form.CustomMessage = m.inputs[fieldMessage].Value()
	m.ctrl.SetForm(m.form)
}

// applyState stores st and reloads the inputs when the controller rewrote
// the form itself.
func (m *Model) applyState(st controller.State) {
	m.state = st
	if m.loaded && st.FormRevision == m.formRev {
		return
	}
	m.loaded = true
	m.formRev = st.FormRevision
	m.form = st.Form
	m.pristineSubject = st.Form.Subject
	m.inputs[fieldRecipient].SetValue(st.Form.Recipient)
	m.inputs[fieldSubject].SetValue(st.Form.Subject)
	m.inputs[fieldSender].SetValue(st.Form.SenderName)
	m.inputs[fieldMessage].SetValue(st.Form.CustomMessage)
}

// submit is a no-op while sending or while the form is incomplete. Without
// data it still goes through so the controller reports the missing snapshot.
func (m *Model) submit() tea.Cmd {
	if m.state.Phase == controller.PhaseSending {
		return nil
	}
	if m.state.Snapshot.Present() && !m.state.CanSubmit() {
		return nil
	}
	ctx, ctrl := m.ctx, m.ctrl
	return func() (msg tea.Msg) {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("submit panicked", "panic", r)
				msg = actionDoneMsg{action: "submit", err: fmt.Errorf("panic: %v", r)}
			}
		}()
		_, err := ctrl.Submit(ctx)
		return actionDoneMsg{action: "submit", err: err}
	}
}

func (m *Model) refresh() tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		return actionDoneMsg{action: "refresh", err: ctrl.Refresh(ctx)}
	}
}

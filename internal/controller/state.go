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

package controller

import (
	"strings"
	"time"

	"github.com/bcem/marketmail/internal/models"
)

// ConnectionStatus reflects the outcome of the most recent snapshot fetch.
type ConnectionStatus string

const (
	ConnLoading   ConnectionStatus = "loading"
	ConnConnected ConnectionStatus = "connected"
	ConnWaiting   ConnectionStatus = "waiting"
	ConnError     ConnectionStatus = "error"
)

// SubmissionPhase is the submission state machine position.
type SubmissionPhase string

const (
	PhaseIdle      SubmissionPhase = "idle"
	PhaseSending   SubmissionPhase = "sending"
	PhaseSucceeded SubmissionPhase = "succeeded"
	PhaseFailed    SubmissionPhase = "failed"
)

// NotificationKind distinguishes success and error notifications.
type NotificationKind string

const (
	NotifySuccess NotificationKind = "success"
	NotifyError   NotificationKind = "error"
)

// Notification is a transient message for the user. Sticky notifications stay
// until Dismiss; the others clear themselves after the success window.
type Notification struct {
	ID      uint64           `json:"id"`
	Kind    NotificationKind `json:"kind"`
	Title   string           `json:"title"`
	Message string           `json:"message"`
	Sticky  bool             `json:"sticky"`
	At      time.Time        `json:"at"`
}

// Stats are process-local delivery counters.
type Stats struct {
	Sent       int       `json:"sent"`
	Failed     int       `json:"failed"`
	SentToday  int       `json:"sent_today"`
	Day        string    `json:"day,omitempty"`
	LastSentAt time.Time `json:"last_sent_at,omitempty"`
}

// Step is a stage of the multi-step form.
type Step int

const (
	StepRecipient Step = iota
	StepOptions
	StepReview
)

// Validation is the result of checking the form against the current snapshot.
type Validation struct {
	Valid       bool     `json:"valid"`
	HasData     bool     `json:"has_data"`
	RecipientOK bool     `json:"recipient_ok"`
	SubjectOK   bool     `json:"subject_ok"`
	Problems    []string `json:"problems,omitempty"`
}

// StepValid reports whether the given form step may be left.
func (v Validation) StepValid(s Step) bool {
	switch s {
	case StepRecipient:
		return v.RecipientOK && v.SubjectOK
	case StepOptions:
		return true
	default:
		return v.Valid
	}
}

func validate(snap *models.Snapshot, f models.FormState, strict bool) Validation {
	v := Validation{
		HasData:     snap.Present(),
		RecipientOK: f.Recipient != "" && (!strict || strings.Contains(f.Recipient, "@")),
		SubjectOK:   strings.TrimSpace(f.Subject) != "",
	}
	if !v.HasData {
		v.Problems = append(v.Problems, "no market data available")
	}
	switch {
	case f.Recipient == "":
		v.Problems = append(v.Problems, "recipient is required")
	case !v.RecipientOK:
		v.Problems = append(v.Problems, "recipient must contain @")
	}
	if !v.SubjectOK {
		v.Problems = append(v.Problems, "subject is required")
	}
	v.Valid = v.HasData && v.RecipientOK && v.SubjectOK
	return v
}

// State is an immutable copy of everything the view needs.
type State struct {
	Snapshot      *models.Snapshot `json:"-"`
	Connection    ConnectionStatus `json:"connection"`
	ConnectionErr string           `json:"connection_error,omitempty"`
	LastFetch     time.Time        `json:"last_fetch,omitempty"`

	Form models.FormState `json:"-"`
	// FormRevision changes whenever the controller itself rewrites the form
	// (date fill, reset after success). Edits via SetForm leave it alone.
	FormRevision uint64 `json:"form_revision"`

	Phase        SubmissionPhase `json:"phase"`
	Reason       string          `json:"reason,omitempty"`
	Notification *Notification   `json:"notification,omitempty"`
	Validation   Validation      `json:"validation"`
	Stats        Stats           `json:"stats"`
	Running      bool            `json:"running"`
}

// CanSubmit reports whether the submit control should be enabled.
func (s State) CanSubmit() bool {
	return s.Validation.Valid && s.Phase != PhaseSending
}

// stateLocked snapshots the controller. c.mu must be held.
func (c *Controller) stateLocked() State {
	st := State{
		Snapshot:      c.snap,
		Connection:    c.conn,
		ConnectionErr: c.connErr,
		LastFetch:     c.lastFetch,
		Form:          c.form,
		FormRevision:  c.formRev,
		Phase:         c.phase,
		Reason:        c.reason,
		Validation:    validate(c.snap, c.form, c.opts.StrictRecipient),
		Stats:         c.stats,
		Running:       c.running,
	}
	if c.note != nil {
		n := *c.note
		st.Notification = &n
	}
	return st
}

// publishLocked pushes the current state to every subscriber, replacing any
// value the subscriber has not read yet. c.mu must be held.
func (c *Controller) publishLocked() {
	st := c.stateLocked()
	for _, ch := range c.subs {
		select {
		case ch <- st:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- st:
		default:
		}
	}
}

// Subscribe returns a channel that always holds the latest State and a
// function that unsubscribes and closes it. The current state is delivered
// immediately.
func (c *Controller) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)

	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	ch <- c.stateLocked()
	c.mu.Unlock()

	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if _, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(ch)
		}
	}
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// Validate recomputes form validity against the current snapshot.
func (c *Controller) Validate() Validation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return validate(c.snap, c.form, c.opts.StrictRecipient)
}

// StepValid reports whether the given form step is complete.
func (c *Controller) StepValid(s Step) bool {
	return c.Validate().StepValid(s)
}

// SetForm replaces the form with the user's edits.
func (c *Controller) SetForm(f models.FormState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form = f
	c.publishLocked()
}

// Form returns the current form.
func (c *Controller) Form() models.FormState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.form
}

// Dismiss clears the notification. A finished submission returns to idle.
func (c *Controller) Dismiss() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearNoteLocked()
	if c.phase == PhaseSucceeded || c.phase == PhaseFailed {
		c.phase = PhaseIdle
		c.reason = ""
	}
	c.publishLocked()
}

func (c *Controller) clearNoteLocked() {
	c.note = nil
	if c.dismiss != nil {
		c.dismiss.Stop()
		c.dismiss = nil
	}
}

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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bcem/marketmail/internal/delivery"
	"github.com/bcem/marketmail/internal/models"
	"github.com/bcem/marketmail/internal/report"
	"github.com/bcem/marketmail/internal/sentiment"
)

const noDataReason = "No market data available; wait for the next refresh"

// Submit sends the current form with the current snapshot. At most one
// submission runs at a time; a second call while sending returns
// ErrSubmitInFlight without contacting the endpoint.
//
// On success the form is reset to its defaults and a success notification is
// shown for SuccessDisplay. On failure the form is kept and a sticky error
// notification explains why.
func (c *Controller) Submit(ctx context.Context) (*delivery.Receipt, error) {
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	if !c.snap.Present() {
		c.phase = PhaseFailed
		c.reason = noDataReason
		c.notifyLocked(NotifyError, "No data", noDataReason)
		c.publishLocked()
		c.mu.Unlock()
		return nil, ErrNoData
	}
	if v := validate(c.snap, c.form, c.opts.StrictRecipient); !v.Valid {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %v", ErrInvalidForm, v.Problems)
	}

	c.inFlight = true
	c.phase = PhaseSending
	c.reason = ""
	c.clearNoteLocked()

	epoch := c.epoch
	life := c.life
	form := c.form
	snap := c.snap
	now := c.opts.Now()
	payload := c.buildPayload(form, snap, now)
	c.publishLocked()
	c.mu.Unlock()

	slog.Info("submitting report",
		"submission_id", payload.SubmissionID,
		"recipient", form.Recipient,
		"mail_type", form.MailType,
	)

	reqCtx, cancel := c.requestContext(ctx, life)
	rcpt, err := c.sender.Send(reqCtx, payload)
	cancel()

	rec := models.Delivery{
		ID:             payload.SubmissionID,
		Recipient:      form.Recipient,
		Subject:        form.Subject,
		Status:         models.DeliverySucceeded,
		SentimentScore: snap.SentimentScore,
		SnapshotTime:   snap.ReceivedTime,
		CreatedAt:      c.opts.Now(),
	}
	if err != nil {
		rec.Status = models.DeliveryFailed
		rec.Reason = failureReason(err)
	}
	defer c.record(ctx, rec)

	c.mu.Lock()
	defer c.mu.Unlock()

	if epoch != c.epoch {
		slog.Info("submission finished after stop, ignoring result",
			"submission_id", payload.SubmissionID,
			"status", rec.Status,
		)
		return rcpt, err
	}

	c.inFlight = false
	if err != nil {
		slog.Warn("submission failed",
			"submission_id", payload.SubmissionID,
			"error", err,
		)
		c.phase = PhaseFailed
		c.reason = rec.Reason
		c.stats.Failed++
		c.notifyLocked(NotifyError, "Send failed", rec.Reason)
		c.publishLocked()
		return nil, err
	}

	slog.Info("submission delivered",
		"submission_id", payload.SubmissionID,
		"status", rcpt.StatusCode,
	)
	c.phase = PhaseSucceeded
	c.countSentLocked(rec.CreatedAt)
	c.form = c.defaults
	c.formRev++
	msg := "Report sent to " + form.Recipient
	if rcpt.Message != "" {
		msg += ": " + rcpt.Message
	}
	id := c.notifyLocked(NotifySuccess, "Sent", msg)
	c.dismiss = time.AfterFunc(c.opts.SuccessDisplay, func() { c.autoDismiss(id, epoch) })
	c.publishLocked()
	return rcpt, nil
}

// autoDismiss clears a success notification once its window has passed,
// unless it has already been replaced.
func (c *Controller) autoDismiss(id, epoch uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch || c.note == nil || c.note.ID != id {
		return
	}
	c.note = nil
	c.dismiss = nil
	if c.phase == PhaseSucceeded {
		c.phase = PhaseIdle
	}
	c.publishLocked()
}

func (c *Controller) notifyLocked(kind NotificationKind, title, msg string) uint64 {
	c.clearNoteLocked()
	c.noteSeq++
	c.note = &Notification{
		ID:      c.noteSeq,
		Kind:    kind,
		Title:   title,
		Message: msg,
		Sticky:  kind == NotifyError,
		At:      c.opts.Now(),
	}
	return c.noteSeq
}

func (c *Controller) countSentLocked(at time.Time) {
	day := at.Format("2006-01-02")
	if c.stats.Day != day {
		c.stats.Day = day
		c.stats.SentToday = 0
	}
	c.stats.Sent++
	c.stats.SentToday++
	c.stats.LastSentAt = at
}

// buildPayload serializes the form and snapshot.
func (c *Controller) buildPayload(form models.FormState, snap *models.Snapshot, now time.Time) *models.Payload {
	label := sentiment.Classify(snap.SentimentScore)
	p := &models.Payload{
		RecipientEmail:         form.Recipient,
		SenderName:             form.SenderName,
		Subject:                form.Subject,
		Priority:               form.Priority,
		MailType:               form.MailType,
		CustomMessage:          form.CustomMessage,
		IncludeCharts:          form.IncludeCharts,
		IncludeRecommendations: form.IncludeRecommendations,
		IncludeRiskWarning:     form.IncludeRiskWarning,
		Sentiment: &models.SentimentSummary{
			Score: snap.SentimentScore,
			Text:  string(label),
			Emoji: sentiment.Emoji(label),
		},
		ReportContent:   report.Build(form, snap, now),
		ClientTimestamp: now.Format(time.RFC3339),
		Source:          c.opts.Source,
		SubmissionID:    c.opts.NewID(),
	}
	if c.opts.IncludeSnapshot {
		p.Snapshot = snap
	}
	return p
}

// failureReason turns a send error into the message shown to the user.
func failureReason(err error) string {
	var rejected *delivery.RejectedError
	if errors.As(err, &rejected) {
		return rejected.Error()
	}
	var transport *delivery.TransportError
	if errors.As(err, &transport) {
		return transport.Error()
	}
	return "Delivery failed: " + err.Error()
}

// record hands the outcome to the recorder. Recorder errors are logged only.
func (c *Controller) record(ctx context.Context, d models.Delivery) {
	if c.opts.Recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	if err := c.opts.Recorder.Record(ctx, d); err != nil {
		slog.Error("failed to record delivery", "id", d.ID, "error", err)
	}
}

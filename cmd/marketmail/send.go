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


package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bcem/marketmail/internal/controller"
	"github.com/bcem/marketmail/internal/models"
	"github.com/bcem/marketmail/internal/report"
)

var (
	sendTo              string
	sendSubject         string
	sendSender          string
	sendMessage         string
	sendPriority        string
	sendMailType        string
	sendCharts          bool
	sendRecommendations bool
	sendRiskWarning     bool
)

type sendOutput struct {
	Sent       bool   `json:"sent"`
	StatusCode int    `json:"status_code,omitempty"`
	Message    string `json:"message,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Fetch the latest snapshot and send one report",
	Example: `  marketmail send --to desk@example.com
  marketmail send --to desk@example.com --type weekly --recommendations --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		a, cleanup, err := loadApp(ctx, os.Stderr)
		if err != nil {
			return err
		}
		defer cleanup()

		if err := a.ctrl.FetchSnapshot(ctx); err != nil {
			return fmt.Errorf("fetch snapshot: %w", err)
		}

		form := sendForm(cmd, defaultsFrom(a.cfg.Form).FillDate(a.ctrl.Today()), a.cfg.DateLayout, time.Now())
		a.ctrl.SetForm(form)

		receipt, err := a.ctrl.Submit(ctx)
		out := sendOutput{Sent: err == nil}
		if err != nil {
			out.Reason = a.ctrl.State().Reason
			if out.Reason == "" {
				out.Reason = err.Error()
			}
		} else {
			out.StatusCode = receipt.StatusCode
			out.Message = receipt.Message
		}

		if jsonOutput {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if encErr := enc.Encode(out); encErr != nil {
				return encErr
			}
		} else if out.Sent {
			fmt.Fprintf(cmd.OutOrStdout(), "Report sent to %s (HTTP %d)\n", form.Recipient, out.StatusCode)
			if out.Message != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", out.Message)
			}
		}

		switch {
		case errors.Is(err, controller.ErrInvalidForm):
			return fmt.Errorf("%w (set --to and --subject)", err)
		case err != nil:
			return errors.New(out.Reason)
		}
		return nil
	},
}

// sendForm applies the flags the user set on top of base. A --type without
// --subject takes that type's default subject.
func sendForm(cmd *cobra.Command, base models.FormState, layout string, now time.Time) models.FormState {
	f := base
	flags := cmd.Flags()
	f.Recipient = sendTo
	if flags.Changed("subject") {
		f.Subject = sendSubject
	}
	if flags.Changed("sender") {
		f.SenderName = sendSender
	}
	if flags.Changed("message") {
		f.CustomMessage = sendMessage
	}
	if flags.Changed("priority") {
		f.Priority = sendPriority
	}
	if flags.Changed("type") {
		f.MailType = sendMailType
		if !flags.Changed("subject") {
			f.Subject = report.SwitchSubject(f.Subject, base.Subject, base.MailType, f.MailType, layout, now)
		}
	}
	if flags.Changed("charts") {
		f.IncludeCharts = sendCharts
	}
	if flags.Changed("recommendations") {
		f.IncludeRecommendations = sendRecommendations
	}
	if flags.Changed("risk-warning") {
		f.IncludeRiskWarning = sendRiskWarning
	}
	return f
}

func init() {
	f := sendCmd.Flags()
	f.StringVar(&sendTo, "to", "", "Recipient address (required)")
	f.StringVar(&sendSubject, "subject", "", "Subject (default from config)")
	f.StringVar(&sendSender, "sender", "", "Sender name (default from config)")
	f.StringVarP(&sendMessage, "message", "m", "", "Custom message appended to the report")
	f.StringVar(&sendPriority, "priority", models.PriorityNormal, "Priority: low, normal or high")
	f.StringVar(&sendMailType, "type", models.MailDaily, "Mail type: daily, weekly or alert")
	f.BoolVar(&sendCharts, "charts", false, "Include charts")
	f.BoolVar(&sendRecommendations, "recommendations", false, "Include recommendations")
	f.BoolVar(&sendRiskWarning, "risk-warning", false, "Include a risk warning")
	rootCmd.AddCommand(sendCmd)
}

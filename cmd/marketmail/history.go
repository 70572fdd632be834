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
	"time"

	"github.com/spf13/cobra"

	"github.com/bcem/marketmail/internal/history"
	"github.com/bcem/marketmail/internal/models"
)

var historyLimit int

type historyOutput struct {
	Counts     history.Counts    `json:"counts"`
	Outbox     map[string]int64  `json:"outbox,omitempty"`
	Deliveries []models.Delivery `json:"deliveries"`
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent deliveries and counters",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, cleanup, err := loadApp(ctx, os.Stderr)
		if err != nil {
			return err
		}
		defer cleanup()

		if a.history == nil {
			return errors.New("delivery history needs a database (set DATABASE_URL or database.url)")
		}

		now := time.Now()
		counts, err := a.history.Counts(ctx, now)
		if err != nil {
			return err
		}
		recent, err := a.history.ListRecent(ctx, historyLimit)
		if err != nil {
			return err
		}

		var totals map[string]int64
		if a.outbox != nil {
			totals = make(map[string]int64)
			for _, status := range []string{models.DeliverySucceeded, models.DeliveryFailed} {
				total, today, err := a.outbox.Totals(ctx, status, now)
				if err != nil {
					return err
				}
				totals[status] = total
				totals[status+"_today"] = today
			}
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(historyOutput{Counts: counts, Outbox: totals, Deliveries: recent})
		}

		fmt.Fprintf(out, "Deliveries: %d total, %d succeeded, %d failed, %d today\n",
			counts.Total, counts.Succeeded, counts.Failed, counts.Today)
		if totals != nil {
			fmt.Fprintf(out, "Outbox:     %d succeeded (%d today), %d failed (%d today)\n",
				totals[models.DeliverySucceeded], totals[models.DeliverySucceeded+"_today"],
				totals[models.DeliveryFailed], totals[models.DeliveryFailed+"_today"])
		}
		if len(recent) == 0 {
			return nil
		}
		fmt.Fprintln(out)
		for _, d := range recent {
			line := fmt.Sprintf("  %s  %-9s %-28s %s", d.CreatedAt.Local().Format("2006-01-02 15:04"), d.Status, d.Recipient, d.Subject)
			if d.Reason != "" {
				line += "  (" + d.Reason + ")"
			}
			fmt.Fprintln(out, line)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of deliveries to list")
	rootCmd.AddCommand(historyCmd)
}

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
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bcem/marketmail/internal/preview"
	"github.com/bcem/marketmail/internal/sentiment"
)

var snapshotFull bool

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Fetch and print the current market snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, cleanup, err := loadApp(cmd.Context(), os.Stderr)
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.RequestTimeout)
		defer cancel()

		snap, err := a.snapshots.Fetch(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if snap == nil {
				return enc.Encode(nil)
			}
			return enc.Encode(snap.Raw())
		}

		if snap == nil {
			fmt.Fprintln(out, "No market data available yet.")
			return nil
		}

		label := sentiment.Classify(snap.SentimentScore)
		score := "n/a"
		if snap.SentimentScore != nil {
			score = fmt.Sprintf("%+.3f", *snap.SentimentScore)
		}
		fmt.Fprintf(out, "  %-12s %s %s %s\n", "Sentiment", score, label, sentiment.Emoji(label))
		for _, row := range [][2]string{
			{"Market date", snap.MarketDate},
			{"Received", snap.ReceivedTime},
			{"Trend", snap.TrendDirection},
			{"Confidence", snap.ConfidenceLevel},
			{"Risk", snap.RiskAssessment},
		} {
			if row[1] != "" {
				fmt.Fprintf(out, "  %-12s %s\n", row[0], row[1])
			}
		}

		if snap.MessageContent != "" {
			limit := a.cfg.PreviewLength
			if snapshotFull {
				limit = 0
			}
			p := preview.Split(snap.MessageContent, limit)
			fmt.Fprintf(out, "\n%s\n", p.Text(false))
			if p.Truncated {
				fmt.Fprintln(out, "  (use --full to show the full content)")
			}
		}
		return nil
	},
}

func init() {
	snapshotCmd.Flags().BoolVar(&snapshotFull, "full", false, "Print the full message content")
	rootCmd.AddCommand(snapshotCmd)
}

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
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bcem/marketmail/internal/controller"
	"github.com/bcem/marketmail/internal/statusapi"
)

var watchPort int

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll snapshots headless and serve the status API",
	Long: `Runs the snapshot poller without the dashboard and serves
GET /health, GET /api/state and POST /api/refresh on the status port.
Logs are written as JSON to stdout.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		a, cleanup, err := loadApp(ctx, os.Stdout)
		if err != nil {
			return err
		}
		defer cleanup()

		port := a.cfg.StatusPort
		if cmd.Flags().Changed("port") {
			port = watchPort
		}

		handler := statusapi.NewHandler(a.ctrl, a.checks, a.cfg.PreviewLength)
		ready, err := statusapi.Serve(ctx, port, handler)
		if err != nil {
			return err
		}
		<-ready

		updates, unsubscribe := a.ctrl.Subscribe()
		defer unsubscribe()

		a.ctrl.Start(ctx)
		slog.Info("marketmail watching", "port", port)

		logTransitions(ctx.Done(), updates)

		slog.Info("received shutdown signal")
		return nil
	},
}

// logTransitions logs connection changes until done is closed.
func logTransitions(done <-chan struct{}, updates <-chan controller.State) {
	var last controller.ConnectionStatus
	for {
		select {
		case <-done:
			return
		case st, ok := <-updates:
			if !ok {
				return
			}
			if st.Connection == last {
				continue
			}
			last = st.Connection
			attrs := []any{"connection", st.Connection}
			if st.ConnectionErr != "" {
				attrs = append(attrs, "error", st.ConnectionErr)
			}
			if st.Snapshot != nil {
				attrs = append(attrs, "market_date", st.Snapshot.MarketDate)
			}
			slog.Info("snapshot connection changed", attrs...)
		}
	}
}

func init() {
	watchCmd.Flags().IntVarP(&watchPort, "port", "p", 8090, "Status API port (overrides config)")
	rootCmd.AddCommand(watchCmd)
}

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
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bcem/marketmail/internal/tui"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Open the interactive dashboard (default)",
	RunE:  runDashboard,
}

func runDashboard(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// The dashboard owns the terminal, so logs go to the log file or nowhere.
	a, cleanup, err := loadApp(ctx, io.Discard)
	if err != nil {
		return err
	}
	defer cleanup()

	a.ctrl.Start(ctx)
	slog.Info("dashboard started", "pid", os.Getpid())

	return tui.Run(ctx, a.ctrl, tui.Options{
		PreviewLength: a.cfg.PreviewLength,
		DateLayout:    a.cfg.DateLayout,
	})
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}


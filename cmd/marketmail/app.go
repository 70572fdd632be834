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
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/bcem/marketmail/internal/config"
	"github.com/bcem/marketmail/internal/controller"
	"github.com/bcem/marketmail/internal/delivery"
	"github.com/bcem/marketmail/internal/history"
	"github.com/bcem/marketmail/internal/models"
	"github.com/bcem/marketmail/internal/outbox"
	"github.com/bcem/marketmail/internal/snapshot"
	"github.com/bcem/marketmail/internal/statusapi"
)

// app holds everything a command needs, built from one config.
type app struct {
	cfg       *config.Config
	snapshots *snapshot.Client
	sender    *delivery.Client
	ctrl      *controller.Controller

	history *history.Store
	outbox  *outbox.Publisher
	checks  map[string]statusapi.Check

	closers []func()
}

// setupLogging installs the default JSON logger at the configured level.
func setupLogging(cfg *config.Config, w io.Writer) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return nil
}

// logWriter opens the configured log file, or returns fallback.
func logWriter(cfg *config.Config, fallback io.Writer) (io.Writer, func(), error) {
	if cfg.LogFile == "" {
		return fallback, func() {}, nil
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return f, func() { f.Close() }, nil
}

// defaultsFrom maps configured form defaults onto a form.
func defaultsFrom(d config.FormDefaults) models.FormState {
	return models.FormState{
		SenderName:             d.SenderName,
		Subject:                d.Subject,
		Priority:               d.Priority,
		MailType:               d.MailType,
		IncludeCharts:          d.IncludeCharts,
		IncludeRecommendations: d.IncludeRecommendations,
		IncludeRiskWarning:     d.IncludeRiskWarning,
	}
}

// newApp connects the clients and the optional recorders. Postgres and
// Redis are only dialled when configured.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{
		cfg:    cfg,
		checks: make(map[string]statusapi.Check),
	}

	submitClient := http.DefaultClient
	if cfg.Auth.Enabled() {
		creds := &clientcredentials.Config{
			ClientID:     cfg.Auth.ClientID,
			ClientSecret: cfg.Auth.ClientSecret,
			TokenURL:     cfg.Auth.TokenURL,
			Scopes:       cfg.Auth.Scopes,
		}
		submitClient = creds.Client(ctx)
		slog.Info("delivery auth enabled", "token_url", cfg.Auth.TokenURL)
	}

	a.snapshots = snapshot.NewClient(nil, cfg.SnapshotURL, userAgent())
	a.sender = delivery.NewClient(submitClient, cfg.SubmitURL, userAgent())

	var recorders []controller.Recorder

	if cfg.DatabaseURL != "" {
		store, err := a.connectHistory(ctx)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.history = store
		a.checks["postgres"] = store.Ping
		recorders = append(recorders, store)
	}

	if cfg.RedisURL != "" {
		pub, err := a.connectOutbox(ctx)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.outbox = pub
		a.checks["redis"] = pub.Ping
		recorders = append(recorders, pub)
	}

	a.ctrl = controller.New(a.snapshots, a.sender, controller.Options{
		PollInterval:    cfg.PollInterval,
		RequestTimeout:  cfg.RequestTimeout,
		SuccessDisplay:  cfg.SuccessDisplay,
		StrictRecipient: cfg.StrictRecipient,
		Defaults:        defaultsFrom(cfg.Form),
		DateLayout:      cfg.DateLayout,
		IncludeSnapshot: cfg.IncludeSnapshot,
		Source:          cfg.Source,
		Recorder:        controller.MultiRecorder(recorders...),
	})

	slog.Info("marketmail configured",
		"snapshot_url", cfg.SnapshotURL,
		"submit_url", cfg.SubmitURL,
		"poll_interval", cfg.PollInterval,
		"history", a.history != nil,
		"outbox", a.outbox != nil,
	)
	return a, nil
}

func (a *app) connectHistory(ctx context.Context) (*history.Store, error) {
	pool, err := pgxpool.New(ctx, a.cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("create Postgres pool: %w", err)
	}
	a.closers = append(a.closers, pool.Close)

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("connect to PostgreSQL: %w", err)
	}
	slog.Info("connected to PostgreSQL")

	return history.NewStore(ctx, pool)
}

func (a *app) connectOutbox(ctx context.Context) (*outbox.Publisher, error) {
	opt, err := redis.ParseURL(a.cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opt)
	a.closers = append(a.closers, func() { rdb.Close() })

	pub := outbox.NewPublisher(rdb, a.cfg.OutboxQueue)
	if err := pub.Ping(ctx); err != nil {
		return nil, fmt.Errorf("connect to Redis: %w", err)
	}
	slog.Info("connected to Redis", "queue", a.cfg.OutboxQueue)
	return pub, nil
}

// Close stops the controller and releases connections, newest first.
func (a *app) Close() {
	if a.ctrl != nil {
		a.ctrl.Stop()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// loadApp is the common preamble: config, logging, connections.
func loadApp(ctx context.Context, logTo io.Writer) (*app, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	w, closeLog, err := logWriter(cfg, logTo)
	if err != nil {
		return nil, nil, err
	}
	if err := setupLogging(cfg, w); err != nil {
		closeLog()
		return nil, nil, err
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		closeLog()
		return nil, nil, err
	}
	return a, func() {
		a.Close()
		closeLog()
	}, nil
}

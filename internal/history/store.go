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

// Package history provides a Postgres-backed log of report deliveries.
package history

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bcem/marketmail/internal/models"
)

// Store records and lists deliveries.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a delivery store backed by the given Postgres pool.
// It ensures the deliveries table exists on creation.
func NewStore(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	s := &Store{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure delivery schema: %w", err)
	}
	slog.Info("delivery history store initialised")
	return s, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS deliveries (
			id              TEXT PRIMARY KEY,
			recipient       TEXT NOT NULL,
			subject         TEXT NOT NULL,
			status          TEXT NOT NULL,
			reason          TEXT DEFAULT '',
			sentiment_score DOUBLE PRECISION,
			snapshot_time   TEXT DEFAULT '',
			created_at      TIMESTAMPTZ DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_deliveries_created ON deliveries(created_at);
		CREATE INDEX IF NOT EXISTS idx_deliveries_status ON deliveries(status);
	`)
	return err
}

// Record inserts a delivery. Re-recording the same ID updates its outcome.
func (s *Store) Record(ctx context.Context, d models.Delivery) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO deliveries
			(id, recipient, subject, status, reason, sentiment_score, snapshot_time, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			reason = EXCLUDED.reason
	`, d.ID, d.Recipient, d.Subject, d.Status, d.Reason, d.SentimentScore, d.SnapshotTime, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert delivery %s: %w", d.ID, err)
	}
	return nil
}

// ListRecent returns the newest deliveries first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]models.Delivery, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, recipient, subject, status, reason, sentiment_score,
		       snapshot_time, created_at
		FROM deliveries
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list deliveries: %w", err)
	}
	defer rows.Close()
	return collectDeliveries(rows)
}

// Counts summarises the log.
type Counts struct {
	Total     int64
	Succeeded int64
	Failed    int64
	Today     int64
}

// Counts returns totals overall and for the current day (since local
// midnight of now).
func (s *Store) Counts(ctx context.Context, now time.Time) (Counts, error) {
	y, m, d := now.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, now.Location())

	var c Counts
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'succeeded'),
		       COUNT(*) FILTER (WHERE status = 'failed'),
		       COUNT(*) FILTER (WHERE status = 'succeeded' AND created_at >= $1)
		FROM deliveries
	`, midnight).Scan(&c.Total, &c.Succeeded, &c.Failed, &c.Today)
	if err != nil {
		return Counts{}, fmt.Errorf("count deliveries: %w", err)
	}
	return c, nil
}

// Ping checks the Postgres connection.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}

func collectDeliveries(rows pgx.Rows) ([]models.Delivery, error) {
	var out []models.Delivery
	for rows.Next() {
		var d models.Delivery
		if err := rows.Scan(
			&d.ID, &d.Recipient, &d.Subject, &d.Status, &d.Reason,
			&d.SentimentScore, &d.SnapshotTime, &d.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

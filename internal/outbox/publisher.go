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

// Package outbox publishes delivery outcomes to a Redis list so downstream
// workers (digest mailers, dashboards) can consume them, and keeps running
// counters alongside.
package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/bcem/marketmail/internal/models"
)

const (
	// EventDelivery is the envelope type for delivery outcomes.
	EventDelivery = "delivery"

	statsPrefix = "marketmail:stats:"
	// dailyTTL keeps per-day counters around long enough for weekly reports.
	dailyTTL = 8 * 24 * time.Hour
)

// Envelope is the JSON message pushed to the queue.
type Envelope struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	CreatedAt time.Time       `json:"created_at"`
	Delivery  models.Delivery `json:"delivery"`
}

// Publisher pushes delivery envelopes to Redis.
type Publisher struct {
	rdb       *redis.Client
	queueName string
}

// NewPublisher creates a new Redis publisher targeting the specified queue.
func NewPublisher(rdb *redis.Client, queueName string) *Publisher {
	return &Publisher{
		rdb:       rdb,
		queueName: queueName,
	}
}

// NewEnvelope wraps d for publishing.
func NewEnvelope(d models.Delivery, now time.Time) Envelope {
	return Envelope{
		ID:        uuid.NewString(),
		Type:      EventDelivery,
		CreatedAt: now.UTC(),
		Delivery:  d,
	}
}

// CounterKeys returns the total and per-day counter keys for a status.
func CounterKeys(status string, day time.Time) (total, daily string) {
	return statsPrefix + status, statsPrefix + status + ":" + day.Format("2006-01-02")
}

// Record publishes d and bumps its counters in one pipeline.
func (p *Publisher) Record(ctx context.Context, d models.Delivery) error {
	env := NewEnvelope(d, time.Now())
	msg, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal delivery envelope: %w", err)
	}

	total, daily := CounterKeys(d.Status, d.CreatedAt)

	pipe := p.rdb.TxPipeline()
	pipe.LPush(ctx, p.queueName, msg)
	pipe.Incr(ctx, total)
	pipe.Incr(ctx, daily)
	pipe.Expire(ctx, daily, dailyTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis publish delivery: %w", err)
	}

	slog.Info("published delivery event",
		"event_id", env.ID,
		"delivery_id", d.ID,
		"status", d.Status,
		"queue", p.queueName,
	)
	return nil
}

// Totals reads the all-time and per-day counters for status.
func (p *Publisher) Totals(ctx context.Context, status string, day time.Time) (total, daily int64, err error) {
	tk, dk := CounterKeys(status, day)
	vals, err := p.rdb.MGet(ctx, tk, dk).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("redis MGET counters: %w", err)
	}
	return toInt(vals[0]), toInt(vals[1]), nil
}

func toInt(v any) int64 {
	s, ok := v.(string)
	if !ok {
		return 0
	}
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

// Ping checks the Redis connection.
func (p *Publisher) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return p.rdb.Ping(ctx).Err()
}

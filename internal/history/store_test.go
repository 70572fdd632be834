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

package history

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bcem/marketmail/internal/models"
)

// openStore connects to MARKETMAIL_TEST_DATABASE_URL or skips.
func openStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("MARKETMAIL_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("MARKETMAIL_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		t.Fatalf("pgxpool.New: %v", err)
	}
	t.Cleanup(pool.Close)

	s, err := NewStore(ctx, pool)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func TestStore_RecordAndList(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	now := time.Now()

	before, err := s.Counts(ctx, now)
	if err != nil {
		t.Fatal(err)
	}

	score := 0.45
	ok := models.Delivery{
		ID: uuid.NewString(), Recipient: "a@b.com", Subject: "Report",
		Status: models.DeliverySucceeded, SentimentScore: &score, SnapshotTime: "09:00", CreatedAt: now,
	}
	failed := models.Delivery{
		ID: uuid.NewString(), Recipient: "a@b.com", Subject: "Report",
		Status: models.DeliveryFailed, Reason: "mail server down", CreatedAt: now.Add(time.Second),
	}
	for _, d := range []models.Delivery{ok, failed} {
		if err := s.Record(ctx, d); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	recent, err := s.ListRecent(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 || recent[0].ID != failed.ID || recent[1].ID != ok.ID {
		t.Fatalf("recent = %+v, want newest first", recent)
	}
	if recent[1].SentimentScore == nil || *recent[1].SentimentScore != score {
		t.Errorf("score = %v", recent[1].SentimentScore)
	}
	if recent[0].SentimentScore != nil {
		t.Error("missing score should scan as nil")
	}

	after, err := s.Counts(ctx, now)
	if err != nil {
		t.Fatal(err)
	}
	if after.Total-before.Total != 2 || after.Failed-before.Failed != 1 || after.Today-before.Today != 1 {
		t.Errorf("counts before %+v after %+v", before, after)
	}
}

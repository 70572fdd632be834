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

package snapshot

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func serve(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		if ua := r.Header.Get("User-Agent"); ua != "marketmail/test" {
			t.Errorf("User-Agent = %q", ua)
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch_Data(t *testing.T) {
	srv := serve(t, http.StatusOK, `{"data":{"average_sentiment_score":-0.45,"market_date":"2026-10-19","risk_assessment":"elevated"},"timestamp":"x"}`)

	snap, err := NewClient(srv.Client(), srv.URL, "marketmail/test").Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap == nil {
		t.Fatal("expected snapshot")
	}
	if *snap.SentimentScore != -0.45 {
		t.Errorf("score = %v", *snap.SentimentScore)
	}
	if snap.RiskAssessment != "elevated" {
		t.Errorf("risk = %q", snap.RiskAssessment)
	}
}

// TestFetch_NoData verifies every "nothing yet" shape yields nil without error.
func TestFetch_NoData(t *testing.T) {
	for _, body := range []string{`{"data":{}}`, `{"data":null}`, `{}`, `{"message":"no data"}`} {
		t.Run(body, func(t *testing.T) {
			srv := serve(t, http.StatusOK, body)
			snap, err := NewClient(srv.Client(), srv.URL, "marketmail/test").Fetch(context.Background())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if snap != nil {
				t.Errorf("snapshot = %+v, want nil", snap)
			}
		})
	}
}

func TestFetch_HTTPError(t *testing.T) {
	srv := serve(t, http.StatusBadGateway, "upstream down")

	_, err := NewClient(srv.Client(), srv.URL, "marketmail/test").Fetch(context.Background())
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want *StatusError", err)
	}
	if se.StatusCode != http.StatusBadGateway {
		t.Errorf("StatusCode = %d", se.StatusCode)
	}
	if !strings.Contains(err.Error(), "upstream down") {
		t.Errorf("error %q should include body", err)
	}
}

func TestFetch_DecodeError(t *testing.T) {
	for _, body := range []string{"<html>", `{"data":[1,2]}`} {
		srv := serve(t, http.StatusOK, body)
		_, err := NewClient(srv.Client(), srv.URL, "marketmail/test").Fetch(context.Background())
		var de *DecodeError
		if !errors.As(err, &de) {
			t.Errorf("body %q: error = %v, want *DecodeError", body, err)
		}
	}
}

func TestFetch_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	if _, err := NewClient(nil, url, "").Fetch(context.Background()); err == nil {
		t.Error("expected error from closed server")
	}
}

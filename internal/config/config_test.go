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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestLoad_MissingFileUsesDefaults verifies that every setting has a default.
func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.SnapshotURL != DefaultSnapshotURL {
		t.Errorf("SnapshotURL = %q, want %q", cfg.SnapshotURL, DefaultSnapshotURL)
	}
	if cfg.PollInterval != 30*time.Second {
		t.Errorf("PollInterval = %v, want 30s", cfg.PollInterval)
	}
	if cfg.RequestTimeout != 10*time.Second {
		t.Errorf("RequestTimeout = %v, want 10s", cfg.RequestTimeout)
	}
	if cfg.SuccessDisplay != 5*time.Second {
		t.Errorf("SuccessDisplay = %v, want 5s", cfg.SuccessDisplay)
	}
	if cfg.PreviewLength != 280 {
		t.Errorf("PreviewLength = %d, want 280", cfg.PreviewLength)
	}
	if cfg.StrictRecipient {
		t.Error("StrictRecipient should default to false")
	}
	if !cfg.IncludeSnapshot {
		t.Error("IncludeSnapshot should default to true")
	}
	if cfg.Auth.Enabled() {
		t.Error("auth should be disabled by default")
	}
}

// TestLoad_YAMLWithEnvOverride verifies YAML parsing, ${VAR} expansion and
// that environment variables take precedence.
func TestLoad_YAMLWithEnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("MM_SECRET", "s3cret")
	t.Setenv("POLL_INTERVAL", "45s")

	path := filepath.Join(t.TempDir(), "config.yaml")
	yamlDoc := `
endpoints:
  snapshot: http://snap.local/api/current-data
  submit: http://mail.local/api/send
auth:
  token_url: http://auth.local/token
  client_id: marketmail
  client_secret: ${MM_SECRET}
poll_interval: 10s
preview_length: 200
strict_recipient: true
form:
  subject: "Weekly - {date}"
  mail_type: weekly
`
	if err := os.WriteFile(path, []byte(yamlDoc), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.SnapshotURL != "http://snap.local/api/current-data" {
		t.Errorf("SnapshotURL = %q", cfg.SnapshotURL)
	}
	if cfg.Auth.ClientSecret != "s3cret" {
		t.Errorf("ClientSecret = %q, want expanded value", cfg.Auth.ClientSecret)
	}
	if !cfg.Auth.Enabled() {
		t.Error("auth should be enabled")
	}
	if cfg.PollInterval != 45*time.Second {
		t.Errorf("PollInterval = %v, want env override 45s", cfg.PollInterval)
	}
	if cfg.PreviewLength != 200 {
		t.Errorf("PreviewLength = %d, want 200", cfg.PreviewLength)
	}
	if !cfg.StrictRecipient {
		t.Error("StrictRecipient should be true")
	}
	if cfg.Form.Subject != "Weekly - {date}" || cfg.Form.MailType != "weekly" {
		t.Errorf("form defaults = %+v", cfg.Form)
	}
}

// TestLoad_InvalidValues verifies that validation rejects unusable settings.
func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "relative snapshot url", env: map[string]string{"SNAPSHOT_URL": "/api/current-data"}},
		{name: "zero poll interval", env: map[string]string{"POLL_INTERVAL": "0s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
				t.Error("expected validation error, got none")
			}
		})
	}
}

func TestLoad_NegativePreviewDisablesTruncation(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PREVIEW_LENGTH", "-1")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.PreviewLength != -1 {
		t.Errorf("PreviewLength = %d, want -1", cfg.PreviewLength)
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := firstNonEmpty("", "  ", "x", "y"); got != "x" {
		t.Errorf("firstNonEmpty = %q, want x", got)
	}
	if got := firstNonEmpty(); got != "" {
		t.Errorf("firstNonEmpty() = %q, want empty", got)
	}
}

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

// Package config loads configuration from an optional config.yaml, a .env
// file, and environment variables. Environment variables win over YAML.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultSnapshotURL = "http://localhost:8089/api/current-data"
	DefaultSubmitURL   = "http://localhost:8089/api/send-mail-to-n8n"
)

// AuthConfig holds optional OAuth2 client credentials for the delivery endpoint.
type AuthConfig struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

// Enabled reports whether client-credentials auth is configured.
func (a AuthConfig) Enabled() bool {
	return a.TokenURL != "" && a.ClientID != "" && a.ClientSecret != ""
}

// FormDefaults are the values a fresh or reset form starts with.
// Subject and SenderName may contain the {date} placeholder.
type FormDefaults struct {
	SenderName             string
	Subject                string
	Priority               string
	MailType               string
	IncludeCharts          bool
	IncludeRecommendations bool
	IncludeRiskWarning     bool
}

// Config holds all configuration for marketmail.
type Config struct {
	SnapshotURL string
	SubmitURL   string
	Auth        AuthConfig

	PollInterval   time.Duration
	RequestTimeout time.Duration
	SuccessDisplay time.Duration

	// PreviewLength is the content preview in runes. Zero takes the
	// default; a negative value shows the full content.
	PreviewLength   int
	StrictRecipient bool
	IncludeSnapshot bool
	DateLayout      string
	Source          string

	Form FormDefaults

	// Optional delivery recorders. Empty disables them.
	RedisURL    string
	OutboxQueue string
	DatabaseURL string

	StatusPort int
	LogLevel   string
	LogFile    string
}

// rawConfig mirrors the YAML structure for unmarshalling.
type rawConfig struct {
	Endpoints struct {
		Snapshot string `yaml:"snapshot"`
		Submit   string `yaml:"submit"`
	} `yaml:"endpoints"`
	Auth struct {
		TokenURL     string   `yaml:"token_url"`
		ClientID     string   `yaml:"client_id"`
		ClientSecret string   `yaml:"client_secret"`
		Scopes       []string `yaml:"scopes"`
	} `yaml:"auth"`
	PollInterval    string `yaml:"poll_interval"`
	RequestTimeout  string `yaml:"request_timeout"`
	SuccessDisplay  string `yaml:"success_display"`
	PreviewLength   int    `yaml:"preview_length"`
	StrictRecipient *bool  `yaml:"strict_recipient"`
	IncludeSnapshot *bool  `yaml:"include_snapshot"`
	DateLayout      string `yaml:"date_layout"`
	Source          string `yaml:"source"`
	Form            struct {
		SenderName             string `yaml:"sender_name"`
		Subject                string `yaml:"subject"`
		Priority               string `yaml:"priority"`
		MailType               string `yaml:"mail_type"`
		IncludeCharts          bool   `yaml:"include_charts"`
		IncludeRecommendations bool   `yaml:"include_recommendations"`
		IncludeRiskWarning     bool   `yaml:"include_risk_warning"`
	} `yaml:"form"`
	Redis struct {
		URL   string `yaml:"url"`
		Queue string `yaml:"queue"`
	} `yaml:"redis"`
	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`
	StatusPort int `yaml:"status_port"`
	Log        struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`
}

// Load reads configuration. path may be empty, in which case CONFIG_PATH or
// ./config.yaml is tried; a missing file is not an error since every
// setting has a default.
func Load(path string) (*Config, error) {
	// .env is optional; values already in the environment are kept.
	_ = godotenv.Load()

	if path == "" {
		path = envOrDefault("CONFIG_PATH", "config.yaml")
	}

	var raw rawConfig
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	default:
		// Expand ${VAR} references in the YAML
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
			return nil, fmt.Errorf("parse config YAML: %w", err)
		}
	}

	return fromRaw(raw)
}

func fromRaw(raw rawConfig) (*Config, error) {
	cfg := &Config{
		SnapshotURL: envOrDefault("SNAPSHOT_URL", firstNonEmpty(raw.Endpoints.Snapshot, DefaultSnapshotURL)),
		SubmitURL:   envOrDefault("SUBMIT_URL", firstNonEmpty(raw.Endpoints.Submit, DefaultSubmitURL)),
		Auth: AuthConfig{
			TokenURL:     envOrDefault("SUBMIT_TOKEN_URL", raw.Auth.TokenURL),
			ClientID:     envOrDefault("SUBMIT_CLIENT_ID", raw.Auth.ClientID),
			ClientSecret: envOrDefault("SUBMIT_CLIENT_SECRET", raw.Auth.ClientSecret),
			Scopes:       raw.Auth.Scopes,
		},
		PollInterval:    envOrDefaultDuration("POLL_INTERVAL", parseDurationOr(raw.PollInterval, 30*time.Second)),
		RequestTimeout:  envOrDefaultDuration("REQUEST_TIMEOUT", parseDurationOr(raw.RequestTimeout, 10*time.Second)),
		SuccessDisplay:  envOrDefaultDuration("SUCCESS_DISPLAY", parseDurationOr(raw.SuccessDisplay, 5*time.Second)),
		PreviewLength:   envOrDefaultInt("PREVIEW_LENGTH", intOr(raw.PreviewLength, 280)),
		StrictRecipient: envOrDefaultBool("STRICT_RECIPIENT", boolOr(raw.StrictRecipient, false)),
		IncludeSnapshot: envOrDefaultBool("INCLUDE_SNAPSHOT", boolOr(raw.IncludeSnapshot, true)),
		DateLayout:      firstNonEmpty(raw.DateLayout, "2006-01-02"),
		Source:          firstNonEmpty(raw.Source, "marketmail-dashboard"),
		Form: FormDefaults{
			SenderName:             firstNonEmpty(raw.Form.SenderName, "Market Analysis System"),
			Subject:                envOrDefault("DEFAULT_EMAIL_SUBJECT", firstNonEmpty(raw.Form.Subject, "Market Analysis Report - {date}")),
			Priority:               firstNonEmpty(raw.Form.Priority, "normal"),
			MailType:               firstNonEmpty(raw.Form.MailType, "daily"),
			IncludeCharts:          raw.Form.IncludeCharts,
			IncludeRecommendations: raw.Form.IncludeRecommendations,
			IncludeRiskWarning:     raw.Form.IncludeRiskWarning,
		},
		RedisURL:    envOrDefault("REDIS_URL", raw.Redis.URL),
		OutboxQueue: envOrDefault("OUTBOX_QUEUE", firstNonEmpty(raw.Redis.Queue, "marketmail:deliveries")),
		DatabaseURL: envOrDefault("DATABASE_URL", raw.Database.URL),
		StatusPort:  envOrDefaultInt("STATUS_PORT", intOr(raw.StatusPort, 8090)),
		LogLevel:    envOrDefault("LOG_LEVEL", firstNonEmpty(raw.Log.Level, "info")),
		LogFile:     envOrDefault("LOG_FILE", raw.Log.File),
	}

	if scopes := os.Getenv("SUBMIT_SCOPES"); scopes != "" {
		cfg.Auth.Scopes = strings.Split(scopes, ",")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that would otherwise fail much later.
func (c *Config) Validate() error {
	for name, raw := range map[string]string{"snapshot": c.SnapshotURL, "submit": c.SubmitURL} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid %s endpoint %q", name, raw)
		}
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.PollInterval)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %s", c.RequestTimeout)
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envOrDefaultBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envOrDefaultDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func parseDurationOr(v string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
		return d
	}
	return fallback
}

func intOr(v, fallback int) int {
	if v != 0 {
		return v
	}
	return fallback
}

func boolOr(v *bool, fallback bool) bool {
	if v != nil {
		return *v
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

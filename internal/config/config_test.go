package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_mergesOverDefaults(t *testing.T) {
	path := writeConfigFile(t, `
mode = "serve"

[api]
base_url = "https://cards.example.org"

[account]
email = "me@example.org"
password = "hunter2"

[poll]
interval = "45s"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Mode != "serve" {
		t.Errorf("Mode = %q", cfg.Mode)
	}
	if cfg.API.BaseURL != "https://cards.example.org" {
		t.Errorf("BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.Poll.Interval.Duration != 45*time.Second {
		t.Errorf("poll interval = %v", cfg.Poll.Interval.Duration)
	}
	// Untouched fields keep their defaults.
	if cfg.Poll.ListLimit != 20 {
		t.Errorf("ListLimit = %d, want default 20", cfg.Poll.ListLimit)
	}
	if cfg.Server.Port != 8600 {
		t.Errorf("server port = %d, want default 8600", cfg.Server.Port)
	}
}

func TestLoad_envOverrides(t *testing.T) {
	path := writeConfigFile(t, `
[account]
email = "me@example.org"
password = "from-file"
`)

	t.Setenv("BINDERBOT_ACCOUNT_PASSWORD", "from-env")
	t.Setenv("BINDERBOT_POLL_INTERVAL", "2m")
	t.Setenv("BINDERBOT_SERVER_CORS_ORIGINS", "http://a.test, http://b.test")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Account.Password != "from-env" {
		t.Errorf("Password = %q, want env override", cfg.Account.Password)
	}
	if cfg.Poll.Interval.Duration != 2*time.Minute {
		t.Errorf("poll interval = %v", cfg.Poll.Interval.Duration)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "http://b.test" {
		t.Errorf("CORSOrigins = %v", cfg.Server.CORSOrigins)
	}
}

func TestValidate_collectsAllProblems(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "banana"
	cfg.API.BaseURL = ""
	cfg.Account = AccountConfig{}
	cfg.Poll.ListLimit = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{"unknown mode", "base_url", "account:", "list_limit"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error missing %q:\n%s", want, msg)
		}
	}
}

func TestValidate_defaultsAreValid(t *testing.T) {
	cfg := Defaults()
	// Defaults carry no credentials but do set a session path, which is a
	// legal credential source.
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults failed validation: %v", err)
	}
}

func TestValidate_telegramHalvesRequiredTogether(t *testing.T) {
	cfg := Defaults()
	cfg.Notify.TelegramToken = "123:abc"

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "telegram") {
		t.Fatalf("err = %v, want telegram pairing error", err)
	}
}

func TestRedactedConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Account.Password = "hunter2"
	cfg.Server.APIKey = "local-key"

	red := RedactedConfig(&cfg)
	if red.Account.Password != "***" || red.Server.APIKey != "***" {
		t.Errorf("secrets not redacted: %+v", red)
	}
	if cfg.Account.Password != "hunter2" {
		t.Error("original mutated")
	}
}

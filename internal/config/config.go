// Package config defines the top-level configuration for the binderbot
// daemon and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by BINDERBOT_* environment variables.
type Config struct {
	API      APIConfig     `toml:"api"`
	Account  AccountConfig `toml:"account"`
	Poll     PollConfig    `toml:"poll"`
	Notify   NotifyConfig  `toml:"notify"`
	Redis    RedisConfig   `toml:"redis"`
	Archive  ArchiveConfig `toml:"archive"`
	Server   ServerConfig  `toml:"server"`
	Mode     string        `toml:"mode"`
	LogLevel string        `toml:"log_level"`
}

// APIConfig holds the CardTrade marketplace API endpoint parameters.
type APIConfig struct {
	BaseURL string   `toml:"base_url"`
	Timeout duration `toml:"timeout"`
}

// AccountConfig holds the marketplace account credentials and local session
// persistence settings.
type AccountConfig struct {
	Email             string `toml:"email"`
	Password          string `toml:"password"`
	SocialToken       string `toml:"social_token"`
	SessionPath       string `toml:"session_path"`
	SessionPassphrase string `toml:"session_passphrase"`
}

// PollConfig holds notification polling parameters.
type PollConfig struct {
	Interval  duration `toml:"interval"`
	ListLimit int      `toml:"list_limit"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// RedisConfig holds Redis connection parameters. Redis is optional; when
// disabled, forward dedup falls back to an in-memory store.
type RedisConfig struct {
	Enabled    bool     `toml:"enabled"`
	Addr       string   `toml:"addr"`
	Password   string   `toml:"password"`
	DB         int      `toml:"db"`
	PoolSize   int      `toml:"pool_size"`
	MaxRetries int      `toml:"max_retries"`
	TLSEnabled bool     `toml:"tls_enabled"`
	DedupTTL   duration `toml:"dedup_ttl"`
}

// ArchiveConfig holds PostgreSQL connection parameters for the local offer
// and transaction archive.
type ArchiveConfig struct {
	Enabled       bool     `toml:"enabled"`
	DSN           string   `toml:"dsn"`
	Host          string   `toml:"host"`
	Port          int      `toml:"port"`
	Database      string   `toml:"database"`
	User          string   `toml:"user"`
	Password      string   `toml:"password"`
	SSLMode       string   `toml:"ssl_mode"`
	PoolMaxConns  int      `toml:"pool_max_conns"`
	PoolMinConns  int      `toml:"pool_min_conns"`
	RunMigrations bool     `toml:"run_migrations"`
	Interval      duration `toml:"interval"`
}

// ServerConfig holds the local dashboard API parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	APIKey      string   `toml:"api_key"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		API: APIConfig{
			BaseURL: "https://api.cardtrade.example.com",
			Timeout: duration{30 * time.Second},
		},
		Account: AccountConfig{
			SessionPath: "binderbot-session.json",
		},
		Poll: PollConfig{
			Interval:  duration{30 * time.Second},
			ListLimit: 20,
		},
		Notify: NotifyConfig{
			Events: []string{"offer_activity"},
		},
		Redis: RedisConfig{
			Enabled:    false,
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
			DedupTTL:   duration{30 * 24 * time.Hour},
		},
		Archive: ArchiveConfig{
			Enabled:       false,
			Host:          "localhost",
			Port:          5432,
			Database:      "binderbot",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
			Interval:      duration{10 * time.Minute},
		},
		Server: ServerConfig{
			Enabled:     true,
			Port:        8600,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Mode:     "watch",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"watch":   true,
	"serve":   true,
	"archive": true,
	"full":    true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: watch, serve, archive, full)", c.Mode))
	}

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if strings.TrimSpace(c.API.BaseURL) == "" {
		errs = append(errs, "api: base_url must not be empty")
	}
	if c.API.Timeout.Duration <= 0 {
		errs = append(errs, "api: timeout must be > 0")
	}

	// Credentials: either password login, a social-provider token, or a
	// previously persisted session (restored from session_path at startup).
	hasLogin := c.Account.Email != "" && c.Account.Password != ""
	hasSocial := c.Account.SocialToken != ""
	hasSession := c.Account.SessionPath != ""
	if !hasLogin && !hasSocial && !hasSession {
		errs = append(errs, "account: set email+password, social_token, or session_path")
	}
	if c.Account.Email != "" && c.Account.Password == "" {
		errs = append(errs, "account: password is required when email is set")
	}

	if c.Poll.Interval.Duration <= 0 {
		errs = append(errs, "poll: interval must be > 0")
	}
	if c.Poll.ListLimit < 1 {
		errs = append(errs, "poll: list_limit must be >= 1")
	}

	// Telegram requires both halves of the credential.
	tt := c.Notify.TelegramToken != ""
	tc := c.Notify.TelegramChatID != ""
	if tt != tc {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}

	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty when enabled")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	if c.Archive.Enabled {
		if strings.TrimSpace(c.Archive.DSN) == "" {
			if c.Archive.Host == "" {
				errs = append(errs, "archive: host must not be empty (or set archive.dsn)")
			}
			if c.Archive.Port <= 0 || c.Archive.Port > 65535 {
				errs = append(errs, fmt.Sprintf("archive: port must be 1-65535, got %d", c.Archive.Port))
			}
			if c.Archive.Database == "" {
				errs = append(errs, "archive: database must not be empty")
			}
		}
		if c.Archive.PoolMaxConns < 1 {
			errs = append(errs, "archive: pool_max_conns must be >= 1")
		}
		if c.Archive.PoolMinConns < 0 {
			errs = append(errs, "archive: pool_min_conns must be >= 0")
		}
		if c.Archive.PoolMinConns > c.Archive.PoolMaxConns {
			errs = append(errs, "archive: pool_min_conns must not exceed pool_max_conns")
		}
		if c.Archive.Interval.Duration <= 0 {
			errs = append(errs, "archive: interval must be > 0 when enabled")
		}
	}

	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

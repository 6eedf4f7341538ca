package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies BINDERBOT_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known BINDERBOT_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── API ──
	setStr(&cfg.API.BaseURL, "BINDERBOT_API_BASE_URL")
	setDuration(&cfg.API.Timeout, "BINDERBOT_API_TIMEOUT")

	// ── Account ──
	setStr(&cfg.Account.Email, "BINDERBOT_ACCOUNT_EMAIL")
	setStr(&cfg.Account.Password, "BINDERBOT_ACCOUNT_PASSWORD")
	setStr(&cfg.Account.SocialToken, "BINDERBOT_ACCOUNT_SOCIAL_TOKEN")
	setStr(&cfg.Account.SessionPath, "BINDERBOT_ACCOUNT_SESSION_PATH")
	setStr(&cfg.Account.SessionPassphrase, "BINDERBOT_ACCOUNT_SESSION_PASSPHRASE")

	// ── Poll ──
	setDuration(&cfg.Poll.Interval, "BINDERBOT_POLL_INTERVAL")
	setInt(&cfg.Poll.ListLimit, "BINDERBOT_POLL_LIST_LIMIT")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "BINDERBOT_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "BINDERBOT_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "BINDERBOT_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "BINDERBOT_NOTIFY_EVENTS")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "BINDERBOT_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "BINDERBOT_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "BINDERBOT_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "BINDERBOT_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "BINDERBOT_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "BINDERBOT_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "BINDERBOT_REDIS_TLS_ENABLED")
	setDuration(&cfg.Redis.DedupTTL, "BINDERBOT_REDIS_DEDUP_TTL")

	// ── Archive ──
	setBool(&cfg.Archive.Enabled, "BINDERBOT_ARCHIVE_ENABLED")
	setStr(&cfg.Archive.DSN, "BINDERBOT_ARCHIVE_DSN")
	setStr(&cfg.Archive.Host, "BINDERBOT_ARCHIVE_HOST")
	setInt(&cfg.Archive.Port, "BINDERBOT_ARCHIVE_PORT")
	setStr(&cfg.Archive.Database, "BINDERBOT_ARCHIVE_DATABASE")
	setStr(&cfg.Archive.User, "BINDERBOT_ARCHIVE_USER")
	setStr(&cfg.Archive.Password, "BINDERBOT_ARCHIVE_PASSWORD")
	setStr(&cfg.Archive.SSLMode, "BINDERBOT_ARCHIVE_SSL_MODE")
	setInt(&cfg.Archive.PoolMaxConns, "BINDERBOT_ARCHIVE_POOL_MAX_CONNS")
	setInt(&cfg.Archive.PoolMinConns, "BINDERBOT_ARCHIVE_POOL_MIN_CONNS")
	setBool(&cfg.Archive.RunMigrations, "BINDERBOT_ARCHIVE_RUN_MIGRATIONS")
	setDuration(&cfg.Archive.Interval, "BINDERBOT_ARCHIVE_INTERVAL")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "BINDERBOT_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "BINDERBOT_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "BINDERBOT_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "BINDERBOT_SERVER_API_KEY")

	// ── Top-level ──
	setStr(&cfg.Mode, "BINDERBOT_MODE")
	setStr(&cfg.LogLevel, "BINDERBOT_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}

package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mkravets/binderbot/internal/cache/mem"
	"github.com/mkravets/binderbot/internal/cache/redis"
	"github.com/mkravets/binderbot/internal/config"
	"github.com/mkravets/binderbot/internal/domain"
	"github.com/mkravets/binderbot/internal/notify"
	"github.com/mkravets/binderbot/internal/platform/cardmarket"
	"github.com/mkravets/binderbot/internal/poller"
	"github.com/mkravets/binderbot/internal/server/ws"
	"github.com/mkravets/binderbot/internal/service"
	"github.com/mkravets/binderbot/internal/session"
	"github.com/mkravets/binderbot/internal/store/postgres"
)

// Dependencies bundles everything the application modes need to operate. It
// is constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Client  *cardmarket.Client
	Session *session.Store
	Poller  *poller.Poller
	Offers  *service.OfferService
	Account *service.AccountService

	Notifier  *notify.Notifier
	Forwarder *notify.Forwarder
	Dedup     domain.ForwardDedup

	// Archive stores; nil unless archive.enabled.
	OfferArchive domain.OfferArchive
	TxArchive    domain.TransactionArchive

	Hub *ws.Hub
}

// needsArchive returns true for modes that mirror marketplace data locally.
func needsArchive(mode string) bool {
	switch mode {
	case "archive", "full":
		return true
	default:
		return false
	}
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Marketplace client + session store ---
	// The client reads its credential from the session store, and the store
	// reaches the marketplace through the client, so the cross-wiring happens
	// via setters after both exist.
	client := cardmarket.NewClient(cfg.API.BaseURL, cfg.API.Timeout.Duration)
	vault := session.NewFileVault(cfg.Account.SessionPath, cfg.Account.SessionPassphrase)
	sess := session.NewStore(client, vault, logger)
	client.SetTokenSource(sess)
	client.SetAuthRejectHook(sess.ForceLogout)
	deps.Client = client
	deps.Session = sess

	// --- Services ---
	deps.Poller = poller.New(client, cfg.Poll.Interval.Duration, cfg.Poll.ListLimit, logger)
	deps.Offers = service.NewOfferService(client, sess, logger)
	deps.Account = service.NewAccountService(client, logger)

	// --- Forward dedup: Redis when configured, in-memory otherwise ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })
		deps.Dedup = redis.NewForwardDedup(redisClient, cfg.Redis.DedupTTL.Duration)
	} else {
		deps.Dedup = mem.NewForwardDedup()
	}

	// --- PostgreSQL archive (only for modes that mirror data locally) ---
	if cfg.Archive.Enabled && needsArchive(strings.ToLower(cfg.Mode)) {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Archive.DSN,
			Host:     cfg.Archive.Host,
			Port:     cfg.Archive.Port,
			Database: cfg.Archive.Database,
			User:     cfg.Archive.User,
			Password: cfg.Archive.Password,
			SSLMode:  cfg.Archive.SSLMode,
			MaxConns: cfg.Archive.PoolMaxConns,
			MinConns: cfg.Archive.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Archive.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		pool := pgClient.Pool()
		deps.OfferArchive = postgres.NewOfferStore(pool)
		deps.TxArchive = postgres.NewTransactionStore(pool)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)
	deps.Forwarder = notify.NewForwarder(deps.Notifier, deps.Dedup, logger)

	// --- WebSocket hub ---
	deps.Hub = ws.NewHub(strings.ToLower(cfg.Mode), logger)

	// Fresh notifications flow to the operator channels and the dashboard.
	hub := deps.Hub
	fwd := deps.Forwarder
	deps.Poller.SetUnseenSink(func(ctx context.Context, n domain.Notification) {
		fwd.HandleNotification(ctx, n)
		hub.Publish("notification", n)
	})

	return deps, cleanup, nil
}

package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mkravets/binderbot/internal/domain"
	"github.com/mkravets/binderbot/internal/server"
	"github.com/mkravets/binderbot/internal/server/handler"
	"github.com/mkravets/binderbot/internal/session"
)

// shutdownGrace is how long in-flight HTTP requests get on shutdown.
const shutdownGrace = 10 * time.Second

// WatchMode signs in, polls notifications, and forwards fresh activity to the
// operator channels. This is the minimal headless mode.
func (a *App) WatchMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting watch mode")

	if err := a.bootstrapSession(ctx, deps); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	a.bindPollerToSession(ctx, deps)
	a.logAccountOverview(ctx, deps)

	g.Go(func() error {
		<-ctx.Done()
		deps.Poller.Stop()
		return ctx.Err()
	})
	return g.Wait()
}

// ServeMode runs everything watch mode does plus the local dashboard API and
// WebSocket feed.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting serve mode")

	if err := a.bootstrapSession(ctx, deps); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	a.bindPollerToSession(ctx, deps)
	a.logAccountOverview(ctx, deps)

	g.Go(func() error {
		err := deps.Hub.Run(ctx)
		if err == context.Canceled {
			return nil
		}
		return err
	})
	a.startHTTPServer(ctx, g, deps)

	g.Go(func() error {
		<-ctx.Done()
		deps.Poller.Stop()
		return ctx.Err()
	})
	return g.Wait()
}

// ArchiveMode periodically mirrors the account's offers and transactions into
// the local PostgreSQL archive.
func (a *App) ArchiveMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting archive mode")

	if deps.OfferArchive == nil || deps.TxArchive == nil {
		return fmt.Errorf("app: archive mode requires archive.enabled")
	}
	if err := a.bootstrapSession(ctx, deps); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.runArchiveLoop(ctx, deps)
	})
	return g.Wait()
}

// FullMode runs all subsystems: watch, dashboard API, and archive mirroring.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	if err := a.bootstrapSession(ctx, deps); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	a.bindPollerToSession(ctx, deps)
	a.logAccountOverview(ctx, deps)

	g.Go(func() error {
		err := deps.Hub.Run(ctx)
		if err == context.Canceled {
			return nil
		}
		return err
	})
	if a.cfg.Server.Enabled {
		a.startHTTPServer(ctx, g, deps)
	}
	if deps.OfferArchive != nil && deps.TxArchive != nil {
		g.Go(func() error {
			return a.runArchiveLoop(ctx, deps)
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		deps.Poller.Stop()
		return ctx.Err()
	})
	return g.Wait()
}

// bootstrapSession restores a persisted session or signs in with the
// configured credentials. A restored session that later turns out to be
// expired is handled by the auth-reject teardown, not here.
func (a *App) bootstrapSession(ctx context.Context, deps *Dependencies) error {
	restored, err := deps.Session.Restore()
	if err != nil {
		a.logger.WarnContext(ctx, "session restore failed",
			slog.String("error", err.Error()),
		)
	}
	if restored {
		if user, ok := deps.Session.CurrentUser(); ok {
			a.logger.InfoContext(ctx, "session restored",
				slog.String("username", user.Username),
			)
		}
		return nil
	}

	switch {
	case a.cfg.Account.SocialToken != "":
		user, err := deps.Session.SocialExchange(ctx, a.cfg.Account.SocialToken)
		if err != nil {
			return fmt.Errorf("app: social sign-in: %w", err)
		}
		a.logger.InfoContext(ctx, "signed in via social provider",
			slog.String("username", user.Username),
		)
	case a.cfg.Account.Email != "":
		user, err := deps.Session.Login(ctx, a.cfg.Account.Email, a.cfg.Account.Password)
		if err != nil {
			return fmt.Errorf("app: sign-in: %w", err)
		}
		a.logger.InfoContext(ctx, "signed in",
			slog.String("username", user.Username),
		)
	default:
		return fmt.Errorf("app: no persisted session and no credentials configured")
	}
	return nil
}

// bindPollerToSession ties the poller lifecycle to the session: polling runs
// exactly while a session is held. Re-login restarts cleanly, and the forced
// teardown on credential rejection stops the ticker.
func (a *App) bindPollerToSession(ctx context.Context, deps *Dependencies) {
	deps.Session.Subscribe(func(ev session.Event) {
		switch ev.Type {
		case session.EventLogin:
			deps.Poller.Start(ctx)
			deps.Hub.Publish("session", map[string]any{"authenticated": true})
		case session.EventLogout:
			deps.Poller.Stop()
			deps.Hub.Publish("session", map[string]any{"authenticated": false})
		case session.EventUserUpdated:
			if ev.User != nil {
				deps.Hub.Publish("user", ev.User)
			}
		}
	})

	if deps.Session.Authenticated() {
		deps.Poller.Start(ctx)
	}
}

// logAccountOverview reports the account's standing once at startup so the
// operator sees immediately what the daemon is watching.
func (a *App) logAccountOverview(ctx context.Context, deps *Dependencies) {
	overview, err := deps.Account.Overview(ctx)
	if err != nil {
		a.logger.WarnContext(ctx, "account overview unavailable",
			slog.String("error", err.Error()),
		)
		return
	}
	a.logger.InfoContext(ctx, "account overview",
		slog.String("username", overview.User.Username),
		slog.Int("unread_notifications", overview.Unread),
		slog.Int("sent_offers", len(overview.Sent)),
		slog.Int("received_offers", len(overview.Received)),
		slog.Int("pending_received", overview.PendingReceived()),
	)
}

// startHTTPServer builds the dashboard API server and runs it on the group.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	handlers := server.Handlers{
		Health:        handler.NewHealthHandler(a.logger),
		Session:       handler.NewSessionHandler(deps.Session, a.cfg.Mode),
		Offers:        handler.NewOfferHandler(deps.Offers, deps.Client, deps.OfferArchive, a.logger),
		Notifications: handler.NewNotificationHandler(deps.Poller, a.logger),
	}

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
	}, handlers, deps.Hub, a.logger)

	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}

// runArchiveLoop mirrors offers and transactions at the configured interval.
// The first sync happens immediately.
func (a *App) runArchiveLoop(ctx context.Context, deps *Dependencies) error {
	a.syncArchive(ctx, deps)

	ticker := time.NewTicker(a.cfg.Archive.Interval.Duration)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			a.syncArchive(ctx, deps)
		}
	}
}

// syncArchive pulls one snapshot of the account's offers and transactions
// into the archive. Each part fails independently.
func (a *App) syncArchive(ctx context.Context, deps *Dependencies) {
	var offers []domain.TradeOffer
	sent, err := deps.Client.SentOffers(ctx)
	if err != nil {
		a.logger.WarnContext(ctx, "archive: fetch sent offers failed",
			slog.String("error", err.Error()),
		)
	} else {
		offers = append(offers, sent...)
	}
	received, err := deps.Client.ReceivedOffers(ctx)
	if err != nil {
		a.logger.WarnContext(ctx, "archive: fetch received offers failed",
			slog.String("error", err.Error()),
		)
	} else {
		offers = append(offers, received...)
	}
	if len(offers) > 0 {
		if err := deps.OfferArchive.UpsertOffers(ctx, offers); err != nil {
			a.logger.ErrorContext(ctx, "archive: upsert offers failed",
				slog.String("error", err.Error()),
			)
		}
	}

	txs, err := deps.Client.Transactions(ctx)
	if err != nil {
		a.logger.WarnContext(ctx, "archive: fetch transactions failed",
			slog.String("error", err.Error()),
		)
	} else if len(txs) > 0 {
		if err := deps.TxArchive.UpsertTransactions(ctx, txs); err != nil {
			a.logger.ErrorContext(ctx, "archive: upsert transactions failed",
				slog.String("error", err.Error()),
			)
		}
	}

	a.logger.InfoContext(ctx, "archive sync complete",
		slog.Int("offers", len(offers)),
		slog.Int("transactions", len(txs)),
	)
}

package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mkravets/binderbot/internal/domain"
)

// AccountAPI is the slice of the marketplace client the account service needs.
type AccountAPI interface {
	Me(ctx context.Context) (domain.UserSummary, error)
	TradeStats(ctx context.Context, userID string) (domain.TradeStats, error)
	UnreadCount(ctx context.Context) (int, error)
	SentOffers(ctx context.Context) ([]domain.TradeOffer, error)
	ReceivedOffers(ctx context.Context) ([]domain.TradeOffer, error)
}

// AccountOverview aggregates everything the watch loop reports about the
// signed-in account. Parts that failed to load are zero-valued and listed in
// Partial.
type AccountOverview struct {
	User     domain.UserSummary
	Stats    domain.TradeStats
	Unread   int
	Sent     []domain.TradeOffer
	Received []domain.TradeOffer
	Partial  []string
}

// PendingReceived counts received offers still awaiting a decision.
func (o AccountOverview) PendingReceived() int {
	n := 0
	for _, off := range o.Received {
		if off.Status == domain.OfferStatusPending {
			n++
		}
	}
	return n
}

// AccountService assembles account overviews from several API endpoints in
// parallel.
type AccountService struct {
	api    AccountAPI
	logger *slog.Logger
}

func NewAccountService(api AccountAPI, logger *slog.Logger) *AccountService {
	return &AccountService{
		api:    api,
		logger: logger.With(slog.String("component", "account_service")),
	}
}

// Overview fetches the profile, trade stats, unread count, and both offer
// lists concurrently. Only the profile fetch is fatal; any other part that
// fails is logged, recorded in Partial, and left zero-valued so one flaky
// endpoint does not blank the whole overview.
func (s *AccountService) Overview(ctx context.Context) (AccountOverview, error) {
	user, err := s.api.Me(ctx)
	if err != nil {
		return AccountOverview{}, fmt.Errorf("account_service: profile: %w", err)
	}

	out := AccountOverview{User: user}
	var mu sync.Mutex
	degrade := func(part string, err error) {
		s.logger.Warn("overview part failed",
			slog.String("part", part),
			slog.String("error", err.Error()),
		)
		mu.Lock()
		out.Partial = append(out.Partial, part)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		stats, err := s.api.TradeStats(gctx, user.ID)
		if err != nil {
			degrade("trade_stats", err)
			return nil
		}
		mu.Lock()
		out.Stats = stats
		mu.Unlock()
		return nil
	})

	g.Go(func() error {
		count, err := s.api.UnreadCount(gctx)
		if err != nil {
			degrade("unread_count", err)
			return nil
		}
		mu.Lock()
		out.Unread = count
		mu.Unlock()
		return nil
	})

	g.Go(func() error {
		sent, err := s.api.SentOffers(gctx)
		if err != nil {
			degrade("sent_offers", err)
			return nil
		}
		mu.Lock()
		out.Sent = sent
		mu.Unlock()
		return nil
	})

	g.Go(func() error {
		received, err := s.api.ReceivedOffers(gctx)
		if err != nil {
			degrade("received_offers", err)
			return nil
		}
		mu.Lock()
		out.Received = received
		mu.Unlock()
		return nil
	})

	// Workers never return errors, but the group still propagates ctx
	// cancellation ordering.
	_ = g.Wait()
	if ctx.Err() != nil {
		return AccountOverview{}, fmt.Errorf("account_service: overview: %w", ctx.Err())
	}
	return out, nil
}

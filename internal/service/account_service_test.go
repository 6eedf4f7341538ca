package service

import (
	"context"
	"errors"
	"testing"

	"github.com/mkravets/binderbot/internal/domain"
)

type fakeAccountAPI struct {
	me        domain.UserSummary
	meErr     error
	stats     domain.TradeStats
	statsErr  error
	unread    int
	unreadErr error
	sent      []domain.TradeOffer
	received  []domain.TradeOffer
	recvErr   error
}

func (f *fakeAccountAPI) Me(ctx context.Context) (domain.UserSummary, error) {
	return f.me, f.meErr
}

func (f *fakeAccountAPI) TradeStats(ctx context.Context, userID string) (domain.TradeStats, error) {
	return f.stats, f.statsErr
}

func (f *fakeAccountAPI) UnreadCount(ctx context.Context) (int, error) {
	return f.unread, f.unreadErr
}

func (f *fakeAccountAPI) SentOffers(ctx context.Context) ([]domain.TradeOffer, error) {
	return f.sent, nil
}

func (f *fakeAccountAPI) ReceivedOffers(ctx context.Context) ([]domain.TradeOffer, error) {
	return f.received, f.recvErr
}

func TestAccountService_overviewAggregates(t *testing.T) {
	t.Parallel()

	api := &fakeAccountAPI{
		me:     domain.UserSummary{ID: "u1", Username: "collector"},
		stats:  domain.TradeStats{CompletedTrades: 12},
		unread: 3,
		sent:   []domain.TradeOffer{{ID: "s1"}},
		received: []domain.TradeOffer{
			{ID: "r1", Status: domain.OfferStatusPending},
			{ID: "r2", Status: domain.OfferStatusDeclined},
		},
	}
	svc := NewAccountService(api, discardLogger())

	out, err := svc.Overview(context.Background())
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if out.User.ID != "u1" || out.Unread != 3 || len(out.Sent) != 1 || len(out.Received) != 2 {
		t.Errorf("overview = %+v", out)
	}
	if got := out.PendingReceived(); got != 1 {
		t.Errorf("PendingReceived() = %d, want 1", got)
	}
	if len(out.Partial) != 0 {
		t.Errorf("Partial = %v, want empty", out.Partial)
	}
}

func TestAccountService_overviewDegradesPerPart(t *testing.T) {
	t.Parallel()

	api := &fakeAccountAPI{
		me:        domain.UserSummary{ID: "u1"},
		unreadErr: errors.New("timeout"),
		recvErr:   errors.New("timeout"),
		sent:      []domain.TradeOffer{{ID: "s1"}},
	}
	svc := NewAccountService(api, discardLogger())

	out, err := svc.Overview(context.Background())
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if len(out.Sent) != 1 {
		t.Errorf("healthy part dropped: sent = %v", out.Sent)
	}
	if len(out.Partial) != 2 {
		t.Errorf("Partial = %v, want 2 entries", out.Partial)
	}
}

func TestAccountService_profileFailureIsFatal(t *testing.T) {
	t.Parallel()

	api := &fakeAccountAPI{meErr: errors.New("unauthorized")}
	svc := NewAccountService(api, discardLogger())

	if _, err := svc.Overview(context.Background()); err == nil {
		t.Fatal("expected error when profile fetch fails")
	}
}
